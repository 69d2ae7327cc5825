package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/griffin/internal/config"
)

func TestSplitStatementsSkipsComments(t *testing.T) {
	stmts := splitStatements("-- users\nCREATE TABLE a (id TEXT);\n\n-- notes\nCREATE TABLE b (id TEXT);\n")
	require.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE TABLE b (id TEXT)"}, stmts)
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	content, err := migrationsFS.ReadFile("migrations/0001_init.sql")
	require.NoError(t, err)
	stmts := splitStatements(string(content))
	require.NotEmpty(t, stmts)
	for _, stmt := range stmts {
		require.NotContains(t, stmt, ";")
	}
}

func TestBuildDSN(t *testing.T) {
	require.Equal(t, "postgres://x", BuildDSN(config.DatabaseConfig{DSN: "postgres://x"}))
	require.Equal(t,
		"host=db port=5432 user=u password=p dbname=griffin sslmode=disable",
		BuildDSN(config.DatabaseConfig{Host: "db", User: "u", Password: "p", DBName: "griffin"}),
	)
}
