package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "s",
		"database": {"host": "localhost", "user": "griffin", "dbname": "griffin"},
		"file_store": {"type": "local", "data": {"dir": "/tmp/griffin"}},
		"ai": {
			"providers": [{"name": "main", "type": "openai", "data": {"api_key": "k"}}],
			"chat": ["main:gpt-4o-mini"],
			"embed": ["main:text-embedding-3-small"]
		}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 72, cfg.JWTTTLHours)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 4, cfg.Conversation.Workers)
	require.Equal(t, "*/5 * * * *", cfg.Jobs.ConversationReaper)
	require.Equal(t, int64(20*1024*1024), cfg.UploadMaxBytes)
}

func TestLoadRequiresSecret(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "database": {"host": "localhost"}}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownProviderRef(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "s",
		"database": {"dsn": "postgres://x"},
		"ai": {"providers": [{"name": "main", "type": "openai"}], "chat": ["other:gpt"]}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestSplitModelRef(t *testing.T) {
	provider, model, ok := SplitModelRef("router:meta/llama:free")
	require.True(t, ok)
	require.Equal(t, "router", provider)
	require.Equal(t, "meta/llama:free", model)

	_, _, ok = SplitModelRef("nocolon")
	require.False(t, ok)
}
