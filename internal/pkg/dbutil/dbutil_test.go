package dbutil

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRewritesLimit(t *testing.T) {
	query, args := Finalize("SELECT id FROM notes WHERE user_id = ? LIMIT ?,?", []interface{}{"u1", 10, 20})
	require.Equal(t, "SELECT id FROM notes WHERE user_id = $1 LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"u1", 20, 10}, args)
}

func TestFinalizeWithoutLimit(t *testing.T) {
	query, args := Finalize("UPDATE notes SET title = ? WHERE id = ?", []interface{}{"t", "n1"})
	require.Equal(t, "UPDATE notes SET title = $1 WHERE id = $2", query)
	require.Len(t, args, 2)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.True(t, IsConflict(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(nil))
}
