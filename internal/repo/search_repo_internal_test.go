package repo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeQuery(t *testing.T) {
	require.Equal(t, "", sanitizeQuery("  "))
	require.Equal(t, "foo bar", sanitizeQuery("foo & bar!"))
	require.Equal(t, "c 11 notes", sanitizeQuery("c++11 'notes'"))
}

func TestNormalizePage(t *testing.T) {
	limit, offset := normalizePage(0, -3, 50, 500)
	require.EqualValues(t, 50, limit)
	require.EqualValues(t, 0, offset)
	limit, offset = normalizePage(9000, 10, 50, 500)
	require.EqualValues(t, 500, limit)
	require.EqualValues(t, 10, offset)
}
