package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreRoundTripAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s, err := Open(path)
	require.NoError(t, err)

	var token string
	ok, err := s.Get("token", &token)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set("token", "abc"))
	require.NoError(t, s.Set("server", "http://localhost:8080"))

	s2, err := Open(path)
	require.NoError(t, err)
	ok, err = s2.Get("token", &token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", token)

	require.NoError(t, s2.Delete("token"))
	s3, err := Open(path)
	require.NoError(t, err)
	ok, err = s3.Get("token", &token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := Open(path)
	require.Error(t, err)
}
