package filestore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/griffin/internal/config"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "a.txt", strings.NewReader("payload"), 7, "text/plain"))
	rc, err := store.Open(ctx, "a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "payload", string(data))

	require.NoError(t, store.Delete(ctx, "a.txt"))
	_, err = store.Open(ctx, "a.txt")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.NoError(t, store.Delete(ctx, "a.txt"))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	err = store.Save(context.Background(), "../evil", strings.NewReader("x"), 1, "")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = store.Open(context.Background(), "..")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "local"})
	require.Error(t, err)
}

func TestS3RequiresCredentials(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{"bucket": "b"}})
	require.Error(t, err)
	require.Equal(t, "https://minio:9000", normalizeEndpoint("minio:9000"))
	require.Equal(t, "http://minio:9000", normalizeEndpoint("http://minio:9000"))
}
