package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/griffin/internal/model"
)

func TestMediaKind(t *testing.T) {
	require.Equal(t, model.MediaKindImage, mediaKind("image/png"))
	require.Equal(t, model.MediaKindAudio, mediaKind("audio/mpeg"))
	require.Equal(t, model.MediaKindFile, mediaKind("application/pdf"))
}

func TestNormalizeContentType(t *testing.T) {
	require.Equal(t, "image/png", normalizeContentType("image/png; charset=binary", "a.png"))
	require.Equal(t, "image/png", normalizeContentType("application/octet-stream", "shot.png"))
	require.Equal(t, "application/octet-stream", normalizeContentType("", "blob"))
}

func TestStorageExt(t *testing.T) {
	require.Equal(t, ".png", storageExt("Photo.PNG"))
	require.Equal(t, "", storageExt("noext"))
	require.Equal(t, "", storageExt("bad.p/g"))
	require.Equal(t, "", storageExt("weird.ext-with-dash"))
}
