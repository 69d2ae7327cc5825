package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) ModelName() string {
	return "test:embed"
}

type memStore struct {
	items  map[string][]float32
	getErr error
}

func (m *memStore) Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.items[modelName+"|"+taskType+"|"+contentHash]
	return v, ok, nil
}

func (m *memStore) Put(ctx context.Context, modelName, taskType, contentHash string, vec []float32) error {
	m.items[modelName+"|"+taskType+"|"+contentHash] = vec
	return nil
}

func TestLRUCachesByTextAndTask(t *testing.T) {
	next := &countingEmbedder{}
	e := WrapLRU(next, 8, time.Minute)

	first, err := e.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	first[0] = 99

	second, err := e.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, []float32{5, 1}, second)
	require.Equal(t, 1, next.calls)

	_, err = e.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
	require.Equal(t, "test:embed", e.ModelName())
}

func TestWrapLRUDisabled(t *testing.T) {
	next := &countingEmbedder{}
	require.Same(t, next, WrapLRU(next, 0, time.Minute))
}

func TestStoreLayerPersists(t *testing.T) {
	next := &countingEmbedder{}
	store := &memStore{items: map[string][]float32{}}
	e := WrapStore(next, store)

	_, err := e.Embed(context.Background(), "abc", "")
	require.NoError(t, err)
	require.Len(t, store.items, 1)

	again := WrapStore(&countingEmbedder{}, store)
	vec, err := again.Embed(context.Background(), "abc", "")
	require.NoError(t, err)
	require.Equal(t, []float32{3, 1}, vec)
	require.Equal(t, 1, next.calls)
}

func TestStoreReadErrorFallsThrough(t *testing.T) {
	next := &countingEmbedder{}
	e := WrapStore(next, &memStore{items: map[string][]float32{}, getErr: errors.New("db down")})
	vec, err := e.Embed(context.Background(), "ab", "")
	require.NoError(t, err)
	require.Equal(t, []float32{2, 1}, vec)
}

func TestCacheKey(t *testing.T) {
	key := newCacheKey(&countingEmbedder{}, "q", "abc")
	require.Equal(t, "test:embed", key.model)
	require.Len(t, key.contentHash, 64)
	require.Equal(t, "embed:test:embed:q:"+key.contentHash, key.String())
}
