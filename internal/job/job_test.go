package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobNames(t *testing.T) {
	require.Equal(t, "note_embedding_sync", NewNoteEmbeddingJob(nil, 0).Name())
	require.Equal(t, "conversation_reaper", NewConversationReaperJob(nil, 0).Name())
	require.Equal(t, "embedding_cache_cleanup", NewEmbeddingCacheCleanupJob(nil, 0).Name())
}

func TestJobsWithoutDepsAreNoop(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, NewNoteEmbeddingJob(nil, 10).Run(ctx))
	require.NoError(t, NewConversationReaperJob(nil, 0).Run(ctx))
	require.NoError(t, NewEmbeddingCacheCleanupJob(nil, 0).Run(ctx))
}

type fakePruner struct {
	cutoff int64
}

func (f *fakePruner) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	f.cutoff = cutoff
	return 3, nil
}

func TestEmbeddingCacheCleanupCutoff(t *testing.T) {
	pruner := &fakePruner{}
	job := NewEmbeddingCacheCleanupJob(pruner, 0)
	job.now = func() time.Time { return time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix(), pruner.cutoff)
}
