package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultEmbeddingCacheMaxDays = 30

type embeddingCachePruner interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// EmbeddingCacheCleanupJob prunes persisted embeddings not refreshed within
// maxDays. Live notes are re-embedded on their next sync, so pruning only
// costs a provider call.
type EmbeddingCacheCleanupJob struct {
	cache   embeddingCachePruner
	maxDays int
	now     func() time.Time
}

func NewEmbeddingCacheCleanupJob(cache embeddingCachePruner, maxDays int) *EmbeddingCacheCleanupJob {
	if maxDays <= 0 {
		maxDays = defaultEmbeddingCacheMaxDays
	}
	return &EmbeddingCacheCleanupJob{cache: cache, maxDays: maxDays, now: time.Now}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.cache == nil {
		return nil
	}
	cutoff := j.now().AddDate(0, 0, -j.maxDays).Unix()
	cnt, err := j.cache.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("embedding cache pruned", zap.Int64("deleted", cnt), zap.Int("max_days", j.maxDays))
	return nil
}
