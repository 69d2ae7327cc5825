// Package embedcache layers caches in front of an ai.IEmbedder. The LRU layer
// keeps recent vectors in memory; the store layer persists them in postgres
// so unchanged notes are not re-embedded after a restart.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/xxxsen/griffin/internal/ai"
)

// Store persists vectors keyed by model, task type and content hash.
type Store interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Put(ctx context.Context, modelName, taskType, contentHash string, vec []float32) error
}

type cacheKey struct {
	model       string
	taskType    string
	contentHash string
}

func (k cacheKey) String() string {
	return "embed:" + k.model + ":" + k.taskType + ":" + k.contentHash
}

func newCacheKey(e ai.IEmbedder, taskType, text string) cacheKey {
	model := strings.TrimSpace(e.ModelName())
	if model == "" {
		model = "unknown"
	}
	sum := sha256.Sum256([]byte(text))
	return cacheKey{model: model, taskType: taskType, contentHash: hex.EncodeToString(sum[:])}
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
