package job

import (
	"context"

	"github.com/xxxsen/griffin/internal/service"
)

type NoteEmbeddingJob struct {
	embeddings *service.EmbeddingService
	batch      int
}

func NewNoteEmbeddingJob(embeddings *service.EmbeddingService, batch int) *NoteEmbeddingJob {
	return &NoteEmbeddingJob{embeddings: embeddings, batch: batch}
}

func (j *NoteEmbeddingJob) Name() string {
	return "note_embedding_sync"
}

func (j *NoteEmbeddingJob) Run(ctx context.Context) error {
	if j.embeddings == nil {
		return nil
	}
	batch := j.batch
	if batch <= 0 {
		batch = 50
	}
	_, err := j.embeddings.SyncStale(ctx, batch)
	return err
}
