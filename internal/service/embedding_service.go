package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/griffin/internal/ai"
	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
	"github.com/xxxsen/griffin/internal/pkg/timeutil"
	"github.com/xxxsen/griffin/internal/repo"
)

type EmbeddingService struct {
	embeddings *repo.EmbeddingRepo
	manager    *ai.Manager
}

func NewEmbeddingService(embeddings *repo.EmbeddingRepo, manager *ai.Manager) *EmbeddingService {
	return &EmbeddingService{embeddings: embeddings, manager: manager}
}

// SyncStale embeds up to limit notes whose embedding is missing or older
// than the note. Notes whose text hash is unchanged only get their mtime
// refreshed. It returns how many notes were brought up to date.
func (s *EmbeddingService) SyncStale(ctx context.Context, limit int) (int, error) {
	logger := logutil.GetLogger(ctx)
	if !s.manager.CanEmbed() {
		logger.Debug("skip embedding sync, no embed model configured")
		return 0, nil
	}
	notes, err := s.embeddings.ListStaleNotes(ctx, limit)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, note := range notes {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := s.syncNote(ctx, note); err != nil {
			if errors.Is(err, ai.ErrUnavailable) {
				return done, err
			}
			logger.Error("embed note failed", zap.String("note_id", note.ID), zap.Error(err))
			continue
		}
		done++
	}
	if len(notes) > 0 {
		logger.Info("note embeddings synced", zap.Int("candidates", len(notes)), zap.Int("synced", done))
	}
	return done, nil
}

func (s *EmbeddingService) syncNote(ctx context.Context, note model.Note) error {
	text := embeddingText(note)
	hash := contentHash(text)
	now := timeutil.NowUnix()
	if now < note.Mtime {
		now = note.Mtime
	}
	existing, err := s.embeddings.GetByNoteID(ctx, note.ID)
	if err != nil && !appErr.IsNotFound(err) {
		return err
	}
	if existing != nil && existing.ContentHash == hash {
		existing.Mtime = now
		return s.embeddings.Save(ctx, existing)
	}
	vec, err := s.manager.Embed(ctx, text, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return err
	}
	return s.embeddings.Save(ctx, &model.NoteEmbedding{
		NoteID:      note.ID,
		UserID:      note.UserID,
		Embedding:   vec,
		ContentHash: hash,
		Mtime:       now,
	})
}

func embeddingText(note model.Note) string {
	return strings.TrimSpace(note.Title + "\n\n" + note.ContentText)
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
