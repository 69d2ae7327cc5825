package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

type EmbeddingRepo struct {
	db *sql.DB
}

func NewEmbeddingRepo(db *sql.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

func (r *EmbeddingRepo) Save(ctx context.Context, emb *model.NoteEmbedding) error {
	const query = `
		INSERT INTO note_embeddings (note_id, user_id, embedding, content_hash, mtime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (note_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			content_hash = EXCLUDED.content_hash,
			mtime = EXCLUDED.mtime
	`
	_, err := r.db.ExecContext(ctx, query,
		emb.NoteID,
		emb.UserID,
		pgvector.NewVector(emb.Embedding),
		emb.ContentHash,
		emb.Mtime,
	)
	return err
}

func (r *EmbeddingRepo) GetByNoteID(ctx context.Context, noteID string) (*model.NoteEmbedding, error) {
	const query = `SELECT note_id, user_id, embedding, content_hash, mtime FROM note_embeddings WHERE note_id = $1`
	var item model.NoteEmbedding
	var vec pgvector.Vector
	err := r.db.QueryRowContext(ctx, query, noteID).Scan(&item.NoteID, &item.UserID, &vec, &item.ContentHash, &item.Mtime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	item.Embedding = vec.Slice()
	return &item, nil
}

func (r *EmbeddingRepo) DeleteByNote(ctx context.Context, noteID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM note_embeddings WHERE note_id = $1`, noteID)
	return err
}

// ListStaleNotes returns live notes without an embedding or whose embedding
// is older than the note itself.
func (r *EmbeddingRepo) ListStaleNotes(ctx context.Context, limit int) ([]model.Note, error) {
	const query = `
		SELECT n.id, n.user_id, n.title, n.content_text, n.mtime
		FROM notes n
		LEFT JOIN note_embeddings e ON n.id = e.note_id
		WHERE (e.note_id IS NULL OR n.mtime > e.mtime) AND n.state = $1
		ORDER BY n.mtime ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, StateNormal, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	notes := make([]model.Note, 0)
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.ContentText, &n.Mtime); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// SearchSimilar ranks the user's notes by cosine similarity to vec.
func (r *EmbeddingRepo) SearchSimilar(ctx context.Context, userID string, vec []float32, minScore float64, limit int) ([]model.SemanticResult, error) {
	const query = `
		SELECT n.id, n.title, n.notebook_id, n.mtime, 1 - (e.embedding <=> $2) AS score
		FROM note_embeddings e
		JOIN notes n ON n.id = e.note_id
		WHERE e.user_id = $1 AND n.state = $3 AND 1 - (e.embedding <=> $2) >= $4
		ORDER BY e.embedding <=> $2
		LIMIT $5
	`
	rows, err := r.db.QueryContext(ctx, query, userID, pgvector.NewVector(vec), StateNormal, minScore, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	results := make([]model.SemanticResult, 0)
	for rows.Next() {
		var item model.SemanticResult
		if err := rows.Scan(&item.ID, &item.Title, &item.NotebookID, &item.Mtime, &item.Score); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}
