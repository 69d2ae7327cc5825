package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/dbutil"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

var mediaFields = []string{"id", "user_id", "note_id", "kind", "storage_key", "filename", "content_type", "size", "transcript", "ctime"}

type MediaRepo struct {
	db *sql.DB
}

func NewMediaRepo(db *sql.DB) *MediaRepo {
	return &MediaRepo{db: db}
}

func (r *MediaRepo) Create(ctx context.Context, m *model.Media) error {
	data := map[string]interface{}{
		"id":           m.ID,
		"user_id":      m.UserID,
		"note_id":      m.NoteID,
		"kind":         m.Kind,
		"storage_key":  m.StorageKey,
		"filename":     m.Filename,
		"content_type": m.ContentType,
		"size":         m.Size,
		"transcript":   m.Transcript,
		"ctime":        m.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("media", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *MediaRepo) UpdateTranscript(ctx context.Context, userID, id, transcript string) error {
	where := map[string]interface{}{"id": id, "user_id": userID}
	sqlStr, args, err := builder.BuildUpdate("media", where, map[string]interface{}{"transcript": transcript})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *MediaRepo) Delete(ctx context.Context, userID, id string) error {
	sqlStr, args, err := builder.BuildDelete("media", map[string]interface{}{"id": id, "user_id": userID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *MediaRepo) GetByID(ctx context.Context, userID, id string) (*model.Media, error) {
	items, err := r.query(ctx, map[string]interface{}{"id": id, "user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *MediaRepo) GetByStorageKey(ctx context.Context, key string) (*model.Media, error) {
	items, err := r.query(ctx, map[string]interface{}{"storage_key": key})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *MediaRepo) ListByNote(ctx context.Context, userID, noteID string) ([]model.Media, error) {
	return r.query(ctx, map[string]interface{}{"user_id": userID, "note_id": noteID, "_orderby": "ctime desc"})
}

func (r *MediaRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Media, error) {
	sqlStr, args, err := builder.BuildSelect("media", where, mediaFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Media, 0)
	for rows.Next() {
		var m model.Media
		if err := rows.Scan(&m.ID, &m.UserID, &m.NoteID, &m.Kind, &m.StorageKey, &m.Filename, &m.ContentType, &m.Size, &m.Transcript, &m.Ctime); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
