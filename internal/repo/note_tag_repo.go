package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/dbutil"
)

type NoteTagRepo struct {
	db *sql.DB
}

func NewNoteTagRepo(db *sql.DB) *NoteTagRepo {
	return &NoteTagRepo{db: db}
}

func (r *NoteTagRepo) AddBatch(ctx context.Context, items []model.NoteTag) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]interface{}{
			"user_id": item.UserID,
			"note_id": item.NoteID,
			"tag_id":  item.TagID,
			"ctime":   item.Ctime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("note_tags", rows)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr+" ON CONFLICT DO NOTHING", args...)
	return err
}

func (r *NoteTagRepo) DeleteByNote(ctx context.Context, userID, noteID string) error {
	where := map[string]interface{}{"user_id": userID, "note_id": noteID}
	sqlStr, args, err := builder.BuildDelete("note_tags", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *NoteTagRepo) ListTagIDs(ctx context.Context, userID, noteID string) ([]string, error) {
	return r.column(ctx, "tag_id", map[string]interface{}{"user_id": userID, "note_id": noteID})
}

func (r *NoteTagRepo) ListNoteIDsByTag(ctx context.Context, userID, tagID string) ([]string, error) {
	return r.column(ctx, "note_id", map[string]interface{}{"user_id": userID, "tag_id": tagID})
}

func (r *NoteTagRepo) CountByTag(ctx context.Context, userID, tagID string) (int, error) {
	// links to soft-deleted notes do not keep a tag alive
	sqlStr, args := dbutil.Finalize(
		"SELECT COUNT(1) FROM note_tags nt JOIN notes n ON n.id = nt.note_id WHERE nt.user_id = ? AND nt.tag_id = ? AND n.state = ?",
		[]interface{}{userID, tagID, StateNormal},
	)
	var cnt int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *NoteTagRepo) column(ctx context.Context, field string, where map[string]interface{}) ([]string, error) {
	sqlStr, args, err := builder.BuildSelect("note_tags", where, []string{field})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
