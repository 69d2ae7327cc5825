package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/dbutil"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

var noteFields = []string{"id", "user_id", "notebook_id", "title", "content", "content_text", "pinned", "state", "ctime", "mtime"}

type NoteFilter struct {
	NotebookID string
	NoteIDs    []string
	Pinned     *bool
	Limit      int
	Offset     int
}

type NoteRepo struct {
	db *sql.DB
}

func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

func (r *NoteRepo) Create(ctx context.Context, note *model.Note) error {
	data := map[string]interface{}{
		"id":           note.ID,
		"user_id":      note.UserID,
		"notebook_id":  note.NotebookID,
		"title":        note.Title,
		"content":      note.Content,
		"content_text": note.ContentText,
		"pinned":       note.Pinned,
		"state":        note.State,
		"ctime":        note.Ctime,
		"mtime":        note.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("notes", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil && dbutil.IsForeignKeyViolation(err) {
		return appErr.ErrInvalid
	}
	return err
}

func (r *NoteRepo) Update(ctx context.Context, note *model.Note) error {
	return r.update(ctx, note.UserID, note.ID, map[string]interface{}{
		"notebook_id":  note.NotebookID,
		"title":        note.Title,
		"content":      note.Content,
		"content_text": note.ContentText,
		"mtime":        note.Mtime,
	})
}

func (r *NoteRepo) UpdatePinned(ctx context.Context, userID, noteID string, pinned int, mtime int64) error {
	return r.update(ctx, userID, noteID, map[string]interface{}{"pinned": pinned, "mtime": mtime})
}

func (r *NoteRepo) Touch(ctx context.Context, userID, noteID string, mtime int64) error {
	return r.update(ctx, userID, noteID, map[string]interface{}{"mtime": mtime})
}

func (r *NoteRepo) Delete(ctx context.Context, userID, noteID string, mtime int64) error {
	return r.update(ctx, userID, noteID, map[string]interface{}{"state": StateDeleted, "mtime": mtime})
}

func (r *NoteRepo) update(ctx context.Context, userID, noteID string, update map[string]interface{}) error {
	where := map[string]interface{}{
		"id":      noteID,
		"user_id": userID,
		"state":   StateNormal,
	}
	sqlStr, args, err := builder.BuildUpdate("notes", where, update)
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

func (r *NoteRepo) GetByID(ctx context.Context, userID, noteID string) (*model.Note, error) {
	notes, err := r.query(ctx, map[string]interface{}{
		"id":      noteID,
		"user_id": userID,
		"state":   StateNormal,
	})
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &notes[0], nil
}

func (r *NoteRepo) List(ctx context.Context, userID string, filter NoteFilter) ([]model.Note, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"state":    StateNormal,
		"_orderby": "pinned desc, mtime desc",
	}
	if filter.NotebookID != "" {
		where["notebook_id"] = filter.NotebookID
	}
	if filter.NoteIDs != nil {
		if len(filter.NoteIDs) == 0 {
			return []model.Note{}, nil
		}
		where["id in"] = dbutil.StringArgs(filter.NoteIDs)
	}
	if filter.Pinned != nil {
		pinned := 0
		if *filter.Pinned {
			pinned = 1
		}
		where["pinned"] = pinned
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset, 50, 500)
	where["_limit"] = []uint{offset, limit}
	return r.query(ctx, where)
}

func (r *NoteRepo) ListByIDs(ctx context.Context, userID string, noteIDs []string) ([]model.Note, error) {
	if len(noteIDs) == 0 {
		return []model.Note{}, nil
	}
	return r.query(ctx, map[string]interface{}{
		"user_id": userID,
		"state":   StateNormal,
		"id in":   dbutil.StringArgs(noteIDs),
	})
}

func (r *NoteRepo) CountByNotebook(ctx context.Context, userID, notebookID string) (int, error) {
	where := map[string]interface{}{
		"user_id":     userID,
		"notebook_id": notebookID,
		"state":       StateNormal,
	}
	sqlStr, args, err := builder.BuildSelect("notes", where, []string{"COUNT(1)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var cnt int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *NoteRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Note, error) {
	sqlStr, args, err := builder.BuildSelect("notes", where, noteFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	notes := make([]model.Note, 0)
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.NotebookID, &n.Title, &n.Content, &n.ContentText, &n.Pinned, &n.State, &n.Ctime, &n.Mtime); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
