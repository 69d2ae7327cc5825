package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/dbutil"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

var notebookFields = []string{"id", "user_id", "parent_id", "title", "state", "ctime", "mtime"}

type NotebookRepo struct {
	db *sql.DB
}

func NewNotebookRepo(db *sql.DB) *NotebookRepo {
	return &NotebookRepo{db: db}
}

func (r *NotebookRepo) Create(ctx context.Context, nb *model.Notebook) error {
	data := map[string]interface{}{
		"id":        nb.ID,
		"user_id":   nb.UserID,
		"parent_id": nb.ParentID,
		"title":     nb.Title,
		"state":     nb.State,
		"ctime":     nb.Ctime,
		"mtime":     nb.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("notebooks", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *NotebookRepo) Update(ctx context.Context, nb *model.Notebook) error {
	where := map[string]interface{}{
		"id":      nb.ID,
		"user_id": nb.UserID,
		"state":   StateNormal,
	}
	update := map[string]interface{}{
		"parent_id": nb.ParentID,
		"title":     nb.Title,
		"mtime":     nb.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("notebooks", where, update)
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

func (r *NotebookRepo) Delete(ctx context.Context, userID, notebookID string, mtime int64) error {
	where := map[string]interface{}{
		"id":      notebookID,
		"user_id": userID,
		"state":   StateNormal,
	}
	update := map[string]interface{}{"state": StateDeleted, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("notebooks", where, update)
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

func (r *NotebookRepo) GetByID(ctx context.Context, userID, notebookID string) (*model.Notebook, error) {
	items, err := r.list(ctx, map[string]interface{}{
		"id":      notebookID,
		"user_id": userID,
		"state":   StateNormal,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *NotebookRepo) List(ctx context.Context, userID string) ([]model.Notebook, error) {
	return r.list(ctx, map[string]interface{}{
		"user_id":  userID,
		"state":    StateNormal,
		"_orderby": "title asc, ctime asc",
	})
}

func (r *NotebookRepo) ListChildren(ctx context.Context, userID, parentID string) ([]model.Notebook, error) {
	return r.list(ctx, map[string]interface{}{
		"user_id":   userID,
		"parent_id": parentID,
		"state":     StateNormal,
		"_orderby":  "title asc",
	})
}

func (r *NotebookRepo) CountChildren(ctx context.Context, userID, parentID string) (int, error) {
	where := map[string]interface{}{
		"user_id":   userID,
		"parent_id": parentID,
		"state":     StateNormal,
	}
	sqlStr, args, err := builder.BuildSelect("notebooks", where, []string{"COUNT(1)"})
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

func (r *NotebookRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Notebook, error) {
	sqlStr, args, err := builder.BuildSelect("notebooks", where, notebookFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Notebook, 0)
	for rows.Next() {
		var nb model.Notebook
		if err := rows.Scan(&nb.ID, &nb.UserID, &nb.ParentID, &nb.Title, &nb.State, &nb.Ctime, &nb.Mtime); err != nil {
			return nil, err
		}
		items = append(items, nb)
	}
	return items, rows.Err()
}
