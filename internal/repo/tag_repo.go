package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/dbutil"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

var tagFields = []string{"id", "user_id", "name", "ctime", "mtime"}

type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

func (r *TagRepo) Create(ctx context.Context, tag *model.Tag) error {
	return r.CreateBatch(ctx, []model.Tag{*tag})
}

func (r *TagRepo) CreateBatch(ctx context.Context, tags []model.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, map[string]interface{}{
			"id":      tag.ID,
			"user_id": tag.UserID,
			"name":    tag.Name,
			"ctime":   tag.Ctime,
			"mtime":   tag.Mtime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("tags", rows)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil && dbutil.IsConflict(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *TagRepo) Rename(ctx context.Context, userID, tagID, name string, mtime int64) error {
	where := map[string]interface{}{"id": tagID, "user_id": userID}
	update := map[string]interface{}{"name": name, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("tags", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return requireAffected(result)
}

func (r *TagRepo) Delete(ctx context.Context, userID, tagID string) error {
	where := map[string]interface{}{"id": tagID, "user_id": userID}
	sqlStr, args, err := builder.BuildDelete("tags", where)
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

func (r *TagRepo) GetByID(ctx context.Context, userID, tagID string) (*model.Tag, error) {
	tags, err := r.query(ctx, map[string]interface{}{"id": tagID, "user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &tags[0], nil
}

func (r *TagRepo) List(ctx context.Context, userID string) ([]model.Tag, error) {
	return r.query(ctx, map[string]interface{}{"user_id": userID, "_orderby": "name asc"})
}

func (r *TagRepo) ListByIDs(ctx context.Context, userID string, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	return r.query(ctx, map[string]interface{}{"user_id": userID, "id in": dbutil.StringArgs(ids)})
}

func (r *TagRepo) ListByNames(ctx context.Context, userID string, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return []model.Tag{}, nil
	}
	return r.query(ctx, map[string]interface{}{"user_id": userID, "name in": dbutil.StringArgs(names)})
}

func (r *TagRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Tag, error) {
	sqlStr, args, err := builder.BuildSelect("tags", where, tagFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	tags := make([]model.Tag, 0)
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Ctime, &tag.Mtime); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
