package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/dbutil"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

var conversationItemFields = []string{"id", "conversation_id", "user_id", "seq", "role", "content", "status", "error", "ctime", "mtime"}

type ConversationItemRepo struct {
	db *sql.DB
}

func NewConversationItemRepo(db *sql.DB) *ConversationItemRepo {
	return &ConversationItemRepo{db: db}
}

// CreateBatch inserts items in order so that seq follows slice order. A
// second pending item in the same conversation yields ErrConflict.
func (r *ConversationItemRepo) CreateBatch(ctx context.Context, items []model.ConversationItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, item := range items {
		data := map[string]interface{}{
			"id":              item.ID,
			"conversation_id": item.ConversationID,
			"user_id":         item.UserID,
			"role":            item.Role,
			"content":         item.Content,
			"status":          item.Status,
			"error":           item.Error,
			"ctime":           item.Ctime,
			"mtime":           item.Mtime,
		}
		sqlStr, args, err := builder.BuildInsert("conversation_items", []map[string]interface{}{data})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			if dbutil.IsConflict(err) {
				return appErr.ErrConflict
			}
			return err
		}
	}
	return tx.Commit()
}

// Finish moves a pending item to a terminal status. Items that already left
// the pending state are not touched and ErrNotFound is returned.
func (r *ConversationItemRepo) Finish(ctx context.Context, id, status, content, errMsg string, mtime int64) error {
	where := map[string]interface{}{"id": id, "status": model.ItemStatusPending}
	update := map[string]interface{}{
		"status":  status,
		"content": content,
		"error":   errMsg,
		"mtime":   mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("conversation_items", where, update)
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

// ListAfter returns items with seq greater than afterSeq, oldest first.
func (r *ConversationItemRepo) ListAfter(ctx context.Context, userID, conversationID string, afterSeq int64) ([]model.ConversationItem, error) {
	where := map[string]interface{}{
		"user_id":         userID,
		"conversation_id": conversationID,
		"seq >":           afterSeq,
		"_orderby":        "seq asc",
	}
	return r.query(ctx, where)
}

func (r *ConversationItemRepo) ListCompleted(ctx context.Context, conversationID string) ([]model.ConversationItem, error) {
	where := map[string]interface{}{
		"conversation_id": conversationID,
		"status":          model.ItemStatusCompleted,
		"_orderby":        "seq asc",
	}
	return r.query(ctx, where)
}

func (r *ConversationItemRepo) GetByID(ctx context.Context, id string) (*model.ConversationItem, error) {
	items, err := r.query(ctx, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *ConversationItemRepo) CountPending(ctx context.Context, conversationID string) (int, error) {
	where := map[string]interface{}{
		"conversation_id": conversationID,
		"status":          model.ItemStatusPending,
	}
	sqlStr, args, err := builder.BuildSelect("conversation_items", where, []string{"COUNT(1)"})
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

// FailPendingBefore marks items still pending since before cutoff as failed.
func (r *ConversationItemRepo) FailPendingBefore(ctx context.Context, cutoff int64, errMsg string, mtime int64) (int64, error) {
	where := map[string]interface{}{
		"status":  model.ItemStatusPending,
		"ctime <": cutoff,
	}
	update := map[string]interface{}{
		"status": model.ItemStatusFailed,
		"error":  errMsg,
		"mtime":  mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("conversation_items", where, update)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ConversationItemRepo) query(ctx context.Context, where map[string]interface{}) ([]model.ConversationItem, error) {
	sqlStr, args, err := builder.BuildSelect("conversation_items", where, conversationItemFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.ConversationItem, 0)
	for rows.Next() {
		var it model.ConversationItem
		if err := rows.Scan(&it.ID, &it.ConversationID, &it.UserID, &it.Seq, &it.Role, &it.Content, &it.Status, &it.Error, &it.Ctime, &it.Mtime); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
