package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/dbutil"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

var conversationFields = []string{"id", "user_id", "note_id", "title", "state", "ctime", "mtime"}

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Create(ctx context.Context, c *model.Conversation) error {
	data := map[string]interface{}{
		"id":      c.ID,
		"user_id": c.UserID,
		"note_id": c.NoteID,
		"title":   c.Title,
		"state":   c.State,
		"ctime":   c.Ctime,
		"mtime":   c.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("conversations", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ConversationRepo) UpdateTitle(ctx context.Context, userID, id, title string, mtime int64) error {
	return r.update(ctx, userID, id, map[string]interface{}{"title": title, "mtime": mtime})
}

func (r *ConversationRepo) Touch(ctx context.Context, userID, id string, mtime int64) error {
	return r.update(ctx, userID, id, map[string]interface{}{"mtime": mtime})
}

func (r *ConversationRepo) Delete(ctx context.Context, userID, id string, mtime int64) error {
	return r.update(ctx, userID, id, map[string]interface{}{"state": StateDeleted, "mtime": mtime})
}

func (r *ConversationRepo) update(ctx context.Context, userID, id string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": id, "user_id": userID, "state": StateNormal}
	sqlStr, args, err := builder.BuildUpdate("conversations", where, update)
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

func (r *ConversationRepo) GetByID(ctx context.Context, userID, id string) (*model.Conversation, error) {
	items, err := r.query(ctx, map[string]interface{}{"id": id, "user_id": userID, "state": StateNormal})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *ConversationRepo) List(ctx context.Context, userID, noteID string, limit, offset int) ([]model.Conversation, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"state":    StateNormal,
		"_orderby": "mtime desc",
	}
	if noteID != "" {
		where["note_id"] = noteID
	}
	l, o := normalizePage(limit, offset, 50, 200)
	where["_limit"] = []uint{o, l}
	return r.query(ctx, where)
}

func (r *ConversationRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Conversation, error) {
	sqlStr, args, err := builder.BuildSelect("conversations", where, conversationFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Conversation, 0)
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.NoteID, &c.Title, &c.State, &c.Ctime, &c.Mtime); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
