package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/dbutil"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

var questionFields = []string{"id", "user_id", "note_id", "question", "answer", "ctime", "mtime"}

type QuestionRepo struct {
	db *sql.DB
}

func NewQuestionRepo(db *sql.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

func (r *QuestionRepo) CreateBatch(ctx context.Context, items []model.Question) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(items))
	for _, q := range items {
		rows = append(rows, map[string]interface{}{
			"id":       q.ID,
			"user_id":  q.UserID,
			"note_id":  q.NoteID,
			"question": q.Question,
			"answer":   q.Answer,
			"ctime":    q.Ctime,
			"mtime":    q.Mtime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("questions", rows)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *QuestionRepo) Update(ctx context.Context, q *model.Question) error {
	where := map[string]interface{}{"id": q.ID, "user_id": q.UserID}
	update := map[string]interface{}{"question": q.Question, "answer": q.Answer, "mtime": q.Mtime}
	sqlStr, args, err := builder.BuildUpdate("questions", where, update)
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

func (r *QuestionRepo) Delete(ctx context.Context, userID, id string) error {
	sqlStr, args, err := builder.BuildDelete("questions", map[string]interface{}{"id": id, "user_id": userID})
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

func (r *QuestionRepo) GetByID(ctx context.Context, userID, id string) (*model.Question, error) {
	items, err := r.query(ctx, map[string]interface{}{"id": id, "user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *QuestionRepo) ListByNote(ctx context.Context, userID, noteID string) ([]model.Question, error) {
	return r.query(ctx, map[string]interface{}{
		"user_id":  userID,
		"note_id":  noteID,
		"_orderby": "ctime asc, id asc",
	})
}

func (r *QuestionRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Question, error) {
	sqlStr, args, err := builder.BuildSelect("questions", where, questionFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Question, 0)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.UserID, &q.NoteID, &q.Question, &q.Answer, &q.Ctime, &q.Mtime); err != nil {
			return nil, err
		}
		items = append(items, q)
	}
	return items, rows.Err()
}
