package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/dbutil"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

var taskFields = []string{"id", "user_id", "note_id", "title", "description", "priority", "status", "due_at", "state", "ctime", "mtime"}

type TaskFilter struct {
	Status    string
	Priority  string
	NoteID    string
	DueBefore int64
	Limit     int
	Offset    int
}

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Create(ctx context.Context, task *model.Task) error {
	data := map[string]interface{}{
		"id":          task.ID,
		"user_id":     task.UserID,
		"note_id":     task.NoteID,
		"title":       task.Title,
		"description": task.Description,
		"priority":    task.Priority,
		"status":      task.Status,
		"due_at":      task.DueAt,
		"state":       task.State,
		"ctime":       task.Ctime,
		"mtime":       task.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("tasks", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TaskRepo) Update(ctx context.Context, task *model.Task) error {
	where := map[string]interface{}{
		"id":      task.ID,
		"user_id": task.UserID,
		"state":   StateNormal,
	}
	update := map[string]interface{}{
		"note_id":     task.NoteID,
		"title":       task.Title,
		"description": task.Description,
		"priority":    task.Priority,
		"status":      task.Status,
		"due_at":      task.DueAt,
		"mtime":       task.Mtime,
	}
	return r.exec(ctx, where, update, true)
}

func (r *TaskRepo) Delete(ctx context.Context, userID, taskID string, mtime int64) error {
	where := map[string]interface{}{
		"id":      taskID,
		"user_id": userID,
		"state":   StateNormal,
	}
	return r.exec(ctx, where, map[string]interface{}{"state": StateDeleted, "mtime": mtime}, true)
}

// ClearNote detaches every task linked to noteID.
func (r *TaskRepo) ClearNote(ctx context.Context, userID, noteID string, mtime int64) error {
	where := map[string]interface{}{
		"user_id": userID,
		"note_id": noteID,
	}
	return r.exec(ctx, where, map[string]interface{}{"note_id": "", "mtime": mtime}, false)
}

func (r *TaskRepo) exec(ctx context.Context, where, update map[string]interface{}, mustAffect bool) error {
	sqlStr, args, err := builder.BuildUpdate("tasks", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if !mustAffect {
		return nil
	}
	return requireAffected(result)
}

func (r *TaskRepo) GetByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	tasks, err := r.query(ctx, map[string]interface{}{
		"id":      taskID,
		"user_id": userID,
		"state":   StateNormal,
	})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &tasks[0], nil
}

func (r *TaskRepo) List(ctx context.Context, userID string, filter TaskFilter) ([]model.Task, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"state":    StateNormal,
		"_orderby": "ctime desc",
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}
	if filter.Priority != "" {
		where["priority"] = filter.Priority
	}
	if filter.NoteID != "" {
		where["note_id"] = filter.NoteID
	}
	if filter.DueBefore > 0 {
		where["due_at >"] = 0
		where["due_at <"] = filter.DueBefore
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset, 100, 500)
	where["_limit"] = []uint{offset, limit}
	return r.query(ctx, where)
}

func (r *TaskRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Task, error) {
	sqlStr, args, err := builder.BuildSelect("tasks", where, taskFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.NoteID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.DueAt, &t.State, &t.Ctime, &t.Mtime); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
