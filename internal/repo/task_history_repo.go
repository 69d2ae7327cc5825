package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/dbutil"
)

type TaskHistoryRepo struct {
	db *sql.DB
}

func NewTaskHistoryRepo(db *sql.DB) *TaskHistoryRepo {
	return &TaskHistoryRepo{db: db}
}

func (r *TaskHistoryRepo) Create(ctx context.Context, item *model.TaskStatusHistory) error {
	data := map[string]interface{}{
		"id":          item.ID,
		"task_id":     item.TaskID,
		"user_id":     item.UserID,
		"from_status": item.FromStatus,
		"to_status":   item.ToStatus,
		"ctime":       item.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("task_status_history", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TaskHistoryRepo) ListByTask(ctx context.Context, userID, taskID string) ([]model.TaskStatusHistory, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"task_id":  taskID,
		"_orderby": "ctime asc, id asc",
	}
	sqlStr, args, err := builder.BuildSelect("task_status_history", where, []string{"id", "task_id", "user_id", "from_status", "to_status", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.TaskStatusHistory, 0)
	for rows.Next() {
		var h model.TaskStatusHistory
		if err := rows.Scan(&h.ID, &h.TaskID, &h.UserID, &h.FromStatus, &h.ToStatus, &h.Ctime); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
