package service

import (
	"context"
	"strings"

	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
	"github.com/xxxsen/griffin/internal/pkg/timeutil"
	"github.com/xxxsen/griffin/internal/repo"
)

type TaskService struct {
	tasks   *repo.TaskRepo
	history *repo.TaskHistoryRepo
	notes   *repo.NoteRepo
}

type TaskCreateInput struct {
	NoteID      string
	Title       string
	Description string
	Priority    string
	Status      string
	DueAt       int64
}

type TaskUpdateInput struct {
	NoteID      *string
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	DueAt       *int64
}

func NewTaskService(tasks *repo.TaskRepo, history *repo.TaskHistoryRepo, notes *repo.NoteRepo) *TaskService {
	return &TaskService{tasks: tasks, history: history, notes: notes}
}

func (s *TaskService) Create(ctx context.Context, userID string, input TaskCreateInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, appErr.ErrInvalid
	}
	priority := defaultString(input.Priority, model.TaskPriorityMedium)
	status := defaultString(input.Status, model.TaskStatusTodo)
	if !model.IsValidTaskPriority(priority) || !model.IsValidTaskStatus(status) || input.DueAt < 0 {
		return nil, appErr.ErrInvalid
	}
	if err := s.requireNote(ctx, userID, input.NoteID); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	task := &model.Task{
		ID:          newID(),
		UserID:      userID,
		NoteID:      input.NoteID,
		Title:       title,
		Description: input.Description,
		Priority:    priority,
		Status:      status,
		DueAt:       input.DueAt,
		State:       repo.StateNormal,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	if err := s.recordStatus(ctx, task, "", status, now); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*model.Task, error) {
	return s.tasks.GetByID(ctx, userID, taskID)
}

func (s *TaskService) List(ctx context.Context, userID string, filter repo.TaskFilter) ([]model.Task, error) {
	if filter.Status != "" && !model.IsValidTaskStatus(filter.Status) {
		return nil, appErr.ErrInvalid
	}
	if filter.Priority != "" && !model.IsValidTaskPriority(filter.Priority) {
		return nil, appErr.ErrInvalid
	}
	return s.tasks.List(ctx, userID, filter)
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, input TaskUpdateInput) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	prevStatus := task.Status
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, appErr.ErrInvalid
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		if !model.IsValidTaskPriority(*input.Priority) {
			return nil, appErr.ErrInvalid
		}
		task.Priority = *input.Priority
	}
	if input.Status != nil {
		if !model.IsValidTaskStatus(*input.Status) {
			return nil, appErr.ErrInvalid
		}
		task.Status = *input.Status
	}
	if input.DueAt != nil {
		if *input.DueAt < 0 {
			return nil, appErr.ErrInvalid
		}
		task.DueAt = *input.DueAt
	}
	if input.NoteID != nil && *input.NoteID != task.NoteID {
		if err := s.requireNote(ctx, userID, *input.NoteID); err != nil {
			return nil, err
		}
		task.NoteID = *input.NoteID
	}
	now := timeutil.NowUnix()
	task.Mtime = now
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	if task.Status != prevStatus {
		if err := s.recordStatus(ctx, task, prevStatus, task.Status, now); err != nil {
			return nil, err
		}
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	return s.tasks.Delete(ctx, userID, taskID, timeutil.NowUnix())
}

func (s *TaskService) History(ctx context.Context, userID, taskID string) ([]model.TaskStatusHistory, error) {
	if _, err := s.tasks.GetByID(ctx, userID, taskID); err != nil {
		return nil, err
	}
	return s.history.ListByTask(ctx, userID, taskID)
}

func (s *TaskService) recordStatus(ctx context.Context, task *model.Task, from, to string, now int64) error {
	return s.history.Create(ctx, &model.TaskStatusHistory{
		ID:         newID(),
		TaskID:     task.ID,
		UserID:     task.UserID,
		FromStatus: from,
		ToStatus:   to,
		Ctime:      now,
	})
}

func (s *TaskService) requireNote(ctx context.Context, userID, noteID string) error {
	if noteID == "" {
		return nil
	}
	if _, err := s.notes.GetByID(ctx, userID, noteID); err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrInvalid
		}
		return err
	}
	return nil
}

func defaultString(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
