package service

import (
	"context"
	"strings"

	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
	"github.com/xxxsen/griffin/internal/pkg/timeutil"
	"github.com/xxxsen/griffin/internal/repo"
)

type NotebookService struct {
	notebooks *repo.NotebookRepo
	notes     *repo.NoteRepo
}

type NotebookUpdateInput struct {
	Title    *string
	ParentID *string
}

func NewNotebookService(notebooks *repo.NotebookRepo, notes *repo.NoteRepo) *NotebookService {
	return &NotebookService{notebooks: notebooks, notes: notes}
}

func (s *NotebookService) Create(ctx context.Context, userID, title, parentID string) (*model.Notebook, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, appErr.ErrInvalid
	}
	if parentID != "" {
		if _, err := s.notebooks.GetByID(ctx, userID, parentID); err != nil {
			if appErr.IsNotFound(err) {
				return nil, appErr.ErrInvalid
			}
			return nil, err
		}
	}
	now := timeutil.NowUnix()
	nb := &model.Notebook{
		ID:       newID(),
		UserID:   userID,
		ParentID: parentID,
		Title:    title,
		State:    repo.StateNormal,
		Ctime:    now,
		Mtime:    now,
	}
	if err := s.notebooks.Create(ctx, nb); err != nil {
		return nil, err
	}
	return nb, nil
}

func (s *NotebookService) Get(ctx context.Context, userID, id string) (*model.Notebook, error) {
	return s.notebooks.GetByID(ctx, userID, id)
}

func (s *NotebookService) List(ctx context.Context, userID string) ([]model.Notebook, error) {
	return s.notebooks.List(ctx, userID)
}

func (s *NotebookService) Update(ctx context.Context, userID, id string, input NotebookUpdateInput) (*model.Notebook, error) {
	nb, err := s.notebooks.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, appErr.ErrInvalid
		}
		nb.Title = title
	}
	if input.ParentID != nil && *input.ParentID != nb.ParentID {
		all, err := s.notebooks.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		parents := make(map[string]string, len(all))
		for _, item := range all {
			parents[item.ID] = item.ParentID
		}
		newParent := *input.ParentID
		if newParent != "" {
			if _, ok := parents[newParent]; !ok {
				return nil, appErr.ErrInvalid
			}
		}
		if createsCycle(parents, id, newParent) {
			return nil, appErr.ErrInvalid
		}
		nb.ParentID = newParent
	}
	nb.Mtime = timeutil.NowUnix()
	if err := s.notebooks.Update(ctx, nb); err != nil {
		return nil, err
	}
	return nb, nil
}

func (s *NotebookService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.notebooks.GetByID(ctx, userID, id); err != nil {
		return err
	}
	children, err := s.notebooks.CountChildren(ctx, userID, id)
	if err != nil {
		return err
	}
	notes, err := s.notes.CountByNotebook(ctx, userID, id)
	if err != nil {
		return err
	}
	if children > 0 || notes > 0 {
		return appErr.ErrConflict
	}
	return s.notebooks.Delete(ctx, userID, id, timeutil.NowUnix())
}

func (s *NotebookService) ListNotes(ctx context.Context, userID, id string, limit, offset int) ([]model.Note, error) {
	if _, err := s.notebooks.GetByID(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.notes.List(ctx, userID, repo.NoteFilter{NotebookID: id, Limit: limit, Offset: offset})
}

// createsCycle reports whether moving id under newParent would make id its
// own ancestor. parents maps notebook id to parent id.
func createsCycle(parents map[string]string, id, newParent string) bool {
	seen := make(map[string]bool)
	for cur := newParent; cur != ""; cur = parents[cur] {
		if cur == id || seen[cur] {
			return true
		}
		seen[cur] = true
	}
	return false
}
