package service

import (
	"context"
	"strings"

	"github.com/xxxsen/griffin/internal/ai"
	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
	"github.com/xxxsen/griffin/internal/pkg/timeutil"
	"github.com/xxxsen/griffin/internal/repo"
)

type QuestionService struct {
	questions *repo.QuestionRepo
	notes     *repo.NoteRepo
	manager   *ai.Manager
}

type QuestionUpdateInput struct {
	Question *string
	Answer   *string
}

func NewQuestionService(questions *repo.QuestionRepo, notes *repo.NoteRepo, manager *ai.Manager) *QuestionService {
	return &QuestionService{questions: questions, notes: notes, manager: manager}
}

func (s *QuestionService) Create(ctx context.Context, userID, noteID, question, answer string) (*model.Question, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.notes.GetByID(ctx, userID, noteID); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	item := model.Question{
		ID:       newID(),
		UserID:   userID,
		NoteID:   noteID,
		Question: question,
		Answer:   strings.TrimSpace(answer),
		Ctime:    now,
		Mtime:    now,
	}
	if err := s.questions.CreateBatch(ctx, []model.Question{item}); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *QuestionService) List(ctx context.Context, userID, noteID string) ([]model.Question, error) {
	if _, err := s.notes.GetByID(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return s.questions.ListByNote(ctx, userID, noteID)
}

func (s *QuestionService) Update(ctx context.Context, userID, id string, input QuestionUpdateInput) (*model.Question, error) {
	item, err := s.questions.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if input.Question != nil {
		q := strings.TrimSpace(*input.Question)
		if q == "" {
			return nil, appErr.ErrInvalid
		}
		item.Question = q
	}
	if input.Answer != nil {
		item.Answer = strings.TrimSpace(*input.Answer)
	}
	item.Mtime = timeutil.NowUnix()
	if err := s.questions.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *QuestionService) Delete(ctx context.Context, userID, id string) error {
	return s.questions.Delete(ctx, userID, id)
}

// Generate drafts question/answer pairs for the note with the chat model and
// stores them.
func (s *QuestionService) Generate(ctx context.Context, userID, noteID string, count int) ([]model.Question, error) {
	note, err := s.notes.GetByID(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(note.ContentText) == "" {
		return nil, appErr.ErrInvalid
	}
	pairs, err := s.manager.DraftQuestions(ctx, note.Title+"\n\n"+note.ContentText, count)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	items := make([]model.Question, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, model.Question{
			ID:       newID(),
			UserID:   userID,
			NoteID:   noteID,
			Question: p.Question,
			Answer:   p.Answer,
			Ctime:    now,
			Mtime:    now,
		})
	}
	if err := s.questions.CreateBatch(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}
