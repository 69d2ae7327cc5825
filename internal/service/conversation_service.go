package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/griffin/internal/ai"
	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
	"github.com/xxxsen/griffin/internal/pkg/timeutil"
	"github.com/xxxsen/griffin/internal/repo"
	"github.com/xxxsen/griffin/internal/worker"
)

const (
	defaultSystemPrompt = "You are a helpful assistant inside a personal notes app. Answer concisely."
	maxNoteContextChars = 8000
	maxMessageChars     = 20000
)

type ConversationConfig struct {
	ReplyTimeout     time.Duration
	MaxHistoryTokens int
	SystemPrompt     string
}

type ConversationService struct {
	convs   *repo.ConversationRepo
	items   *repo.ConversationItemRepo
	notes   *repo.NoteRepo
	manager *ai.Manager
	pool    *worker.Pool
	counter *ai.TokenCounter
	cfg     ConversationConfig
}

type SendResult struct {
	UserItem      model.ConversationItem `json:"user_item"`
	AssistantItem model.ConversationItem `json:"assistant_item"`
}

func NewConversationService(
	convs *repo.ConversationRepo,
	items *repo.ConversationItemRepo,
	notes *repo.NoteRepo,
	manager *ai.Manager,
	pool *worker.Pool,
	counter *ai.TokenCounter,
	cfg ConversationConfig,
) *ConversationService {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	return &ConversationService{
		convs:   convs,
		items:   items,
		notes:   notes,
		manager: manager,
		pool:    pool,
		counter: counter,
		cfg:     cfg,
	}
}

func (s *ConversationService) Create(ctx context.Context, userID, title, noteID string) (*model.Conversation, error) {
	if noteID != "" {
		if _, err := s.notes.GetByID(ctx, userID, noteID); err != nil {
			if appErr.IsNotFound(err) {
				return nil, appErr.ErrInvalid
			}
			return nil, err
		}
	}
	now := timeutil.NowUnix()
	conv := &model.Conversation{
		ID:     newID(),
		UserID: userID,
		NoteID: noteID,
		Title:  strings.TrimSpace(title),
		State:  repo.StateNormal,
		Ctime:  now,
		Mtime:  now,
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ConversationService) Get(ctx context.Context, userID, id string) (*model.Conversation, error) {
	return s.convs.GetByID(ctx, userID, id)
}

func (s *ConversationService) List(ctx context.Context, userID, noteID string, limit, offset int) ([]model.Conversation, error) {
	return s.convs.List(ctx, userID, noteID, limit, offset)
}

func (s *ConversationService) Rename(ctx context.Context, userID, id, title string) (*model.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, appErr.ErrInvalid
	}
	if err := s.convs.UpdateTitle(ctx, userID, id, title, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return s.convs.GetByID(ctx, userID, id)
}

func (s *ConversationService) Delete(ctx context.Context, userID, id string) error {
	return s.convs.Delete(ctx, userID, id, timeutil.NowUnix())
}

// Send stores the user message and a pending assistant item, then queues
// the reply. It returns as soon as both items are stored. A conversation
// holds at most one pending item, enforced by a partial unique index.
func (s *ConversationService) Send(ctx context.Context, userID, convID, content string) (*SendResult, error) {
	conv, userItem, assistantItem, err := s.begin(ctx, userID, convID, content)
	if err != nil {
		return nil, err
	}
	itemID := assistantItem.ID
	submitErr := s.pool.Submit(itemID, func(poolCtx context.Context) {
		s.reply(poolCtx, conv, itemID)
	})
	if submitErr != nil {
		logutil.GetLogger(ctx).Warn("queue conversation reply failed",
			zap.String("conversation_id", conv.ID), zap.Error(submitErr))
		s.finish(ctx, itemID, "", submitErr)
		switch {
		case errors.Is(submitErr, worker.ErrQueueFull):
			return nil, appErr.ErrTooMany
		default:
			return nil, fmt.Errorf("conversation worker: %w", ai.ErrUnavailable)
		}
	}
	return &SendResult{UserItem: *userItem, AssistantItem: *assistantItem}, nil
}

// Poll returns the items stored after the given seq. Completed is true once
// the conversation has no pending item.
func (s *ConversationService) Poll(ctx context.Context, userID, convID string, after int64) (*model.ConversationPoll, error) {
	if _, err := s.convs.GetByID(ctx, userID, convID); err != nil {
		return nil, err
	}
	if after < 0 {
		after = 0
	}
	items, err := s.items.ListAfter(ctx, userID, convID, after)
	if err != nil {
		return nil, err
	}
	pending, err := s.items.CountPending(ctx, convID)
	if err != nil {
		return nil, err
	}
	return &model.ConversationPoll{Items: items, Completed: pending == 0}, nil
}

// Stream produces the reply inline, forwarding deltas to onDelta, and
// persists the final text. The returned item is in a terminal state.
func (s *ConversationService) Stream(ctx context.Context, userID, convID, content string, onDelta ai.DeltaFunc) (*model.ConversationItem, error) {
	conv, _, assistantItem, err := s.begin(ctx, userID, convID, content)
	if err != nil {
		return nil, err
	}
	msgs, err := s.history(ctx, conv)
	if err != nil {
		s.finish(ctx, assistantItem.ID, "", err)
		return nil, err
	}
	text, streamErr := s.manager.ChatStream(ctx, msgs, onDelta)
	if streamErr == nil && strings.TrimSpace(text) == "" {
		streamErr = errors.New("empty ai response")
	}
	// the client may have gone away; the result is persisted regardless
	s.finish(context.WithoutCancel(ctx), assistantItem.ID, text, streamErr)
	if streamErr == nil {
		s.ensureTitle(context.WithoutCancel(ctx), conv)
	}
	item, err := s.items.GetByID(context.WithoutCancel(ctx), assistantItem.ID)
	if err != nil {
		return nil, err
	}
	return item, streamErr
}

func (s *ConversationService) begin(ctx context.Context, userID, convID, content string) (*model.Conversation, *model.ConversationItem, *model.ConversationItem, error) {
	content = strings.TrimSpace(content)
	if content == "" || len([]rune(content)) > maxMessageChars {
		return nil, nil, nil, appErr.ErrInvalid
	}
	conv, err := s.convs.GetByID(ctx, userID, convID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !s.manager.CanChat() {
		return nil, nil, nil, fmt.Errorf("chat model not configured: %w", ai.ErrUnavailable)
	}
	pending, err := s.items.CountPending(ctx, convID)
	if err != nil {
		return nil, nil, nil, err
	}
	if pending > 0 {
		return nil, nil, nil, appErr.ErrConflict
	}
	now := timeutil.NowUnix()
	userItem := model.ConversationItem{
		ID:             newID(),
		ConversationID: convID,
		UserID:         userID,
		Role:           model.RoleUser,
		Content:        content,
		Status:         model.ItemStatusCompleted,
		Ctime:          now,
		Mtime:          now,
	}
	assistantItem := model.ConversationItem{
		ID:             newID(),
		ConversationID: convID,
		UserID:         userID,
		Role:           model.RoleAssistant,
		Status:         model.ItemStatusPending,
		Ctime:          now,
		Mtime:          now,
	}
	if err := s.items.CreateBatch(ctx, []model.ConversationItem{userItem, assistantItem}); err != nil {
		return nil, nil, nil, err
	}
	if err := s.convs.Touch(ctx, userID, convID, now); err != nil {
		logutil.GetLogger(ctx).Warn("touch conversation failed", zap.String("conversation_id", convID), zap.Error(err))
	}
	return conv, &userItem, &assistantItem, nil
}

func (s *ConversationService) reply(ctx context.Context, conv *model.Conversation, itemID string) {
	logger := logutil.GetLogger(ctx).With(zap.String("conversation_id", conv.ID), zap.String("item_id", itemID))
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		logger.Error("load conversation item failed", zap.Error(err))
		return
	}
	// the reaper may have failed the item while it sat in the queue
	if item.Status != model.ItemStatusPending {
		logger.Warn("conversation item no longer pending, skip reply", zap.String("status", item.Status))
		return
	}
	replyCtx := ctx
	if deadline, ok := s.replyDeadline(item.Ctime); ok {
		if !time.Now().Before(deadline) {
			s.finish(context.WithoutCancel(ctx), itemID, "", context.DeadlineExceeded)
			logger.Warn("conversation reply expired in queue")
			return
		}
		var cancel context.CancelFunc
		replyCtx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}
	msgs, err := s.history(replyCtx, conv)
	if err != nil {
		s.finish(context.WithoutCancel(ctx), itemID, "", err)
		return
	}
	start := time.Now()
	text, err := s.manager.Chat(replyCtx, msgs)
	s.finish(context.WithoutCancel(ctx), itemID, text, err)
	if err != nil {
		logger.Error("conversation reply failed", zap.Error(err))
		return
	}
	logger.Info("conversation reply finished", zap.Duration("duration", time.Since(start)), zap.Int("chars", len(text)))
	s.ensureTitle(replyCtx, conv)
}

// replyDeadline is counted from the item's creation, the same clock the
// reaper uses.
func (s *ConversationService) replyDeadline(ctime int64) (time.Time, bool) {
	if s.cfg.ReplyTimeout <= 0 {
		return time.Time{}, false
	}
	return time.Unix(ctime, 0).Add(s.cfg.ReplyTimeout), true
}

func (s *ConversationService) finish(ctx context.Context, itemID, text string, cause error) {
	status := model.ItemStatusCompleted
	errMsg := ""
	if cause != nil {
		status = model.ItemStatusFailed
		errMsg = cause.Error()
	}
	if err := s.items.Finish(ctx, itemID, status, text, errMsg, timeutil.NowUnix()); err != nil {
		// the reaper may have failed the item first
		logutil.GetLogger(ctx).Warn("finish conversation item failed", zap.String("item_id", itemID), zap.Error(err))
	}
}

func (s *ConversationService) history(ctx context.Context, conv *model.Conversation) ([]ai.Message, error) {
	items, err := s.items.ListCompleted(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	var note *model.Note
	if conv.NoteID != "" {
		note, err = s.notes.GetByID(ctx, conv.UserID, conv.NoteID)
		if err != nil && !appErr.IsNotFound(err) {
			return nil, err
		}
	}
	msgs := buildMessages(s.cfg.SystemPrompt, note, items)
	count := ai.EstimateTokens
	if s.counter != nil {
		count = s.counter.Count
	}
	return ai.TrimHistory(msgs, s.cfg.MaxHistoryTokens, count), nil
}

func (s *ConversationService) ensureTitle(ctx context.Context, conv *model.Conversation) {
	if conv.Title != "" {
		return
	}
	items, err := s.items.ListCompleted(ctx, conv.ID)
	if err != nil {
		return
	}
	first := ""
	for _, item := range items {
		if item.Role == model.RoleUser {
			first = item.Content
			break
		}
	}
	if first == "" {
		return
	}
	title, err := s.manager.GenerateTitle(ctx, first)
	if err != nil || title == "" {
		logutil.GetLogger(ctx).Debug("generate conversation title failed", zap.String("conversation_id", conv.ID), zap.Error(err))
		return
	}
	if err := s.convs.UpdateTitle(ctx, conv.UserID, conv.ID, title, timeutil.NowUnix()); err != nil {
		logutil.GetLogger(ctx).Warn("save conversation title failed", zap.String("conversation_id", conv.ID), zap.Error(err))
	}
}

// buildMessages turns stored items into a chat transcript, prefixed by the
// system prompt and, when the conversation is bound to a note, its text.
func buildMessages(systemPrompt string, note *model.Note, items []model.ConversationItem) []ai.Message {
	msgs := make([]ai.Message, 0, len(items)+2)
	if systemPrompt != "" {
		msgs = append(msgs, ai.Message{Role: model.RoleSystem, Content: systemPrompt})
	}
	if note != nil {
		text := []rune(note.ContentText)
		if len(text) > maxNoteContextChars {
			text = text[:maxNoteContextChars]
		}
		msgs = append(msgs, ai.Message{
			Role:    model.RoleSystem,
			Content: fmt.Sprintf("The user is asking about the note titled %q:\n\n%s", note.Title, string(text)),
		})
	}
	for _, item := range items {
		if item.Status != model.ItemStatusCompleted || strings.TrimSpace(item.Content) == "" {
			continue
		}
		msgs = append(msgs, ai.Message{Role: item.Role, Content: item.Content})
	}
	return msgs
}
