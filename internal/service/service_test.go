package service

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/griffin/internal/ai"
	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
	"github.com/xxxsen/griffin/internal/pkg/testutil"
	"github.com/xxxsen/griffin/internal/repo"
	"github.com/xxxsen/griffin/internal/worker"
)

type echoChatter struct {
	delay time.Duration
}

func (e *echoChatter) Chat(ctx context.Context, msgs []ai.Message) (string, error) {
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "echo: " + msgs[len(msgs)-1].Content, nil
}

func (e *echoChatter) ChatStream(ctx context.Context, msgs []ai.Message, onDelta ai.DeltaFunc) (string, error) {
	out, _ := e.Chat(ctx, msgs)
	for _, part := range strings.SplitAfter(out, " ") {
		if err := onDelta(part); err != nil {
			return "", err
		}
	}
	return out, nil
}

type countingChatter struct {
	echoChatter
	calls atomic.Int32
}

func (c *countingChatter) Chat(ctx context.Context, msgs []ai.Message) (string, error) {
	c.calls.Add(1)
	return c.echoChatter.Chat(ctx, msgs)
}

type env struct {
	ctx       context.Context
	db        *sql.DB
	auth      *AuthService
	notebooks *NotebookService
	notes     *NoteService
	tags      *TagService
	tasks     *TaskService
	convs     *ConversationService
	pool      *worker.Pool
	userID    string
	bookID    string
}

func newEnv(t *testing.T, chatter ai.IChatter) (*env, func()) {
	t.Helper()
	db, cleanup := testutil.OpenTestDB(t)
	noteRepo := repo.NewNoteRepo(db)
	notebookRepo := repo.NewNotebookRepo(db)
	noteTagRepo := repo.NewNoteTagRepo(db)
	tagRepo := repo.NewTagRepo(db)
	taskRepo := repo.NewTaskRepo(db)
	manager := ai.NewManager(chatter, nil, nil, nil, ai.ManagerConfig{Timeout: 5})
	pool := worker.NewPool("test", 2, 4)
	tagSvc := NewTagService(tagRepo, noteTagRepo)
	e := &env{
		ctx:       context.Background(),
		db:        db,
		auth:      NewAuthService(repo.NewUserRepo(db), []byte("secret"), time.Hour, false),
		notebooks: NewNotebookService(notebookRepo, noteRepo),
		notes:     NewNoteService(noteRepo, notebookRepo, noteTagRepo, tagRepo, taskRepo, repo.NewEmbeddingRepo(db), tagSvc),
		tags:      tagSvc,
		tasks:     NewTaskService(taskRepo, repo.NewTaskHistoryRepo(db), noteRepo),
		convs: NewConversationService(repo.NewConversationRepo(db), repo.NewConversationItemRepo(db), noteRepo,
			manager, pool, nil, ConversationConfig{ReplyTimeout: 5 * time.Second, MaxHistoryTokens: 2000}),
		pool: pool,
	}
	user, _, err := e.auth.Signup(e.ctx, "owner@example.com", "secret-pass", "Owner")
	require.NoError(t, err)
	e.userID = user.ID
	nb, err := e.notebooks.Create(e.ctx, e.userID, "Inbox", "")
	require.NoError(t, err)
	e.bookID = nb.ID
	return e, func() {
		pool.Stop()
		cleanup()
	}
}

func TestBuildMessages(t *testing.T) {
	note := &model.Note{Title: "Plan", ContentText: "ship it"}
	items := []model.ConversationItem{
		{Role: model.RoleUser, Content: "hi", Status: model.ItemStatusCompleted},
		{Role: model.RoleAssistant, Content: "", Status: model.ItemStatusFailed},
		{Role: model.RoleAssistant, Content: "hello", Status: model.ItemStatusCompleted},
	}
	msgs := buildMessages("sys", note, items)
	require.Len(t, msgs, 4)
	require.Equal(t, "sys", msgs[0].Content)
	require.Equal(t, model.RoleSystem, msgs[1].Role)
	require.Contains(t, msgs[1].Content, "ship it")
	require.Equal(t, "hi", msgs[2].Content)
	require.Equal(t, "hello", msgs[3].Content)

	require.Len(t, buildMessages("", nil, items), 2)
}

func TestValidEmail(t *testing.T) {
	require.True(t, validEmail("a@b.co"))
	require.False(t, validEmail("nope"))
	require.False(t, validEmail("Name <a@b.co>"))
}

func TestExportFileName(t *testing.T) {
	require.Equal(t, "a_b.md", exportFileName("a/b", "id"))
	require.Equal(t, "id.md", exportFileName("  ", "id"))
}

func TestAuthFlow(t *testing.T) {
	e, cleanup := newEnv(t, nil)
	defer cleanup()

	_, _, err := e.auth.Signup(e.ctx, "OWNER@example.com", "another-pass", "")
	require.ErrorIs(t, err, appErr.ErrConflict)

	_, _, err = e.auth.Login(e.ctx, "owner@example.com", "wrong-pass")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	user, token, err := e.auth.Login(e.ctx, " Owner@Example.com ", "secret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, e.userID, user.ID)

	_, err = e.auth.UpdateMe(e.ctx, e.userID, UpdateMeInput{OldPassword: "bad", NewPassword: "next-pass"})
	require.ErrorIs(t, err, appErr.ErrForbidden)
	name := "Renamed"
	user, err = e.auth.UpdateMe(e.ctx, e.userID, UpdateMeInput{Name: &name, OldPassword: "secret-pass", NewPassword: "next-pass"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", user.Name)
	_, _, err = e.auth.Login(e.ctx, "owner@example.com", "next-pass")
	require.NoError(t, err)
}

func TestNotebookRules(t *testing.T) {
	e, cleanup := newEnv(t, nil)
	defer cleanup()

	child, err := e.notebooks.Create(e.ctx, e.userID, "Child", e.bookID)
	require.NoError(t, err)
	parent := child.ID
	_, err = e.notebooks.Update(e.ctx, e.userID, e.bookID, NotebookUpdateInput{ParentID: &parent})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	require.ErrorIs(t, e.notebooks.Delete(e.ctx, e.userID, e.bookID), appErr.ErrConflict)

	_, err = e.notes.Create(e.ctx, e.userID, NoteCreateInput{NotebookID: child.ID, Title: "n", Content: "x"})
	require.NoError(t, err)
	require.ErrorIs(t, e.notebooks.Delete(e.ctx, e.userID, child.ID), appErr.ErrConflict)
}

func TestNoteTagsAndDelete(t *testing.T) {
	e, cleanup := newEnv(t, nil)
	defer cleanup()

	note, err := e.notes.Create(e.ctx, e.userID, NoteCreateInput{
		NotebookID: e.bookID,
		Title:      "Groceries",
		Content:    "# List\n\n- **milk**\n- eggs",
		TagNames:   []string{"home", "home", " errands "},
	})
	require.NoError(t, err)
	require.Len(t, note.Tags, 2)
	require.NotContains(t, note.ContentText, "**")

	listed, err := e.notes.List(e.ctx, e.userID, NoteListInput{TagID: note.Tags[0].ID})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.ErrorIs(t, e.tags.Delete(e.ctx, e.userID, note.Tags[0].ID), appErr.ErrConflict)

	task, err := e.tasks.Create(e.ctx, e.userID, TaskCreateInput{NoteID: note.ID, Title: "buy"})
	require.NoError(t, err)

	require.NoError(t, e.notes.Delete(e.ctx, e.userID, note.ID))
	_, err = e.notes.Get(e.ctx, e.userID, note.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	task, err = e.tasks.Get(e.ctx, e.userID, task.ID)
	require.NoError(t, err)
	require.Empty(t, task.NoteID)
	require.NoError(t, e.tags.Delete(e.ctx, e.userID, note.Tags[0].ID))
}

func TestTaskStatusHistory(t *testing.T) {
	e, cleanup := newEnv(t, nil)
	defer cleanup()

	task, err := e.tasks.Create(e.ctx, e.userID, TaskCreateInput{Title: "write", Priority: model.TaskPriorityHigh})
	require.NoError(t, err)
	require.Equal(t, model.TaskStatusTodo, task.Status)

	_, err = e.tasks.Create(e.ctx, e.userID, TaskCreateInput{Title: "x", Priority: "whenever"})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	status := model.TaskStatusInProgress
	_, err = e.tasks.Update(e.ctx, e.userID, task.ID, TaskUpdateInput{Status: &status})
	require.NoError(t, err)
	title := "write more"
	_, err = e.tasks.Update(e.ctx, e.userID, task.ID, TaskUpdateInput{Title: &title})
	require.NoError(t, err)

	history, err := e.tasks.History(e.ctx, e.userID, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "", history[0].FromStatus)
	require.Equal(t, model.TaskStatusTodo, history[0].ToStatus)
	require.Equal(t, model.TaskStatusTodo, history[1].FromStatus)
	require.Equal(t, model.TaskStatusInProgress, history[1].ToStatus)
}

func TestConversationSendAndPoll(t *testing.T) {
	e, cleanup := newEnv(t, &echoChatter{delay: 100 * time.Millisecond})
	defer cleanup()

	conv, err := e.convs.Create(e.ctx, e.userID, "", "")
	require.NoError(t, err)

	res, err := e.convs.Send(e.ctx, e.userID, conv.ID, "ping")
	require.NoError(t, err)
	require.Equal(t, model.ItemStatusPending, res.AssistantItem.Status)

	_, err = e.convs.Send(e.ctx, e.userID, conv.ID, "again")
	require.ErrorIs(t, err, appErr.ErrConflict)

	var poll *model.ConversationPoll
	require.Eventually(t, func() bool {
		poll, err = e.convs.Poll(e.ctx, e.userID, conv.ID, 0)
		return err == nil && poll.Completed
	}, 5*time.Second, 50*time.Millisecond)
	require.Len(t, poll.Items, 2)
	require.Equal(t, model.ItemStatusCompleted, poll.Items[1].Status)
	require.Equal(t, "echo: ping", poll.Items[1].Content)

	after, err := e.convs.Poll(e.ctx, e.userID, conv.ID, poll.Items[1].Seq)
	require.NoError(t, err)
	require.Empty(t, after.Items)
	require.True(t, after.Completed)
}

func TestConversationStream(t *testing.T) {
	e, cleanup := newEnv(t, &echoChatter{})
	defer cleanup()

	conv, err := e.convs.Create(e.ctx, e.userID, "chat", "")
	require.NoError(t, err)
	var deltas []string
	item, err := e.convs.Stream(e.ctx, e.userID, conv.ID, "hello there", func(s string) error {
		deltas = append(deltas, s)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, model.ItemStatusCompleted, item.Status)
	require.Equal(t, "echo: hello there", strings.Join(deltas, ""))
	require.Equal(t, "echo: hello there", item.Content)
}

func TestConversationWithoutChatModel(t *testing.T) {
	e, cleanup := newEnv(t, nil)
	defer cleanup()

	conv, err := e.convs.Create(e.ctx, e.userID, "", "")
	require.NoError(t, err)
	_, err = e.convs.Send(e.ctx, e.userID, conv.ID, "ping")
	require.ErrorIs(t, err, ai.ErrUnavailable)
}

func TestReplySkipsItemNoLongerPending(t *testing.T) {
	chatter := &countingChatter{}
	e, cleanup := newEnv(t, chatter)
	defer cleanup()

	conv, err := e.convs.Create(e.ctx, e.userID, "", "")
	require.NoError(t, err)
	conv, _, assistant, err := e.convs.begin(e.ctx, e.userID, conv.ID, "ping")
	require.NoError(t, err)
	require.NoError(t, e.convs.items.Finish(e.ctx, assistant.ID, model.ItemStatusFailed, "", "reply timed out", time.Now().Unix()))

	e.convs.reply(e.ctx, conv, assistant.ID)
	require.Zero(t, chatter.calls.Load())
	item, err := e.convs.items.GetByID(e.ctx, assistant.ID)
	require.NoError(t, err)
	require.Equal(t, model.ItemStatusFailed, item.Status)
	require.Equal(t, "reply timed out", item.Error)
}

func TestReplyExpiredInQueue(t *testing.T) {
	chatter := &countingChatter{}
	e, cleanup := newEnv(t, chatter)
	defer cleanup()

	conv, err := e.convs.Create(e.ctx, e.userID, "", "")
	require.NoError(t, err)
	old := time.Now().Add(-time.Minute).Unix()
	item := model.ConversationItem{
		ID:             newID(),
		ConversationID: conv.ID,
		UserID:         e.userID,
		Role:           model.RoleAssistant,
		Status:         model.ItemStatusPending,
		Ctime:          old,
		Mtime:          old,
	}
	require.NoError(t, e.convs.items.CreateBatch(e.ctx, []model.ConversationItem{item}))

	e.convs.reply(e.ctx, conv, item.ID)
	require.Zero(t, chatter.calls.Load())
	got, err := e.convs.items.GetByID(e.ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, model.ItemStatusFailed, got.Status)
}

func TestReplyDeadlineFromCreation(t *testing.T) {
	svc := &ConversationService{cfg: ConversationConfig{ReplyTimeout: 2 * time.Minute}}
	deadline, ok := svc.replyDeadline(1700000000)
	require.True(t, ok)
	require.Equal(t, time.Unix(1700000120, 0), deadline)

	svc.cfg.ReplyTimeout = 0
	_, ok = svc.replyDeadline(1700000000)
	require.False(t, ok)
}

func TestSemanticSearchInputs(t *testing.T) {
	svc := NewSearchService(nil, nil, ai.NewManager(nil, nil, nil, nil, ai.ManagerConfig{}), 0)
	_, err := svc.Semantic(context.Background(), "u1", "   ", 10)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.Semantic(context.Background(), "u1", "gardening", 10)
	require.ErrorIs(t, err, ai.ErrUnavailable)

	require.Equal(t, defaultSearchLimit, clampLimit(0))
	require.Equal(t, maxSearchLimit, clampLimit(1000))
	require.Equal(t, 7, clampLimit(7))
}
