package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeChatter struct {
	calls   int
	replies []string
	err     error
	deltas  []string
}

func (f *fakeChatter) Chat(ctx context.Context, msgs []Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	idx := f.calls - 1
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	return f.replies[idx], nil
}

func (f *fakeChatter) ChatStream(ctx context.Context, msgs []Message, onDelta DeltaFunc) (string, error) {
	f.calls++
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return "", err
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.replies[0], nil
}

func TestGroupChatterFallsBack(t *testing.T) {
	bad := &fakeChatter{err: errors.New("down")}
	good := &fakeChatter{replies: []string{"ok"}}
	g := NewGroupChatter([]ChatterEntry{{Name: "a", Chatter: bad}, {Name: "b", Chatter: good}})
	out, err := g.Chat(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	require.Equal(t, 1, bad.calls)
}

func TestGroupChatterStreamStopsAfterEmit(t *testing.T) {
	partial := &fakeChatter{deltas: []string{"par"}, err: errors.New("cut")}
	next := &fakeChatter{replies: []string{"full"}}
	g := NewGroupChatter([]ChatterEntry{{Name: "a", Chatter: partial}, {Name: "b", Chatter: next}})
	_, err := g.ChatStream(context.Background(), nil, func(string) error { return nil })
	require.Error(t, err)
	require.Equal(t, 0, next.calls)
}

func TestManagerWithoutChatterIsUnavailable(t *testing.T) {
	m := NewManager(nil, nil, nil, nil, ManagerConfig{})
	_, err := m.Chat(context.Background(), nil)
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = m.Embed(context.Background(), "x", "")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = m.Speech(context.Background(), "", "x")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestManagerCachesTitle(t *testing.T) {
	chat := &fakeChatter{replies: []string{`"Trip planning"`, "other"}}
	m := NewManager(chat, nil, nil, nil, ManagerConfig{CacheSize: 10, CacheTTL: time.Minute})
	title, err := m.GenerateTitle(context.Background(), "let's plan a trip")
	require.NoError(t, err)
	require.Equal(t, "Trip planning", title)
	title, err = m.GenerateTitle(context.Background(), "let's plan a trip")
	require.NoError(t, err)
	require.Equal(t, "Trip planning", title)
	require.Equal(t, 1, chat.calls)
}

func TestManagerDraftQuestions(t *testing.T) {
	chat := &fakeChatter{replies: []string{"```json\n[{\"question\":\"What?\",\"answer\":\"That\"},{\"question\":\"what?\",\"answer\":\"dup\"},{\"question\":\" \",\"answer\":\"x\"}]\n```"}}
	m := NewManager(chat, nil, nil, nil, ManagerConfig{})
	pairs, err := m.DraftQuestions(context.Background(), "note body", 3)
	require.NoError(t, err)
	require.Equal(t, []QAPair{{Question: "What?", Answer: "That"}}, pairs)
}

func TestTruncateInput(t *testing.T) {
	m := NewManager(nil, nil, nil, nil, ManagerConfig{MaxInputChars: 3})
	require.Equal(t, "日本語", m.TruncateInput("日本語です"))
	require.Equal(t, "ab", m.TruncateInput("ab"))
}

func TestTrimHistory(t *testing.T) {
	count := func(s string) int { return len(s) }
	msgs := []Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "aaaaaaaaaa"},
		{Role: "assistant", Content: "bbbbbbbbbb"},
		{Role: "user", Content: "cc"},
	}
	out := TrimHistory(msgs, 3+4+10+4+2+4, count)
	require.Equal(t, []Message{msgs[0], msgs[2], msgs[3]}, out)

	out = TrimHistory(msgs, 1, count)
	require.Equal(t, []Message{msgs[0], msgs[3]}, out)
}

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 0, EstimateTokens(""))
	require.Equal(t, 2, EstimateTokens("hello world"))
	require.Equal(t, 4, EstimateTokens("你好 ok"))
	require.Equal(t, 1, (&TokenCounter{}).Count("x"))
}
