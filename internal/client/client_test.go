package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xxxsen/griffin/internal/model"
)

func writeEnvelope(w http.ResponseWriter, status int, code int, msg string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": code, "msg": msg, "data": data})
}

func TestLoginSetsBearerOnLaterCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			writeEnvelope(w, 200, 0, "", map[string]interface{}{
				"token": "tk",
				"user":  map[string]interface{}{"id": "u1", "email": "a@b.c"},
			})
		case "/api/v1/users/me":
			if r.Header.Get("Authorization") != "Bearer tk" {
				writeEnvelope(w, 401, 10000002, "unauthorized", nil)
				return
			}
			writeEnvelope(w, 200, 0, "", map[string]interface{}{"id": "u1", "email": "a@b.c"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Me(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 401, apiErr.Status)
	require.Equal(t, 10000002, apiErr.Code)

	res, err := c.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	require.Equal(t, "tk", res.Token)
	c.SetToken(res.Token)
	me, err := c.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "u1", me.ID)
}

func TestNonZeroCodeIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, 10000005, "conflict", nil)
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListNotebooks(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 10000005, apiErr.Code)
	require.Equal(t, "conflict", apiErr.Msg)
}

func TestSettled(t *testing.T) {
	items := []model.ConversationItem{
		{ID: "a", Seq: 1, Status: model.ItemStatusCompleted},
		{ID: "b", Seq: 2, Status: model.ItemStatusCompleted},
		{ID: "c", Seq: 3, Status: model.ItemStatusPending},
		{ID: "d", Seq: 4, Status: model.ItemStatusCompleted},
	}
	out, after := settled(items, 0)
	require.Len(t, out, 2)
	require.Equal(t, int64(2), after)

	out, after = settled(items, 2)
	require.Empty(t, out)
	require.Equal(t, int64(2), after)
}

func TestPollConversationStopsOnCompleted(t *testing.T) {
	var calls, inflight, overlap int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&inflight, 1) > 1 {
			atomic.StoreInt32(&overlap, 1)
		}
		defer atomic.AddInt32(&inflight, -1)
		n := atomic.AddInt32(&calls, 1)
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		time.Sleep(15 * time.Millisecond)
		user := model.ConversationItem{ID: "u", Seq: 1, Role: model.RoleUser, Status: model.ItemStatusCompleted}
		reply := model.ConversationItem{ID: "r", Seq: 2, Role: model.RoleAssistant, Status: model.ItemStatusPending}
		completed := false
		if n >= 3 {
			reply.Status = model.ItemStatusCompleted
			reply.Content = "hi"
			completed = true
		}
		var items []model.ConversationItem
		for _, it := range []model.ConversationItem{user, reply} {
			if it.Seq > after {
				items = append(items, it)
			}
		}
		writeEnvelope(w, 200, 0, "", model.ConversationPoll{Items: items, Completed: completed})
	}))
	defer srv.Close()

	c := New(srv.URL, WithPollInterval(5*time.Millisecond))
	var got []model.ConversationItem
	cursor, err := c.PollConversation(context.Background(), "c1", 0, func(items []model.ConversationItem) {
		got = append(got, items...)
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), cursor)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Equal(t, int32(0), atomic.LoadInt32(&overlap))
	require.Len(t, got, 2)
	require.Equal(t, "u", got[0].ID)
	require.Equal(t, "hi", got[1].Content)
}

func TestPollConversationStopsOnError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeEnvelope(w, 200, 0, "", model.ConversationPoll{Items: []model.ConversationItem{}})
			return
		}
		writeEnvelope(w, 500, 10000000, "boom", nil)
	}))
	defer srv.Close()

	c := New(srv.URL, WithPollInterval(time.Millisecond))
	_, err := c.PollConversation(context.Background(), "c1", 0, nil)
	require.Error(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPollConversationStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, 0, "", model.ConversationPoll{Items: []model.ConversationItem{}})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c := New(srv.URL, WithPollInterval(10*time.Millisecond))
	_, err := c.PollConversation(ctx, "c1", 0, nil)
	require.Error(t, err)
}
