// Package client is a typed HTTP client for the griffin API. It unwraps the
// {code,msg,data} envelope and reports failures as *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/griffin/internal/model"
)

const DefaultPollInterval = 1000 * time.Millisecond

type APIError struct {
	Status int
	Code   int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d code=%d msg=%s", e.Status, e.Code, e.Msg)
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	pollInterval time.Duration
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// New builds a client for server, e.g. "http://localhost:8080". The
// "/api/v1" prefix is added automatically.
func New(server string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimSuffix(server, "/") + "/api/v1",
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &APIError{Status: resp.StatusCode, Msg: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Code != 0 || resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Msg: env.Msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// Raw performs a request whose response is not an envelope on success, such
// as a note export.
func (c *Client) Raw(ctx context.Context, method, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return nil, &APIError{Status: resp.StatusCode, Code: env.Code, Msg: env.Msg}
	}
	return raw, nil
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (c *Client) Signup(ctx context.Context, email, password, name string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password, "name": name}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListNotebooks(ctx context.Context) ([]model.Notebook, error) {
	var out []model.Notebook
	if err := c.do(ctx, http.MethodGet, "/notebooks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateNotebook(ctx context.Context, title, parentID string) (*model.Notebook, error) {
	var out model.Notebook
	body := map[string]string{"title": title, "parent_id": parentID}
	if err := c.do(ctx, http.MethodPost, "/notebooks", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type Note struct {
	model.Note
	Tags []model.Tag `json:"tags"`
}

type NoteCreate struct {
	NotebookID string   `json:"notebook_id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	TagNames   []string `json:"tag_names,omitempty"`
	Pinned     bool     `json:"pinned,omitempty"`
}

type NoteUpdate struct {
	NotebookID *string  `json:"notebook_id,omitempty"`
	Title      *string  `json:"title,omitempty"`
	Content    *string  `json:"content,omitempty"`
	TagNames   []string `json:"tag_names,omitempty"`
}

func (c *Client) CreateNote(ctx context.Context, in NoteCreate) (*Note, error) {
	var out Note
	if err := c.do(ctx, http.MethodPost, "/notes", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetNote(ctx context.Context, id string) (*Note, error) {
	var out Note
	if err := c.do(ctx, http.MethodGet, "/notes/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateNote(ctx context.Context, id string, in NoteUpdate) (*Note, error) {
	var out Note
	if err := c.do(ctx, http.MethodPatch, "/notes/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExportNote(ctx context.Context, id string) ([]byte, error) {
	return c.Raw(ctx, http.MethodGet, "/notes/"+url.PathEscape(id)+"/export")
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out []model.SearchResult
	if err := c.do(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateConversation(ctx context.Context, title, noteID string) (*model.Conversation, error) {
	var out model.Conversation
	body := map[string]string{"title": title, "note_id": noteID}
	if err := c.do(ctx, http.MethodPost, "/conversations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type SendResult struct {
	UserItem      model.ConversationItem `json:"user_item"`
	AssistantItem model.ConversationItem `json:"assistant_item"`
}

func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*SendResult, error) {
	var out SendResult
	body := map[string]string{"content": content}
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Poll(ctx context.Context, conversationID string, after int64) (*model.ConversationPoll, error) {
	var out model.ConversationPoll
	path := "/conversations/" + url.PathEscape(conversationID) + "/poll?after=" + strconv.FormatInt(after, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
