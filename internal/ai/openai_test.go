package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *openAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := createOpenAIFactory(map[string]interface{}{"api_key": "k", "base_url": srv.URL})
	require.NoError(t, err)
	return p.(*openAIProvider)
}

func TestOpenAIChat(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-test", req.Model)
		require.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"  hello  "}}]}`)
	})
	out, err := p.Chat(context.Background(), "gpt-test", []Message{{Role: "system", Content: "s"}, {Role: "user", Content: "hi"}})
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestOpenAIChatStream(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.Stream)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hel", "lo", " there"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, ": keepalive\n\ndata: [DONE]\n\n")
	})
	var deltas []string
	out, err := p.ChatStream(context.Background(), "m", []Message{{Role: "user", Content: "hi"}}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Hello there", out)
	require.Equal(t, []string{"Hel", "lo", " there"}, deltas)
}

func TestOpenAIErrorStatus(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := p.Chat(context.Background(), "m", []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestOpenAIEmbed(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":[{"embedding":[0.1,0.2,0.3]}]}`)
	})
	vec, err := p.Embed(context.Background(), "emb", "text", "")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOpenAISpeech(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/speech", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "alloy", body["voice"])
		_, _ = w.Write([]byte("ID3audio"))
	})
	audio, err := p.Speech(context.Background(), "tts-1", "", "read me")
	require.NoError(t, err)
	require.Equal(t, []byte("ID3audio"), audio.Data)
	require.Equal(t, "audio/mpeg", audio.ContentType)
}

func TestOpenAITranscribe(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "whisper-1", r.FormValue("model"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, "memo.m4a", hdr.Filename)
		data, _ := io.ReadAll(f)
		require.Equal(t, "RIFF", string(data))
		_, _ = io.WriteString(w, `{"text":" buy milk "}`)
	})
	text, err := p.Transcribe(context.Background(), "whisper-1", "memo.m4a", strings.NewReader("RIFF"))
	require.NoError(t, err)
	require.Equal(t, "buy milk", text)
}

func TestOpenAIMissingKeyUnavailable(t *testing.T) {
	p, err := createOpenAIFactory(map[string]interface{}{})
	require.NoError(t, err)
	_, err = p.Chat(context.Background(), "m", nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenRouterHeadersAndNoAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "griffin", r.Header.Get("X-Title"))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()
	p, err := createOpenRouterFactory(map[string]interface{}{"api_key": "k", "base_url": srv.URL, "x_title": "griffin"})
	require.NoError(t, err)
	out, err := p.Chat(context.Background(), "m", []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	require.Equal(t, "ok", out)

	_, err = NewSpeaker(p, "tts")
	require.ErrorIs(t, err, ErrUnsupported)
	_, err = NewTranscriber(p, "whisper")
	require.ErrorIs(t, err, ErrUnsupported)
}
