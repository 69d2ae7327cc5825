package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type ManagerConfig struct {
	Timeout       int
	MaxInputChars int
	Voice         string
	CacheSize     int
	CacheTTL      time.Duration
}

type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Manager struct {
	chatter     IChatter
	embedder    IEmbedder
	speaker     ISpeaker
	transcriber ITranscriber
	cache       *expirable.LRU[string, string]
	cfg         ManagerConfig
}

func NewManager(
	chatter IChatter,
	embedder IEmbedder,
	speaker ISpeaker,
	transcriber ITranscriber,
	cfg ManagerConfig,
) *Manager {
	m := &Manager{
		chatter:     chatter,
		embedder:    embedder,
		speaker:     speaker,
		transcriber: transcriber,
		cfg:         cfg,
	}
	if cfg.CacheSize > 0 && cfg.CacheTTL > 0 {
		m.cache = expirable.NewLRU[string, string](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return m
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
	}
	return context.WithCancel(ctx)
}

func (m *Manager) Chat(ctx context.Context, msgs []Message) (string, error) {
	if m.chatter == nil {
		return "", fmt.Errorf("chat model not configured: %w", ErrUnavailable)
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	resp, err := m.chatter.Chat(ctx, msgs)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

// ChatStream is not bounded by the per-call timeout; the caller's context
// controls its lifetime.
func (m *Manager) ChatStream(ctx context.Context, msgs []Message, onDelta DeltaFunc) (string, error) {
	if m.chatter == nil {
		return "", fmt.Errorf("chat model not configured: %w", ErrUnavailable)
	}
	return m.chatter.ChatStream(ctx, msgs, onDelta)
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embed model not configured: %w", ErrUnavailable)
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.embedder.Embed(ctx, m.TruncateInput(text), taskType)
}

func (m *Manager) Speech(ctx context.Context, voice string, text string) (*Audio, error) {
	if m.speaker == nil {
		return nil, fmt.Errorf("speech model not configured: %w", ErrUnavailable)
	}
	if voice == "" {
		voice = m.cfg.Voice
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.speaker.Speech(ctx, voice, m.TruncateInput(text))
}

func (m *Manager) Transcribe(ctx context.Context, filename string, r io.Reader) (string, error) {
	if m.transcriber == nil {
		return "", fmt.Errorf("transcribe model not configured: %w", ErrUnavailable)
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.transcriber.Transcribe(ctx, filename, r)
}

// GenerateTitle drafts a short conversation title from its opening message.
func (m *Manager) GenerateTitle(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Write a short title (at most 8 words) for a conversation that starts with the message below.
- Use the same language as the message.
- Output ONLY the title, without quotes.

MESSAGE:
%s`, m.TruncateInput(text))
	title, err := m.cachedChat(ctx, "title", prompt)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(title), `"'`), nil
}

// DraftQuestions asks the model for study question/answer pairs about content.
func (m *Manager) DraftQuestions(ctx context.Context, content string, count int) ([]QAPair, error) {
	if count <= 0 {
		count = 5
	}
	if count > 20 {
		count = 20
	}
	prompt := fmt.Sprintf(`You are a study assistant.
Write %d question and answer pairs that test understanding of the note below.
- Use the same language as the note.
- Return a JSON array of objects with "question" and "answer" keys. No extra text.

NOTE:
%s`, count, m.TruncateInput(content))
	result, err := m.cachedChat(ctx, "questions", prompt)
	if err != nil {
		return nil, err
	}
	return parseQAPairs(result, count)
}

func (m *Manager) cachedChat(ctx context.Context, kind, prompt string) (string, error) {
	key := kind + ":" + hashText(prompt)
	if m.cache != nil {
		if v, ok := m.cache.Get(key); ok {
			return v, nil
		}
	}
	res, err := m.Chat(ctx, []Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", err
	}
	if m.cache != nil {
		m.cache.Add(key, res)
	}
	return res, nil
}

func (m *Manager) TruncateInput(text string) string {
	if m.cfg.MaxInputChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= m.cfg.MaxInputChars {
		return text
	}
	return string(runes[:m.cfg.MaxInputChars])
}

func (m *Manager) CanChat() bool {
	return m != nil && m.chatter != nil
}

func (m *Manager) CanEmbed() bool {
	return m != nil && m.embedder != nil
}

func (m *Manager) MaxInputChars() int {
	return m.cfg.MaxInputChars
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func parseQAPairs(output string, max int) ([]QAPair, error) {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	start := strings.Index(clean, "[")
	end := strings.LastIndex(clean, "]")
	if start >= 0 && end > start {
		clean = clean[start : end+1]
	}
	var pairs []QAPair
	if err := json.Unmarshal([]byte(clean), &pairs); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	out := make([]QAPair, 0, len(pairs))
	seen := make(map[string]bool)
	for _, p := range pairs {
		q := strings.TrimSpace(p.Question)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, QAPair{Question: q, Answer: strings.TrimSpace(p.Answer)})
		if len(out) >= max {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no questions found")
	}
	return out, nil
}
