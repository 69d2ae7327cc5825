package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrUnavailable = errors.New("ai provider unavailable")
	ErrUnsupported = errors.New("ai operation unsupported by provider")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DeltaFunc receives streamed text fragments. Returning an error aborts the stream.
type DeltaFunc func(delta string) error

type IProvider interface {
	Name() string
	Chat(ctx context.Context, model string, msgs []Message) (string, error)
	ChatStream(ctx context.Context, model string, msgs []Message, onDelta DeltaFunc) (string, error)
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type ISpeechProvider interface {
	Speech(ctx context.Context, model string, voice string, text string) (*Audio, error)
}

type ITranscribeProvider interface {
	Transcribe(ctx context.Context, model string, filename string, r io.Reader) (string, error)
}

type Audio struct {
	Data        []byte
	ContentType string
	Extension   string
}

type IChatter interface {
	Chat(ctx context.Context, msgs []Message) (string, error)
	ChatStream(ctx context.Context, msgs []Message, onDelta DeltaFunc) (string, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type ISpeaker interface {
	Speech(ctx context.Context, voice string, text string) (*Audio, error)
}

type ITranscriber interface {
	Transcribe(ctx context.Context, filename string, r io.Reader) (string, error)
}

type chatter struct {
	provider IProvider
	model    string
}

func NewChatter(p IProvider, model string) IChatter {
	return &chatter{provider: p, model: model}
}

func (c *chatter) Chat(ctx context.Context, msgs []Message) (string, error) {
	return c.provider.Chat(ctx, c.model, msgs)
}

func (c *chatter) ChatStream(ctx context.Context, msgs []Message, onDelta DeltaFunc) (string, error) {
	return c.provider.ChatStream(ctx, c.model, msgs, onDelta)
}

type embedder struct {
	provider IProvider
	model    string
}

func NewEmbedder(p IProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.provider.Name() + ":" + e.model
}

type speaker struct {
	provider ISpeechProvider
	model    string
}

// NewSpeaker binds a provider to a speech model. ErrUnsupported is returned
// when the provider has no speech endpoint.
func NewSpeaker(p IProvider, model string) (ISpeaker, error) {
	sp, ok := p.(ISpeechProvider)
	if !ok {
		return nil, fmt.Errorf("%s speech: %w", p.Name(), ErrUnsupported)
	}
	return &speaker{provider: sp, model: model}, nil
}

func (s *speaker) Speech(ctx context.Context, voice string, text string) (*Audio, error) {
	return s.provider.Speech(ctx, s.model, voice, text)
}

type transcriber struct {
	provider ITranscribeProvider
	model    string
}

func NewTranscriber(p IProvider, model string) (ITranscriber, error) {
	tp, ok := p.(ITranscribeProvider)
	if !ok {
		return nil, fmt.Errorf("%s transcription: %w", p.Name(), ErrUnsupported)
	}
	return &transcriber{provider: tp, model: model}, nil
}

func (t *transcriber) Transcribe(ctx context.Context, filename string, r io.Reader) (string, error) {
	return t.provider.Transcribe(ctx, t.model, filename, r)
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai provider type is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
