package ai

import (
	"fmt"

	"github.com/xxxsen/griffin/internal/config"
)

// BuildProviders instantiates every configured provider keyed by its name.
func BuildProviders(cfg config.AIConfig) (map[string]IProvider, error) {
	out := make(map[string]IProvider, len(cfg.Providers))
	for _, item := range cfg.Providers {
		p, err := NewProvider(item.Type, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", item.Name, err)
		}
		out[item.Name] = p
	}
	return out, nil
}

func resolve(providers map[string]IProvider, ref string) (IProvider, string, error) {
	name, model, ok := config.SplitModelRef(ref)
	if !ok {
		return nil, "", fmt.Errorf("invalid ai model reference: %q", ref)
	}
	p, ok := providers[name]
	if !ok {
		return nil, "", fmt.Errorf("ai provider %q not found", name)
	}
	return p, model, nil
}

func BuildChatter(providers map[string]IProvider, refs []string) (IChatter, error) {
	items := make([]ChatterEntry, 0, len(refs))
	for _, ref := range refs {
		p, model, err := resolve(providers, ref)
		if err != nil {
			return nil, err
		}
		items = append(items, ChatterEntry{Name: ref, Chatter: NewChatter(p, model)})
	}
	return NewGroupChatter(items), nil
}

func BuildEmbedder(providers map[string]IProvider, refs []string) (IEmbedder, error) {
	items := make([]EmbedderEntry, 0, len(refs))
	for _, ref := range refs {
		p, model, err := resolve(providers, ref)
		if err != nil {
			return nil, err
		}
		items = append(items, EmbedderEntry{Name: ref, Embedder: NewEmbedder(p, model)})
	}
	return NewGroupEmbedder(items), nil
}

func BuildSpeaker(providers map[string]IProvider, ref string) (ISpeaker, error) {
	if ref == "" {
		return nil, nil
	}
	p, model, err := resolve(providers, ref)
	if err != nil {
		return nil, err
	}
	return NewSpeaker(p, model)
}

func BuildTranscriber(providers map[string]IProvider, ref string) (ITranscriber, error) {
	if ref == "" {
		return nil, nil
	}
	p, model, err := resolve(providers, ref)
	if err != nil {
		return nil, err
	}
	return NewTranscriber(p, model)
}
