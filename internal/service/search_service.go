package service

import (
	"context"
	"strings"

	"github.com/xxxsen/griffin/internal/ai"
	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
	"github.com/xxxsen/griffin/internal/repo"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type SearchService struct {
	search     *repo.SearchRepo
	embeddings *repo.EmbeddingRepo
	manager    *ai.Manager
	minScore   float64
}

func NewSearchService(search *repo.SearchRepo, embeddings *repo.EmbeddingRepo, manager *ai.Manager, minScore float64) *SearchService {
	return &SearchService{search: search, embeddings: embeddings, manager: manager, minScore: minScore}
}

// Search ranks the user's notes by ts_rank over the search vector and by
// title trigram similarity.
func (s *SearchService) Search(ctx context.Context, userID, query string, limit int) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.SearchResult{}, nil
	}
	return s.search.Search(ctx, userID, query, clampLimit(limit))
}

func (s *SearchService) Semantic(ctx context.Context, userID, query string, limit int) ([]model.SemanticResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErr.ErrInvalid
	}
	vec, err := s.manager.Embed(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return s.embeddings.SearchSimilar(ctx, userID, vec, s.minScore, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}
