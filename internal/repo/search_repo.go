package repo

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"github.com/xxxsen/griffin/internal/model"
)

// TrigramThreshold is the minimum title similarity that lets a note match on
// trigrams alone when the full-text query does not hit it.
const TrigramThreshold = 0.3

type SearchRepo struct {
	db *sql.DB
}

func NewSearchRepo(db *sql.DB) *SearchRepo {
	return &SearchRepo{db: db}
}

// Search ranks notes by ts_rank over the generated search_vector and by
// trigram similarity of the title. Both scores are returned to the caller.
func (r *SearchRepo) Search(ctx context.Context, userID, query string, limit int) ([]model.SearchResult, error) {
	cleaned := sanitizeQuery(query)
	if cleaned == "" {
		return []model.SearchResult{}, nil
	}
	const sqlStr = `
		SELECT id, title, notebook_id, snippet, rank, sim, mtime FROM (
			SELECT n.id, n.title, n.notebook_id, n.mtime,
				ts_headline('simple', n.content_text, plainto_tsquery('simple', $2),
					'MaxWords=30, MinWords=10, StartSel=<b>, StopSel=</b>') AS snippet,
				ts_rank(n.search_vector, plainto_tsquery('simple', $2)) AS rank,
				similarity(n.title, $2) AS sim,
				n.search_vector @@ plainto_tsquery('simple', $2) AS hit
			FROM notes n
			WHERE n.user_id = $1 AND n.state = $3
		) s
		WHERE s.hit OR s.sim > $4
		ORDER BY s.rank DESC, s.sim DESC, s.mtime DESC
		LIMIT $5
	`
	rows, err := r.db.QueryContext(ctx, sqlStr, userID, cleaned, StateNormal, TrigramThreshold, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	results := make([]model.SearchResult, 0)
	for rows.Next() {
		var item model.SearchResult
		if err := rows.Scan(&item.ID, &item.Title, &item.NotebookID, &item.Snippet, &item.TsRank, &item.TrigramSimilarity, &item.Mtime); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func sanitizeQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	var builder strings.Builder
	for _, r := range input {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
		default:
			builder.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(builder.String()), " ")
}
