package model

type SearchResult struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	NotebookID        string  `json:"notebook_id"`
	Snippet           string  `json:"snippet"`
	TsRank            float64 `json:"ts_rank"`
	TrigramSimilarity float64 `json:"trigram_similarity"`
	Mtime             int64   `json:"mtime"`
}

type SemanticResult struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	NotebookID string  `json:"notebook_id"`
	Score      float64 `json:"score"`
	Mtime      int64   `json:"mtime"`
}
