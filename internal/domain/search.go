package domain

// SearchResult is a single web search hit. It exists only for the duration
// of one run and is never persisted. Score is attached by the source ranker.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source,omitempty"` // source domain as reported upstream
	Rank    int    `json:"rank,omitempty"`   // upstream rank, 0 when absent
	Score   int    `json:"-"`
}

// SearchRef is the client-facing projection of a ranked result,
// stripped of internal scoring.
type SearchRef struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Ref strips a result down to its client-facing fields.
func (r SearchResult) Ref() SearchRef {
	return SearchRef{Title: r.Title, URL: r.URL, Snippet: r.Snippet}
}
