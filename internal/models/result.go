package models

// SearchResult represents a single search hit with page metadata and its teaser.
type SearchResult struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Permalink string   `json:"permalink"`
	Summary   string   `json:"summary"`
	Date      string   `json:"date"`
	Tags      []string `json:"tags"`
	Score     float64  `json:"score"`
	// Terms are the index terms that matched in this page.
	Terms  []string `json:"terms"`
	Teaser string   `json:"teaser"`
	Rank   int      `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	// Generation identifies the loaded index the results came from.
	Generation string `json:"generation"`
	// Suggestion is a corrected query offered when nothing matched.
	Suggestion string `json:"suggestion,omitempty"`
	// Cached is true when the response was served from the result cache.
	Cached bool `json:"cached,omitempty"`
}

// TeaserRequest asks for a teaser of an arbitrary body.
type TeaserRequest struct {
	Body  string   `json:"body"`
	Terms []string `json:"terms"`
}

// TeaserResponse carries a generated teaser.
type TeaserResponse struct {
	Teaser string `json:"teaser"`
}
