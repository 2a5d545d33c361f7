// Package keyword provides full-text indexing and search over site pages.
package keyword

import (
	"context"

	"github.com/hyperjump/blogsearch/internal/models"
)

// Indexed fields.
const (
	FieldTitle = "title"
	FieldBody  = "body"
	FieldTags  = "tags"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// TitleBoost multiplies the score contribution from matches in the title field.
	// Use 1.0 (or 0) for no boost.
	TitleBoost float64
	// Fuzzy is the allowed edit distance as a fraction of each term's length.
	// 0 disables fuzzy matching. The resulting distance is capped at 2.
	Fuzzy float64
	// Prefix also matches index terms that start with a query term.
	Prefix bool
	// CombineWith is models.CombineAnd (every term must match) or models.CombineOr.
	CombineWith string
}

// KeywordIndex defines keyword search operations. An index is filled once with
// IndexBatch; reloads build a new index instead of updating one in place.
type KeywordIndex interface {
	IndexBatch(ctx context.Context, pages []*models.Page) error
	Search(ctx context.Context, query string, limit, offset int, opts *SearchOptions) (*SearchResults, error)
	Close() error
	// DocCount returns the total number of pages in the index.
	DocCount() (uint64, error)
}

// SearchResults is a page of keyword hits plus the total number of matches.
type SearchResults struct {
	Hits  []*KeywordResult
	Total uint64
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID    string
	Score float64
	// Terms are the index terms that matched, sorted.
	Terms []string
}

// TermDictionary provides access to the term dictionary for spell checking.
// This interface allows dependency injection for testing.
type TermDictionary interface {
	// Terms returns every indexed term with its document frequency.
	Terms() (map[string]int, error)
}
