package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuery wraps every validation failure of a SearchQuery.
var ErrInvalidQuery = errors.New("invalid query")

// Ways to combine the terms of a query.
const (
	CombineAnd = "AND"
	CombineOr  = "OR"
)

// SearchQuery represents a search request. Nil pointer fields fall back to the configured defaults.
type SearchQuery struct {
	Query       string   `json:"query"`
	Limit       int      `json:"limit,omitempty"`
	Offset      int      `json:"offset,omitempty"`
	Fuzzy       *float64 `json:"fuzzy,omitempty"`  // edit distance as a fraction of term length
	Prefix      *bool    `json:"prefix,omitempty"` // match terms as prefixes (search as you type)
	CombineWith string   `json:"combine_with,omitempty"`
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is blank or CombineWith is unknown; otherwise trims the
// query, normalizes the limit and offset, and upper-cases CombineWith.
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidQuery)
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Fuzzy != nil && (*q.Fuzzy < 0 || *q.Fuzzy > 1) {
		return fmt.Errorf("%w: fuzzy must be between 0 and 1, got %v", ErrInvalidQuery, *q.Fuzzy)
	}
	switch strings.ToUpper(q.CombineWith) {
	case "":
	case CombineAnd:
		q.CombineWith = CombineAnd
	case CombineOr:
		q.CombineWith = CombineOr
	default:
		return fmt.Errorf("%w: combine_with must be AND or OR, got %q", ErrInvalidQuery, q.CombineWith)
	}
	return nil
}
