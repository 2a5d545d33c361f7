package search

import (
	"github.com/hyperjump/blogsearch/internal/config"
	"github.com/hyperjump/blogsearch/internal/keyword"
	"github.com/hyperjump/blogsearch/internal/models"
)

// ProcessQuery validates the search query and applies the configured defaults.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	if query.Limit <= 0 && cfg.DefaultLimit > 0 {
		query.Limit = cfg.DefaultLimit
	}
	if err := query.Validate(); err != nil {
		return err
	}
	if cfg.MaxLimit > 0 && query.Limit > cfg.MaxLimit {
		query.Limit = cfg.MaxLimit
	}
	if query.Fuzzy == nil {
		f := cfg.Fuzzy
		query.Fuzzy = &f
	}
	if query.Prefix == nil {
		p := cfg.PrefixOrDefault()
		query.Prefix = &p
	}
	if query.CombineWith == "" {
		query.CombineWith = cfg.CombineWith
		if query.CombineWith == "" {
			query.CombineWith = models.CombineAnd
		}
	}
	return nil
}

// searchOptions maps a processed query onto keyword search options.
func searchOptions(query *models.SearchQuery, cfg *config.SearchConfig) *keyword.SearchOptions {
	return &keyword.SearchOptions{
		TitleBoost:  cfg.TitleBoost,
		Fuzzy:       *query.Fuzzy,
		Prefix:      *query.Prefix,
		CombineWith: query.CombineWith,
	}
}
