// Package search runs queries against the loaded site index and attaches teasers to hits.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/blogsearch/internal/config"
	"github.com/hyperjump/blogsearch/internal/keyword"
	"github.com/hyperjump/blogsearch/internal/models"
	"github.com/hyperjump/blogsearch/internal/teaser"
	"go.uber.org/zap"
)

var (
	// ErrNotLoaded is returned when searching before any index was loaded.
	ErrNotLoaded = errors.New("index not loaded")
	// ErrPageNotFound is returned for an unknown page id.
	ErrPageNotFound = errors.New("page not found")
)

// IndexFactory creates an empty keyword index for a new generation.
type IndexFactory func() (keyword.KeywordIndex, error)

// generation is one loaded copy of the site index. It is never mutated after Load.
type generation struct {
	id       string
	pages    map[string]*models.Page
	index    keyword.KeywordIndex
	speller  *keyword.SpellChecker
	loadedAt time.Time
}

// Stats describes the loaded index.
type Stats struct {
	Pages      int       `json:"pages"`
	Generation string    `json:"generation"`
	LoadedAt   time.Time `json:"loaded_at"`
	CacheSize  int       `json:"cache_entries"`
}

// Engine answers search-as-you-type queries.
type Engine struct {
	mu       sync.RWMutex
	current  *generation
	newIndex IndexFactory
	teaser   *teaser.Extractor
	cache    *ResultCache
	config   *config.SearchConfig
	logger   *zap.Logger
}

// NewEngine creates a search engine. newIndex is called once per Load.
func NewEngine(
	newIndex IndexFactory,
	extractor *teaser.Extractor,
	cfg *config.SearchConfig,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = teaser.New()
	}
	return &Engine{
		newIndex: newIndex,
		teaser:   extractor,
		cache:    NewResultCache(cfg.CacheSize),
		config:   cfg,
		logger:   logger,
	}
}

// NewTeaserExtractor builds a teaser extractor from config.
// An unknown stemmer falls back to Porter; config.Validate rejects it earlier.
func NewTeaserExtractor(cfg *config.TeaserConfig) *teaser.Extractor {
	stem, _ := teaser.StemmerByName(cfg.Stemmer)
	return teaser.New(
		teaser.WithMaxWords(cfg.MaxWords),
		teaser.WithWeights(cfg.TermWeight, cfg.FirstWordWeight, cfg.WordWeight),
		teaser.WithEmphasis(cfg.EmphasisOpen, cfg.EmphasisClose),
		teaser.WithEllipsis(cfg.EllipsisOrDefault()),
		teaser.WithEscapeHTML(cfg.EscapeHTMLOrDefault()),
		teaser.WithStemmer(stem),
	)
}

// Load indexes pages into a fresh keyword index and makes it current.
// In-flight searches finish on the previous generation, which is closed afterwards.
func (e *Engine) Load(ctx context.Context, pages []*models.Page) error {
	start := time.Now()
	idx, err := e.newIndex()
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := idx.IndexBatch(ctx, pages); err != nil {
		_ = idx.Close()
		return fmt.Errorf("index pages: %w", err)
	}

	gen := &generation{
		id:       uuid.NewString(),
		pages:    make(map[string]*models.Page, len(pages)),
		index:    idx,
		loadedAt: time.Now(),
	}
	for _, p := range pages {
		gen.pages[p.ID] = p
	}
	if dict, ok := idx.(keyword.TermDictionary); ok && e.config.Suggestions {
		gen.speller = keyword.NewSpellChecker(dict)
	}

	e.mu.Lock()
	old := e.current
	e.current = gen
	e.cache.Purge()
	e.mu.Unlock()

	if old != nil {
		if err := old.index.Close(); err != nil {
			e.logger.Warn("close previous index failed", zap.String("generation", old.id), zap.Error(err))
		}
	}
	e.logger.Info("index loaded",
		zap.Int("pages", len(pages)),
		zap.String("generation", gen.id),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Search runs query against the current generation and returns hits with teasers.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	gen := e.current
	if gen == nil {
		return nil, ErrNotLoaded
	}

	key := cacheKey(gen.id, query)
	if cached, ok := e.cache.Get(key); ok {
		resp := *cached
		resp.Cached = true
		resp.Query = query.Query
		resp.QueryTime = time.Since(startTime).Milliseconds()
		return &resp, nil
	}

	res, err := gen.index.Search(ctx, query.Query, query.Limit, query.Offset, searchOptions(query, e.config))
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	response := &models.SearchResponse{
		Results:    make([]*models.SearchResult, 0, len(res.Hits)),
		Total:      int(res.Total),
		Query:      query.Query,
		Generation: gen.id,
	}
	for i, hit := range res.Hits {
		page, ok := gen.pages[hit.ID]
		if !ok {
			e.logger.Warn("hit for unknown page", zap.String("id", hit.ID), zap.String("generation", gen.id))
			continue
		}
		response.Results = append(response.Results, &models.SearchResult{
			ID:        page.ID,
			Title:     page.Title,
			Permalink: page.Permalink,
			Summary:   page.Summary,
			Date:      page.Date,
			Tags:      page.Tags,
			Score:     hit.Score,
			Terms:     hit.Terms,
			Teaser:    e.teaser.Extract(page.Text, hit.Terms),
			Rank:      query.Offset + i + 1,
		})
	}
	if response.Total == 0 && gen.speller != nil {
		if corrected, ok := gen.speller.SuggestQuery(query.Query); ok {
			response.Suggestion = corrected
		}
	}
	response.QueryTime = time.Since(startTime).Milliseconds()
	e.cache.Set(key, response)

	e.logger.Debug("search",
		zap.String("query", query.Query),
		zap.Int("hits", len(response.Results)),
		zap.Int("total", response.Total),
	)
	return response, nil
}

// Page returns the page with id from the current generation.
func (e *Engine) Page(id string) (*models.Page, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return nil, ErrNotLoaded
	}
	p, ok := e.current.pages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	return p, nil
}

// Teaser builds a teaser for an arbitrary body with the engine's settings.
func (e *Engine) Teaser(body string, terms []string) string {
	return e.teaser.Extract(body, terms)
}

// Stats reports the current generation. ok is false before the first Load.
func (e *Engine) Stats() (stats Stats, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return Stats{}, false
	}
	return Stats{
		Pages:      len(e.current.pages),
		Generation: e.current.id,
		LoadedAt:   e.current.loadedAt,
		CacheSize:  e.cache.Len(),
	}, true
}

// Close releases the current index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	err := e.current.index.Close()
	e.current = nil
	e.cache.Purge()
	return err
}

func cacheKey(gen string, q *models.SearchQuery) string {
	return fmt.Sprintf("%s|%s|%d|%d|%g|%t|%s",
		gen, strings.ToLower(q.Query), q.Limit, q.Offset, *q.Fuzzy, *q.Prefix, q.CombineWith)
}
