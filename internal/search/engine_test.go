package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hyperjump/blogsearch/internal/config"
	"github.com/hyperjump/blogsearch/internal/keyword"
	"github.com/hyperjump/blogsearch/internal/models"
	"github.com/hyperjump/blogsearch/internal/teaser"
	"go.uber.org/zap"
)

func bleveFactory() (keyword.KeywordIndex, error) {
	return keyword.NewBleveIndex()
}

func testConfig() *config.SearchConfig {
	return &config.Default().Search
}

func testPages() []*models.Page {
	return []*models.Page{
		{ID: "0", Title: "Building a static site generator", Permalink: "/posts/ssg/",
			Text: "I wrote a static site generator. It renders markdown and builds an index for search.", Tags: []string{"rust"}},
		{ID: "1", Title: "Search as you type", Permalink: "/posts/search/",
			Text: "The widget fetches the index. Every keystroke runs a query and renders teasers for the matching posts.", Tags: []string{"javascript"}},
		{ID: "2", Title: "Foxes", Permalink: "/posts/foxes/",
			Text: "the quick brown fox jumps. the lazy dog sleeps.", Tags: []string{"animals"}},
	}
}

func newTestEngine(t *testing.T, cfg *config.SearchConfig) *Engine {
	t.Helper()
	e := NewEngine(bleveFactory, teaser.New(), cfg, zap.NewNop())
	if err := e.Load(context.Background(), testPages()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_Search(t *testing.T) {
	e := newTestEngine(t, testConfig())
	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "fox"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("total = %d, results = %d", resp.Total, len(resp.Results))
	}
	r := resp.Results[0]
	if r.ID != "2" || r.Permalink != "/posts/foxes/" || r.Rank != 1 {
		t.Errorf("unexpected result: %+v", r)
	}
	want := "the quick brown <b>fox</b> jumps. the lazy dog sleeps."
	if r.Teaser != want {
		t.Errorf("teaser = %q, want %q", r.Teaser, want)
	}
	if resp.Generation == "" {
		t.Error("generation should be set")
	}
}

func TestEngine_SearchAsYouTypePrefix(t *testing.T) {
	e := newTestEngine(t, testConfig())
	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "keystr"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "1" {
		t.Fatalf("results = %+v", resp.Results)
	}
	if !strings.Contains(resp.Results[0].Teaser, "<b>keystroke</b>") {
		t.Errorf("teaser should emphasize the expanded term: %q", resp.Results[0].Teaser)
	}
}

func TestEngine_SearchAndCombination(t *testing.T) {
	e := newTestEngine(t, testConfig())
	ctx := context.Background()

	resp, err := e.Search(ctx, &models.SearchQuery{Query: "index markdown"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "0" {
		t.Errorf("AND results = %+v", resp.Results)
	}

	resp, err = e.Search(ctx, &models.SearchQuery{Query: "index markdown", CombineWith: "or"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("OR results = %d, want 2", len(resp.Results))
	}
}

func TestEngine_SearchCache(t *testing.T) {
	e := newTestEngine(t, testConfig())
	ctx := context.Background()

	first, err := e.Search(ctx, &models.SearchQuery{Query: "fox"})
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first search should not be cached")
	}
	second, err := e.Search(ctx, &models.SearchQuery{Query: "FOX"})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("second search should be served from cache")
	}
	if second.Query != "FOX" || first.Query != "fox" {
		t.Errorf("cached response should echo the caller's query: first %q, second %q", first.Query, second.Query)
	}

	if err := e.Load(ctx, testPages()); err != nil {
		t.Fatal(err)
	}
	third, err := e.Search(ctx, &models.SearchQuery{Query: "fox"})
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached {
		t.Error("reload should invalidate the cache")
	}
	if third.Generation == first.Generation {
		t.Error("reload should start a new generation")
	}
}

func TestEngine_SearchErrors(t *testing.T) {
	e := NewEngine(bleveFactory, nil, testConfig(), nil)
	ctx := context.Background()
	if _, err := e.Search(ctx, &models.SearchQuery{Query: "fox"}); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
	if err := e.Load(ctx, testPages()); err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if _, err := e.Search(ctx, &models.SearchQuery{Query: "  "}); err == nil {
		t.Error("expected error for blank query")
	}
}

func TestEngine_Suggestions(t *testing.T) {
	cfg := testConfig()
	cfg.Suggestions = true
	fuzzyOff := 0.0
	prefixOff := false
	e := newTestEngine(t, cfg)
	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "widgit", Fuzzy: &fuzzyOff, Prefix: &prefixOff})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 {
		t.Fatalf("expected no hits, got %d", resp.Total)
	}
	if resp.Suggestion != "widget" {
		t.Errorf("suggestion = %q, want widget", resp.Suggestion)
	}
}

func TestEngine_PageAndStats(t *testing.T) {
	e := NewEngine(bleveFactory, nil, testConfig(), nil)
	if _, ok := e.Stats(); ok {
		t.Error("stats before load should report not ok")
	}
	if _, err := e.Page("0"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
	if err := e.Load(context.Background(), testPages()); err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	p, err := e.Page("1")
	if err != nil || p.Title != "Search as you type" {
		t.Errorf("Page(1) = %+v, %v", p, err)
	}
	if _, err := e.Page("42"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("expected ErrPageNotFound, got %v", err)
	}
	stats, ok := e.Stats()
	if !ok || stats.Pages != 3 || stats.Generation == "" {
		t.Errorf("stats = %+v, %v", stats, ok)
	}
}

func TestEngine_Teaser(t *testing.T) {
	e := NewEngine(bleveFactory, NewTeaserExtractor(&config.Default().Teaser), testConfig(), nil)
	if got := e.Teaser("a b c d e.", []string{"z"}); got != "a b c d e.…" {
		t.Errorf("Teaser = %q", got)
	}
}

func TestEngine_DefaultConfigEscapesBodyMarkup(t *testing.T) {
	cfg := config.Default()
	e := NewEngine(bleveFactory, NewTeaserExtractor(&cfg.Teaser), &cfg.Search, nil)
	t.Cleanup(func() { _ = e.Close() })
	page := &models.Page{
		ID:        "0",
		Title:     "Escaping",
		Permalink: "/posts/escaping/",
		Text:      "Escape <img src=x onerror=alert(1)> before rendering a fox.",
	}
	if err := e.Load(context.Background(), []*models.Page{page}); err != nil {
		t.Fatal(err)
	}
	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "fox"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %d", len(resp.Results))
	}
	want := "Escape &lt;img src=x onerror=alert(1)&gt; before rendering a <b>fox.</b>…"
	if got := resp.Results[0].Teaser; got != want {
		t.Errorf("Teaser = %q, want %q", got, want)
	}
}

func TestNewTeaserExtractor(t *testing.T) {
	cfg := config.Default().Teaser
	cfg.Stemmer = "snowball"
	cfg.MaxWords = 3
	empty := ""
	cfg.Ellipsis = &empty
	e := NewTeaserExtractor(&cfg)
	if got := e.Extract("one two three foxes five", []string{"fox"}); got != "three <b>foxes</b> five" {
		t.Errorf("Extract = %q", got)
	}
	if e.Options().MaxWords != 3 || e.Options().Ellipsis != "" {
		t.Errorf("options not applied: %+v", e.Options())
	}
}

func TestEngine_ConcurrentSearchAndLoad(t *testing.T) {
	e := newTestEngine(t, testConfig())
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := e.Search(ctx, &models.SearchQuery{Query: "fox"}); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := e.Load(ctx, testPages()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

type failingIndex struct{ keyword.KeywordIndex }

func (failingIndex) IndexBatch(context.Context, []*models.Page) error { return errors.New("boom") }
func (failingIndex) Close() error { return nil }

func TestEngine_LoadFailureKeepsCurrent(t *testing.T) {
	e := newTestEngine(t, testConfig())
	before, _ := e.Stats()
	e.newIndex = func() (keyword.KeywordIndex, error) { return failingIndex{}, nil }
	if err := e.Load(context.Background(), testPages()); err == nil {
		t.Fatal("expected load error")
	}
	after, _ := e.Stats()
	if after.Generation != before.Generation {
		t.Error("failed load should keep the current generation")
	}
}
