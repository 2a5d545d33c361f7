package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/blogsearch/internal/config"
	"github.com/hyperjump/blogsearch/internal/models"
)

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"static site", "-limit", "5"},
			expected: []string{"-limit", "5", "static site"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-limit", "5", "static site"},
			expected: []string{"-limit", "5", "static site"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"static site"},
			expected: []string{"static site"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"rust", "macros", "-output", "json"},
			expected: []string{"-output", "json", "rust", "macros"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("searchArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"fox"}, "fox"},
		{"multiple words", []string{"static", "site"}, "static site"},
		{"single quoted phrase", []string{"static site"}, "static site"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestPrintSearchUsage(t *testing.T) {
	var buf bytes.Buffer
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(&buf)
	fs.String("prefix", "", "match terms as prefixes")
	printSearchUsage(fs)

	out := buf.String()
	if !strings.Contains(out, "Every query word also matches as a prefix") {
		t.Errorf("usage should describe prefix matching for every word:\n%s", out)
	}
	if strings.Contains(out, "last query word") {
		t.Errorf("usage limits prefix matching to the last word:\n%s", out)
	}
}

func TestSearchFlagsToQuery(t *testing.T) {
	q, err := searchFlags{limit: 5, fuzzy: -1, combine: "or"}.toQuery("fox")
	if err != nil {
		t.Fatal(err)
	}
	if q.Fuzzy != nil || q.Prefix != nil {
		t.Errorf("unset flags should leave defaults: %+v", q)
	}
	if q.Limit != 5 || q.CombineWith != "or" {
		t.Errorf("unexpected query: %+v", q)
	}

	q, err = searchFlags{fuzzy: 0, prefix: "false"}.toQuery("fox")
	if err != nil {
		t.Fatal(err)
	}
	if q.Fuzzy == nil || *q.Fuzzy != 0 || q.Prefix == nil || *q.Prefix {
		t.Errorf("explicit flags not applied: %+v", q)
	}

	if _, err := (searchFlags{fuzzy: -1, prefix: "maybe"}).toQuery("fox"); err == nil {
		t.Error("expected error for invalid prefix")
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
index:
  source: ./public/index.json
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_defaultsWithoutFile(t *testing.T) {
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if _, statErr := os.Stat(defaultConfigPath); statErr == nil {
		t.Skip("system config present")
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty", resolved)
	}
	if cfg.Index.Source != "./public/index.json" || cfg.Search.DefaultLimit != 10 {
		t.Errorf("expected built-in defaults, got %+v", cfg)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}

	if _, _, err := loadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestSearchDirect(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "index.json")
	content := `[
  {"title": "Foxes", "body": "<p>The quick brown fox jumps.</p>", "permalink": "/foxes/", "date": "2021-03-04"},
  {"title": "Dogs", "body": "<p>The lazy dog sleeps.</p>", "permalink": "/dogs/"}
]`
	if err := os.WriteFile(index, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("teaser:\n  ellipsis: \"\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	resp, err := searchDirect(configPath, index, &models.SearchQuery{Query: "fox"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Permalink != "/foxes/" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
	if got := resp.Results[0].Teaser; got != "The quick brown <b>fox</b> jumps." {
		t.Errorf("teaser = %q", got)
	}
}

func TestSearchViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/search" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var q models.SearchQuery
		_ = json.NewDecoder(r.Body).Decode(&q)
		_ = json.NewEncoder(w).Encode(models.SearchResponse{Query: q.Query, Total: 1})
	}))
	defer srv.Close()

	resp, err := searchViaHTTP(srv.URL+"/", &models.SearchQuery{Query: "fox"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Query != "fox" || resp.Total != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSearchViaHTTP_errorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"index not loaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := searchViaHTTP(srv.URL, &models.SearchQuery{Query: "fox"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("expected 503 error, got %v", err)
	}
}

func TestTeaserFor(t *testing.T) {
	cfg := config.Default().Teaser
	got := teaserFor(&cfg, "the quick brown fox jumps.", []string{"fox"})
	if got != "the quick brown <b>fox</b> jumps.…" {
		t.Errorf("teaserFor = %q", got)
	}
}

func TestWriteStatusText(t *testing.T) {
	var buf bytes.Buffer
	writeStatusText(&buf, &statusResponse{Source: "index.json"})
	if !strings.Contains(buf.String(), "loaded:         false") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	buf.Reset()
	writeStatusText(&buf, &statusResponse{
		Loaded: true, Pages: 3, Generation: "g1", Source: "index.json",
		LoadedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		LastSync:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		LastError: "parse index.json: unexpected EOF",
	})
	for _, want := range []string{
		"pages:          3",
		"generation:     g1",
		"2024-01-02T03:04:05Z",
		"last_sync:      2024-01-02T03:04:05Z",
		"last_error:     parse index.json: unexpected EOF",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q:\n%s", want, buf.String())
		}
	}
}
