// Package main is the blogsearch CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/blogsearch/internal/cli"
	"github.com/hyperjump/blogsearch/internal/config"
	"github.com/hyperjump/blogsearch/internal/keyword"
	"github.com/hyperjump/blogsearch/internal/models"
	"github.com/hyperjump/blogsearch/internal/search"
	"github.com/hyperjump/blogsearch/internal/server"
	"github.com/hyperjump/blogsearch/internal/siteindex"
	"github.com/hyperjump/blogsearch/internal/watcher"
	"github.com/hyperjump/blogsearch/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/blogsearch/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists; if neither exists the built-in defaults are used
// and the returned path is empty.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "teaser":
		runTeaser()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("blogsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	indexSource := fs.String("index", "", "index.json path or URL (overrides config)")
	debug := fs.Bool("debug", false, "enable debug logging (reloads, queries, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *indexSource != "" {
		cfg.Index.Source = *indexSource
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("index_source", cfg.Index.Source),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// A missing index is not fatal: the API answers 503 until a reload succeeds.
	if n, err := components.Syncer.Sync(context.Background()); err == nil {
		logger.Info("initial index load", zap.Int("pages", n))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Index.WatchOrDefault() && !components.Loader.IsRemote() {
		syncer := components.Syncer
		watchOpts := []watcher.WatcherOption{
			watcher.WithOnRemove(func(path string) {
				logger.Warn("index file removed; keeping loaded index", zap.String("path", path))
			}),
		}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(cfg.Index.Source, func(path string) {
			if _, err := syncer.Sync(context.Background()); err != nil {
				logger.Warn("watch reload failed", zap.String("path", path), zap.Error(err))
			}
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Warn("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(components.Engine, components.Syncer, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: blogsearch search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Every query word also matches as a prefix, so partial words work as you type.
  • Use --prefix false to match whole words only.
  • Use --combine OR to match pages containing any word instead of all of them.
  • Use --fuzzy 0 to turn off typo tolerance.

Examples:
  blogsearch search static site
  blogsearch search --index public/index.json "rust macros"
  blogsearch search --server http://localhost:8080 --output json fox
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// searchFlags are the search subcommand options.
type searchFlags struct {
	limit   int
	offset  int
	fuzzy   float64
	prefix  string
	combine string
}

// toQuery builds a SearchQuery. A negative fuzzy and an empty prefix mean "use the configured default".
func (f searchFlags) toQuery(q string) (*models.SearchQuery, error) {
	query := &models.SearchQuery{
		Query:       q,
		Limit:       f.limit,
		Offset:      f.offset,
		CombineWith: f.combine,
	}
	if f.fuzzy >= 0 {
		fuzzy := f.fuzzy
		query.Fuzzy = &fuzzy
	}
	switch strings.ToLower(f.prefix) {
	case "":
	case "true", "yes", "1":
		p := true
		query.Prefix = &p
	case "false", "no", "0":
		p := false
		query.Prefix = &p
	default:
		return nil, fmt.Errorf("invalid -prefix %q: want true or false", f.prefix)
	}
	return query, nil
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	indexSource := fs.String("index", "", "index.json path or URL (overrides config)")
	serverURL := fs.String("server", "", "query a running server instead of loading the index")
	var sf searchFlags
	fs.IntVar(&sf.limit, "limit", 0, "number of results (default from config)")
	fs.IntVar(&sf.offset, "offset", 0, "number of results to skip")
	fs.Float64Var(&sf.fuzzy, "fuzzy", -1, "typo tolerance as a fraction of term length (default from config)")
	fs.StringVar(&sf.prefix, "prefix", "", "match terms as prefixes: true or false (default from config)")
	fs.StringVar(&sf.combine, "combine", "", "combine terms with AND or OR (default from config)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	searchQuery, err := sf.toQuery(queryStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, searchQuery)
	} else {
		response, err = searchDirect(*configPath, *indexSource, searchQuery)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// searchDirect loads the index in-process and runs one query.
func searchDirect(configPath, indexSource string, query *models.SearchQuery) (*models.SearchResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if indexSource != "" {
		cfg.Index.Source = indexSource
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	ctx := context.Background()
	if _, err := components.Syncer.Sync(ctx); err != nil {
		return nil, err
	}
	return components.Engine.Search(ctx, query)
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runTeaser() {
	fs := flag.NewFlagSet("teaser", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (teaser section)")
	terms := fs.String("terms", "", "comma-separated query terms")
	maxWords := fs.Int("max-words", 0, "teaser length in words (default from config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *maxWords > 0 {
		cfg.Teaser.MaxWords = *maxWords
	}
	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Read body failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(teaserFor(&cfg.Teaser, strings.TrimRight(string(body), "\r\n"), utils.SplitTerms(*terms)))
}

func teaserFor(cfg *config.TeaserConfig, body string, terms []string) string {
	return search.NewTeaserExtractor(cfg).Extract(body, terms)
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Loaded       bool      `json:"loaded"`
	Pages        int       `json:"pages"`
	Generation   string    `json:"generation"`
	LoadedAt     time.Time `json:"loaded_at"`
	CacheEntries int       `json:"cache_entries"`
	Source       string    `json:"source"`
	LastSync     time.Time `json:"last_sync"`
	LastError    string    `json:"last_error"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	status, err := statusViaHTTP(*serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "source:         %s\n", status.Source)
	if status.LastError != "" {
		fmt.Fprintf(w, "last_error:     %s\n", status.LastError)
	}
	if !status.LastSync.IsZero() {
		fmt.Fprintf(w, "last_sync:      %s\n", status.LastSync.Format(time.RFC3339))
	}
	if !status.Loaded {
		fmt.Fprintln(w, "loaded:         false   # no index loaded yet")
		return
	}
	fmt.Fprintf(w, "pages:          %d\n", status.Pages)
	fmt.Fprintf(w, "generation:     %s\n", status.Generation)
	fmt.Fprintf(w, "loaded_at:      %s\n", status.LoadedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "cache_entries:  %d\n", status.CacheEntries)
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Loader *siteindex.Loader
	Engine *search.Engine
	Syncer *siteindex.Syncer
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	loader, err := siteindex.NewLoader(cfg.Index.Source, cfg.Index.BodyFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loader: %w", err)
	}
	newIndex := func() (keyword.KeywordIndex, error) {
		return keyword.NewBleveIndex()
	}
	engine := search.NewEngine(newIndex, search.NewTeaserExtractor(&cfg.Teaser), &cfg.Search, logger)
	return &Components{
		Loader: loader,
		Engine: engine,
		Syncer: siteindex.NewSyncer(loader, engine, logger),
	}, nil
}

func printUsage() {
	fmt.Println(`blogsearch - Search-as-you-type for static blogs

Usage:
  blogsearch server [flags]           Start the HTTP server
  blogsearch search [flags] <query>   Search the site index
  blogsearch teaser [flags] < body    Print the teaser of a body read from stdin
  blogsearch status [flags]           Show the server's index status
  blogsearch version                  Show version
  blogsearch help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/blogsearch/config.yaml)
  --index string     index.json path or URL (overrides config)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path
  --index string     index.json path or URL (overrides config)
  --server string    Query a running server instead of loading the index
  --limit int        Number of results (default from config)
  --offset int       Number of results to skip
  --fuzzy float      Typo tolerance, 0 disables (default from config)
  --prefix string    Match terms as prefixes: true or false (default from config)
  --combine string   AND or OR (default from config)
  --output string    text, compact or json (default: text)

Teaser Flags:
  --config string    Config file path (teaser section)
  --terms string     Comma-separated query terms
  --max-words int    Teaser length in words (default from config)

Status Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Examples:
  blogsearch server --index public/index.json
  blogsearch search "static site"
  blogsearch search --output json rust
  echo "The quick brown fox jumps." | blogsearch teaser --terms fox
  blogsearch status`)
}
