// Package siteindex loads the prebuilt index.json written by the site generator.
package siteindex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/blogsearch/internal/extract"
	"github.com/hyperjump/blogsearch/internal/models"
)

const defaultFetchTimeout = 30 * time.Second

// Loader reads index.json from a file path or an http(s) URL.
type Loader struct {
	source    string
	extractor *extract.Extractor
	client    *http.Client
}

// NewLoader creates a loader for source. bodyFormat selects how page bodies are
// turned into plain text (see extract.NewExtractor).
func NewLoader(source, bodyFormat string) (*Loader, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("index source cannot be empty")
	}
	ex, err := extract.NewExtractor(bodyFormat)
	if err != nil {
		return nil, err
	}
	return &Loader{
		source:    source,
		extractor: ex,
		client:    &http.Client{Timeout: defaultFetchTimeout},
	}, nil
}

// Source returns the path or URL the loader reads from.
func (l *Loader) Source() string {
	return l.source
}

// IsRemote reports whether the source is an http(s) URL.
func (l *Loader) IsRemote() bool {
	return isURL(l.source)
}

// Load reads and decodes the index. Pages get their position as ID and a plain-text body.
func (l *Loader) Load(ctx context.Context) ([]*models.Page, error) {
	rc, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return l.Decode(rc)
}

// Decode reads a JSON array of pages from r.
func (l *Loader) Decode(r io.Reader) ([]*models.Page, error) {
	var pages []*models.Page
	if err := json.NewDecoder(r).Decode(&pages); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	out := pages[:0]
	for _, p := range pages {
		if p == nil {
			continue
		}
		out = append(out, p)
	}
	for i, p := range out {
		p.ID = strconv.Itoa(i)
		text, err := l.extractor.Extract(p.Body)
		if err != nil {
			return nil, fmt.Errorf("extract body of %q: %w", p.Permalink, err)
		}
		p.Text = text
	}
	return out, nil
}

func (l *Loader) open(ctx context.Context) (io.ReadCloser, error) {
	if !isURL(l.source) {
		f, err := os.Open(l.source)
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
		return f, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("fetch index: server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return resp.Body, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
