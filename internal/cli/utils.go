// Package cli formats search results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hyperjump/blogsearch/internal/models"
	"github.com/hyperjump/blogsearch/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// ParseOutputFormat validates a format name. Empty means text.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(s)); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text, compact or json)", s)
	}
}

// Markers are the emphasis markers found in teasers and what to print instead.
type Markers struct {
	Open, Close       string
	NewOpen, NewClose string
}

// DefaultMarkers prints emphasized words as *word*.
var DefaultMarkers = Markers{Open: "<b>", Close: "</b>", NewOpen: "*", NewClose: "*"}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	return WriteSearchResultsWith(w, response, format, DefaultMarkers)
}

// WriteSearchResultsWith is WriteSearchResults with custom teaser markers.
// JSON output keeps teasers as produced.
func WriteSearchResultsWith(w io.Writer, response *models.SearchResponse, format SearchOutputFormat, m Markers) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%d\t%s\t%s\n", r.Rank, r.Permalink, r.Title)
		}
		return nil
	default:
		writeSearchResultsText(w, response, m)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse, m Markers) {
	fmt.Fprintf(w, "\nFound %d results for %q in %dms\n\n", response.Total, response.Query, response.QueryTime)
	if len(response.Results) == 0 && response.Suggestion != "" {
		fmt.Fprintf(w, "Did you mean: %s\n\n", response.Suggestion)
	}
	for _, result := range response.Results {
		writeOneResult(w, result, m)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult, m Markers) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "%d. %s\n", result.Rank, result.Title)
	fmt.Fprintf(w, "   %s", result.Permalink)
	if d := FormatDate(result.Date); d != "" {
		fmt.Fprintf(w, " | %s", d)
	}
	if len(result.Tags) > 0 {
		fmt.Fprintf(w, " | %s", strings.Join(result.Tags, ", "))
	}
	fmt.Fprintln(w)
	if result.Teaser != "" {
		fmt.Fprintf(w, "\n   %s\n", utils.ReplaceMarkers(result.Teaser, m.Open, m.Close, m.NewOpen, m.NewClose))
	} else if result.Summary != "" {
		fmt.Fprintf(w, "\n   %s\n", utils.Truncate(result.Summary, 200))
	}
	fmt.Fprintln(w)
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(response *models.SearchResponse) {
	_ = WriteSearchResults(os.Stdout, response, OutputText)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders a page date like "Jan 2, 2006". Unparseable dates are returned as is.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return s
}
