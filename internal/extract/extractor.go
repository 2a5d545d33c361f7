// Package extract turns page bodies from the site index into the plain text used for teasers.
package extract

import (
	"errors"
	"fmt"
	"strings"
)

// Body formats understood by Extractor.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// ErrUnsupportedFormat is returned for an unknown body format.
var ErrUnsupportedFormat = errors.New("unsupported body format")

// Extractor extracts plain text from page bodies.
type Extractor struct {
	format string
}

// NewExtractor returns an Extractor for the given body format.
// An empty format means html, which is what the site generator writes.
func NewExtractor(format string) (*Extractor, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "":
		f = FormatHTML
	case FormatHTML, FormatMarkdown, FormatText:
	case "md":
		f = FormatMarkdown
	case "txt", "plain":
		f = FormatText
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &Extractor{format: f}, nil
}

// Format returns the body format this extractor handles.
func (e *Extractor) Format() string {
	return e.format
}

// Extract returns the text content of body with runs of whitespace collapsed to a
// single space, so words are separated by exactly one space.
func (e *Extractor) Extract(body string) (string, error) {
	switch e.format {
	case FormatHTML:
		return extractHTML(body)
	case FormatMarkdown:
		return extractMarkdown([]byte(body))
	default:
		return extractPlain([]byte(body))
	}
}

// PlainText is a convenience for NewExtractor(format) followed by Extract(body).
func PlainText(body, format string) (string, error) {
	e, err := NewExtractor(format)
	if err != nil {
		return "", err
	}
	return e.Extract(body)
}

// collapseSpace joins the whitespace-separated fields of s with single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
