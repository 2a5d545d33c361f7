// Package models defines core data structures for pages, queries, and search results.
package models

// Page is one record of the site's index.json.
// ID is not part of the file; it is assigned on load from the record's position.
type Page struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary"`
	Date      string   `json:"date"`
	Permalink string   `json:"permalink"`

	// Text is the plain-text body used for teasers. It is derived on load.
	Text string `json:"-"`
}
