// Package e2e runs queries against a generated blog through the whole stack:
// index.json on disk, the loader, the search engine and the HTTP API.
package e2e

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Post is one blog post of the generated site.
type Post struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary"`
	Date      string   `json:"date"`
	Permalink string   `json:"permalink"`
}

// QueryTestCase is a query and the permalinks of which at least one must be returned.
type QueryTestCase struct {
	Query              string
	ExpectedPermalinks []string
	// Emphasized is a word the teaser of the first expected post must emphasize.
	Emphasized  string
	Description string
}

// Corpus holds the posts of a site and the queries to run against it.
type Corpus struct {
	Posts     []Post
	TestCases []QueryTestCase
}

var topics = []struct {
	title string
	tag   string
	lead  string
	rest  string
}{
	{"Writing a static site generator", "rust", "I finally wrote my own static site generator.", "It renders markdown files, copies assets and writes an index for client side search."},
	{"Search as you type", "javascript", "The search box queries the index on every keystroke.", "Prefix matching keeps results useful while a word is still being typed."},
	{"Teasers that make sense", "search", "A teaser should show why a post matched.", "Windows of words around the matched terms are weighted and the heaviest one wins."},
	{"Porter stemming explained", "nlp", "Stemming strips suffixes so that connected and connecting share a root.", "The Porter algorithm applies its rules in five steps."},
	{"Dark mode without flicker", "css", "Reading the preference before the first paint avoids a white flash.", "A small inline script sets the theme class on the html element."},
	{"Self hosting fonts", "css", "Loading fonts from your own domain removes a third party request.", "Subsetting the glyphs keeps the files small."},
	{"Deploying with rsync", "ops", "Publishing the blog is one rsync command.", "Checksums make sure only changed pages are uploaded."},
	{"Syntax highlighting at build time", "rust", "Highlighting code blocks while building means no javascript for readers.", "Themes are plain CSS classes."},
	{"Feeds still matter", "web", "An Atom feed lets readers follow the blog without an account anywhere.", "Every post gets an entry with its summary."},
	{"Image pipelines", "ops", "Resizing images during the build produces several widths for each picture.", "The browser picks one through srcset."},
	{"Keyboard shortcuts for readers", "javascript", "Pressing slash focuses the search box.", "Escape clears the query and closes the results panel."},
	{"Fuzzy matching typos", "search", "Readers misspell words all the time.", "Allowing one edit for short terms and two for long ones finds most typos."},
	{"Tags and taxonomies", "web", "Tags group posts by subject.", "Each tag page lists its posts newest first."},
	{"Measuring page weight", "web", "The heaviest page on this blog used to be two megabytes.", "Lazy loading images brought it under three hundred kilobytes."},
	{"Accessible navigation", "a11y", "Skip links help keyboard users jump past the header.", "Landmarks let screen readers list the regions of a page."},
	{"Caching headers for static files", "ops", "Fingerprinted assets can be cached forever.", "HTML pages are revalidated on every visit."},
	{"Comments without tracking", "web", "Comments are stored as plain files in the repository.", "A small form opens a pull request for every new comment."},
	{"Sitemaps for crawlers", "web", "The sitemap lists every permalink with its last modification date.", "Crawlers discover new posts faster."},
	{"Reading time estimates", "rust", "Dividing the word count by two hundred gives a rough reading time.", "Code blocks are counted at half speed."},
	{"Internationalised slugs", "nlp", "Slugs keep accented letters by transliterating them.", "Collisions get a numeric suffix."},
}

// BuildCorpus returns n posts cycling through the topics, plus one query per topic.
func BuildCorpus(n int) *Corpus {
	posts := make([]Post, 0, n)
	for i := 0; i < n; i++ {
		t := topics[i%len(topics)]
		title := t.title
		if i >= len(topics) {
			title = fmt.Sprintf("%s (part %d)", t.title, i/len(topics)+1)
		}
		posts = append(posts, Post{
			Title:     title,
			Body:      fmt.Sprintf("<h2>%s</h2><p>%s</p><p>%s</p>", title, t.lead, t.rest),
			Tags:      []string{t.tag},
			Summary:   t.lead,
			Date:      fmt.Sprintf("2023-%02d-%02dT08:00:00Z", i%12+1, i%28+1),
			Permalink: fmt.Sprintf("/posts/%03d/", i+1),
		})
	}
	return &Corpus{Posts: posts, TestCases: buildQueryTestCases(posts)}
}

func buildQueryTestCases(posts []Post) []QueryTestCase {
	queries := []struct{ query, emphasized string }{
		{"static site generator", "static"},
		{"keystroke", "keystroke."},
		{"heaviest window", "heaviest"},
		{"porter algorithm", "Porter"},
		{"flicker", ""},
		{"subsetting glyphs", "Subsetting"},
		{"rsync", "rsync"},
		{"highlighting code", "Highlighting"},
		{"atom feed", "Atom"},
		{"srcset", "srcset."},
		{"escape clears", "Escape"},
		{"misspell", "misspell"},
		{"landmarks screen readers", "Landmarks"},
		{"fingerprinted", "Fingerprinted"},
		{"pull request", "pull"},
		{"crawlers", "Crawlers"},
		{"reading time", "reading"},
		{"transliterating", "transliterating"},
	}
	var cases []QueryTestCase
	for _, q := range queries {
		var expected []string
		for _, p := range posts {
			if containsWords(p, q.query) {
				expected = append(expected, p.Permalink)
			}
		}
		if len(expected) == 0 {
			continue
		}
		cases = append(cases, QueryTestCase{
			Query:              q.query,
			ExpectedPermalinks: expected,
			Emphasized:         q.emphasized,
			Description:        fmt.Sprintf("query %q should return one of %d posts", q.query, len(expected)),
		})
	}
	return cases
}

// containsWords reports whether every word of query occurs, case-insensitively, in the post.
func containsWords(p Post, query string) bool {
	text := strings.ToLower(p.Title + " " + p.Body)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

// IndexJSON encodes the posts the way the site generator writes index.json.
func (c *Corpus) IndexJSON() ([]byte, error) {
	return json.Marshal(c.Posts)
}
