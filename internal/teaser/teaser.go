// Package teaser builds short, highlighted excerpts of a page body for search results.
//
// The body is scored word by word: the first word of each sentence and every word
// whose Porter stem starts with a query term stem weigh more than ordinary words.
// The heaviest fixed-size window of consecutive words is then rebuilt from the
// original text, with matched words wrapped in emphasis markers.
package teaser

import (
	"html"
	"strings"
)

const (
	// DefaultMaxWords is the maximum number of words in a teaser.
	DefaultMaxWords = 30
	// DefaultTermWeight is the weight of a word matching a query term.
	DefaultTermWeight = 40
	// DefaultFirstWordWeight is the weight of the first word of a sentence.
	DefaultFirstWordWeight = 8
	// DefaultWordWeight is the weight of any other word.
	DefaultWordWeight = 2
	// DefaultEmphasisOpen and DefaultEmphasisClose wrap matched words.
	DefaultEmphasisOpen  = "<b>"
	DefaultEmphasisClose = "</b>"
)

const (
	sentenceSep = ". "
	wordSep     = " "
)

// Options holds the weights and markers used by an Extractor.
type Options struct {
	MaxWords        int
	TermWeight      int
	FirstWordWeight int
	WordWeight      int
	EmphasisOpen    string
	EmphasisClose   string
	// Ellipsis is appended after a non-empty teaser. Empty means no suffix.
	Ellipsis string
	// EscapeHTML escapes the copied body text (never the markers).
	EscapeHTML bool
	// Stemmer reduces a lower-cased word to its stem. Defaults to Porter.
	Stemmer func(string) string
}

// DefaultOptions returns the default teaser options.
func DefaultOptions() Options {
	return Options{
		MaxWords:        DefaultMaxWords,
		TermWeight:      DefaultTermWeight,
		FirstWordWeight: DefaultFirstWordWeight,
		WordWeight:      DefaultWordWeight,
		EmphasisOpen:    DefaultEmphasisOpen,
		EmphasisClose:   DefaultEmphasisClose,
		Stemmer:         porterStem,
	}
}

// Option configures an Extractor.
type Option func(*Options)

// WithMaxWords sets the window size. Values <= 0 keep the default.
func WithMaxWords(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxWords = n
		}
	}
}

// WithWeights sets the term, first-word and normal word weights. Values <= 0 keep the defaults.
func WithWeights(term, firstWord, word int) Option {
	return func(o *Options) {
		if term > 0 {
			o.TermWeight = term
		}
		if firstWord > 0 {
			o.FirstWordWeight = firstWord
		}
		if word > 0 {
			o.WordWeight = word
		}
	}
}

// WithEmphasis sets the marker pair wrapped around matched words.
// Both markers must be non-empty; otherwise the defaults are kept.
func WithEmphasis(open, close string) Option {
	return func(o *Options) {
		if open != "" && close != "" {
			o.EmphasisOpen = open
			o.EmphasisClose = close
		}
	}
}

// WithEllipsis sets the suffix appended to every non-empty teaser.
func WithEllipsis(s string) Option {
	return func(o *Options) { o.Ellipsis = s }
}

// WithEscapeHTML escapes body text copied into the teaser.
func WithEscapeHTML(escape bool) Option {
	return func(o *Options) { o.EscapeHTML = escape }
}

// WithStemmer replaces the Porter stemmer. A nil stemmer keeps the default.
func WithStemmer(stem func(string) string) Option {
	return func(o *Options) {
		if stem != nil {
			o.Stemmer = stem
		}
	}
}

// Extractor builds teasers. It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	opts Options
}

// New creates an Extractor with the default options modified by opts.
func New(opts ...Option) *Extractor {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Extractor{opts: o}
}

// Options returns a copy of the extractor's options.
func (e *Extractor) Options() Options {
	return e.opts
}

var defaultExtractor = New()

// Extract builds a teaser with the default options.
func Extract(body string, terms []string) string {
	return defaultExtractor.Extract(body, terms)
}

// Extract returns the heaviest window of at most MaxWords words of body, with words
// matching any of terms wrapped in emphasis markers. When no term matches, the
// teaser starts at the first word. A body without words is returned unchanged.
func (e *Extractor) Extract(body string, terms []string) string {
	stems := e.stemTerms(terms)
	words, found := e.weigh(body, stems)
	if len(words) == 0 {
		return body
	}

	size := min(len(words), e.opts.MaxWords)
	start := 0
	if found {
		start = heaviestWindow(windowWeights(words, size))
	}
	return e.render(body, words[start:start+size])
}

// word is a scored word of the body. offset is the byte offset of text in the body.
type word struct {
	text    string
	weight  int
	offset  int
	matched bool
}

// stemTerms lower-cases and stems each non-blank term.
func (e *Extractor) stemTerms(terms []string) []string {
	stems := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		stems = append(stems, e.stem(t))
	}
	return stems
}

func (e *Extractor) stem(s string) string {
	return e.opts.Stemmer(strings.ToLower(s))
}

// weigh splits body into sentences on ". " and words on " " and scores every
// non-empty word. Splitting is done on the original body so offsets index it
// directly. found reports whether any word matched a stem.
func (e *Extractor) weigh(body string, stems []string) (words []word, found bool) {
	offset := 0
	for _, sentence := range strings.Split(body, sentenceSep) {
		weight := e.opts.FirstWordWeight
		wordOffset := offset
		for _, w := range strings.Split(sentence, wordSep) {
			if w != "" {
				ww := word{text: w, weight: weight, offset: wordOffset}
				if matchesAny(e.stem(w), stems) {
					ww.weight = e.opts.TermWeight
					ww.matched = true
					found = true
				}
				words = append(words, ww)
				weight = e.opts.WordWeight
			}
			wordOffset += len(w) + len(wordSep)
		}
		offset += len(sentence) + len(sentenceSep)
	}
	return words, found
}

func matchesAny(stem string, stems []string) bool {
	for _, s := range stems {
		if strings.HasPrefix(stem, s) {
			return true
		}
	}
	return false
}

// windowWeights returns the summed weight of every window of size consecutive
// words, indexed by the window's first word.
func windowWeights(words []word, size int) []int {
	sums := make([]int, 0, len(words)-size+1)
	sum := 0
	for _, w := range words[:size] {
		sum += w.weight
	}
	sums = append(sums, sum)
	for i := 0; i+size < len(words); i++ {
		sum += words[i+size].weight - words[i].weight
		sums = append(sums, sum)
	}
	return sums
}

// heaviestWindow returns the index of the heaviest window. Windows are scanned
// from last to first with a strict comparison, so the latest of equal maxima wins.
func heaviestWindow(sums []int) int {
	best, bestSum := 0, 0
	for i := len(sums) - 1; i >= 0; i-- {
		if sums[i] > bestSum {
			bestSum = sums[i]
			best = i
		}
	}
	return best
}

// render rebuilds the window from body, copying the text between words verbatim.
func (e *Extractor) render(body string, window []word) string {
	var b strings.Builder
	cursor := window[0].offset
	for _, w := range window {
		if cursor < w.offset {
			e.writeText(&b, body[cursor:w.offset])
		}
		end := w.offset + len(w.text)
		if w.matched {
			b.WriteString(e.opts.EmphasisOpen)
			e.writeText(&b, body[w.offset:end])
			b.WriteString(e.opts.EmphasisClose)
		} else {
			e.writeText(&b, body[w.offset:end])
		}
		cursor = end
	}
	b.WriteString(e.opts.Ellipsis)
	return b.String()
}

func (e *Extractor) writeText(b *strings.Builder, s string) {
	if e.opts.EscapeHTML {
		s = html.EscapeString(s)
	}
	b.WriteString(s)
}
