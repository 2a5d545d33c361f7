package keyword

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion represents a spelling suggestion with its score.
type Suggestion struct {
	Term      string  // The suggested term
	Distance  int     // Edit distance from the original term
	Frequency int     // Document frequency (popularity)
	Score     float64 // frequency / (distance + 1)
}

// SpellChecker suggests indexed terms close to query terms that match nothing.
// It backs the "did you mean" suggestions returned with empty result sets.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int

	mu    sync.RWMutex
	terms map[string]int
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency sets the minimum document frequency for suggestions.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions returned per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a SpellChecker over dict. The dictionary is read lazily
// on first use and again after Refresh.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh reloads the term dictionary.
func (s *SpellChecker) Refresh() error {
	terms, err := s.dictionary.Terms()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.terms = terms
	s.mu.Unlock()
	return nil
}

func (s *SpellChecker) dict() map[string]int {
	s.mu.RLock()
	terms := s.terms
	s.mu.RUnlock()
	if terms != nil {
		return terms
	}
	if err := s.Refresh(); err != nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms
}

// Suggest returns up to maxSuggestions indexed terms within maxDistance of term,
// best first. A term that is itself indexed has no suggestions.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	term = strings.ToLower(term)
	terms := s.dict()
	if _, ok := terms[term]; ok {
		return nil
	}
	var out []Suggestion
	for candidate, freq := range terms {
		if freq < s.minFreq {
			continue
		}
		diff := len([]rune(candidate)) - len([]rune(term))
		if diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		d := LevenshteinDistance(term, candidate)
		if d > s.maxDistance {
			continue
		}
		out = append(out, Suggestion{
			Term:      candidate,
			Distance:  d,
			Frequency: freq,
			Score:     float64(freq) / float64(d+1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out
}

// SuggestQuery replaces every unknown term of query with its best suggestion.
// ok is false when nothing was replaced.
func (s *SpellChecker) SuggestQuery(query string) (corrected string, ok bool) {
	terms := tokenizeQuery(query)
	for i, t := range terms {
		if sugg := s.Suggest(t); len(sugg) > 0 {
			terms[i] = sugg[0].Term
			ok = true
		}
	}
	return strings.Join(terms, " "), ok
}
