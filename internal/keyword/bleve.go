package keyword

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/blogsearch/internal/models"
)

// maxFuzziness is the largest edit distance bleve accepts for fuzzy queries.
const maxFuzziness = 2

var searchFields = []string{FieldTitle, FieldBody, FieldTags}

// BleveIndex implements KeywordIndex using an in-memory Bleve index.
type BleveIndex struct {
	index bleve.Index
}

// pageDoc is the indexed view of a page.
type pageDoc struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// NewBleveIndex creates an empty in-memory Bleve index.
// The site index is small and rebuilt from index.json on every load, so nothing is persisted.
func NewBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming): prefix and fuzzy queries
	// see the surface words, and teasers stem matched terms themselves.
	textFieldMapping.Analyzer = standard.Name
	textFieldMapping.Store = false
	textFieldMapping.IncludeTermVectors = true
	for _, f := range searchFields {
		docMapping.AddFieldMappingsAt(f, textFieldMapping)
	}
	im.AddDocumentMapping("page", docMapping)
	im.DefaultType = "page"
	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = standard.Name
	return im
}

func toDoc(page *models.Page) pageDoc {
	body := page.Text
	if body == "" {
		body = page.Body
	}
	return pageDoc{Title: page.Title, Body: body, Tags: page.Tags}
}

// IndexBatch indexes pages in one batch.
func (b *BleveIndex) IndexBatch(ctx context.Context, pages []*models.Page) error {
	batch := b.index.NewBatch()
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(p.ID, toDoc(p)); err != nil {
			return fmt.Errorf("batch index %s: %w", p.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Search runs query and returns up to limit hits starting at offset.
// Each query term matches exactly, and optionally as a prefix or within a fuzzy
// edit distance, in any field. Terms are combined with AND unless opts says OR.
// A query without terms yields no hits.
func (b *BleveIndex) Search(ctx context.Context, query string, limit, offset int, opts *SearchOptions) (*SearchResults, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	terms := b.analyze(query)
	if len(terms) == 0 {
		return &SearchResults{}, nil
	}

	q := buildQuery(terms, opts)
	req := bleve.NewSearchRequestOptions(q, limit, offset, false)
	req.IncludeLocations = true
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := &SearchResults{
		Hits:  make([]*KeywordResult, len(results.Hits)),
		Total: results.Total,
	}
	for i, hit := range results.Hits {
		seen := make(map[string]struct{})
		for _, termLocations := range hit.Locations {
			for term := range termLocations {
				seen[term] = struct{}{}
			}
		}
		matched := make([]string, 0, len(seen))
		for term := range seen {
			matched = append(matched, term)
		}
		sort.Strings(matched)
		out.Hits[i] = &KeywordResult{ID: hit.ID, Score: hit.Score, Terms: matched}
	}
	return out, nil
}

// buildQuery combines one disjunction per term with AND or OR.
func buildQuery(terms []string, opts *SearchOptions) blevequery.Query {
	termQueries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		termQueries = append(termQueries, buildTermQuery(term, opts))
	}
	if len(termQueries) == 1 {
		return termQueries[0]
	}
	if strings.EqualFold(opts.CombineWith, models.CombineOr) {
		return bleve.NewDisjunctionQuery(termQueries...)
	}
	return bleve.NewConjunctionQuery(termQueries...)
}

// buildTermQuery matches term in every field, as an exact term and optionally as a
// prefix or fuzzy term. Title clauses are boosted.
func buildTermQuery(term string, opts *SearchOptions) blevequery.Query {
	fuzziness := fuzzinessFor(term, opts.Fuzzy)
	clauses := make([]blevequery.Query, 0, len(searchFields)*3)
	for _, field := range searchFields {
		boost := 1.0
		if field == FieldTitle && opts.TitleBoost > 1 {
			boost = opts.TitleBoost
		}

		mq := bleve.NewMatchQuery(term)
		mq.SetField(field)
		mq.SetBoost(boost)
		clauses = append(clauses, mq)

		if opts.Prefix {
			pq := bleve.NewPrefixQuery(term)
			pq.SetField(field)
			pq.SetBoost(boost)
			clauses = append(clauses, pq)
		}
		if fuzziness > 0 {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetFuzziness(fuzziness)
			fq.SetField(field)
			fq.SetBoost(boost)
			clauses = append(clauses, fq)
		}
	}
	return bleve.NewDisjunctionQuery(clauses...)
}

// fuzzinessFor returns round(fraction * len(term)) capped at maxFuzziness.
func fuzzinessFor(term string, fraction float64) int {
	if fraction <= 0 {
		return 0
	}
	d := int(math.Round(fraction * float64(len([]rune(term)))))
	if d > maxFuzziness {
		d = maxFuzziness
	}
	return d
}

// analyze runs query through the index analyzer so query terms line up with indexed
// terms: lower-cased, split on word boundaries, stop words removed, duplicates dropped.
func (b *BleveIndex) analyze(query string) []string {
	analyzer := b.index.Mapping().AnalyzerNamed(standard.Name)
	if analyzer == nil {
		return tokenizeQuery(query)
	}
	seen := make(map[string]struct{})
	var terms []string
	for _, tok := range analyzer.Analyze([]byte(query)) {
		term := string(tok.Term)
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// tokenizeQuery splits query into lowercase terms on anything that is not a letter or digit,
// without removing stop words.
func tokenizeQuery(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of pages in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Terms returns every term of the indexed fields with its document frequency.
// A term present in several fields reports its highest frequency.
func (b *BleveIndex) Terms() (map[string]int, error) {
	terms := make(map[string]int)
	for _, field := range searchFields {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("field dict %s: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil {
				_ = dict.Close()
				return nil, fmt.Errorf("field dict %s: %w", field, err)
			}
			if entry == nil {
				break
			}
			if c := int(entry.Count); c > terms[entry.Term] {
				terms[entry.Term] = c
			}
		}
		if err := dict.Close(); err != nil {
			return nil, err
		}
	}
	return terms, nil
}
