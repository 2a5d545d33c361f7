package teaser

import (
	"fmt"
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/kljensen/snowball/english"
)

// Stemmer names accepted by StemmerByName.
const (
	StemmerPorter   = "porter"
	StemmerSnowball = "snowball"
)

// Stem returns the lower-cased Porter stem of s.
func Stem(s string) string {
	return porterStem(strings.ToLower(s))
}

func porterStem(s string) string {
	return porterstemmer.StemString(s)
}

// SnowballStem returns the lower-cased English Snowball (Porter2) stem of s.
// Stop words are stemmed too so that every word can match.
func SnowballStem(s string) string {
	return english.Stem(strings.ToLower(s), true)
}

// StemmerByName returns the stemmer called name. Empty means porter.
func StemmerByName(name string) (func(string) string, error) {
	switch strings.ToLower(name) {
	case "", StemmerPorter:
		return porterStem, nil
	case StemmerSnowball:
		return SnowballStem, nil
	default:
		return nil, fmt.Errorf("unknown stemmer %q (use porter or snowball)", name)
	}
}
