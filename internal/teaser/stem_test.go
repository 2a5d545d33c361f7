package teaser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStem(t *testing.T) {
	assert.Equal(t, "run", Stem("Running"))
	assert.Equal(t, "fox", Stem("FOXES"))
	assert.Equal(t, "ab", Stem("ab"))
}

func TestSnowballStem(t *testing.T) {
	assert.Equal(t, "run", SnowballStem("running"))
	assert.Equal(t, "cat", SnowballStem("Cats"))
}

func TestStemmerByName(t *testing.T) {
	for _, name := range []string{"", "porter", "Porter", "snowball"} {
		stem, err := StemmerByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, "run", stem("running"), name)
	}
	_, err := StemmerByName("lancaster")
	assert.Error(t, err)
}

func TestExtract_WithSnowballStemmer(t *testing.T) {
	e := New(WithStemmer(SnowballStem))
	assert.Equal(t, "two <b>foxes</b> ran", e.Extract("two foxes ran", []string{"fox"}))

	kept := New(WithStemmer(nil))
	assert.Equal(t, "two <b>foxes</b> ran", kept.Extract("two foxes ran", []string{"fox"}))
}
