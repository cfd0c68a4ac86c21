package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("buy", "buy"))
	assert.Equal(t, 0.75, similarity("buyy", "buy"))
	assert.Equal(t, 0.0, similarity("abc", "xyz"))
	assert.Equal(t, 1.0, similarity("", ""))
}

func TestNearest(t *testing.T) {
	names := vocabularyNames()

	tests := []struct {
		word     string
		expected string
		found    bool
	}{
		{word: "buyy", expected: "buy", found: true},
		{word: "selll", expected: "sell", found: true},
		{word: "limt", expected: "limit", found: true},
		{word: "stauts", expected: "status", found: true},
		{word: "balanse", expected: "balance", found: true},
		{word: "zzzzz", found: false},
		{word: "x", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			name, ok := nearest(tt.word, names, DefaultSimilarityThreshold)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestNearest_TieFailsClosed(t *testing.T) {
	name, ok := nearest("abcx", []string{"abcd", "abce"}, DefaultSimilarityThreshold)

	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestNearest_BelowThreshold(t *testing.T) {
	_, ok := nearest("abxy", []string{"abcd"}, DefaultSimilarityThreshold)

	assert.False(t, ok)
}

func vocabularyNames() []string {
	var names []string
	for _, v := range vocabulary() {
		names = append(names, v.name)
	}
	return names
}
