package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandNovice(t *testing.T) {
	queries := Expand([]string{"politics", "obscure hobby"}, KnowledgeNovice)
	assert.Equal(t, []string{"politics", "obscure hobby"}, queries)
}

func TestExpandIntermediate(t *testing.T) {
	queries := Expand([]string{"politics"}, KnowledgeIntermediate)
	assert.Equal(t, []string{"politics", "election"}, queries)
}

func TestExpandExpert(t *testing.T) {
	queries := Expand([]string{"crypto"}, KnowledgeExpert)
	assert.Equal(t, []string{"crypto", "bitcoin", "ethereum", "etf"}, queries)
}

func TestExpandUnknownInterestPassesThrough(t *testing.T) {
	queries := Expand([]string{"quantum knitting"}, KnowledgeExpert)
	assert.Equal(t, []string{"quantum knitting"}, queries)
}

func TestExpandDeduplicates(t *testing.T) {
	// "sports" and "basketball" share the "nba" and "playoffs" synonyms.
	queries := Expand([]string{"sports", "basketball"}, KnowledgeExpert)

	seen := make(map[string]int)
	for _, q := range queries {
		seen[q]++
	}
	for q, n := range seen {
		assert.Equal(t, 1, n, "query %q emitted more than once", q)
	}
	assert.Contains(t, queries, "nba")
	assert.Contains(t, queries, "championship")
	assert.Contains(t, queries, "finals")
}

func TestExpandTrimsAndSkipsEmpty(t *testing.T) {
	queries := Expand([]string{"  sports  ", ""}, KnowledgeNovice)
	assert.Equal(t, []string{"sports"}, queries)
}

func TestParseKnowledgeLevel(t *testing.T) {
	assert.Equal(t, KnowledgeNovice, ParseKnowledgeLevel("Novice"))
	assert.Equal(t, KnowledgeExpert, ParseKnowledgeLevel("expert"))
	assert.Equal(t, KnowledgeIntermediate, ParseKnowledgeLevel(""))
	assert.Equal(t, KnowledgeIntermediate, ParseKnowledgeLevel("wizard"))
}

func TestProfileFor(t *testing.T) {
	assert.Equal(t, Profile{MinScore: 0.1, MinVolume: 100}, ProfileFor("conservative"))
	assert.Equal(t, Profile{MinScore: 0.05, MinVolume: 10}, ProfileFor("moderate"))
	assert.Equal(t, Profile{MinScore: 0.01, MinVolume: 0}, ProfileFor("aggressive"))
	assert.Equal(t, Profile{MinScore: 0.05, MinVolume: 10}, ProfileFor("unknown"))
}
