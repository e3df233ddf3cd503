package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreBounds(t *testing.T) {
	questions := []string{
		"Will the Lakers win the NBA Finals?",
		"Will Bitcoin close above $100k?",
		"Who will win the 2026 presidential election?",
		"",
	}
	queries := []string{"lakers", "bitcoin etf", "election president senate", "sports", ""}

	for _, q := range questions {
		for _, query := range queries {
			s := Score(q, "Sports", query, "")
			assert.GreaterOrEqual(t, s, 0.0, "question=%q query=%q", q, query)
			assert.LessOrEqual(t, s, 1.0, "question=%q query=%q", q, query)
		}
	}
}

func TestScoreEmptyQuery(t *testing.T) {
	assert.Equal(t, 0.0, Score("Will it rain?", "Weather", "", ""))
	assert.Equal(t, 0.0, Score("Will it rain?", "Weather", "   ", "Weather"))
}

func TestScoreExactMatchOutranksPartial(t *testing.T) {
	exact := Score("Will the Lakers win the championship?", "", "lakers win", "")
	partial := Score("Will the Lakers trade someone?", "", "lakers win", "")
	assert.Greater(t, exact, partial)
}

func TestScoreCaseInsensitive(t *testing.T) {
	lower := Score("will the lakers win?", "", "lakers", "")
	upper := Score("WILL THE LAKERS WIN?", "", "LAKERS", "")
	assert.Equal(t, lower, upper)
}

func TestScoreCategoryMatch(t *testing.T) {
	// Question shares nothing with the query, so the category bonus is the
	// entire score.
	with := Score("Will it snow in Oslo?", "Sports", "celtics", "Sports")
	without := Score("Will it snow in Oslo?", "Sports", "celtics", "")
	assert.InDelta(t, 0.3, with-without, 1e-9)
	assert.InDelta(t, 0.3, with, 1e-9)
}

func TestScoreKeywordBoostCapped(t *testing.T) {
	// Question dense with sports terms but no direct match on the query;
	// the keyword boost is the entire score and must cap at 0.3.
	question := "NBA NFL MLB NHL soccer football basketball playoffs finals"
	boosted := Score(question, "", "sports", "")
	assert.InDelta(t, maxKeywordBoost, boosted, 1e-9)
}

func TestScoreIrrelevantIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Score("Will it snow in Oslo?", "Weather", "bitcoin", ""))
}
