// Package search scores and ranks normalized markets against free-text
// queries and user interests. Scoring is a pure function over its inputs so
// concurrent searches need no coordination.
package search

import "strings"

// Scoring weights. Tunable constants, not structural: the exact values only
// shift ordering, never correctness.
const (
	exactMatchWeight   = 0.8
	tokenOverlapWeight = 0.5
	categoryWeight     = 0.3
	keywordBoost       = 0.1
	maxKeywordBoost    = 0.3
)

// keywordBoosts maps a query-domain trigger word to terms whose presence in
// a question boosts the score. Upstream category tags are unreliable, so
// text-level hints carry part of the relevance signal.
var keywordBoosts = map[string][]string{
	"sports":     {"nba", "nfl", "mlb", "nhl", "soccer", "football", "basketball", "baseball", "hockey", "tennis", "golf", "ufc", "championship", "playoffs", "finals", "super bowl", "world cup"},
	"basketball": {"nba", "wnba", "lakers", "celtics", "warriors", "finals", "playoffs"},
	"football":   {"nfl", "super bowl", "quarterback", "touchdown", "playoffs"},
	"soccer":     {"premier league", "champions league", "world cup", "fifa", "uefa"},
	"politics":   {"election", "president", "senate", "congress", "governor", "democrat", "republican", "primary", "nominee", "impeach"},
	"election":   {"president", "senate", "congress", "ballot", "electoral", "votes"},
	"crypto":     {"bitcoin", "btc", "ethereum", "eth", "solana", "token", "etf"},
	"economy":    {"fed", "inflation", "recession", "gdp", "interest rate", "unemployment"},
	"ai":         {"openai", "gpt", "anthropic", "gemini", "agi", "model"},
}

// Score rates how well a market matches the query, optionally filtered by
// category, returning a value in [0, 1]. An empty query scores 0 regardless
// of category.
func Score(question, marketCategory, query, category string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	text := strings.ToLower(question)
	if q == "" {
		return 0
	}

	var score float64

	// Verbatim substring match is the strongest signal.
	if strings.Contains(text, q) {
		score += exactMatchWeight
	}

	// Partial credit for the fraction of query tokens found in the question.
	tokens := strings.Fields(q)
	if len(tokens) > 0 {
		matched := 0
		words := strings.Fields(text)
		for _, tok := range tokens {
			for _, w := range words {
				if strings.Contains(w, tok) {
					matched++
					break
				}
			}
		}
		score += tokenOverlapWeight * float64(matched) / float64(len(tokens))
	}

	if category != "" && strings.EqualFold(category, marketCategory) {
		score += categoryWeight
	}

	score += boostFor(q, text)

	if score > 1 {
		score = 1
	}
	return score
}

// boostFor sums fixed per-term boosts for every keyword table whose trigger
// appears in the query, capped so text hints never dominate direct matches.
func boostFor(query, text string) float64 {
	var boost float64
	for trigger, terms := range keywordBoosts {
		if !strings.Contains(query, trigger) {
			continue
		}
		for _, term := range terms {
			if strings.Contains(text, term) {
				boost += keywordBoost
				if boost >= maxKeywordBoost {
					return maxKeywordBoost
				}
			}
		}
	}
	return boost
}
