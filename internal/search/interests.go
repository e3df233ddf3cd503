package search

import "strings"

// KnowledgeLevel gates how aggressively interests fan out into extra
// queries. Novices get only their own words back; experts get the full
// synonym table.
type KnowledgeLevel string

const (
	KnowledgeNovice       KnowledgeLevel = "novice"
	KnowledgeIntermediate KnowledgeLevel = "intermediate"
	KnowledgeExpert       KnowledgeLevel = "expert"
)

// ParseKnowledgeLevel defaults to intermediate for unrecognised input.
func ParseKnowledgeLevel(s string) KnowledgeLevel {
	switch KnowledgeLevel(strings.ToLower(s)) {
	case KnowledgeNovice, KnowledgeExpert:
		return KnowledgeLevel(strings.ToLower(s))
	default:
		return KnowledgeIntermediate
	}
}

// interestSynonyms is the static interest fan-out table. The first entry
// per interest is the broad category term; the rest are narrower keywords
// only expert-level expansion emits.
var interestSynonyms = map[string][]string{
	"politics":   {"election", "president", "congress", "senate"},
	"sports":     {"nba", "nfl", "championship", "playoffs"},
	"basketball": {"nba", "playoffs", "finals"},
	"football":   {"nfl", "super bowl"},
	"soccer":     {"premier league", "world cup", "champions league"},
	"crypto":     {"bitcoin", "ethereum", "etf"},
	"economy":    {"fed", "inflation", "recession"},
	"tech":       {"ai", "openai", "apple"},
	"ai":         {"openai", "anthropic", "agi"},
	"climate":    {"temperature", "hurricane", "emissions"},
	"movies":     {"box office", "oscars"},
	"music":      {"grammys", "billboard"},
}

// Expand maps user interests to the query set handed to the ranking engine.
// Each interest is emitted verbatim; synonym fan-out depends on knowledge
// level. The result is a case-sensitive set union preserving first-seen
// order.
func Expand(interests []string, level KnowledgeLevel) []string {
	var queries []string
	seen := make(map[string]struct{})

	add := func(q string) {
		if q == "" {
			return
		}
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}

	for _, interest := range interests {
		interest = strings.TrimSpace(interest)
		add(interest)
		if level == KnowledgeNovice {
			continue
		}

		synonyms := interestSynonyms[strings.ToLower(interest)]
		if len(synonyms) == 0 {
			continue
		}
		if level == KnowledgeIntermediate {
			add(synonyms[0])
			continue
		}
		for _, syn := range synonyms {
			add(syn)
		}
	}

	return queries
}

// Profile holds the relevance and volume floors applied after scoring.
// The upstream threshold values were never consistent, so these are
// configuration with defaults per risk tolerance, not fixed semantics.
type Profile struct {
	MinScore  float64
	MinVolume float64
}

// ProfileFor returns the default filter floors for a risk tolerance.
// Conservative callers only see liquid, clearly relevant markets.
func ProfileFor(riskTolerance string) Profile {
	switch strings.ToLower(riskTolerance) {
	case "conservative":
		return Profile{MinScore: 0.1, MinVolume: 100}
	case "aggressive":
		return Profile{MinScore: 0.01, MinVolume: 0}
	default:
		return Profile{MinScore: 0.05, MinVolume: 10}
	}
}
