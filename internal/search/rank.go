package search

import (
	"sort"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

// Strategy selects the ranking order for search results.
type Strategy string

const (
	StrategyRelevance  Strategy = "relevance"
	StrategyVolume     Strategy = "volume"
	StrategyLiquidity  Strategy = "liquidity"
	StrategyPopularity Strategy = "popularity"
)

// ParseStrategy maps a user-supplied string to a Strategy, defaulting to
// relevance for anything unrecognised.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyVolume, StrategyLiquidity, StrategyPopularity:
		return Strategy(s)
	default:
		return StrategyRelevance
	}
}

// Rank sorts markets in place by the given strategy and returns the slice.
// Sorting is stable: equal keys keep their original fetch order, so ranking
// identical inputs is deterministic.
func Rank(markets []domain.Market, strategy Strategy) []domain.Market {
	key := sortKey(strategy, markets)
	sort.SliceStable(markets, func(i, j int) bool {
		return key(i) > key(j)
	})
	return markets
}

func sortKey(strategy Strategy, markets []domain.Market) func(int) float64 {
	switch strategy {
	case StrategyVolume:
		return func(i int) float64 { return markets[i].Volume24h }
	case StrategyLiquidity:
		return func(i int) float64 { return markets[i].Liquidity }
	case StrategyPopularity:
		maxVol, maxLiq := maxima(markets)
		return func(i int) float64 {
			return popularity(markets[i], maxVol, maxLiq)
		}
	default:
		return func(i int) float64 { return markets[i].RelevanceScore }
	}
}

// popularity blends volume and liquidity, each normalised against the batch
// maximum so neither dimension swamps the other.
func popularity(m domain.Market, maxVol, maxLiq float64) float64 {
	var score float64
	if maxVol > 0 {
		score += 0.6 * m.Volume24h / maxVol
	}
	if maxLiq > 0 {
		score += 0.4 * m.Liquidity / maxLiq
	}
	return score
}

func maxima(markets []domain.Market) (maxVol, maxLiq float64) {
	for _, m := range markets {
		if m.Volume24h > maxVol {
			maxVol = m.Volume24h
		}
		if m.Liquidity > maxLiq {
			maxLiq = m.Liquidity
		}
	}
	return maxVol, maxLiq
}

// Filter keeps markets whose relevance score and 24h volume both clear the
// given floors. Thresholds vary by risk profile; conservative profiles
// demand more volume.
func Filter(markets []domain.Market, minScore, minVolume float64) []domain.Market {
	out := markets[:0]
	for _, m := range markets {
		if m.RelevanceScore > minScore && m.Volume24h >= minVolume {
			out = append(out, m)
		}
	}
	return out
}

// MergeByID deduplicates markets by listing ID, keeping the highest-scoring
// duplicate. Order of first appearance is preserved so the final ranking
// stays deterministic across fan-out queries.
func MergeByID(batches ...[]domain.Market) []domain.Market {
	var merged []domain.Market
	index := make(map[string]int)
	for _, batch := range batches {
		for _, m := range batch {
			if at, ok := index[m.ID]; ok {
				if m.RelevanceScore > merged[at].RelevanceScore {
					merged[at] = m
				}
				continue
			}
			index[m.ID] = len(merged)
			merged = append(merged, m)
		}
	}
	return merged
}

// Truncate bounds the result set to limit entries. limit <= 0 means no cap.
func Truncate(markets []domain.Market, limit int) []domain.Market {
	if limit <= 0 || len(markets) <= limit {
		return markets
	}
	return markets[:limit]
}
