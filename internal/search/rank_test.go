package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

func fixtureMarkets() []domain.Market {
	return []domain.Market{
		{ID: "a", Question: "A", RelevanceScore: 0.2, Volume24h: 500, Liquidity: 50},
		{ID: "b", Question: "B", RelevanceScore: 0.9, Volume24h: 100, Liquidity: 300},
		{ID: "c", Question: "C", RelevanceScore: 0.5, Volume24h: 900, Liquidity: 10},
		{ID: "d", Question: "D", RelevanceScore: 0.5, Volume24h: 900, Liquidity: 200},
	}
}

func TestRankByVolume(t *testing.T) {
	markets := Rank(fixtureMarkets(), StrategyVolume)
	for i := 1; i < len(markets); i++ {
		assert.GreaterOrEqual(t, markets[i-1].Volume24h, markets[i].Volume24h)
	}
	// Equal volumes keep fetch order: c before d.
	assert.Equal(t, "c", markets[0].ID)
	assert.Equal(t, "d", markets[1].ID)
}

func TestRankByRelevance(t *testing.T) {
	markets := Rank(fixtureMarkets(), StrategyRelevance)
	assert.Equal(t, "b", markets[0].ID)
	for i := 1; i < len(markets); i++ {
		assert.GreaterOrEqual(t, markets[i-1].RelevanceScore, markets[i].RelevanceScore)
	}
}

func TestRankIdempotent(t *testing.T) {
	once := Rank(fixtureMarkets(), StrategyPopularity)
	twice := Rank(append([]domain.Market(nil), once...), StrategyPopularity)
	assert.Equal(t, once, twice)
}

func TestRankEmptyAndSingle(t *testing.T) {
	assert.Empty(t, Rank(nil, StrategyVolume))
	one := []domain.Market{{ID: "x"}}
	assert.Equal(t, one, Rank(one, StrategyLiquidity))
}

func TestParseStrategy(t *testing.T) {
	assert.Equal(t, StrategyVolume, ParseStrategy("volume"))
	assert.Equal(t, StrategyRelevance, ParseStrategy(""))
	assert.Equal(t, StrategyRelevance, ParseStrategy("bogus"))
}

func TestFilter(t *testing.T) {
	markets := fixtureMarkets()
	kept := Filter(markets, 0.4, 200)

	require.Len(t, kept, 2)
	assert.Equal(t, "c", kept[0].ID)
	assert.Equal(t, "d", kept[1].ID)
}

func TestFilterScoreFloorIsExclusive(t *testing.T) {
	markets := []domain.Market{{ID: "edge", RelevanceScore: 0.1, Volume24h: 1000}}
	assert.Empty(t, Filter(markets, 0.1, 0))
}

func TestMergeByID(t *testing.T) {
	batch1 := []domain.Market{
		{ID: "a", RelevanceScore: 0.3},
		{ID: "b", RelevanceScore: 0.5},
	}
	batch2 := []domain.Market{
		{ID: "a", RelevanceScore: 0.8},
		{ID: "c", RelevanceScore: 0.1},
	}

	merged := MergeByID(batch1, batch2)
	require.Len(t, merged, 3)
	// First-seen order, highest score kept for duplicates.
	assert.Equal(t, "a", merged[0].ID)
	assert.Equal(t, 0.8, merged[0].RelevanceScore)
	assert.Equal(t, "b", merged[1].ID)
	assert.Equal(t, "c", merged[2].ID)
}

func TestTruncate(t *testing.T) {
	markets := fixtureMarkets()
	assert.Len(t, Truncate(markets, 2), 2)
	assert.Len(t, Truncate(markets, 0), 4)
	assert.Len(t, Truncate(markets, 10), 4)
}
