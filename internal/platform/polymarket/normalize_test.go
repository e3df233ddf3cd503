package polymarket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gammaFromJSON(t *testing.T, payload string) RawMarket {
	t.Helper()
	var g GammaMarket
	require.NoError(t, json.Unmarshal([]byte(payload), &g))
	return RawMarket{Source: SourceGamma, Gamma: &g}
}

func TestNormalizeGamma(t *testing.T) {
	t.Run("native outcome arrays", func(t *testing.T) {
		raw := gammaFromJSON(t, `{
			"id": "123",
			"question": "Will the Lakers win the 2026 NBA Finals?",
			"conditionId": "0xabc",
			"category": "Sports",
			"outcomes": ["Yes", "No"],
			"clobTokenIds": ["111", "222"],
			"active": true,
			"closed": false,
			"volume24hr": 54321.5,
			"liquidityNum": 9876.25
		}`)

		m, ok := Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, "Will the Lakers win the 2026 NBA Finals?", m.Question)
		assert.Equal(t, []string{"Yes", "No"}, m.Outcomes)
		assert.Equal(t, []string{"111", "222"}, m.TokenIDs)
		assert.Equal(t, 54321.5, m.Volume24h)
		assert.Equal(t, 9876.25, m.Liquidity)
		assert.True(t, m.Active)
	})

	t.Run("JSON-encoded outcome strings and numeric strings", func(t *testing.T) {
		raw := gammaFromJSON(t, `{
			"id": "456",
			"question": "Will BTC close above 100k this year?",
			"outcomes": "[\"Yes\", \"No\"]",
			"clobTokenIds": "[\"333\", \"444\"]",
			"active": "true",
			"volume24hr": "1200.75",
			"liquidityNum": "300"
		}`)

		m, ok := Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, []string{"Yes", "No"}, m.Outcomes)
		assert.Equal(t, []string{"333", "444"}, m.TokenIDs)
		assert.Equal(t, 1200.75, m.Volume24h)
		assert.Equal(t, 300.0, m.Liquidity)
		assert.True(t, m.Active)
	})

	t.Run("absent outcomes default to Yes/No", func(t *testing.T) {
		raw := gammaFromJSON(t, `{"id": "789", "question": "Will it rain tomorrow?"}`)

		m, ok := Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, []string{"Yes", "No"}, m.Outcomes)
	})

	t.Run("category falls back to first event ticker", func(t *testing.T) {
		raw := gammaFromJSON(t, `{
			"id": "321",
			"question": "Who wins the election?",
			"events": [{"id": "e1", "title": "Election 2026", "ticker": "politics"}]
		}`)

		m, ok := Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, "politics", m.Category)
		assert.Equal(t, "e1", m.EventID)
	})

	t.Run("explicit category wins over event ticker", func(t *testing.T) {
		raw := gammaFromJSON(t, `{
			"id": "322",
			"question": "Who wins the election?",
			"category": "Politics",
			"events": [{"ticker": "other"}]
		}`)

		m, ok := Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, "Politics", m.Category)
	})

	t.Run("empty question drops the record", func(t *testing.T) {
		raw := gammaFromJSON(t, `{"id": "999", "question": "   "}`)
		_, ok := Normalize(raw)
		assert.False(t, ok)
	})

	t.Run("negative volume clamps to zero", func(t *testing.T) {
		raw := gammaFromJSON(t, `{"id": "1", "question": "q?", "volume24hr": -5}`)
		m, ok := Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, 0.0, m.Volume24h)
	})

	t.Run("liquidity falls back to legacy field", func(t *testing.T) {
		raw := gammaFromJSON(t, `{"id": "2", "question": "q?", "liquidity": "42.5"}`)
		m, ok := Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, 42.5, m.Liquidity)
	})
}

func TestNormalizeClob(t *testing.T) {
	payload := `{
		"condition_id": "0x1234567890123456789012345678901234567890123456789012345678901234",
		"question": "Will ETH flip BTC?",
		"market_slug": "eth-flip-btc",
		"end_date_iso": "2026-12-31T00:00:00Z",
		"tokens": [
			{"token_id": "555", "outcome": "Yes"},
			{"token_id": "666", "outcome": ""}
		],
		"minimum_order_size": 5,
		"minimum_tick_size": 0.01,
		"active": true
	}`
	var c ClobMarket
	require.NoError(t, json.Unmarshal([]byte(payload), &c))

	m, ok := Normalize(RawMarket{Source: SourceClob, Clob: &c})
	require.True(t, ok)

	assert.Equal(t, c.ConditionID, m.ID)
	assert.Equal(t, []string{"Yes", "Outcome 2"}, m.Outcomes)
	assert.Equal(t, []string{"555", "666"}, m.TokenIDs)
	assert.Equal(t, 5.0, m.MinOrderSize)
	assert.Equal(t, 0.01, m.TickSize)
	require.NotNil(t, m.EndDate)
	assert.Equal(t, 2026, m.EndDate.Year())
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := gammaFromJSON(t, `{
		"id": "77",
		"question": "Stable?",
		"outcomes": ["Yes", "No"],
		"volume24hr": 10
	}`)

	first, ok := Normalize(raw)
	require.True(t, ok)
	second, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestNormalizeMissingPayload(t *testing.T) {
	_, ok := Normalize(RawMarket{Source: SourceGamma})
	assert.False(t, ok)
	_, ok = Normalize(RawMarket{Source: SourceClob})
	assert.False(t, ok)
	_, ok = Normalize(RawMarket{})
	assert.False(t, ok)
}

func TestClobBookToSnapshot(t *testing.T) {
	book := ClobBook{
		Market:    "0xabc",
		AssetID:   "555",
		Timestamp: "1700000000000",
		Bids: []RawPriceLevel{
			{Price: "0.40", Size: "100"},
			{Price: "0.45", Size: "50"},
			{Price: "bad", Size: "10"},
		},
		Asks: []RawPriceLevel{
			{Price: "0.55", Size: "80"},
			{Price: "0.50", Size: "20"},
		},
	}

	snap := book.ToSnapshot()
	require.Len(t, snap.Bids, 2)
	require.Len(t, snap.Asks, 2)
	assert.Equal(t, 0.45, snap.BestBid())
	assert.Equal(t, 0.50, snap.BestAsk())
	assert.InDelta(t, 0.475, snap.Midpoint(), 1e-9)
	assert.Equal(t, int64(1700000000), snap.Timestamp.Unix())
}

func TestBalanceAllowanceScaling(t *testing.T) {
	t.Run("per-spender allowances are summed", func(t *testing.T) {
		resp := BalanceAllowanceResponse{
			Balance: "150000000",
			Allowances: map[string]string{
				"0xexchange": "100000000",
				"0xnegrisk":  "50000000",
			},
		}
		assert.Equal(t, 150.0, resp.BalanceFloat())
		assert.Equal(t, 150.0, resp.AllowanceFloat())
	})

	t.Run("legacy single allowance field", func(t *testing.T) {
		resp := BalanceAllowanceResponse{Balance: "1000000", Allowance: "2000000"}
		assert.Equal(t, 1.0, resp.BalanceFloat())
		assert.Equal(t, 2.0, resp.AllowanceFloat())
	})
}

func TestOrderResultStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		result APIOrderResult
		status string
	}{
		{"live maps to submitted", APIOrderResult{Success: true, Status: "live"}, "submitted"},
		{"matched maps to matched", APIOrderResult{Success: true, Status: "matched"}, "matched"},
		{"failure maps to rejected", APIOrderResult{Success: false, ErrorMsg: "no match"}, "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.result.ToDomainResult()
			assert.Equal(t, tt.status, string(got.Status))
		})
	}
}
