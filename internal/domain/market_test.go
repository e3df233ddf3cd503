package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarketTradeable(t *testing.T) {
	valid := "0x1234567890123456789012345678901234567890123456789012345678901234"

	tests := []struct {
		name        string
		conditionID string
		want        bool
	}{
		{"valid", valid, true},
		{"valid uppercase hex", "0xABCDEF7890123456789012345678901234567890123456789012345678901234", true},
		{"empty", "", false},
		{"too short", "0xdeadbeef", false},
		{"missing prefix", valid[2:] + "ab", false},
		{"non-hex chars", "0xzz34567890123456789012345678901234567890123456789012345678901234", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Market{ConditionID: tt.conditionID}
			assert.Equal(t, tt.want, m.Tradeable())
		})
	}
}

func TestMarketTokenForOutcome(t *testing.T) {
	m := Market{
		Outcomes: []string{"Yes", "No"},
		TokenIDs: []string{"101", "102"},
	}

	token, ok := m.TokenForOutcome("yes")
	assert.True(t, ok)
	assert.Equal(t, "101", token)

	token, ok = m.TokenForOutcome("NO")
	assert.True(t, ok)
	assert.Equal(t, "102", token)

	_, ok = m.TokenForOutcome("Maybe")
	assert.False(t, ok)

	// Outcome without an aligned token.
	lopsided := Market{Outcomes: []string{"Yes", "No"}, TokenIDs: []string{"101"}}
	_, ok = lopsided.TokenForOutcome("No")
	assert.False(t, ok)
}

func TestMarketYesTokenID(t *testing.T) {
	assert.Equal(t, "101", Market{TokenIDs: []string{"101", "102"}}.YesTokenID())
	assert.Equal(t, "", Market{}.YesTokenID())
}

func TestOrderRequestNotional(t *testing.T) {
	limit := OrderRequest{Type: OrderTypeGTC, Side: OrderSideBuy, Price: 0.4, Size: 50}
	assert.InDelta(t, 20, limit.Notional(), 1e-9)

	fokBuy := OrderRequest{Type: OrderTypeFOK, Side: OrderSideBuy, Amount: 75}
	assert.InDelta(t, 75, fokBuy.Notional(), 1e-9)

	fokSell := OrderRequest{Type: OrderTypeFOK, Side: OrderSideSell, Price: 0.6, Size: 10}
	assert.InDelta(t, 6, fokSell.Notional(), 1e-9)
}

func TestOrderbookSnapshot(t *testing.T) {
	snap := OrderbookSnapshot{
		Bids: []PriceLevel{{Price: 0.45, Size: 100}, {Price: 0.44, Size: 50}},
		Asks: []PriceLevel{{Price: 0.50, Size: 80}, {Price: 0.51, Size: 20}},
	}

	assert.InDelta(t, 0.45, snap.BestBid(), 1e-9)
	assert.InDelta(t, 0.50, snap.BestAsk(), 1e-9)
	assert.InDelta(t, 0.475, snap.Midpoint(), 1e-9)
	assert.InDelta(t, 0.05, snap.Spread(), 1e-9)

	var empty OrderbookSnapshot
	assert.Zero(t, empty.BestBid())
	assert.Zero(t, empty.BestAsk())
	assert.Zero(t, empty.Midpoint())
	assert.Zero(t, empty.Spread())

	oneSided := OrderbookSnapshot{Bids: []PriceLevel{{Price: 0.3, Size: 10}}}
	assert.Zero(t, oneSided.Midpoint())
}
