package domain

import (
	"strings"
	"time"
)

// Market is the canonical market representation. Both raw upstream schemas
// (gamma listings and CLOB detail) normalise into this shape.
type Market struct {
	ID             string
	ConditionID    string
	Question       string
	Description    string
	Category       string
	Slug           string
	Outcomes       []string // e.g. ["Yes","No"]
	TokenIDs       []string // ERC-1155 token IDs, aligned with Outcomes
	EventID        string
	EventTitle     string
	EndDate        *time.Time
	Active         bool
	Closed         bool
	Volume24h      float64
	VolumeTotal    float64
	Liquidity      float64
	BestBid        float64
	BestAsk        float64
	Spread         float64
	MinOrderSize   float64
	TickSize       float64
	NegRisk        bool
	RelevanceScore float64
}

// conditionIDLen is the length of a settlement condition identifier:
// "0x" plus 64 hex characters.
const conditionIDLen = 66

// Tradeable reports whether the market carries a real settlement condition
// identifier. Markets without one cannot accept orders.
func (m Market) Tradeable() bool {
	if len(m.ConditionID) != conditionIDLen || !strings.HasPrefix(m.ConditionID, "0x") {
		return false
	}
	for _, c := range m.ConditionID[2:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// YesTokenID returns the token ID for the first outcome, or "" when the
// market carries no token IDs.
func (m Market) YesTokenID() string {
	if len(m.TokenIDs) == 0 {
		return ""
	}
	return m.TokenIDs[0]
}

// TokenForOutcome returns the token ID paired with the named outcome.
// Matching is case-insensitive. The second return is false when the outcome
// does not exist or has no aligned token.
func (m Market) TokenForOutcome(outcome string) (string, bool) {
	for i, o := range m.Outcomes {
		if strings.EqualFold(o, outcome) && i < len(m.TokenIDs) {
			return m.TokenIDs[i], true
		}
	}
	return "", false
}
