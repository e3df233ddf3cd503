package domain

// Position is a wallet's holding in one outcome token, as reported by the
// data API.
type Position struct {
	Wallet       string
	ConditionID  string
	TokenID      string
	Outcome      string
	Market       string // market question, for display
	Size         float64
	AvgPrice     float64
	CurrentPrice float64
	CurrentValue float64
	InitialValue float64
	CashPnL      float64
	PercentPnL   float64
	Redeemable   bool
}
