package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. Missing or
// unparseable values decode to 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(n)
	return nil
}

// flexStrings unmarshals from a native JSON array of strings or from a
// JSON-encoded string holding such an array, e.g. "[\"Yes\",\"No\"]". The
// Gamma API sends both forms depending on endpoint version.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*f = nil
		return nil
	}
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		// Not a nested array; treat the string as a single entry.
		*f = []string{s}
		return nil
	}
	*f = list
	return nil
}

// --------------------------------------------------------------------------
// Gamma (discovery) API DTOs
// --------------------------------------------------------------------------

// GammaEvent is the nested event object inside a Gamma market record. The
// ticker doubles as a category hint when the market carries no category of
// its own.
type GammaEvent struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Ticker string `json:"ticker"`
}

// GammaMarket is a market record as returned by the Gamma discovery API.
// Numeric fields arrive as numbers or strings depending on API version, and
// outcome/token lists arrive native or JSON-encoded.
type GammaMarket struct {
	ID            string       `json:"id"`
	Question      string       `json:"question"`
	Description   string       `json:"description"`
	ConditionID   string       `json:"conditionId"`
	Slug          string       `json:"slug"`
	Category      string       `json:"category"`
	Outcomes      flexStrings  `json:"outcomes"`
	OutcomePrices flexStrings  `json:"outcomePrices"`
	ClobTokenIDs  flexStrings  `json:"clobTokenIds"`
	EndDate       string       `json:"endDate"`
	EndDateISO    string       `json:"endDateIso"`
	Active        flexBool     `json:"active"`
	Closed        flexBool     `json:"closed"`
	Volume24hr    flexFloat    `json:"volume24hr"`
	Volume        flexFloat    `json:"volume"`
	LiquidityNum  flexFloat    `json:"liquidityNum"`
	Liquidity     flexFloat    `json:"liquidity"`
	BestBid       flexFloat    `json:"bestBid"`
	BestAsk       flexFloat    `json:"bestAsk"`
	Spread        flexFloat    `json:"spread"`
	OrderMinSize  flexFloat    `json:"orderMinSize"`
	TickSize      flexFloat    `json:"orderPriceMinTickSize"`
	NegRisk       flexBool     `json:"negRisk"`
	Events        []GammaEvent `json:"events"`
}

// gammaListingEnvelope covers the two response shapes the listing endpoint
// produces: a bare array or an object wrapping the array in "data".
type gammaListingEnvelope struct {
	Data []GammaMarket `json:"data"`
}

// --------------------------------------------------------------------------
// CLOB (trading) API DTOs
// --------------------------------------------------------------------------

// ClobToken is one outcome token inside a CLOB market record.
type ClobToken struct {
	TokenID string    `json:"token_id"`
	Outcome string    `json:"outcome"`
	Price   flexFloat `json:"price"`
	Winner  bool      `json:"winner"`
}

// ClobMarket is a market record as returned by the CLOB trading API. The
// schema diverges from Gamma's: snake_case keys, native token objects, and
// no event nesting.
type ClobMarket struct {
	ConditionID  string      `json:"condition_id"`
	QuestionID   string      `json:"question_id"`
	Question     string      `json:"question"`
	Description  string      `json:"description"`
	MarketSlug   string      `json:"market_slug"`
	Category     string      `json:"category"`
	EndDateISO   string      `json:"end_date_iso"`
	Tokens       []ClobToken `json:"tokens"`
	MinOrderSize flexFloat   `json:"minimum_order_size"`
	MinTickSize  flexFloat   `json:"minimum_tick_size"`
	Active       flexBool    `json:"active"`
	Closed       flexBool    `json:"closed"`
	NegRisk      flexBool    `json:"neg_risk"`
	Volume24hr   flexFloat   `json:"volume24hr"`
	Liquidity    flexFloat   `json:"liquidity"`
}

// RawSource identifies which upstream schema a raw record came from.
type RawSource string

const (
	SourceGamma RawSource = "gamma"
	SourceClob  RawSource = "clob"
)

// RawMarket is the tagged union of the two upstream market schemas. Exactly
// one of Gamma/Clob is set, indicated by Source. Both feed the single
// Normalize function so downstream scoring never sees schema differences.
type RawMarket struct {
	Source RawSource
	Gamma  *GammaMarket
	Clob   *ClobMarket
}

// RawPriceLevel is one bid or ask level; prices and sizes arrive as strings.
type RawPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// ClobBook is an order-book snapshot as returned by the CLOB API.
type ClobBook struct {
	Market       string          `json:"market"`
	AssetID      string          `json:"asset_id"`
	Hash         string          `json:"hash"`
	Timestamp    string          `json:"timestamp"`
	Bids         []RawPriceLevel `json:"bids"`
	Asks         []RawPriceLevel `json:"asks"`
	MinOrderSize flexFloat       `json:"min_order_size"`
	TickSize     flexFloat       `json:"tick_size"`
}

// BalanceAllowanceResponse is the response from the balance-allowance
// endpoint. Newer API versions break the allowance out per spender contract;
// older ones return a single summed field.
type BalanceAllowanceResponse struct {
	Balance    string            `json:"balance"`
	Allowance  string            `json:"allowance"`
	Allowances map[string]string `json:"allowances"`
}

// collateralDecimals is the USDC collateral precision (6 decimal places).
const collateralDecimals = 1e6

// BalanceFloat returns the balance scaled from base units to whole
// collateral units.
func (b BalanceAllowanceResponse) BalanceFloat() float64 {
	v, _ := strconv.ParseFloat(b.Balance, 64)
	return v / collateralDecimals
}

// AllowanceFloat returns the total allowance across all spender entries,
// scaled to whole collateral units. Falls back to the legacy summed field
// when the per-spender map is absent.
func (b BalanceAllowanceResponse) AllowanceFloat() float64 {
	if len(b.Allowances) == 0 {
		v, _ := strconv.ParseFloat(b.Allowance, 64)
		return v / collateralDecimals
	}
	var sum float64
	for _, raw := range b.Allowances {
		v, _ := strconv.ParseFloat(raw, 64)
		sum += v
	}
	return sum / collateralDecimals
}

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success      bool   `json:"success"`
	ErrorMsg     string `json:"errorMsg,omitempty"`
	OrderID      string `json:"orderID,omitempty"`
	Status       string `json:"status,omitempty"`
	TransactID   string `json:"transactID,omitempty"`
	TakingAmount string `json:"takingAmount,omitempty"`
	MakingAmount string `json:"makingAmount,omitempty"`
}

// APIOpenOrder is an open order as returned by the CLOB orders endpoint.
type APIOpenOrder struct {
	ID           string `json:"id"`
	Market       string `json:"market"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	Price        string `json:"price"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	Expiration   string `json:"expiration"`
	CreatedAt    string `json:"created_at"`
}

// SignedOrder is the fully built and signed order payload posted to the
// exchange. All numeric fields are decimal strings as the API requires.
type SignedOrder struct {
	Salt          string
	Maker         string
	Signer        string
	Taker         string
	TokenID       string
	MakerAmount   string
	TakerAmount   string
	Expiration    string
	Nonce         string
	FeeRateBps    string
	Side          string
	SignatureType int
	Signature     string
}

// --------------------------------------------------------------------------
// Data (positions) API DTOs
// --------------------------------------------------------------------------

// DataPosition is a wallet position record as returned by the data API.
type DataPosition struct {
	ProxyWallet  string    `json:"proxyWallet"`
	ConditionID  string    `json:"conditionId"`
	Asset        string    `json:"asset"`
	Title        string    `json:"title"`
	Outcome      string    `json:"outcome"`
	Size         flexFloat `json:"size"`
	AvgPrice     flexFloat `json:"avgPrice"`
	CurPrice     flexFloat `json:"curPrice"`
	CurrentValue flexFloat `json:"currentValue"`
	InitialValue flexFloat `json:"initialValue"`
	CashPnL      flexFloat `json:"cashPnl"`
	PercentPnL   flexFloat `json:"percentPnl"`
	Redeemable   bool      `json:"redeemable"`
}
