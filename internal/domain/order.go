package domain

import "time"

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType indicates the time-in-force policy.
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good-Till-Cancelled
	OrderTypeGTD OrderType = "GTD" // Good-Till-Date
	OrderTypeFOK OrderType = "FOK" // Fill-Or-Kill
	OrderTypeFAK OrderType = "FAK" // Fill-And-Kill
)

// OrderStatus tracks the order lifecycle inside the engine.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // validated, not yet signed
	OrderStatusSigned    OrderStatus = "signed"    // signed, not yet submitted
	OrderStatusSubmitted OrderStatus = "submitted" // accepted by the exchange
	OrderStatusMatched   OrderStatus = "matched"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRejected  OrderStatus = "rejected"
)

// OrderRequest is a normalised placement request. Field use depends on Type
// and Side:
//
//	GTC / GTD     Price is the limit price, Size is the share quantity.
//	GTD           ExpirationMinutes sets the lifetime from now.
//	FOK buy       Amount is the USD notional to spend; Price and Size are ignored.
//	FOK sell      Size is the share quantity and Price the floor price.
type OrderRequest struct {
	TokenID           string
	Side              OrderSide
	Type              OrderType
	Price             float64
	Size              float64
	Amount            float64
	ExpirationMinutes int

	// SkipRequirementsCheck bypasses the pre-submission balance and
	// allowance gate. The exchange still enforces both.
	SkipRequirementsCheck bool
}

// Notional returns the USD value the request commits when buying, or the
// proceeds floor when selling.
func (r OrderRequest) Notional() float64 {
	if r.Type == OrderTypeFOK && r.Side == OrderSideBuy {
		return r.Amount
	}
	return r.Price * r.Size
}

// OrderRequirements is the result of a pre-submission balance and allowance
// check. A failed check is reported here, never as an error.
type OrderRequirements struct {
	CanPlace     bool
	Reason       string
	Balance      float64
	Allowance    float64
	MaxOrderSize float64
}

// OrderRecord is one row of the append-only submission journal.
type OrderRecord struct {
	ID              string
	TokenID         string
	ConditionID     string
	Side            OrderSide
	Type            OrderType
	Price           float64
	Size            float64
	MakerAmount     string // integer amount from the signed payload
	TakerAmount     string
	Status          OrderStatus
	ExchangeOrderID string
	Signature       string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderResult wraps the exchange response after order submission.
type OrderResult struct {
	Success      bool
	OrderID      string
	Status       OrderStatus
	Message      string
	TakingAmount string
	MakingAmount string
}

// OrderDetails echoes what was actually submitted, for display and
// journaling.
type OrderDetails struct {
	TokenID    string
	Side       OrderSide
	Type       OrderType
	Price      float64
	Size       float64
	TotalValue float64
	Expiration *time.Time
}

// OrderResponse is the caller-facing outcome of a placement attempt.
// Created once per submission and never mutated afterward. A validation or
// exchange failure is reported here with Success=false, not as a Go error.
type OrderResponse struct {
	Success bool
	OrderID string
	Status  OrderStatus
	Error   string
	Details OrderDetails
}

// OpenOrder is an order resting on the exchange book, as reported by the
// open-orders endpoint.
type OpenOrder struct {
	ID           string
	TokenID      string
	ConditionID  string
	Side         OrderSide
	Price        float64
	OriginalSize float64
	SizeMatched  float64
	Expiration   *time.Time
	CreatedAt    time.Time
}
