package domain

import "time"

// PriceLevel is a single price+size entry in an orderbook.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderbookSnapshot is a point-in-time view of bids and asks for a token.
// Bids are sorted best (highest) first, asks best (lowest) first.
type OrderbookSnapshot struct {
	TokenID   string
	Market    string // condition ID of the owning market
	Bids      []PriceLevel
	Asks      []PriceLevel
	TickSize  float64
	MinSize   float64
	Hash      string
	Timestamp time.Time
}

// BestBid returns the highest bid price, or 0 when the bid side is empty.
func (s OrderbookSnapshot) BestBid() float64 {
	if len(s.Bids) == 0 {
		return 0
	}
	return s.Bids[0].Price
}

// BestAsk returns the lowest ask price, or 0 when the ask side is empty.
func (s OrderbookSnapshot) BestAsk() float64 {
	if len(s.Asks) == 0 {
		return 0
	}
	return s.Asks[0].Price
}

// Midpoint returns the bid/ask midpoint, or 0 when either side is empty.
func (s OrderbookSnapshot) Midpoint() float64 {
	bid, ask := s.BestBid(), s.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}

// Spread returns best ask minus best bid, or 0 when either side is empty.
func (s OrderbookSnapshot) Spread() float64 {
	bid, ask := s.BestBid(), s.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return ask - bid
}
