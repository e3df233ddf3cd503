package polymarket

import (
	"strconv"
	"strings"
	"time"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

// defaultOutcomes is used when a record carries no outcome labels at all.
// Binary Yes/No is the dominant market shape upstream.
var defaultOutcomes = []string{"Yes", "No"}

// Normalize converts a raw upstream record into the canonical Market. The
// second return is false when the record is unusable (empty question) and
// must be dropped from the batch. Normalize is pure: it never mutates its
// input and normalizing the output of a previous call yields the same value.
func Normalize(raw RawMarket) (domain.Market, bool) {
	switch raw.Source {
	case SourceGamma:
		if raw.Gamma == nil {
			return domain.Market{}, false
		}
		return normalizeGamma(*raw.Gamma)
	case SourceClob:
		if raw.Clob == nil {
			return domain.Market{}, false
		}
		return normalizeClob(*raw.Clob)
	}
	return domain.Market{}, false
}

func normalizeGamma(g GammaMarket) (domain.Market, bool) {
	question := strings.TrimSpace(g.Question)
	if question == "" {
		return domain.Market{}, false
	}

	m := domain.Market{
		ID:           g.ID,
		ConditionID:  g.ConditionID,
		Question:     question,
		Description:  g.Description,
		Category:     g.Category,
		Slug:         g.Slug,
		Outcomes:     outcomesOrDefault([]string(g.Outcomes)),
		TokenIDs:     append([]string(nil), g.ClobTokenIDs...),
		Active:       bool(g.Active),
		Closed:       bool(g.Closed),
		Volume24h:    float64(g.Volume24hr),
		VolumeTotal:  float64(g.Volume),
		Liquidity:    float64(g.LiquidityNum),
		BestBid:      float64(g.BestBid),
		BestAsk:      float64(g.BestAsk),
		Spread:       float64(g.Spread),
		MinOrderSize: float64(g.OrderMinSize),
		TickSize:     float64(g.TickSize),
		NegRisk:      bool(g.NegRisk),
	}
	if m.Liquidity == 0 {
		m.Liquidity = float64(g.Liquidity)
	}
	if m.Volume24h < 0 {
		m.Volume24h = 0
	}
	if m.Liquidity < 0 {
		m.Liquidity = 0
	}

	// The event carries the category when the market record has none; the
	// first event's ticker is the most reliable tag upstream provides.
	if len(g.Events) > 0 {
		m.EventID = g.Events[0].ID
		m.EventTitle = g.Events[0].Title
		if m.Category == "" {
			m.Category = g.Events[0].Ticker
		}
	}

	m.EndDate = parseEndDate(g.EndDateISO, g.EndDate)
	return m, true
}

func normalizeClob(c ClobMarket) (domain.Market, bool) {
	question := strings.TrimSpace(c.Question)
	if question == "" {
		return domain.Market{}, false
	}

	m := domain.Market{
		ID:           c.ConditionID,
		ConditionID:  c.ConditionID,
		Question:     question,
		Description:  c.Description,
		Category:     c.Category,
		Slug:         c.MarketSlug,
		Active:       bool(c.Active),
		Closed:       bool(c.Closed),
		Volume24h:    float64(c.Volume24hr),
		Liquidity:    float64(c.Liquidity),
		MinOrderSize: float64(c.MinOrderSize),
		TickSize:     float64(c.MinTickSize),
		NegRisk:      bool(c.NegRisk),
	}
	if m.Volume24h < 0 {
		m.Volume24h = 0
	}
	if m.Liquidity < 0 {
		m.Liquidity = 0
	}

	if len(c.Tokens) > 0 {
		m.Outcomes = make([]string, 0, len(c.Tokens))
		m.TokenIDs = make([]string, 0, len(c.Tokens))
		for _, tok := range c.Tokens {
			outcome := tok.Outcome
			if outcome == "" {
				outcome = "Outcome " + strconv.Itoa(len(m.Outcomes)+1)
			}
			m.Outcomes = append(m.Outcomes, outcome)
			m.TokenIDs = append(m.TokenIDs, tok.TokenID)
		}
	} else {
		m.Outcomes = outcomesOrDefault(nil)
	}

	m.EndDate = parseEndDate(c.EndDateISO)
	return m, true
}

// outcomesOrDefault copies the given labels, dropping blanks, and falls back
// to Yes/No when nothing usable remains.
func outcomesOrDefault(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, o := range raw {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultOutcomes...)
	}
	return out
}

// parseEndDate returns the first candidate that parses as RFC 3339 or a
// bare date, or nil when none do.
func parseEndDate(candidates ...string) *time.Time {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, c); err == nil {
			return &t
		}
		if t, err := time.Parse("2006-01-02", c); err == nil {
			return &t
		}
	}
	return nil
}

// ToSnapshot converts a raw CLOB book into a domain snapshot. Bids sort best
// (highest) first and asks best (lowest) first regardless of upstream order.
func (b ClobBook) ToSnapshot() domain.OrderbookSnapshot {
	snap := domain.OrderbookSnapshot{
		TokenID:  b.AssetID,
		Market:   b.Market,
		Hash:     b.Hash,
		TickSize: float64(b.TickSize),
		MinSize:  float64(b.MinOrderSize),
		Bids:     parseLevels(b.Bids, true),
		Asks:     parseLevels(b.Asks, false),
	}

	if ts, err := strconv.ParseInt(b.Timestamp, 10, 64); err == nil {
		// Upstream sends milliseconds since epoch.
		snap.Timestamp = time.UnixMilli(ts)
	} else {
		snap.Timestamp = time.Now()
	}

	return snap
}

// parseLevels converts raw string levels to floats, dropping unparseable
// entries, and sorts best-first (descending for bids, ascending for asks).
func parseLevels(raw []RawPriceLevel, descending bool) []domain.PriceLevel {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, lvl := range raw {
		p, perr := strconv.ParseFloat(lvl.Price, 64)
		s, serr := strconv.ParseFloat(lvl.Size, 64)
		if perr != nil || serr != nil {
			continue
		}
		levels = append(levels, domain.PriceLevel{Price: p, Size: s})
	}
	// Insertion sort keeps identical-price levels in upstream order.
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0; j-- {
			swap := levels[j].Price > levels[j-1].Price
			if !descending {
				swap = levels[j].Price < levels[j-1].Price
			}
			if !swap {
				break
			}
			levels[j], levels[j-1] = levels[j-1], levels[j]
		}
	}
	return levels
}

// ToDomainResult converts an APIOrderResult to a domain.OrderResult.
func (r *APIOrderResult) ToDomainResult() domain.OrderResult {
	result := domain.OrderResult{
		Success:      r.Success,
		OrderID:      r.OrderID,
		Message:      r.ErrorMsg,
		TakingAmount: r.TakingAmount,
		MakingAmount: r.MakingAmount,
	}

	switch r.Status {
	case "live", "open":
		result.Status = domain.OrderStatusSubmitted
	case "matched":
		result.Status = domain.OrderStatusMatched
	default:
		if r.Success {
			result.Status = domain.OrderStatusSubmitted
		} else {
			result.Status = domain.OrderStatusRejected
		}
	}

	return result
}

// ToDomainOpenOrder converts an APIOpenOrder to a domain.OpenOrder.
func (a *APIOpenOrder) ToDomainOpenOrder() domain.OpenOrder {
	o := domain.OpenOrder{
		ID:          a.ID,
		TokenID:     a.AssetID,
		ConditionID: a.Market,
	}
	switch a.Side {
	case "SELL":
		o.Side = domain.OrderSideSell
	default:
		o.Side = domain.OrderSideBuy
	}
	o.Price, _ = strconv.ParseFloat(a.Price, 64)
	o.OriginalSize, _ = strconv.ParseFloat(a.OriginalSize, 64)
	o.SizeMatched, _ = strconv.ParseFloat(a.SizeMatched, 64)
	if exp, err := strconv.ParseInt(a.Expiration, 10, 64); err == nil && exp > 0 {
		t := time.Unix(exp, 0)
		o.Expiration = &t
	}
	if t, err := time.Parse(time.RFC3339, a.CreatedAt); err == nil {
		o.CreatedAt = t
	} else if ts, err := strconv.ParseInt(a.CreatedAt, 10, 64); err == nil {
		o.CreatedAt = time.Unix(ts, 0)
	}
	return o
}

// ToDomainPosition converts a data-API position record.
func (p *DataPosition) ToDomainPosition() domain.Position {
	return domain.Position{
		Wallet:       p.ProxyWallet,
		ConditionID:  p.ConditionID,
		TokenID:      p.Asset,
		Outcome:      p.Outcome,
		Market:       p.Title,
		Size:         float64(p.Size),
		AvgPrice:     float64(p.AvgPrice),
		CurrentPrice: float64(p.CurPrice),
		CurrentValue: float64(p.CurrentValue),
		InitialValue: float64(p.InitialValue),
		CashPnL:      float64(p.CashPnL),
		PercentPnL:   float64(p.PercentPnL),
		Redeemable:   p.Redeemable,
	}
}
