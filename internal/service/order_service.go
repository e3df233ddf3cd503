package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SidharthK2/polymarket-agent/internal/crypto"
	"github.com/SidharthK2/polymarket-agent/internal/domain"
	"github.com/SidharthK2/polymarket-agent/internal/platform/polymarket"
)

// Price and size bounds for limit orders. The exchange tick range is
// [0.01, 0.99]; anything outside cannot rest on the book.
const (
	minLimitPrice = 0.01
	maxLimitPrice = 0.99
	minOrderSize  = 1.0

	// gtdPad is added to every good-till-date expiration because the
	// exchange rejects expirations too close to submission time.
	gtdPad = time.Minute

	// worstMarketPrice is the fallback marketable price for a fill-or-kill
	// buy when the ask side is empty.
	worstMarketPrice = 0.99
)

// amountScale converts display prices/sizes to the 6-decimal integer
// amounts the exchange contract uses.
var amountScale = decimal.NewFromInt(1_000_000)

// OrderSigner abstracts EIP-712 order signing so the service layer never
// depends on concrete key-management implementations.
type OrderSigner interface {
	SignOrder(payload crypto.OrderPayload) (string, error)
	Address() common.Address
}

// OrderGateway is the authenticated slice of the trading API the order
// flow needs.
type OrderGateway interface {
	GetBalanceAllowance(ctx context.Context, assetType, tokenID string) (polymarket.BalanceAllowanceResponse, error)
	PostOrder(ctx context.Context, order polymarket.SignedOrder, orderType domain.OrderType) (domain.OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
	CancelAll(ctx context.Context) error
	GetOpenOrders(ctx context.Context, market, tokenID string) ([]domain.OpenOrder, error)
}

// BookFetcher provides the book lookup a fill-or-kill buy needs to find
// its marketable price.
type BookFetcher interface {
	GetOrderBook(ctx context.Context, tokenID string) (domain.OrderbookSnapshot, error)
}

// OrderService validates, builds, signs, and submits orders. The journal,
// audit log, rate limiter, and event bus are optional: a nil collaborator
// disables that concern without changing order semantics.
type OrderService struct {
	clob          OrderGateway
	books         BookFetcher
	signer        OrderSigner
	journal       domain.OrderLogStore
	audit         domain.AuditStore
	limiter       domain.RateLimiter
	bus           domain.SignalBus
	signatureType int
	funder        string
	logger        *slog.Logger
	now           func() time.Time
}

// NewOrderService creates an OrderService.
func NewOrderService(
	clob OrderGateway,
	books BookFetcher,
	signer OrderSigner,
	signatureType int,
	funder string,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		clob:          clob,
		books:         books,
		signer:        signer,
		signatureType: signatureType,
		funder:        funder,
		logger:        logger,
		now:           time.Now,
	}
}

// WithJournal attaches the append-only submission journal.
func (s *OrderService) WithJournal(journal domain.OrderLogStore) *OrderService {
	s.journal = journal
	return s
}

// WithAudit attaches the audit log.
func (s *OrderService) WithAudit(audit domain.AuditStore) *OrderService {
	s.audit = audit
	return s
}

// WithRateLimiter attaches the cross-process submission rate limiter.
func (s *OrderService) WithRateLimiter(limiter domain.RateLimiter) *OrderService {
	s.limiter = limiter
	return s
}

// WithSignalBus attaches the order lifecycle event bus.
func (s *OrderService) WithSignalBus(bus domain.SignalBus) *OrderService {
	s.bus = bus
	return s
}

// CheckBuy reports whether the wallet can fund a buy of the given USD
// value. An insufficient balance or allowance is a business outcome, not an
// error: it comes back as CanPlace=false with a reason.
func (s *OrderService) CheckBuy(ctx context.Context, orderValue float64) (domain.OrderRequirements, error) {
	if orderValue <= 0 {
		return domain.OrderRequirements{}, fmt.Errorf("order_service: %w: order value must be positive, got %g", domain.ErrInvalidParameters, orderValue)
	}

	resp, err := s.clob.GetBalanceAllowance(ctx, polymarket.AssetTypeCollateral, "")
	if err != nil {
		return domain.OrderRequirements{}, fmt.Errorf("order_service: check buy: %w", err)
	}

	balance := resp.BalanceFloat()
	allowance := resp.AllowanceFloat()

	req := domain.OrderRequirements{
		Balance:      balance,
		Allowance:    allowance,
		CanPlace:     balance >= orderValue && allowance >= orderValue,
		MaxOrderSize: minFloat(balance, allowance, orderValue),
	}
	if !req.CanPlace {
		switch {
		case balance < orderValue:
			req.Reason = fmt.Sprintf("insufficient balance: have $%.2f, need $%.2f", balance, orderValue)
		default:
			req.Reason = fmt.Sprintf("insufficient allowance: have $%.2f, need $%.2f", allowance, orderValue)
		}
	}
	return req, nil
}

// CheckSell reports whether the wallet holds enough of a token to sell the
// given share count.
func (s *OrderService) CheckSell(ctx context.Context, tokenID string, size float64) (domain.OrderRequirements, error) {
	if tokenID == "" || size <= 0 {
		return domain.OrderRequirements{}, fmt.Errorf("order_service: %w: token ID and positive size required", domain.ErrInvalidParameters)
	}

	resp, err := s.clob.GetBalanceAllowance(ctx, polymarket.AssetTypeConditional, tokenID)
	if err != nil {
		return domain.OrderRequirements{}, fmt.Errorf("order_service: check sell: %w", err)
	}

	held := resp.BalanceFloat()
	req := domain.OrderRequirements{
		Balance:      held,
		Allowance:    resp.AllowanceFloat(),
		CanPlace:     held >= size,
		MaxOrderSize: minFloat(held, size),
	}
	if !req.CanPlace {
		req.Reason = fmt.Sprintf("insufficient holdings: have %.2f shares, need %.2f", held, size)
	}
	return req, nil
}

// PlaceOrder runs the full placement flow: parameter validation, the
// tradeability guard, the requirements gate (unless explicitly skipped),
// then build, sign, journal, and submit. A failed gate or an exchange
// rejection comes back as a failure OrderResponse with a nil error; only
// transport and signing faults are Go errors.
func (s *OrderService) PlaceOrder(ctx context.Context, market domain.Market, req domain.OrderRequest) (domain.OrderResponse, error) {
	if err := validateRequest(req); err != nil {
		return domain.OrderResponse{}, err
	}
	if !market.Tradeable() {
		return domain.OrderResponse{}, fmt.Errorf("order_service: %w: market %q: %w",
			domain.ErrInvalidParameters, market.ID, domain.ErrUntradeableMarket)
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, "orders:"+s.signer.Address().Hex())
		if err != nil {
			return domain.OrderResponse{}, fmt.Errorf("order_service: rate limiter: %w", err)
		}
		if !allowed {
			return domain.OrderResponse{}, fmt.Errorf("order_service: %w: submission rate exceeded", domain.ErrRateLimited)
		}
	}

	// Requirements gate. Reported, never thrown: the caller decides what
	// to do with a failed check.
	if !req.SkipRequirementsCheck {
		reqs, err := s.checkFor(ctx, req)
		if err != nil {
			return domain.OrderResponse{}, err
		}
		if !reqs.CanPlace {
			s.logger.InfoContext(ctx, "order_service: requirements gate failed",
				slog.String("token_id", req.TokenID),
				slog.String("reason", reqs.Reason),
				slog.Float64("max_order_size", reqs.MaxOrderSize),
			)
			return domain.OrderResponse{
				Success: false,
				Status:  domain.OrderStatusPending,
				Error:   reqs.Reason,
				Details: s.detailsFor(req, nil),
			}, nil
		}
	}

	built, err := s.buildOrder(ctx, req)
	if err != nil {
		return domain.OrderResponse{}, err
	}

	signature, err := s.signer.SignOrder(built.payload)
	if err != nil {
		return domain.OrderResponse{}, fmt.Errorf("order_service: %w: %w", domain.ErrSigningFailed, err)
	}
	built.signed.Signature = signature

	rec := s.journalRecord(market, req, built)
	s.journalCreate(ctx, rec)

	result, postErr := s.clob.PostOrder(ctx, built.signed, req.Type)
	if postErr != nil {
		if errors.Is(postErr, domain.ErrExchangeRejected) {
			s.journalStatus(ctx, rec.ID, domain.OrderStatusRejected, result.Message)
			s.auditLog(ctx, "order_rejected", map[string]any{
				"journal_id": rec.ID,
				"token_id":   req.TokenID,
				"reason":     result.Message,
			})
			s.publish(ctx, "order_rejected", rec.ID, req.TokenID, map[string]any{"reason": result.Message})

			s.logger.WarnContext(ctx, "order_service: exchange rejected order",
				slog.String("journal_id", rec.ID),
				slog.String("token_id", req.TokenID),
				slog.String("reason", result.Message),
			)
			return domain.OrderResponse{
				Success: false,
				Status:  domain.OrderStatusRejected,
				Error:   result.Message,
				Details: s.detailsFor(req, built),
			}, nil
		}
		s.journalStatus(ctx, rec.ID, domain.OrderStatusRejected, postErr.Error())
		return domain.OrderResponse{}, fmt.Errorf("order_service: post order: %w", postErr)
	}

	s.journalStatus(ctx, rec.ID, result.Status, "")
	if result.OrderID != "" && s.journal != nil {
		if err := s.journal.SetExchangeID(ctx, rec.ID, result.OrderID); err != nil {
			s.logger.WarnContext(ctx, "order_service: journal exchange id failed",
				slog.String("journal_id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.auditLog(ctx, "order_placed", map[string]any{
		"journal_id": rec.ID,
		"order_id":   result.OrderID,
		"token_id":   req.TokenID,
		"side":       string(req.Side),
		"type":       string(req.Type),
		"price":      built.price,
		"size":       built.size,
	})
	s.publish(ctx, "order_placed", result.OrderID, req.TokenID, map[string]any{
		"side": string(req.Side),
		"type": string(req.Type),
	})

	s.logger.InfoContext(ctx, "order_service: order placed",
		slog.String("order_id", result.OrderID),
		slog.String("token_id", req.TokenID),
		slog.String("side", string(req.Side)),
		slog.String("type", string(req.Type)),
		slog.String("status", string(result.Status)),
	)

	return domain.OrderResponse{
		Success: true,
		OrderID: result.OrderID,
		Status:  result.Status,
		Details: s.detailsFor(req, built),
	}, nil
}

// CancelOrder cancels a single resting order by its exchange ID.
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) error {
	if err := s.clob.CancelOrder(ctx, orderID); err != nil {
		return fmt.Errorf("order_service: cancel order %q: %w", orderID, err)
	}
	s.auditLog(ctx, "order_cancelled", map[string]any{"order_id": orderID})
	s.publish(ctx, "order_cancelled", orderID, "", nil)
	s.logger.InfoContext(ctx, "order_service: order cancelled", slog.String("order_id", orderID))
	return nil
}

// CancelAllOrders cancels every resting order for the wallet.
func (s *OrderService) CancelAllOrders(ctx context.Context) error {
	if err := s.clob.CancelAll(ctx); err != nil {
		return fmt.Errorf("order_service: cancel all: %w", err)
	}
	s.auditLog(ctx, "orders_cancelled_all", nil)
	s.publish(ctx, "orders_cancelled_all", "", "", nil)
	s.logger.InfoContext(ctx, "order_service: cancelled all open orders")
	return nil
}

// GetOpenOrders returns the wallet's resting orders, optionally filtered
// by market or token.
func (s *OrderService) GetOpenOrders(ctx context.Context, market, tokenID string) ([]domain.OpenOrder, error) {
	orders, err := s.clob.GetOpenOrders(ctx, market, tokenID)
	if err != nil {
		return nil, fmt.Errorf("order_service: get open orders: %w", err)
	}
	return orders, nil
}

// --------------------------------------------------------------------------
// Order construction
// --------------------------------------------------------------------------

// builtOrder carries the signing payload and wire form of one order plus
// the display price/size actually used.
type builtOrder struct {
	payload    crypto.OrderPayload
	signed     polymarket.SignedOrder
	price      float64
	size       float64
	expiration *time.Time
}

// validateRequest rejects malformed parameters before any network call.
func validateRequest(req domain.OrderRequest) error {
	if req.TokenID == "" {
		return fmt.Errorf("order_service: %w: token ID required", domain.ErrInvalidParameters)
	}
	if req.Side != domain.OrderSideBuy && req.Side != domain.OrderSideSell {
		return fmt.Errorf("order_service: %w: unknown side %q", domain.ErrInvalidParameters, req.Side)
	}

	switch req.Type {
	case domain.OrderTypeGTC, domain.OrderTypeGTD:
		if req.Price < minLimitPrice || req.Price > maxLimitPrice {
			return fmt.Errorf("order_service: %w: price %g outside [%g, %g]",
				domain.ErrInvalidParameters, req.Price, minLimitPrice, maxLimitPrice)
		}
		if req.Size < minOrderSize {
			return fmt.Errorf("order_service: %w: size %g below minimum %g",
				domain.ErrInvalidParameters, req.Size, minOrderSize)
		}
		if req.Type == domain.OrderTypeGTD && req.ExpirationMinutes <= 0 {
			return fmt.Errorf("order_service: %w: GTD order requires positive expiration minutes",
				domain.ErrInvalidParameters)
		}
	case domain.OrderTypeFOK:
		if req.Side == domain.OrderSideBuy {
			if req.Amount <= 0 {
				return fmt.Errorf("order_service: %w: FOK buy requires positive USD amount",
					domain.ErrInvalidParameters)
			}
		} else {
			if req.Size <= 0 {
				return fmt.Errorf("order_service: %w: FOK sell requires positive share size",
					domain.ErrInvalidParameters)
			}
			if req.Price < minLimitPrice || req.Price > maxLimitPrice {
				return fmt.Errorf("order_service: %w: FOK sell floor price %g outside [%g, %g]",
					domain.ErrInvalidParameters, req.Price, minLimitPrice, maxLimitPrice)
			}
		}
	default:
		return fmt.Errorf("order_service: %w: unsupported order type %q", domain.ErrInvalidParameters, req.Type)
	}
	return nil
}

// checkFor runs the side-appropriate requirements check for a request.
func (s *OrderService) checkFor(ctx context.Context, req domain.OrderRequest) (domain.OrderRequirements, error) {
	if req.Side == domain.OrderSideBuy {
		return s.CheckBuy(ctx, req.Notional())
	}
	return s.CheckSell(ctx, req.TokenID, req.Size)
}

// buildOrder computes maker/taker amounts and assembles the signing payload.
// Buy orders offer collateral for shares; sell orders the reverse.
func (s *OrderService) buildOrder(ctx context.Context, req domain.OrderRequest) (*builtOrder, error) {
	price := decimal.NewFromFloat(req.Price)
	size := decimal.NewFromFloat(req.Size)

	if req.Type == domain.OrderTypeFOK && req.Side == domain.OrderSideBuy {
		// Marketable price from the live ask side; the USD amount is fixed
		// and the share count is derived.
		marketable, err := s.marketableAsk(ctx, req.TokenID)
		if err != nil {
			return nil, err
		}
		price = decimal.NewFromFloat(marketable)
		size = decimal.NewFromFloat(req.Amount).Div(price)
	}

	var makerAmt, takerAmt decimal.Decimal
	sideInt := 0
	if req.Side == domain.OrderSideBuy {
		makerAmt = price.Mul(size).Mul(amountScale).Round(0)
		takerAmt = size.Mul(amountScale).Round(0)
	} else {
		sideInt = 1
		makerAmt = size.Mul(amountScale).Round(0)
		takerAmt = price.Mul(size).Mul(amountScale).Round(0)
	}

	expiration := "0"
	var expiresAt *time.Time
	if req.Type == domain.OrderTypeGTD {
		t := s.now().Add(gtdPad + time.Duration(req.ExpirationMinutes)*time.Minute)
		expiresAt = &t
		expiration = fmt.Sprintf("%d", t.Unix())
	}

	wallet := s.signer.Address().Hex()
	maker := wallet
	if s.funder != "" {
		maker = s.funder
	}

	payload := crypto.OrderPayload{
		Salt:          fmt.Sprintf("%d", s.now().UnixNano()),
		Maker:         maker,
		Signer:        wallet,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       req.TokenID,
		MakerAmount:   makerAmt.String(),
		TakerAmount:   takerAmt.String(),
		Expiration:    expiration,
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          sideInt,
		SignatureType: s.signatureType,
	}

	priceF, _ := price.Float64()
	sizeF, _ := size.Float64()

	return &builtOrder{
		payload: payload,
		signed: polymarket.SignedOrder{
			Salt:          payload.Salt,
			Maker:         payload.Maker,
			Signer:        payload.Signer,
			Taker:         payload.Taker,
			TokenID:       payload.TokenID,
			MakerAmount:   payload.MakerAmount,
			TakerAmount:   payload.TakerAmount,
			Expiration:    payload.Expiration,
			Nonce:         payload.Nonce,
			FeeRateBps:    payload.FeeRateBps,
			Side:          string(req.Side),
			SignatureType: payload.SignatureType,
		},
		price:      priceF,
		size:       sizeF,
		expiration: expiresAt,
	}, nil
}

// marketableAsk returns the best ask for a token, falling back to the
// worst acceptable price when the ask side is empty.
func (s *OrderService) marketableAsk(ctx context.Context, tokenID string) (float64, error) {
	snap, err := s.books.GetOrderBook(ctx, tokenID)
	if err != nil {
		return 0, fmt.Errorf("order_service: marketable price: %w", err)
	}
	if ask := snap.BestAsk(); ask > 0 {
		return ask, nil
	}
	return worstMarketPrice, nil
}

func (s *OrderService) detailsFor(req domain.OrderRequest, built *builtOrder) domain.OrderDetails {
	d := domain.OrderDetails{
		TokenID: req.TokenID,
		Side:    req.Side,
		Type:    req.Type,
		Price:   req.Price,
		Size:    req.Size,
	}
	if built != nil {
		d.Price = built.price
		d.Size = built.size
		d.Expiration = built.expiration
	}
	d.TotalValue = d.Price * d.Size
	return d
}

func (s *OrderService) journalRecord(market domain.Market, req domain.OrderRequest, built *builtOrder) domain.OrderRecord {
	now := s.now().UTC()
	return domain.OrderRecord{
		ID:          uuid.NewString(),
		TokenID:     req.TokenID,
		ConditionID: market.ConditionID,
		Side:        req.Side,
		Type:        req.Type,
		Price:       built.price,
		Size:        built.size,
		MakerAmount: built.signed.MakerAmount,
		TakerAmount: built.signed.TakerAmount,
		Status:      domain.OrderStatusSigned,
		Signature:   built.signed.Signature,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// journalCreate, journalStatus, auditLog, and publish are best-effort: the
// journal and bus never block an order, they only record it.
func (s *OrderService) journalCreate(ctx context.Context, rec domain.OrderRecord) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Create(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "order_service: journal create failed",
			slog.String("journal_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *OrderService) journalStatus(ctx context.Context, id string, status domain.OrderStatus, errMsg string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.UpdateStatus(ctx, id, status, errMsg); err != nil {
		s.logger.WarnContext(ctx, "order_service: journal update failed",
			slog.String("journal_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (s *OrderService) auditLog(ctx context.Context, event string, detail map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "order_service: audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func (s *OrderService) publish(ctx context.Context, eventType, orderID, tokenID string, detail map[string]any) {
	if s.bus == nil {
		return
	}
	ev := domain.Event{
		Type:      eventType,
		OrderID:   orderID,
		TokenID:   tokenID,
		Detail:    detail,
		Timestamp: s.now().UTC(),
	}
	if err := s.bus.Publish(ctx, "orders", ev); err != nil {
		s.logger.WarnContext(ctx, "order_service: publish event failed",
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
	}
}

func minFloat(vals ...float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
