package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

// OrderService defines the order operations the order handler needs.
type OrderService interface {
	PlaceOrder(ctx context.Context, market domain.Market, req domain.OrderRequest) (domain.OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) error
	CancelAllOrders(ctx context.Context) error
	GetOpenOrders(ctx context.Context, market, tokenID string) ([]domain.OpenOrder, error)
	CheckBuy(ctx context.Context, orderValue float64) (domain.OrderRequirements, error)
	CheckSell(ctx context.Context, tokenID string, size float64) (domain.OrderRequirements, error)
}

// MarketGetter resolves condition IDs to full markets for placement.
type MarketGetter interface {
	GetMarket(ctx context.Context, conditionID string) (domain.Market, error)
}

// OrderHandler serves order HTTP endpoints.
type OrderHandler struct {
	orders  OrderService
	markets MarketGetter
	logger  *slog.Logger
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orders OrderService, markets MarketGetter, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, markets: markets, logger: logger}
}

type placeOrderRequest struct {
	ConditionID           string  `json:"condition_id"`
	TokenID               string  `json:"token_id"`
	Outcome               string  `json:"outcome"`
	Side                  string  `json:"side"`
	Type                  string  `json:"type"`
	Price                 float64 `json:"price"`
	Size                  float64 `json:"size"`
	Amount                float64 `json:"amount"`
	ExpirationMinutes     int     `json:"expiration_minutes"`
	SkipRequirementsCheck bool    `json:"skip_requirements_check"`
}

// PlaceOrder validates and submits an order.
// POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ConditionID == "" {
		writeError(w, http.StatusBadRequest, "condition_id is required")
		return
	}

	market, err := h.markets.GetMarket(r.Context(), req.ConditionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: resolve market failed",
			slog.String("condition_id", req.ConditionID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to resolve market")
		return
	}

	tokenID := req.TokenID
	if tokenID == "" && req.Outcome != "" {
		var ok bool
		tokenID, ok = market.TokenForOutcome(req.Outcome)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown outcome: "+req.Outcome)
			return
		}
	}

	resp, err := h.orders.PlaceOrder(r.Context(), market, domain.OrderRequest{
		TokenID:               tokenID,
		Side:                  domain.OrderSide(req.Side),
		Type:                  domain.OrderType(req.Type),
		Price:                 req.Price,
		Size:                  req.Size,
		Amount:                req.Amount,
		ExpirationMinutes:     req.ExpirationMinutes,
		SkipRequirementsCheck: req.SkipRequirementsCheck,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidParameters):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "rate limited")
		default:
			h.logger.ErrorContext(r.Context(), "handler: place order failed",
				slog.String("token_id", tokenID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to place order")
		}
		return
	}

	status := http.StatusCreated
	if !resp.Success {
		// A reported gate failure or exchange rejection, not a fault.
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

type checkOrderRequest struct {
	Side    string  `json:"side"`
	TokenID string  `json:"token_id"`
	Value   float64 `json:"value"`
	Size    float64 `json:"size"`
}

// CheckOrder runs the pre-submission requirements check without placing
// anything.
// POST /api/orders/check
func (h *OrderHandler) CheckOrder(w http.ResponseWriter, r *http.Request) {
	var req checkOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var (
		reqs domain.OrderRequirements
		err  error
	)
	switch domain.OrderSide(req.Side) {
	case domain.OrderSideBuy:
		reqs, err = h.orders.CheckBuy(r.Context(), req.Value)
	case domain.OrderSideSell:
		reqs, err = h.orders.CheckSell(r.Context(), req.TokenID, req.Size)
	default:
		writeError(w, http.StatusBadRequest, "side must be BUY or SELL")
		return
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidParameters) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: check order failed",
			slog.String("side", req.Side),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to check order")
		return
	}

	writeJSON(w, http.StatusOK, reqs)
}

// ListOpen returns the wallet's resting orders.
// GET /api/orders/open?market=...&token_id=...
func (h *OrderHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.orders.GetOpenOrders(r.Context(), q.Get("market"), q.Get("token_id"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list open orders failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []domain.OpenOrder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "count": len(orders)})
}

// CancelOrder cancels one resting order.
// DELETE /api/orders/{id}
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	if err := h.orders.CancelOrder(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: cancel order failed",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to cancel order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled", "order_id": id})
}

// CancelAll cancels every resting order for the wallet.
// DELETE /api/orders
func (h *OrderHandler) CancelAll(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.CancelAllOrders(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: cancel all failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to cancel orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
