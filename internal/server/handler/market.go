package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
	"github.com/SidharthK2/polymarket-agent/internal/service"
)

// MarketService defines the discovery operations the market handler needs.
type MarketService interface {
	SearchByQuery(ctx context.Context, query string, opts service.SearchOptions) ([]domain.Market, error)
	SearchByInterests(ctx context.Context, interests []string, opts service.SearchOptions) ([]domain.Market, error)
	GetMarket(ctx context.Context, conditionID string) (domain.Market, error)
	GetOrderBook(ctx context.Context, tokenID string) (domain.OrderbookSnapshot, error)
}

// MarketHandler serves market discovery HTTP endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{markets: markets, logger: logger}
}

type searchResponse struct {
	Markets []domain.Market `json:"markets"`
	Count   int             `json:"count"`
}

// Search discovers markets matching a free-text query.
// GET /api/markets/search?q=...&category=...&sort=...&limit=...
func (h *MarketHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q query parameter required")
		return
	}

	markets, err := h.markets.SearchByQuery(r.Context(), query, searchOptsFromQuery(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: market search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Markets: markets, Count: len(markets)})
}

type interestsRequest struct {
	Interests []string `json:"interests"`
	Category  string   `json:"category"`
	SortBy    string   `json:"sort_by"`
	Limit     int      `json:"limit"`
}

// SearchByInterests discovers markets for a set of user interests.
// POST /api/markets/interests
func (h *MarketHandler) SearchByInterests(w http.ResponseWriter, r *http.Request) {
	var req interestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Interests) == 0 {
		writeError(w, http.StatusBadRequest, "at least one interest required")
		return
	}

	markets, err := h.markets.SearchByInterests(r.Context(), req.Interests, service.SearchOptions{
		Category: req.Category,
		SortBy:   req.SortBy,
		Limit:    req.Limit,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: interest search failed",
			slog.Int("interests", len(req.Interests)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Markets: markets, Count: len(markets)})
}

// GetMarket returns full detail for one market.
// GET /api/markets/{conditionId}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	conditionID := pathParam(r, "conditionId")
	if conditionID == "" {
		writeError(w, http.StatusBadRequest, "missing condition id")
		return
	}

	market, err := h.markets.GetMarket(r.Context(), conditionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get market failed",
			slog.String("condition_id", conditionID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch market")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// GetOrderBook returns a fresh book snapshot for a token.
// GET /api/orderbook/{tokenId}
func (h *MarketHandler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	tokenID := pathParam(r, "tokenId")
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, "missing token id")
		return
	}

	snap, err := h.markets.GetOrderBook(r.Context(), tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order book not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get order book failed",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch order book")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func searchOptsFromQuery(r *http.Request) service.SearchOptions {
	q := r.URL.Query()
	opts := service.SearchOptions{
		Category: q.Get("category"),
		SortBy:   q.Get("sort"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	return opts
}
