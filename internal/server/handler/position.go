package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

// PositionService defines the holdings queries the position handler needs.
type PositionService interface {
	GetPositions(ctx context.Context, limit int) ([]domain.Position, error)
	GetRedeemable(ctx context.Context) ([]domain.Position, error)
}

// PositionHandler serves position HTTP endpoints.
type PositionHandler struct {
	positions PositionService
	logger    *slog.Logger
}

// NewPositionHandler creates a PositionHandler.
func NewPositionHandler(positions PositionService, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{positions: positions, logger: logger}
}

// ListPositions returns the wallet's current holdings.
// GET /api/positions?limit=...&redeemable=true
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		positions []domain.Position
		err       error
	)
	if q.Get("redeemable") == "true" {
		positions, err = h.positions.GetRedeemable(r.Context())
	} else {
		limit := 0
		if v := q.Get("limit"); v != "" {
			if n, convErr := strconv.Atoi(v); convErr == nil {
				limit = n
			}
		}
		positions, err = h.positions.GetPositions(r.Context(), limit)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list positions failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list positions")
		return
	}

	if positions == nil {
		positions = []domain.Position{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": positions, "count": len(positions)})
}
