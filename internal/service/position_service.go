package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
	"github.com/SidharthK2/polymarket-agent/internal/platform/polymarket"
)

// PositionFetcher pulls wallet holdings from the positions API.
type PositionFetcher interface {
	GetPositions(ctx context.Context, wallet string, filter polymarket.PositionFilter) ([]domain.Position, error)
}

// PositionService reports what the wallet currently holds.
type PositionService struct {
	data   PositionFetcher
	wallet string
	logger *slog.Logger
}

// NewPositionService creates a PositionService bound to one wallet address.
func NewPositionService(data PositionFetcher, wallet string, logger *slog.Logger) *PositionService {
	return &PositionService{data: data, wallet: wallet, logger: logger}
}

// GetPositions returns the wallet's current holdings, largest first.
func (s *PositionService) GetPositions(ctx context.Context, limit int) ([]domain.Position, error) {
	if limit <= 0 {
		limit = 100
	}
	positions, err := s.data.GetPositions(ctx, s.wallet, polymarket.PositionFilter{
		Limit:    limit,
		SortBy:   "CURRENT",
		SortDesc: true,
	})
	if err != nil {
		return nil, fmt.Errorf("position_service: get positions: %w", err)
	}

	s.logger.DebugContext(ctx, "position_service: positions fetched",
		slog.String("wallet", s.wallet),
		slog.Int("count", len(positions)),
	)
	return positions, nil
}

// GetRedeemable returns only positions in resolved markets that can be
// redeemed for collateral.
func (s *PositionService) GetRedeemable(ctx context.Context) ([]domain.Position, error) {
	redeemable := true
	positions, err := s.data.GetPositions(ctx, s.wallet, polymarket.PositionFilter{
		Limit:      100,
		Redeemable: &redeemable,
		SortBy:     "CURRENT",
		SortDesc:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("position_service: get redeemable: %w", err)
	}
	return positions, nil
}
