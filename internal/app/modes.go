package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
	"github.com/SidharthK2/polymarket-agent/internal/server"
	"github.com/SidharthK2/polymarket-agent/internal/server/handler"
	"github.com/SidharthK2/polymarket-agent/internal/server/ws"
	"github.com/SidharthK2/polymarket-agent/internal/service"
)

// shutdownGrace is how long in-flight HTTP requests get to finish.
const shutdownGrace = 10 * time.Second

// ServerMode runs the HTTP + WebSocket API until the context is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	var orderSvc handler.OrderService = noWalletOrders{}
	if deps.Orders != nil {
		orderSvc = deps.Orders
	}
	var positionSvc handler.PositionService = noWalletPositions{}
	if deps.Positions != nil {
		positionSvc = deps.Positions
	}

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.logger),
		Markets:   handler.NewMarketHandler(deps.Markets, a.logger),
		Orders:    handler.NewOrderHandler(orderSvc, deps.Markets, a.logger),
		Positions: handler.NewPositionHandler(positionSvc, a.logger),
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	if hub != nil {
		g.Go(func() error {
			err := hub.Run(gctx)
			if err == context.Canceled {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// SearchMode runs one discovery query from the CLI and prints the ranked
// results as a table.
func (a *App) SearchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting search mode")

	opts := service.SearchOptions{Limit: a.cfg.Search.DefaultLimit}

	var (
		markets []domain.Market
		err     error
	)
	switch {
	case len(a.searchInterests) > 0:
		markets, err = deps.Markets.SearchByInterests(ctx, a.searchInterests, opts)
	case a.searchQuery != "":
		markets, err = deps.Markets.SearchByQuery(ctx, a.searchQuery, opts)
	default:
		return fmt.Errorf("app: search mode requires a query or interests")
	}
	if err != nil {
		return fmt.Errorf("app: search: %w", err)
	}

	if len(markets) == 0 {
		fmt.Println("no markets found")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Question", "Category", "Score", "24h Volume", "Liquidity", "Condition ID")
	for _, m := range markets {
		table.Append(
			truncate(m.Question, 60),
			m.Category,
			fmt.Sprintf("%.2f", m.RelevanceScore),
			fmt.Sprintf("%.0f", m.Volume24h),
			fmt.Sprintf("%.0f", m.Liquidity),
			m.ConditionID,
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("app: render results: %w", err)
	}

	a.logger.InfoContext(ctx, "search complete", slog.Int("results", len(markets)))
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// noWalletOrders backs the order endpoints when no wallet key is configured.
type noWalletOrders struct{}

func (noWalletOrders) PlaceOrder(context.Context, domain.Market, domain.OrderRequest) (domain.OrderResponse, error) {
	return domain.OrderResponse{}, errNoWallet()
}
func (noWalletOrders) CancelOrder(context.Context, string) error { return errNoWallet() }
func (noWalletOrders) CancelAllOrders(context.Context) error { return errNoWallet() }
func (noWalletOrders) GetOpenOrders(context.Context, string, string) ([]domain.OpenOrder, error) {
	return nil, errNoWallet()
}
func (noWalletOrders) CheckBuy(context.Context, float64) (domain.OrderRequirements, error) {
	return domain.OrderRequirements{}, errNoWallet()
}
func (noWalletOrders) CheckSell(context.Context, string, float64) (domain.OrderRequirements, error) {
	return domain.OrderRequirements{}, errNoWallet()
}

// noWalletPositions backs the position endpoints when no wallet is configured.
type noWalletPositions struct{}

func (noWalletPositions) GetPositions(context.Context, int) ([]domain.Position, error) {
	return nil, errNoWallet()
}
func (noWalletPositions) GetRedeemable(context.Context) ([]domain.Position, error) {
	return nil, errNoWallet()
}

func errNoWallet() error {
	return fmt.Errorf("app: no wallet configured: %w", domain.ErrUnauthorized)
}
