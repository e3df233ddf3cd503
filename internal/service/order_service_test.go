package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SidharthK2/polymarket-agent/internal/crypto"
	"github.com/SidharthK2/polymarket-agent/internal/domain"
	"github.com/SidharthK2/polymarket-agent/internal/platform/polymarket"
)

const testConditionID = "0x1234567890123456789012345678901234567890123456789012345678901234"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tradeableMarket() domain.Market {
	return domain.Market{
		ID:          "m1",
		ConditionID: testConditionID,
		Question:    "Will the Lakers win?",
		Outcomes:    []string{"Yes", "No"},
		TokenIDs:    []string{"111", "222"},
	}
}

// fakeGateway implements OrderGateway and BookFetcher, counting every
// network-facing call.
type fakeGateway struct {
	mu sync.Mutex

	balance   float64 // collateral units
	allowance float64
	holdings  float64 // conditional units for sells

	postResult domain.OrderResult
	postErr    error
	lastOrder  polymarket.SignedOrder
	lastType   domain.OrderType

	bestAsk float64

	balanceCalls int
	postCalls    int
	bookCalls    int
	cancelCalls  int
}

func (f *fakeGateway) GetBalanceAllowance(ctx context.Context, assetType, tokenID string) (polymarket.BalanceAllowanceResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++

	toBase := func(v float64) string {
		return strconv.FormatFloat(v*1e6, 'f', 0, 64)
	}
	if assetType == polymarket.AssetTypeConditional {
		return polymarket.BalanceAllowanceResponse{
			Balance:   toBase(f.holdings),
			Allowance: toBase(f.holdings),
		}, nil
	}
	return polymarket.BalanceAllowanceResponse{
		Balance:   toBase(f.balance),
		Allowance: toBase(f.allowance),
	}, nil
}

func (f *fakeGateway) PostOrder(ctx context.Context, order polymarket.SignedOrder, orderType domain.OrderType) (domain.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postCalls++
	f.lastOrder = order
	f.lastType = orderType
	return f.postResult, f.postErr
}

func (f *fakeGateway) CancelOrder(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return nil
}

func (f *fakeGateway) CancelAll(ctx context.Context) error { return nil }

func (f *fakeGateway) GetOpenOrders(ctx context.Context, market, tokenID string) ([]domain.OpenOrder, error) {
	return nil, nil
}

func (f *fakeGateway) GetOrderBook(ctx context.Context, tokenID string) (domain.OrderbookSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookCalls++
	snap := domain.OrderbookSnapshot{TokenID: tokenID}
	if f.bestAsk > 0 {
		snap.Asks = []domain.PriceLevel{{Price: f.bestAsk, Size: 100}}
	}
	return snap, nil
}

func (f *fakeGateway) networkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanceCalls + f.postCalls + f.bookCalls + f.cancelCalls
}

// fakeSigner avoids real key material in tests.
type fakeSigner struct{}

func (fakeSigner) SignOrder(payload crypto.OrderPayload) (string, error) {
	return "0xsignature", nil
}

func (fakeSigner) Address() common.Address {
	return common.HexToAddress("0x00000000000000000000000000000000000000aa")
}

// fakeJournal records journal mutations in memory.
type fakeJournal struct {
	mu       sync.Mutex
	created  []domain.OrderRecord
	statuses []domain.OrderStatus
}

func (j *fakeJournal) Create(ctx context.Context, rec domain.OrderRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.created = append(j.created, rec)
	return nil
}

func (j *fakeJournal) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.statuses = append(j.statuses, status)
	return nil
}

func (j *fakeJournal) SetExchangeID(ctx context.Context, id, exchangeID string) error { return nil }

func (j *fakeJournal) GetByID(ctx context.Context, id string) (domain.OrderRecord, error) {
	return domain.OrderRecord{}, domain.ErrNotFound
}

func (j *fakeJournal) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.OrderRecord, error) {
	return nil, nil
}

func newTestOrderService(gw *fakeGateway) *OrderService {
	return NewOrderService(gw, gw, fakeSigner{}, 0, "", testLogger())
}

func TestCheckBuy(t *testing.T) {
	tests := []struct {
		name       string
		balance    float64
		allowance  float64
		orderValue float64
		canPlace   bool
		maxSize    float64
		reasonPart string
	}{
		{"sufficient funds", 100, 100, 50, true, 50, ""},
		{"insufficient balance", 100, 200, 150, false, 100, "insufficient balance"},
		{"insufficient allowance", 200, 30, 150, false, 30, "insufficient allowance"},
		{"exact balance", 50, 50, 50, true, 50, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{balance: tt.balance, allowance: tt.allowance}
			svc := newTestOrderService(gw)

			reqs, err := svc.CheckBuy(context.Background(), tt.orderValue)
			require.NoError(t, err)
			assert.Equal(t, tt.canPlace, reqs.CanPlace)
			assert.InDelta(t, tt.maxSize, reqs.MaxOrderSize, 1e-9)
			if tt.reasonPart != "" {
				assert.Contains(t, reqs.Reason, tt.reasonPart)
			} else {
				assert.Empty(t, reqs.Reason)
			}
		})
	}
}

func TestCheckBuyRejectsNonPositiveValue(t *testing.T) {
	svc := newTestOrderService(&fakeGateway{})
	_, err := svc.CheckBuy(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestCheckSell(t *testing.T) {
	gw := &fakeGateway{holdings: 25}
	svc := newTestOrderService(gw)

	reqs, err := svc.CheckSell(context.Background(), "111", 10)
	require.NoError(t, err)
	assert.True(t, reqs.CanPlace)
	assert.InDelta(t, 10, reqs.MaxOrderSize, 1e-9)

	reqs, err = svc.CheckSell(context.Background(), "111", 40)
	require.NoError(t, err)
	assert.False(t, reqs.CanPlace)
	assert.Contains(t, reqs.Reason, "insufficient holdings")
}

func TestPlaceOrderValidation(t *testing.T) {
	tests := []struct {
		name string
		req  domain.OrderRequest
	}{
		{"missing token", domain.OrderRequest{Side: domain.OrderSideBuy, Type: domain.OrderTypeGTC, Price: 0.5, Size: 10}},
		{"price too low", domain.OrderRequest{TokenID: "111", Side: domain.OrderSideBuy, Type: domain.OrderTypeGTC, Price: 0.001, Size: 10}},
		{"price too high", domain.OrderRequest{TokenID: "111", Side: domain.OrderSideBuy, Type: domain.OrderTypeGTC, Price: 0.995, Size: 10}},
		{"size below minimum", domain.OrderRequest{TokenID: "111", Side: domain.OrderSideBuy, Type: domain.OrderTypeGTC, Price: 0.5, Size: 0.5}},
		{"GTD without expiration", domain.OrderRequest{TokenID: "111", Side: domain.OrderSideBuy, Type: domain.OrderTypeGTD, Price: 0.5, Size: 10}},
		{"FOK buy without amount", domain.OrderRequest{TokenID: "111", Side: domain.OrderSideBuy, Type: domain.OrderTypeFOK}},
		{"FOK sell without size", domain.OrderRequest{TokenID: "111", Side: domain.OrderSideSell, Type: domain.OrderTypeFOK, Price: 0.5}},
		{"unknown side", domain.OrderRequest{TokenID: "111", Side: "HOLD", Type: domain.OrderTypeGTC, Price: 0.5, Size: 10}},
		{"unsupported type", domain.OrderRequest{TokenID: "111", Side: domain.OrderSideBuy, Type: "IOC", Price: 0.5, Size: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{balance: 1000, allowance: 1000}
			svc := newTestOrderService(gw)

			_, err := svc.PlaceOrder(context.Background(), tradeableMarket(), tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidParameters)
			assert.Zero(t, gw.networkCalls(), "validation failures must not reach the network")
		})
	}
}

func TestPlaceOrderUntradeableMarket(t *testing.T) {
	gw := &fakeGateway{balance: 1000, allowance: 1000}
	svc := newTestOrderService(gw)

	markets := []domain.Market{
		{ID: "no-condition", Question: "q?"},
		{ID: "short", ConditionID: "0xdeadbeef"},
		{ID: "no-prefix", ConditionID: "1234567890123456789012345678901234567890123456789012345678901234ab"},
	}
	req := domain.OrderRequest{TokenID: "111", Side: domain.OrderSideBuy, Type: domain.OrderTypeGTC, Price: 0.5, Size: 10}

	for _, m := range markets {
		_, err := svc.PlaceOrder(context.Background(), m, req)
		assert.ErrorIs(t, err, domain.ErrUntradeableMarket, "market %s", m.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidParameters, "market %s", m.ID)
	}
	assert.Zero(t, gw.networkCalls(), "untradeable markets must not reach the network")
}

func TestPlaceOrderRequirementsGate(t *testing.T) {
	// $10 wallet cannot fund a $65 order; the failure is reported, not thrown.
	gw := &fakeGateway{balance: 10, allowance: 1000}
	svc := newTestOrderService(gw)

	resp, err := svc.PlaceOrder(context.Background(), tradeableMarket(), domain.OrderRequest{
		TokenID: "111",
		Side:    domain.OrderSideBuy,
		Type:    domain.OrderTypeGTC,
		Price:   0.65,
		Size:    100,
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "insufficient balance")
	assert.Zero(t, gw.postCalls, "gated orders must not be submitted")
}

func TestPlaceOrderSkipRequirementsCheck(t *testing.T) {
	gw := &fakeGateway{
		balance:    0,
		allowance:  0,
		postResult: domain.OrderResult{Success: true, OrderID: "ord-1", Status: domain.OrderStatusSubmitted},
	}
	svc := newTestOrderService(gw)

	resp, err := svc.PlaceOrder(context.Background(), tradeableMarket(), domain.OrderRequest{
		TokenID:               "111",
		Side:                  domain.OrderSideBuy,
		Type:                  domain.OrderTypeGTC,
		Price:                 0.5,
		Size:                  10,
		SkipRequirementsCheck: true,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Zero(t, gw.balanceCalls, "skipped gate must not query balances")
	assert.Equal(t, 1, gw.postCalls)
}

func TestPlaceOrderGTCBuyAmounts(t *testing.T) {
	gw := &fakeGateway{
		balance:    1000,
		allowance:  1000,
		postResult: domain.OrderResult{Success: true, OrderID: "ord-2", Status: domain.OrderStatusSubmitted},
	}
	journal := &fakeJournal{}
	svc := newTestOrderService(gw).WithJournal(journal)

	resp, err := svc.PlaceOrder(context.Background(), tradeableMarket(), domain.OrderRequest{
		TokenID: "111",
		Side:    domain.OrderSideBuy,
		Type:    domain.OrderTypeGTC,
		Price:   0.5,
		Size:    10,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, "ord-2", resp.OrderID)
	assert.Equal(t, domain.OrderStatusSubmitted, resp.Status)

	// Buy offers collateral for shares: maker in 6-decimal USDC, taker in
	// 6-decimal shares.
	assert.Equal(t, "5000000", gw.lastOrder.MakerAmount)
	assert.Equal(t, "10000000", gw.lastOrder.TakerAmount)
	assert.Equal(t, "BUY", gw.lastOrder.Side)
	assert.Equal(t, "0", gw.lastOrder.Expiration)
	assert.Equal(t, "0xsignature", gw.lastOrder.Signature)
	assert.Equal(t, domain.OrderTypeGTC, gw.lastType)

	require.Len(t, journal.created, 1)
	assert.Equal(t, domain.OrderStatusSigned, journal.created[0].Status)
	assert.Equal(t, testConditionID, journal.created[0].ConditionID)
	require.NotEmpty(t, journal.statuses)
	assert.Equal(t, domain.OrderStatusSubmitted, journal.statuses[len(journal.statuses)-1])
}

func TestPlaceOrderGTCSellAmounts(t *testing.T) {
	gw := &fakeGateway{
		holdings:   100,
		postResult: domain.OrderResult{Success: true, Status: domain.OrderStatusSubmitted},
	}
	svc := newTestOrderService(gw)

	resp, err := svc.PlaceOrder(context.Background(), tradeableMarket(), domain.OrderRequest{
		TokenID: "111",
		Side:    domain.OrderSideSell,
		Type:    domain.OrderTypeGTC,
		Price:   0.4,
		Size:    25,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)

	// Sell offers shares for collateral.
	assert.Equal(t, "25000000", gw.lastOrder.MakerAmount)
	assert.Equal(t, "10000000", gw.lastOrder.TakerAmount)
	assert.Equal(t, "SELL", gw.lastOrder.Side)
}

func TestPlaceOrderGTDExpiration(t *testing.T) {
	gw := &fakeGateway{
		balance:    1000,
		allowance:  1000,
		postResult: domain.OrderResult{Success: true, Status: domain.OrderStatusSubmitted},
	}
	svc := newTestOrderService(gw)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.PlaceOrder(context.Background(), tradeableMarket(), domain.OrderRequest{
		TokenID:           "111",
		Side:              domain.OrderSideBuy,
		Type:              domain.OrderTypeGTD,
		Price:             0.5,
		Size:              10,
		ExpirationMinutes: 30,
	})
	require.NoError(t, err)

	exp, err := strconv.ParseInt(gw.lastOrder.Expiration, 10, 64)
	require.NoError(t, err)
	// One minute of padding plus the requested lifetime.
	assert.Equal(t, now.Add(time.Minute+30*time.Minute).Unix(), exp)
}

func TestPlaceOrderFOKBuyDerivesSizeFromBook(t *testing.T) {
	gw := &fakeGateway{
		balance:    1000,
		allowance:  1000,
		bestAsk:    0.5,
		postResult: domain.OrderResult{Success: true, Status: domain.OrderStatusMatched},
	}
	svc := newTestOrderService(gw)

	resp, err := svc.PlaceOrder(context.Background(), tradeableMarket(), domain.OrderRequest{
		TokenID: "111",
		Side:    domain.OrderSideBuy,
		Type:    domain.OrderTypeFOK,
		Amount:  50,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)

	assert.Equal(t, 1, gw.bookCalls)
	// $50 at the 0.50 ask buys 100 shares.
	assert.Equal(t, "50000000", gw.lastOrder.MakerAmount)
	assert.Equal(t, "100000000", gw.lastOrder.TakerAmount)
	assert.InDelta(t, 0.5, resp.Details.Price, 1e-9)
	assert.InDelta(t, 100, resp.Details.Size, 1e-9)
}

func TestPlaceOrderFOKBuyEmptyBookUsesWorstPrice(t *testing.T) {
	gw := &fakeGateway{
		balance:    1000,
		allowance:  1000,
		postResult: domain.OrderResult{Success: true, Status: domain.OrderStatusMatched},
	}
	svc := newTestOrderService(gw)

	resp, err := svc.PlaceOrder(context.Background(), tradeableMarket(), domain.OrderRequest{
		TokenID: "111",
		Side:    domain.OrderSideBuy,
		Type:    domain.OrderTypeFOK,
		Amount:  99,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.InDelta(t, 0.99, resp.Details.Price, 1e-9)
}

func TestPlaceOrderExchangeRejection(t *testing.T) {
	gw := &fakeGateway{
		balance:    1000,
		allowance:  1000,
		postResult: domain.OrderResult{Success: false, Status: domain.OrderStatusRejected, Message: "not enough balance/allowance"},
		postErr:    fmt.Errorf("polymarket/clob: %w: not enough balance/allowance", domain.ErrExchangeRejected),
	}
	journal := &fakeJournal{}
	svc := newTestOrderService(gw).WithJournal(journal)

	resp, err := svc.PlaceOrder(context.Background(), tradeableMarket(), domain.OrderRequest{
		TokenID: "111",
		Side:    domain.OrderSideBuy,
		Type:    domain.OrderTypeGTC,
		Price:   0.5,
		Size:    10,
	})

	// A rejection is a terminal reported outcome, not a Go error.
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, domain.OrderStatusRejected, resp.Status)
	assert.Contains(t, resp.Error, "not enough balance")
	assert.Equal(t, 1, gw.postCalls, "rejected orders are never auto-retried")

	require.NotEmpty(t, journal.statuses)
	assert.Equal(t, domain.OrderStatusRejected, journal.statuses[len(journal.statuses)-1])
}

func TestPlaceOrderTransportFailure(t *testing.T) {
	gw := &fakeGateway{
		balance:   1000,
		allowance: 1000,
		postErr:   fmt.Errorf("polymarket/clob: post order: %w", domain.ErrUpstreamUnavailable),
	}
	svc := newTestOrderService(gw)

	_, err := svc.PlaceOrder(context.Background(), tradeableMarket(), domain.OrderRequest{
		TokenID: "111",
		Side:    domain.OrderSideBuy,
		Type:    domain.OrderTypeGTC,
		Price:   0.5,
		Size:    10,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 1, gw.postCalls)
}
