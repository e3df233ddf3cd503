package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

// DataClient is the REST client for the data API, which serves wallet
// position records. Read-only and unauthenticated.
type DataClient struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

// NewDataClient creates a new data API client.
//
// baseURL is the data API root, e.g. "https://data-api.polymarket.com".
func NewDataClient(baseURL string, retry RetryPolicy) *DataClient {
	return &DataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: retry,
	}
}

// PositionFilter narrows a positions fetch. Zero values are omitted.
type PositionFilter struct {
	Limit         int
	SizeThreshold float64
	SortBy        string // e.g. "CURRENT", "CASHPNL"
	SortDesc      bool
	EventID       string
	Redeemable    *bool
}

// GetPositions returns the wallet's positions as reported by the data API.
func (d *DataClient) GetPositions(ctx context.Context, wallet string, filter PositionFilter) ([]domain.Position, error) {
	params := url.Values{}
	params.Set("user", wallet)
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	params.Set("limit", strconv.Itoa(limit))
	if filter.SizeThreshold > 0 {
		params.Set("sizeThreshold", strconv.FormatFloat(filter.SizeThreshold, 'f', -1, 64))
	}
	if filter.SortBy != "" {
		params.Set("sortBy", filter.SortBy)
		dir := "ASC"
		if filter.SortDesc {
			dir = "DESC"
		}
		params.Set("sortDirection", dir)
	}
	if filter.EventID != "" {
		params.Set("eventId", filter.EventID)
	}
	if filter.Redeemable != nil {
		params.Set("redeemable", strconv.FormatBool(*filter.Redeemable))
	}
	path := "/positions?" + params.Encode()

	var body []byte
	err := d.retry.Do(ctx, "polymarket/data: get positions", func(ctx context.Context) error {
		var err error
		body, err = d.doGet(ctx, path)
		return err
	})
	if err != nil {
		return nil, err
	}

	var records []DataPosition
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode positions: %w", err)
	}

	positions := make([]domain.Position, 0, len(records))
	for i := range records {
		positions = append(positions, records[i].ToDomainPosition())
	}
	return positions, nil
}

// doGet sends an unauthenticated GET request to the data API.
func (d *DataClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}
