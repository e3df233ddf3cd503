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

	"golang.org/x/time/rate"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

// GammaClient is the REST client for the Gamma discovery API, which provides
// market listings and metadata. Requests are paced client-side so interest
// fan-out searches do not trip upstream rate limits.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// rps caps outbound requests per second; <=0 disables pacing.
func NewGammaClient(baseURL string, rps float64, retry RetryPolicy) *GammaClient {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
		retry:   retry,
	}
}

// ListingFilter narrows a listings fetch. Zero values are omitted from the
// request.
type ListingFilter struct {
	Limit        int
	Offset       int
	Active       *bool
	Closed       *bool
	Order        string // upstream sort column, e.g. "volume24hr"
	Ascending    bool
	MinLiquidity float64
	Tags         []string
	StartDateMin *time.Time
}

func (f ListingFilter) values() url.Values {
	params := url.Values{}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	params.Set("limit", strconv.Itoa(limit))
	if f.Offset > 0 {
		params.Set("offset", strconv.Itoa(f.Offset))
	}
	if f.Active != nil {
		params.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Closed != nil {
		params.Set("closed", strconv.FormatBool(*f.Closed))
	}
	if f.Order != "" {
		params.Set("order", f.Order)
		params.Set("ascending", strconv.FormatBool(f.Ascending))
	}
	if f.MinLiquidity > 0 {
		params.Set("liquidity_num_min", strconv.FormatFloat(f.MinLiquidity, 'f', -1, 64))
	}
	for _, tag := range f.Tags {
		params.Add("tag", tag)
	}
	if f.StartDateMin != nil {
		params.Set("start_date_min", f.StartDateMin.Format(time.RFC3339))
	}
	return params
}

// FetchListings returns raw market records matching the filter. Each record
// is tagged with its source schema for the normalizer. Transport failures
// are retried per the client's policy before surfacing.
func (g *GammaClient) FetchListings(ctx context.Context, filter ListingFilter) ([]RawMarket, error) {
	path := "/markets?" + filter.values().Encode()

	var body []byte
	err := g.retry.Do(ctx, "polymarket/gamma: fetch listings", func(ctx context.Context) error {
		var err error
		body, err = g.doGet(ctx, path)
		return err
	})
	if err != nil {
		return nil, err
	}

	markets, err := decodeListings(body)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode listings: %w", err)
	}

	raw := make([]RawMarket, 0, len(markets))
	for i := range markets {
		raw = append(raw, RawMarket{Source: SourceGamma, Gamma: &markets[i]})
	}
	return raw, nil
}

// GetMarketByID returns a single raw market record by its listing ID.
func (g *GammaClient) GetMarketByID(ctx context.Context, id string) (RawMarket, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(id))

	var body []byte
	err := g.retry.Do(ctx, fmt.Sprintf("polymarket/gamma: get market %s", id), func(ctx context.Context) error {
		var err error
		body, err = g.doGet(ctx, path)
		return err
	})
	if err != nil {
		return RawMarket{}, err
	}

	var market GammaMarket
	if err := json.Unmarshal(body, &market); err != nil {
		return RawMarket{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}
	return RawMarket{Source: SourceGamma, Gamma: &market}, nil
}

// decodeListings accepts both listing response shapes: a bare array or an
// envelope with the array under "data".
func decodeListings(body []byte) ([]GammaMarket, error) {
	var markets []GammaMarket
	if err := json.Unmarshal(body, &markets); err == nil {
		return markets, nil
	}
	var envelope gammaListingEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrContextDone, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
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
