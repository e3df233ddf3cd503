package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/SidharthK2/polymarket-agent/internal/crypto"
	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

// zeroAddress is the open taker: anyone may fill the order.
const zeroAddress = "0x0000000000000000000000000000000000000000"

// Collateral asset type values for the balance-allowance endpoint.
const (
	AssetTypeCollateral  = "COLLATERAL"
	AssetTypeConditional = "CONDITIONAL"
)

// ClobClient is the REST client for the CLOB (Central Limit Order Book)
// trading API. It handles market detail, order books, balances, and
// order placement/cancellation.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	signer     *crypto.Signer
	hmacAuth   *crypto.HMACAuth
	retry      RetryPolicy
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
// signer is the EIP-712 signer for order signatures and auth messages.
// hmac is the HMAC authenticator for API requests; nil until DeriveAPIKey.
func NewClobClient(baseURL string, signer *crypto.Signer, hmac *crypto.HMACAuth, retry RetryPolicy) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer:   signer,
		hmacAuth: hmac,
		retry:    retry,
	}
}

// GetMarket returns the raw trading-API record for a condition ID. Unlike
// listings there is no safe empty default, so exhausted retries surface as
// an error.
func (c *ClobClient) GetMarket(ctx context.Context, conditionID string) (RawMarket, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(conditionID))

	var body []byte
	err := c.retry.Do(ctx, fmt.Sprintf("polymarket/clob: get market %s", conditionID), func(ctx context.Context) error {
		var err error
		body, err = c.doGet(ctx, path)
		return err
	})
	if err != nil {
		return RawMarket{}, err
	}

	var market ClobMarket
	if err := json.Unmarshal(body, &market); err != nil {
		return RawMarket{}, fmt.Errorf("polymarket/clob: decode market: %w", err)
	}
	return RawMarket{Source: SourceClob, Clob: &market}, nil
}

// GetOrderBook returns a fresh book snapshot for a token. Never cached;
// staleness is the caller's concern.
func (c *ClobClient) GetOrderBook(ctx context.Context, tokenID string) (domain.OrderbookSnapshot, error) {
	path := "/book?token_id=" + url.QueryEscape(tokenID)

	var body []byte
	err := c.retry.Do(ctx, fmt.Sprintf("polymarket/clob: get order book %s", tokenID), func(ctx context.Context) error {
		var err error
		body, err = c.doGet(ctx, path)
		return err
	})
	if err != nil {
		return domain.OrderbookSnapshot{}, err
	}

	var book ClobBook
	if err := json.Unmarshal(body, &book); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("polymarket/clob: decode order book: %w", err)
	}
	snap := book.ToSnapshot()
	if snap.TokenID == "" {
		snap.TokenID = tokenID
	}
	return snap, nil
}

// GetBalanceAllowance returns the wallet's balance and allowance for the
// given asset type. tokenID is required for CONDITIONAL lookups and ignored
// for COLLATERAL.
func (c *ClobClient) GetBalanceAllowance(ctx context.Context, assetType, tokenID string) (BalanceAllowanceResponse, error) {
	params := url.Values{}
	params.Set("asset_type", assetType)
	params.Set("signature_type", "0")
	if tokenID != "" {
		params.Set("token_id", tokenID)
	}
	path := "/balance-allowance?" + params.Encode()

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return BalanceAllowanceResponse{}, fmt.Errorf("polymarket/clob: get balance allowance: %w", err)
	}

	var resp BalanceAllowanceResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return BalanceAllowanceResponse{}, fmt.Errorf("polymarket/clob: decode balance allowance: %w", err)
	}
	return resp, nil
}

// PostOrder submits a signed order to the exchange. A response with
// success=false maps to ErrExchangeRejected carrying the upstream message
// verbatim; the result is still returned so callers can journal it.
func (c *ClobClient) PostOrder(ctx context.Context, order SignedOrder, orderType domain.OrderType) (domain.OrderResult, error) {
	taker := order.Taker
	if taker == "" {
		taker = zeroAddress
	}
	body := map[string]any{
		"order": map[string]any{
			"salt":          order.Salt,
			"tokenID":       order.TokenID,
			"makerAmount":   order.MakerAmount,
			"takerAmount":   order.TakerAmount,
			"side":          order.Side,
			"feeRateBps":    order.FeeRateBps,
			"nonce":         order.Nonce,
			"expiration":    order.Expiration,
			"signatureType": order.SignatureType,
			"signature":     order.Signature,
			"maker":         order.Maker,
			"signer":        order.Signer,
			"taker":         taker,
		},
		"owner":     c.ownerKey(),
		"orderType": string(orderType),
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodPost, "/order", body)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: post order: %w", err)
	}

	var apiResult APIOrderResult
	if err := json.Unmarshal(respBody, &apiResult); err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: decode order result: %w", err)
	}

	result := apiResult.ToDomainResult()
	if !result.Success {
		return result, fmt.Errorf("polymarket/clob: %w: %s", domain.ErrExchangeRejected, result.Message)
	}
	return result, nil
}

// CancelOrder cancels a single order by its exchange ID.
func (c *ClobClient) CancelOrder(ctx context.Context, orderID string) error {
	body := map[string]any{"orderID": orderID}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodDelete, "/order", body)
	if err != nil {
		return fmt.Errorf("polymarket/clob: cancel order %s: %w", orderID, err)
	}
	return decodeCancelResponse(respBody, "cancel")
}

// CancelAll cancels all open orders for the authenticated wallet.
func (c *ClobClient) CancelAll(ctx context.Context) error {
	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodDelete, "/cancel-all", nil)
	if err != nil {
		return fmt.Errorf("polymarket/clob: cancel all: %w", err)
	}
	return decodeCancelResponse(respBody, "cancel-all")
}

func decodeCancelResponse(respBody []byte, op string) error {
	var result struct {
		Success  bool   `json:"success"`
		ErrorMsg string `json:"errorMsg"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("polymarket/clob: decode %s response: %w", op, err)
	}
	if !result.Success {
		return fmt.Errorf("polymarket/clob: %s failed: %s", op, result.ErrorMsg)
	}
	return nil
}

// GetOpenOrders returns orders resting on the book for the authenticated
// wallet, optionally filtered by market (condition ID) or token.
func (c *ClobClient) GetOpenOrders(ctx context.Context, market, tokenID string) ([]domain.OpenOrder, error) {
	params := url.Values{}
	if market != "" {
		params.Set("market", market)
	}
	if tokenID != "" {
		params.Set("asset_id", tokenID)
	}
	path := "/orders"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get open orders: %w", err)
	}

	var apiOrders []APIOpenOrder
	if err := json.Unmarshal(respBody, &apiOrders); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode orders: %w", err)
	}

	orders := make([]domain.OpenOrder, 0, len(apiOrders))
	for i := range apiOrders {
		orders = append(orders, apiOrders[i].ToDomainOpenOrder())
	}
	return orders, nil
}

// DeriveAPIKey performs the CLOB auth flow to obtain an HMAC API key. It
// signs a ClobAuth EIP-712 message and sends it with L1 headers to the
// derive-api-key endpoint. L1 requires POLY_ADDRESS, POLY_SIGNATURE,
// POLY_TIMESTAMP, POLY_NONCE. On success it populates the client's hmacAuth
// field; subsequent authenticated calls use L2 HMAC headers.
func (c *ClobClient) DeriveAPIKey(ctx context.Context) error {
	if c.signer == nil {
		return fmt.Errorf("polymarket/clob: derive api key: no signer configured")
	}

	address := c.signer.Address().Hex()
	timestamp := time.Now().Unix()
	nonce := int64(0)

	sig, err := c.signer.SignAuthMessage(address, timestamp, nonce)
	if err != nil {
		return fmt.Errorf("polymarket/clob: sign auth message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/derive-api-key", nil)
	if err != nil {
		return fmt.Errorf("polymarket/clob: create auth request: %w", err)
	}
	req.Header.Set("POLY_ADDRESS", address)
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", fmt.Sprintf("%d", timestamp))
	req.Header.Set("POLY_NONCE", fmt.Sprintf("%d", nonce))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("polymarket/clob: auth request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("polymarket/clob: read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("polymarket/clob: auth failed (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var authResp struct {
		APIKey     string `json:"apiKey"`
		Secret     string `json:"secret"`
		Passphrase string `json:"passphrase"`
	}
	if err := json.Unmarshal(respBody, &authResp); err != nil {
		return fmt.Errorf("polymarket/clob: decode auth response: %w", err)
	}

	c.hmacAuth = &crypto.HMACAuth{
		Key:        authResp.APIKey,
		Secret:     authResp.Secret,
		Passphrase: authResp.Passphrase,
	}
	return nil
}

// Address returns the signing wallet address, or "" when no signer is
// configured.
func (c *ClobClient) Address() string {
	if c.signer == nil {
		return ""
	}
	return c.signer.Address().Hex()
}

// ownerKey is the API key identifying the order owner in post payloads.
func (c *ClobClient) ownerKey() string {
	if c.hmacAuth == nil {
		return ""
	}
	return c.hmacAuth.Key
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the CLOB API.
func (c *ClobClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
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

// doAuthenticatedRequest builds, signs (HMAC), sends, and reads an HTTP
// request against the CLOB API. It returns the raw response body.
func (c *ClobClient) doAuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Apply HMAC authentication headers.
	if c.hmacAuth != nil && c.signer != nil {
		address := c.signer.Address().Hex()
		headers := c.hmacAuth.L2Headers(address, method, path, bodyStr)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
