// client.go implements the Bybit V5 REST client: instrument/ticker
// lookups and the two mutating calls the order-manager stage drives,
// PlaceOrder and CancelOrder. Every mutating call is rate-limited via
// RateLimiter, retried on 5xx by resty, and short-circuited into a
// synthetic success when IS_TEST is set (the adapter-level analogue of
// the teacher's PostOrders dry-run branch and the distilled spec's
// IS_TEST environment variable).
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const bybitBaseURL = "https://api.bybit.com"

// bybitEnvelope is the response shape shared by every Bybit V5 endpoint:
// a non-zero RetCode is failure regardless of HTTP status.
type bybitEnvelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

// BybitClient is the C6 Adapter implementation for Bybit's V5 API.
type BybitClient struct {
	http     *resty.Client
	key      string
	secret   string
	category string
	symbol   string
	rl       *RateLimiter
	dryRun   bool
	logger   *slog.Logger
}

// NewBybitClient builds a REST+WS client for the given config and
// symbol with dry-run off and slog.Default() as the logger.
func NewBybitClient(cfg Config, symbol string) *BybitClient {
	return NewBybitClientWithOptions(cfg, symbol, false, slog.Default())
}

// NewBybitClientWithOptions is the fully parameterised constructor used
// by NewAdapter. dryRun is read from IS_TEST by the caller
// (internal/api's isTestMode); passing it explicitly keeps this package
// free of direct environment reads.
func NewBybitClientWithOptions(cfg Config, symbol string, dryRun bool, logger *slog.Logger) *BybitClient {
	httpClient := resty.New().
		SetBaseURL(bybitBaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &BybitClient{
		http:     httpClient,
		key:      cfg.Key,
		secret:   cfg.Secret,
		category: cfg.CategoryOrDefault(),
		symbol:   symbol,
		rl:       NewRateLimiter(),
		dryRun:   dryRun,
		logger:   logger.With("component", "bybit"),
	}
}

// CancelOrder cancels the given order_link_id. Per the REDESIGN FLAG
// adopted in SPEC_FULL.md §7.4, a rejection here is returned to the
// caller to log and continue — it is not treated as fatal by this layer
// either; the order-manager stage decides the continuation policy.
func (c *BybitClient) CancelOrder(ctx context.Context, orderLinkID string) error {
	if c.dryRun {
		c.logger.Info("dry-run: would cancel order", "order_link_id", orderLinkID)
		return nil
	}
	if err := c.rl.Cancel.Wait(ctx); err != nil {
		return err
	}

	body := map[string]string{
		"category":    c.category,
		"symbol":      c.symbol,
		"orderLinkId": orderLinkID,
	}

	var env bybitEnvelope
	headers, err := c.signedHeaders(body)
	if err != nil {
		return fmt.Errorf("sign cancel order: %w", err)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		SetResult(&env).
		Post("/v5/order/cancel")
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("cancel order: status %d: %s", resp.StatusCode(), resp.String())
	}
	if env.RetCode != 0 {
		return fmt.Errorf("cancel order: retCode %d: %s", env.RetCode, env.RetMsg)
	}
	return nil
}

// PlaceOrder places a new limit order and returns the order_link_id
// (the caller-assigned id Bybit simply echoes back in the response),
// not Bybit's own internally-assigned orderId: CancelOrder and the
// position stream both key off order_link_id, so returning orderId here
// would make every later CancelOrder/position match silently fail. When
// dryRun is set (IS_TEST=true) it skips the network call entirely and
// returns a synthetic id, matching the distilled spec's IS_TEST behavior
// exactly.
func (c *BybitClient) PlaceOrder(ctx context.Context, params OrderParams) (string, error) {
	if c.dryRun {
		id := "dry-run-" + uuid.NewString()
		c.logger.Info("dry-run: simulated order placement", "order_id", id, "price", params.Price, "qty", params.Qty)
		return id, nil
	}
	if err := c.rl.Order.Wait(ctx); err != nil {
		return "", err
	}

	side := "Buy"
	if params.Side == SideSell {
		side = "Sell"
	}
	body := map[string]any{
		"category":    c.category,
		"symbol":      c.symbol,
		"side":        side,
		"orderType":   "Limit",
		"qty":         fmt.Sprintf("%v", params.Qty),
		"price":       fmt.Sprintf("%v", params.Price),
		"timeInForce": "PostOnly",
	}
	if !params.IsPostOnly {
		body["timeInForce"] = "GTC"
	}
	if params.OrderLinkID != nil {
		body["orderLinkId"] = *params.OrderLinkID
	}

	var env bybitEnvelope
	headers, err := c.signedHeaders(body)
	if err != nil {
		return "", fmt.Errorf("sign place order: %w", err)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		SetResult(&env).
		Post("/v5/order/create")
	if err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("place order: status %d: %s", resp.StatusCode(), resp.String())
	}
	if env.RetCode != 0 {
		return "", fmt.Errorf("place order: retCode %d: %s", env.RetCode, env.RetMsg)
	}

	var result struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return "", fmt.Errorf("parse place order result: %w", err)
	}
	return result.OrderLinkID, nil
}

// Instruments fetches the tradeable products for the client's category.
func (c *BybitClient) Instruments(ctx context.Context) ([]Instrument, error) {
	if err := c.rl.Book.Wait(ctx); err != nil {
		return nil, err
	}

	var env bybitEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("category", c.category).
		SetResult(&env).
		Get("/v5/market/instruments-info")
	if err != nil {
		return nil, fmt.Errorf("get instruments: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("get instruments: status %d: %s", resp.StatusCode(), resp.String())
	}
	if env.RetCode != 0 {
		return nil, fmt.Errorf("get instruments: retCode %d: %s", env.RetCode, env.RetMsg)
	}

	var result struct {
		List []struct {
			Symbol     string `json:"symbol"`
			PriceScale string `json:"priceScale"`
			LotSizeFilter struct {
				QtyStep string `json:"qtyStep"`
				MinOrderQty string `json:"minOrderQty"`
			} `json:"lotSizeFilter"`
			PriceFilter struct {
				TickSize string `json:"tickSize"`
			} `json:"priceFilter"`
		} `json:"list"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, fmt.Errorf("parse instruments result: %w", err)
	}

	out := make([]Instrument, 0, len(result.List))
	for _, item := range result.List {
		out = append(out, Instrument{
			Symbol:    item.Symbol,
			PriceTick: parseFloatOrZero(item.PriceFilter.TickSize),
			SizeTick:  parseFloatOrZero(item.LotSizeFilter.QtyStep),
			SizeMin:   parseFloatOrZero(item.LotSizeFilter.MinOrderQty),
		})
	}
	return out, nil
}

// TickerInfo fetches the current ticker snapshot via REST — used both as
// the position/ticker REST-fallback path and by the get_ticker command.
func (c *BybitClient) TickerInfo(ctx context.Context, symbol string) (Ticker, error) {
	if err := c.rl.Book.Wait(ctx); err != nil {
		return Ticker{}, err
	}

	var env bybitEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("category", c.category).
		SetQueryParam("symbol", symbol).
		SetResult(&env).
		Get("/v5/market/tickers")
	if err != nil {
		return Ticker{}, fmt.Errorf("get ticker: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Ticker{}, fmt.Errorf("get ticker: status %d: %s", resp.StatusCode(), resp.String())
	}
	if env.RetCode != 0 {
		return Ticker{}, fmt.Errorf("get ticker: retCode %d: %s", env.RetCode, env.RetMsg)
	}

	var result struct {
		List []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
			Volume24h string `json:"volume24h"`
			Bid1Price string `json:"bid1Price"`
			Ask1Price string `json:"ask1Price"`
		} `json:"list"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return Ticker{}, fmt.Errorf("parse ticker result: %w", err)
	}
	if len(result.List) == 0 {
		return Ticker{}, fmt.Errorf("get ticker: empty result for %s", symbol)
	}

	t := result.List[0]
	return Ticker{
		Symbol:    t.Symbol,
		LTP:       parseFloatOrZero(t.LastPrice),
		Volume24h: parseFloatOrZero(t.Volume24h),
		BestAsk:   parseFloatOrZero(t.Ask1Price),
		BestBid:   parseFloatOrZero(t.Bid1Price),
	}, nil
}
