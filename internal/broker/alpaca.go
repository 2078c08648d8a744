package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"TruthTrader/internal/model"
)

const defaultDataURL = "https://data.alpaca.markets"

// AlpacaClient talks to the Alpaca trading REST API (paper or live).
type AlpacaClient struct {
	BaseURL   string
	DataURL   string
	APIKey    string
	APISecret string
	Client    *http.Client

	// Alpaca caps accounts at 200 requests/min; stay under it instead of
	// burning the budget and hitting 429s mid-reconciliation.
	limiter *rate.Limiter
}

// NewAlpacaClient creates a client with optional proxy support.
func NewAlpacaClient(baseURL, apiKey, apiSecret, proxyURL string) *AlpacaClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AlpacaClient{
		BaseURL:   baseURL,
		DataURL:   defaultDataURL,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(200.0/60.0), 10),
	}
}

func (a *AlpacaClient) do(ctx context.Context, method, rawURL string, body io.Reader) (*http.Response, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("APCA-API-KEY-ID", a.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", a.APISecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, ErrRateLimited
	}
	return resp, nil
}

// GetClock returns the exchange calendar status.
func (a *AlpacaClient) GetClock(ctx context.Context) (*model.Clock, error) {
	resp, err := a.do(ctx, http.MethodGet, a.BaseURL+"/v2/clock", nil)
	if err != nil {
		return nil, fmt.Errorf("get clock: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get clock: status %d", resp.StatusCode)
	}
	var raw struct {
		Timestamp time.Time `json:"timestamp"`
		IsOpen    bool      `json:"is_open"`
		NextOpen  time.Time `json:"next_open"`
		NextClose time.Time `json:"next_close"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode clock: %w", err)
	}
	return &model.Clock{
		Timestamp: raw.Timestamp,
		IsOpen:    raw.IsOpen,
		NextOpen:  raw.NextOpen,
		NextClose: raw.NextClose,
	}, nil
}

// alpacaPosition is the wire shape; quantities arrive as strings.
type alpacaPosition struct {
	Symbol string `json:"symbol"`
	Qty    string `json:"qty"`
}

func (p alpacaPosition) toModel() (model.Position, error) {
	qty, err := strconv.ParseFloat(p.Qty, 64)
	if err != nil {
		return model.Position{}, fmt.Errorf("parse position qty %q: %w", p.Qty, err)
	}
	return model.Position{Symbol: p.Symbol, Qty: qty}, nil
}

// GetPosition returns the held quantity for one symbol, or ErrNoPosition.
func (a *AlpacaClient) GetPosition(ctx context.Context, symbol string) (*model.Position, error) {
	resp, err := a.do(ctx, http.MethodGet, a.BaseURL+"/v2/positions/"+url.PathEscape(symbol), nil)
	if err != nil {
		return nil, fmt.Errorf("get position %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoPosition
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get position %s: status %d", symbol, resp.StatusCode)
	}
	var raw alpacaPosition
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode position: %w", err)
	}
	pos, err := raw.toModel()
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

// BuyingPower returns the account's available buying power in dollars.
func (a *AlpacaClient) BuyingPower(ctx context.Context) (float64, error) {
	resp, err := a.do(ctx, http.MethodGet, a.BaseURL+"/v2/account", nil)
	if err != nil {
		return 0, fmt.Errorf("get account: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("get account: status %d", resp.StatusCode)
	}
	var raw struct {
		BuyingPower string `json:"buying_power"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return 0, fmt.Errorf("decode account: %w", err)
	}
	bp, err := strconv.ParseFloat(raw.BuyingPower, 64)
	if err != nil {
		return 0, fmt.Errorf("parse buying power %q: %w", raw.BuyingPower, err)
	}
	return bp, nil
}

// LatestPrice returns the most recent trade price for a symbol.
func (a *AlpacaClient) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	u := fmt.Sprintf("%s/v2/stocks/%s/trades/latest", a.DataURL, url.PathEscape(symbol))
	resp, err := a.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("latest price %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("latest price %s: status %d", symbol, resp.StatusCode)
	}
	var raw struct {
		Trade struct {
			Price float64 `json:"p"`
		} `json:"trade"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return 0, fmt.Errorf("decode latest trade: %w", err)
	}
	if raw.Trade.Price <= 0 {
		return 0, fmt.Errorf("latest price %s: no trade data", symbol)
	}
	return raw.Trade.Price, nil
}

// SubmitOrder places a market order.
func (a *AlpacaClient) SubmitOrder(ctx context.Context, req OrderRequest) error {
	payload, err := json.Marshal(map[string]string{
		"symbol":        req.Symbol,
		"qty":           strconv.FormatFloat(req.Qty, 'f', -1, 64),
		"side":          req.Side,
		"type":          "market",
		"time_in_force": req.TimeInForce,
	})
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	resp, err := a.do(ctx, http.MethodPost, a.BaseURL+"/v2/orders", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("submit order %s %s: %w", req.Side, req.Symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnprocessableEntity {
		return fmt.Errorf("%w: %s %s qty=%.0f: status %d, body: %s",
			ErrOrderRejected, req.Side, req.Symbol, req.Qty, resp.StatusCode, string(body))
	}
	return fmt.Errorf("submit order %s %s: status %d, body: %s", req.Side, req.Symbol, resp.StatusCode, string(body))
}

// ListPositions returns every open position in the account.
func (a *AlpacaClient) ListPositions(ctx context.Context) ([]model.Position, error) {
	resp, err := a.do(ctx, http.MethodGet, a.BaseURL+"/v2/positions", nil)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list positions: status %d", resp.StatusCode)
	}
	var raw []alpacaPosition
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	positions := make([]model.Position, 0, len(raw))
	for _, rp := range raw {
		pos, err := rp.toModel()
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// ClosePosition liquidates the full holding in one symbol.
func (a *AlpacaClient) ClosePosition(ctx context.Context, symbol string) error {
	resp, err := a.do(ctx, http.MethodDelete, a.BaseURL+"/v2/positions/"+url.PathEscape(symbol), nil)
	if err != nil {
		return fmt.Errorf("close position %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNoPosition
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("close position %s: status %d, body: %s", symbol, resp.StatusCode, string(body))
	}
	return nil
}
