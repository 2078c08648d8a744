package broker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(srv *httptest.Server) *AlpacaClient {
	c := NewAlpacaClient(srv.URL, "key", "secret", "")
	c.DataURL = srv.URL
	return c
}

func TestGetClock_DecodesAndAuthenticates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/clock" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("APCA-API-KEY-ID") != "key" || r.Header.Get("APCA-API-SECRET-KEY") != "secret" {
			t.Error("missing API credentials")
		}
		w.Write([]byte(`{"timestamp":"2025-04-11T14:30:00Z","is_open":true,"next_open":"2025-04-11T13:30:00Z","next_close":"2025-04-11T20:00:00Z"}`))
	}))
	defer srv.Close()

	clock, err := newTestClient(srv).GetClock(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !clock.IsOpen {
		t.Error("expected is_open true")
	}
	want := time.Date(2025, 4, 11, 20, 0, 0, 0, time.UTC)
	if !clock.NextClose.Equal(want) {
		t.Errorf("next_close %v, expected %v", clock.NextClose, want)
	}
}

func TestGetPosition_ParsesStringQty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/positions/SPY" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"symbol":"SPY","qty":"10"}`))
	}))
	defer srv.Close()

	pos, err := newTestClient(srv).GetPosition(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Symbol != "SPY" || pos.Qty != 10 {
		t.Errorf("unexpected position %+v", pos)
	}
}

func TestGetPosition_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetPosition(context.Background(), "SH")
	if !errors.Is(err, ErrNoPosition) {
		t.Fatalf("expected ErrNoPosition, got %v", err)
	}
}

func TestBuyingPower_ParsesStringDollars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"buying_power":"1000.50"}`))
	}))
	defer srv.Close()

	bp, err := newTestClient(srv).BuyingPower(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bp != 1000.50 {
		t.Errorf("buying power %v, expected 1000.50", bp)
	}
}

func TestLatestPrice_ReadsTradePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/stocks/SPY/trades/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"trade":{"p":512.34}}`))
	}))
	defer srv.Close()

	price, err := newTestClient(srv).LatestPrice(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 512.34 {
		t.Errorf("price %v, expected 512.34", price)
	}
}

func TestSubmitOrder_SendsMarketOrder(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode order payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := newTestClient(srv).SubmitOrder(context.Background(), OrderRequest{
		Symbol: "SPY", Qty: 10, Side: "buy", TimeInForce: "gtc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"symbol": "SPY", "qty": "10", "side": "buy", "type": "market", "time_in_force": "gtc"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("payload %s = %q, expected %q", k, got[k], v)
		}
	}
}

func TestSubmitOrder_RejectionMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"insufficient buying power"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv).SubmitOrder(context.Background(), OrderRequest{Symbol: "SPY", Qty: 10, Side: "buy", TimeInForce: "gtc"})
	if !errors.Is(err, ErrOrderRejected) {
		t.Fatalf("expected ErrOrderRejected, got %v", err)
	}
}

func TestRateLimitMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetClock(context.Background())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestClosePosition_MultiStatusAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/v2/positions/SH" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusMultiStatus)
	}))
	defer srv.Close()

	if err := newTestClient(srv).ClosePosition(context.Background(), "SH"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
