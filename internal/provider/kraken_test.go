package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestKrakenFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pair") != "XBTUSD" {
			t.Fatalf("pair 参数应为 XBTUSD, 实际 %s", r.URL.Query().Get("pair"))
		}
		_, _ = w.Write([]byte(`{"error":[],"result":{"XXBTZUSD":{"c":["100100.0","0.5"]}}}`))
	}))
	defer srv.Close()

	p := NewKraken(KrakenOptions{BaseURL: srv.URL, Timeout: time.Second}, testTable(), noopLogger())

	price, err := p.Fetch(context.Background(), "btc", "usd")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if !price.Equal(decimal.NewFromFloat(100100.0)) {
		t.Fatalf("期望价格 100100, 实际 %s", price)
	}
}

func TestKrakenFetchUnknownPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":["EQuery:Unknown asset pair"]}`))
	}))
	defer srv.Close()

	p := NewKraken(KrakenOptions{BaseURL: srv.URL, Timeout: time.Second}, testTable(), noopLogger())

	_, err := p.Fetch(context.Background(), "shib", "usd")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Unknown asset pair 应返回 ErrNotFound, 实际 %v", err)
	}
}

func TestKrakenFetchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":[],"result":{}}`))
	}))
	defer srv.Close()

	p := NewKraken(KrakenOptions{BaseURL: srv.URL, Timeout: time.Second}, testTable(), noopLogger())

	_, err := p.Fetch(context.Background(), "btc", "usd")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("空 result 应返回 ErrMalformedResponse, 实际 %v", err)
	}
}
