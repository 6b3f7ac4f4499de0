package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"coinwatch/internal/symbols"
)

func TestBinanceFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "BTCUSDT" {
			t.Fatalf("symbol 参数应为 BTCUSDT, 实际 %s", r.URL.Query().Get("symbol"))
		}
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"100200.00000000"}`))
	}))
	defer srv.Close()

	p := NewBinance(BinanceOptions{BaseURL: srv.URL, Timeout: time.Second}, testTable(), noopLogger())

	price, err := p.Fetch(context.Background(), "btc", "usd")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(100200)) {
		t.Fatalf("期望价格 100200, 实际 %s", price)
	}
}

func TestBinanceFetchUnsupportedQuote(t *testing.T) {
	p := NewBinance(BinanceOptions{BaseURL: "http://localhost:1"}, testTable(), noopLogger())

	_, err := p.Fetch(context.Background(), "btc", "chf")
	if !errors.Is(err, symbols.ErrUnsupportedQuote) {
		t.Fatalf("未映射 quote 应返回 ErrUnsupportedQuote, 实际 %v", err)
	}
	if Reason(err) != ReasonUnsupportedQuote {
		t.Fatalf("reason 应为 %s, 实际 %s", ReasonUnsupportedQuote, Reason(err))
	}
}

func TestBinanceFetchNonNumericPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"n/a"}`))
	}))
	defer srv.Close()

	p := NewBinance(BinanceOptions{BaseURL: srv.URL, Timeout: time.Second}, testTable(), noopLogger())

	_, err := p.Fetch(context.Background(), "btc", "usd")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("非数字价格应返回 ErrMalformedResponse, 实际 %v", err)
	}
}

func TestBinanceFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewBinance(BinanceOptions{BaseURL: srv.URL, Timeout: time.Second}, testTable(), noopLogger())

	_, err := p.Fetch(context.Background(), "btc", "usd")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("HTTP 404 应返回 ErrNotFound, 实际 %v", err)
	}
	if Reason(err) != ReasonNotFound {
		t.Fatalf("reason 应为 %s, 实际 %s", ReasonNotFound, Reason(err))
	}
}
