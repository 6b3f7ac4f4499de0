package symbols

import (
	"errors"
	"testing"
)

func TestCoinGeckoID(t *testing.T) {
	table := DefaultTable()

	id, err := table.CoinGeckoID("BTC")
	if err != nil {
		t.Fatalf("btc should resolve: %v", err)
	}
	if id != "bitcoin" {
		t.Fatalf("expected bitcoin, got %s", id)
	}

	if _, err := table.CoinGeckoID("nosuchcoin"); !errors.Is(err, ErrUnsupportedSymbol) {
		t.Fatalf("unknown symbol should yield ErrUnsupportedSymbol, got %v", err)
	}
}

func TestBinancePair(t *testing.T) {
	table := DefaultTable()

	pair, err := table.BinancePair("btc", "usd")
	if err != nil {
		t.Fatalf("usd should map to the USDT proxy: %v", err)
	}
	if pair != "BTCUSDT" {
		t.Fatalf("expected BTCUSDT, got %s", pair)
	}

	if _, err := table.BinancePair("btc", "chf"); !errors.Is(err, ErrUnsupportedQuote) {
		t.Fatalf("unmapped quote should yield ErrUnsupportedQuote, got %v", err)
	}
}

func TestCoinbasePair(t *testing.T) {
	table := DefaultTable()

	if pair := table.CoinbasePair("eth", "usd"); pair != "ETH-USD" {
		t.Fatalf("expected ETH-USD, got %s", pair)
	}

	// Coinbase accepts anything syntactically; the live response decides.
	if pair := table.CoinbasePair("eth", "chf"); pair != "ETH-CHF" {
		t.Fatalf("expected ETH-CHF, got %s", pair)
	}
}

func TestKrakenPair(t *testing.T) {
	table := DefaultTable()

	pair, err := table.KrakenPair("btc", "usd")
	if err != nil {
		t.Fatalf("btc/usd should resolve: %v", err)
	}
	if pair != "XBTUSD" {
		t.Fatalf("kraken uses XBT for bitcoin, got %s", pair)
	}

	pair, err = table.KrakenPair("sol", "usdt")
	if err != nil {
		t.Fatalf("usdt should map to USD: %v", err)
	}
	if pair != "SOLUSD" {
		t.Fatalf("expected SOLUSD, got %s", pair)
	}

	if _, err := table.KrakenPair("btc", "jpy"); !errors.Is(err, ErrUnsupportedQuote) {
		t.Fatalf("unmapped quote should yield ErrUnsupportedQuote, got %v", err)
	}
}

func TestFixtureTableInjection(t *testing.T) {
	table := NewTable(map[string]string{"FOO": "foocoin"}, nil, nil, nil, nil)

	id, err := table.CoinGeckoID("foo")
	if err != nil {
		t.Fatalf("fixture mapping should resolve case-insensitively: %v", err)
	}
	if id != "foocoin" {
		t.Fatalf("expected foocoin, got %s", id)
	}
}
