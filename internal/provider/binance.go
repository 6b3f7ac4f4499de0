package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coinwatch/internal/symbols"
)

// BinanceOptions parameterise the Binance adapter.
type BinanceOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Binance fetches spot prices from the Binance public ticker API.
type Binance struct {
	table   *symbols.Table
	http    *httpClient
	baseURL string
	logger  zerolog.Logger
}

// NewBinance constructs the Binance adapter.
func NewBinance(opts BinanceOptions, table *symbols.Table, logger zerolog.Logger) *Binance {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &Binance{
		table:   table,
		http:    newHTTPClient(opts.Timeout, opts.UserAgent),
		baseURL: baseURL,
		logger:  logger.With().Str("component", "provider_binance").Logger(),
	}
}

// Name implements Provider.
func (b *Binance) Name() string { return "Binance" }

// Fetch implements Provider. The ticker endpoint answers
// {"symbol":"BTCUSDT","price":"100000.00"} with the price as a string.
func (b *Binance) Fetch(ctx context.Context, symbol, quote string) (decimal.Decimal, error) {
	pair, err := b.table.BinancePair(symbol, quote)
	if err != nil {
		return decimal.Decimal{}, err
	}

	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", b.baseURL, pair)

	var payload struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := b.http.getJSON(ctx, url, &payload); err != nil {
		return decimal.Decimal{}, err
	}

	if payload.Price == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: missing price field", ErrMalformedResponse)
	}
	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: non-numeric price %q", ErrMalformedResponse, payload.Price)
	}
	return price, nil
}

var _ Provider = (*Binance)(nil)
