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

// CoinbaseOptions parameterise the Coinbase adapter.
type CoinbaseOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Coinbase fetches spot prices from the Coinbase public prices API.
type Coinbase struct {
	table   *symbols.Table
	http    *httpClient
	baseURL string
	logger  zerolog.Logger
}

// NewCoinbase constructs the Coinbase adapter.
func NewCoinbase(opts CoinbaseOptions, table *symbols.Table, logger zerolog.Logger) *Coinbase {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coinbase.com"
	}
	return &Coinbase{
		table:   table,
		http:    newHTTPClient(opts.Timeout, opts.UserAgent),
		baseURL: baseURL,
		logger:  logger.With().Str("component", "provider_coinbase").Logger(),
	}
}

// Name implements Provider.
func (c *Coinbase) Name() string { return "Coinbase" }

// Fetch implements Provider. The spot endpoint answers
// {"data":{"base":"BTC","currency":"USD","amount":"100000.00"}}.
func (c *Coinbase) Fetch(ctx context.Context, symbol, quote string) (decimal.Decimal, error) {
	pair := c.table.CoinbasePair(symbol, quote)

	url := fmt.Sprintf("%s/v2/prices/%s/spot", c.baseURL, pair)

	var payload struct {
		Data struct {
			Base     string `json:"base"`
			Currency string `json:"currency"`
			Amount   string `json:"amount"`
		} `json:"data"`
	}
	if err := c.http.getJSON(ctx, url, &payload); err != nil {
		return decimal.Decimal{}, err
	}

	if payload.Data.Amount == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: missing data.amount field", ErrMalformedResponse)
	}
	price, err := decimal.NewFromString(payload.Data.Amount)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: non-numeric amount %q", ErrMalformedResponse, payload.Data.Amount)
	}
	return price, nil
}

var _ Provider = (*Coinbase)(nil)
