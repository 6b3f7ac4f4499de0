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

// CoinGeckoOptions parameterise the CoinGecko adapter.
type CoinGeckoOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// CoinGecko fetches spot prices from the CoinGecko simple price API.
type CoinGecko struct {
	table   *symbols.Table
	http    *httpClient
	baseURL string
	logger  zerolog.Logger
}

// NewCoinGecko constructs the CoinGecko adapter.
func NewCoinGecko(opts CoinGeckoOptions, table *symbols.Table, logger zerolog.Logger) *CoinGecko {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &CoinGecko{
		table:   table,
		http:    newHTTPClient(opts.Timeout, opts.UserAgent),
		baseURL: baseURL,
		logger:  logger.With().Str("component", "provider_coingecko").Logger(),
	}
}

// Name implements Provider.
func (c *CoinGecko) Name() string { return "CoinGecko" }

// Fetch implements Provider. CoinGecko answers with a nested object keyed by
// asset slug and currency: {"bitcoin":{"usd":100000}}.
func (c *CoinGecko) Fetch(ctx context.Context, symbol, quote string) (decimal.Decimal, error) {
	id, err := c.table.CoinGeckoID(symbol)
	if err != nil {
		return decimal.Decimal{}, err
	}
	currency := strings.ToLower(quote)

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s", c.baseURL, id, currency)

	var payload map[string]map[string]decimal.Decimal
	if err := c.http.getJSON(ctx, url, &payload); err != nil {
		return decimal.Decimal{}, err
	}

	price, ok := payload[id][currency]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: missing %s.%s field", ErrMalformedResponse, id, currency)
	}
	return price, nil
}

var _ Provider = (*CoinGecko)(nil)
