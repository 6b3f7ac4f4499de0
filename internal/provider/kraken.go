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

// KrakenOptions parameterise the Kraken adapter.
type KrakenOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Kraken fetches spot prices from the Kraken public ticker API.
type Kraken struct {
	table   *symbols.Table
	http    *httpClient
	baseURL string
	logger  zerolog.Logger
}

// NewKraken constructs the Kraken adapter.
func NewKraken(opts KrakenOptions, table *symbols.Table, logger zerolog.Logger) *Kraken {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.kraken.com"
	}
	return &Kraken{
		table:   table,
		http:    newHTTPClient(opts.Timeout, opts.UserAgent),
		baseURL: baseURL,
		logger:  logger.With().Str("component", "provider_kraken").Logger(),
	}
}

// Name implements Provider.
func (k *Kraken) Name() string { return "Kraken" }

// Fetch implements Provider. Kraken nests the result under an exchange-chosen
// pair key; field "c" holds [last trade price, lot volume].
func (k *Kraken) Fetch(ctx context.Context, symbol, quote string) (decimal.Decimal, error) {
	pair, err := k.table.KrakenPair(symbol, quote)
	if err != nil {
		return decimal.Decimal{}, err
	}

	url := fmt.Sprintf("%s/0/public/Ticker?pair=%s", k.baseURL, pair)

	var payload struct {
		Error  []string `json:"error"`
		Result map[string]struct {
			Close []string `json:"c"`
		} `json:"result"`
	}
	if err := k.http.getJSON(ctx, url, &payload); err != nil {
		return decimal.Decimal{}, err
	}

	if len(payload.Error) > 0 {
		msg := strings.Join(payload.Error, "; ")
		if strings.Contains(msg, "Unknown asset pair") {
			return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return decimal.Decimal{}, fmt.Errorf("kraken api error: %s", msg)
	}

	for _, ticker := range payload.Result {
		if len(ticker.Close) == 0 {
			continue
		}
		price, err := decimal.NewFromString(ticker.Close[0])
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: non-numeric close %q", ErrMalformedResponse, ticker.Close[0])
		}
		return price, nil
	}

	return decimal.Decimal{}, fmt.Errorf("%w: no ticker entry with close price", ErrMalformedResponse)
}

var _ Provider = (*Kraken)(nil)
