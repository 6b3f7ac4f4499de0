package provider

import (
	"context"
	"errors"
	"net"

	"github.com/shopspring/decimal"

	"coinwatch/internal/symbols"
)

// Provider retrieves a spot price for a symbol/quote pair from one exchange.
// Implementations return an error for any failure; the aggregator converts
// errors into data and never lets them cross a cycle boundary.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol, quote string) (decimal.Decimal, error)
}

var (
	// ErrRateLimited maps HTTP 429 responses.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotFound maps HTTP 404 responses (unknown pair on the exchange).
	ErrNotFound = errors.New("pair not found")
	// ErrMalformedResponse covers undecodable bodies and missing price fields.
	ErrMalformedResponse = errors.New("malformed response")
)

// Stable reason strings recorded on quotes and in the CSV log.
const (
	ReasonUnsupportedSymbol = "unsupported_symbol"
	ReasonUnsupportedQuote  = "unsupported_quote"
	ReasonRateLimited       = "rate_limited"
	ReasonNotFound          = "not_found"
	ReasonMalformed         = "malformed_response"
	ReasonTimeout           = "timeout"
	ReasonNetwork           = "network_error"
	ReasonCanceled          = "canceled"
	ReasonProviderError     = "provider_error"
)

// Reason classifies an adapter error into one of the stable reason strings.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, symbols.ErrUnsupportedSymbol):
		return ReasonUnsupportedSymbol
	case errors.Is(err, symbols.ErrUnsupportedQuote):
		return ReasonUnsupportedQuote
	case errors.Is(err, ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrMalformedResponse):
		return ReasonMalformed
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ReasonTimeout
		}
		return ReasonNetwork
	}

	return ReasonProviderError
}
