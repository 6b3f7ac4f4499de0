package symbols

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedSymbol indicates the asset symbol has no mapping for a provider.
	ErrUnsupportedSymbol = errors.New("unsupported symbol")
	// ErrUnsupportedQuote indicates the quote currency has no mapping for a provider.
	ErrUnsupportedQuote = errors.New("unsupported quote currency")
)

// Table holds the per-provider symbol and quote currency mappings. It is
// immutable after construction; tests substitute fixture tables instead of
// mutating process state.
type Table struct {
	coingeckoIDs   map[string]string
	binanceQuotes  map[string]string
	coinbaseQuotes map[string]string
	krakenAssets   map[string]string
	krakenQuotes   map[string]string
}

// NewTable builds a Table from explicit mappings. Nil maps are treated as empty.
func NewTable(coingeckoIDs, binanceQuotes, coinbaseQuotes, krakenAssets, krakenQuotes map[string]string) *Table {
	return &Table{
		coingeckoIDs:   lowered(coingeckoIDs),
		binanceQuotes:  lowered(binanceQuotes),
		coinbaseQuotes: lowered(coinbaseQuotes),
		krakenAssets:   lowered(krakenAssets),
		krakenQuotes:   lowered(krakenQuotes),
	}
}

// DefaultTable returns the built-in mappings for the majors.
func DefaultTable() *Table {
	return NewTable(
		map[string]string{
			"btc":   "bitcoin",
			"eth":   "ethereum",
			"sol":   "solana",
			"ada":   "cardano",
			"xrp":   "ripple",
			"doge":  "dogecoin",
			"dot":   "polkadot",
			"matic": "polygon",
			"link":  "chainlink",
			"avax":  "avalanche-2",
			"ltc":   "litecoin",
			"uni":   "uniswap",
			"atom":  "cosmos",
			"xlm":   "stellar",
			"algo":  "algorand",
			"near":  "near",
			"ftm":   "fantom",
			"aave":  "aave",
			"bnb":   "binancecoin",
			"shib":  "shiba-inu",
		},
		// Binance has no native USD market; USDT is the conventional proxy.
		map[string]string{
			"usd":  "USDT",
			"eur":  "EUR",
			"gbp":  "GBP",
			"usdt": "USDT",
			"usdc": "USDC",
		},
		map[string]string{
			"usd":  "USD",
			"eur":  "EUR",
			"gbp":  "GBP",
			"usdt": "USDT",
			"usdc": "USDC",
		},
		map[string]string{
			"btc":  "XBT",
			"doge": "XDG",
		},
		map[string]string{
			"usd":  "USD",
			"usdt": "USD",
			"eur":  "EUR",
			"gbp":  "GBP",
		},
	)
}

// CoinGeckoID resolves a canonical symbol to the CoinGecko asset slug. The
// quote currency is passed through lowercase by CoinGecko adapters, unchecked.
func (t *Table) CoinGeckoID(symbol string) (string, error) {
	id, ok := t.coingeckoIDs[strings.ToLower(symbol)]
	if !ok {
		return "", fmt.Errorf("%w: no coingecko id for %q", ErrUnsupportedSymbol, symbol)
	}
	return id, nil
}

// BinancePair formats a Binance trading pair, e.g. ("btc", "usd") -> "BTCUSDT".
func (t *Table) BinancePair(symbol, quote string) (string, error) {
	suffix, ok := t.binanceQuotes[strings.ToLower(quote)]
	if !ok {
		return "", fmt.Errorf("%w: no binance market for %q", ErrUnsupportedQuote, quote)
	}
	return strings.ToUpper(symbol) + suffix, nil
}

// CoinbasePair formats a Coinbase product id, e.g. ("btc", "usd") -> "BTC-USD".
// Any quote currency is syntactically accepted; validity is decided by the
// live response.
func (t *Table) CoinbasePair(symbol, quote string) string {
	mapped, ok := t.coinbaseQuotes[strings.ToLower(quote)]
	if !ok {
		mapped = strings.ToUpper(quote)
	}
	return strings.ToUpper(symbol) + "-" + mapped
}

// KrakenPair formats a Kraken pair, honouring Kraken's legacy asset codes
// (BTC is XBT, DOGE is XDG).
func (t *Table) KrakenPair(symbol, quote string) (string, error) {
	asset, ok := t.krakenAssets[strings.ToLower(symbol)]
	if !ok {
		asset = strings.ToUpper(symbol)
	}
	mapped, ok := t.krakenQuotes[strings.ToLower(quote)]
	if !ok {
		return "", fmt.Errorf("%w: no kraken market for %q", ErrUnsupportedQuote, quote)
	}
	return asset + mapped, nil
}

func lowered(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
