package aggregate

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is the uniform result of one provider call. Price is null when
// the call failed; Reason then carries the classified failure.
type PriceQuote struct {
	Provider   string              `json:"provider"`
	Price      decimal.NullDecimal `json:"price"`
	Reason     string              `json:"reason,omitempty"`
	ObservedAt time.Time           `json:"observed_at"`
}

// Snapshot is the aggregate result of one polling cycle. It is never mutated
// after creation.
type Snapshot struct {
	Timestamp     time.Time           `json:"timestamp"`
	Symbol        string              `json:"symbol"`
	QuoteCurrency string              `json:"quote_currency"`
	Quotes        []PriceQuote        `json:"quotes"`
	Average       decimal.NullDecimal `json:"average"`
	Spread        decimal.NullDecimal `json:"spread"`
	SpreadPct     decimal.NullDecimal `json:"spread_pct"`
}

// Quote returns the quote recorded for a provider name.
func (s Snapshot) Quote(provider string) (PriceQuote, bool) {
	for _, q := range s.Quotes {
		if q.Provider == provider {
			return q, true
		}
	}
	return PriceQuote{}, false
}

// ValidQuotes returns the quotes that carry a price.
func (s Snapshot) ValidQuotes() []PriceQuote {
	valid := make([]PriceQuote, 0, len(s.Quotes))
	for _, q := range s.Quotes {
		if q.Price.Valid {
			valid = append(valid, q)
		}
	}
	return valid
}

// Extremes returns the lowest- and highest-priced valid quotes. ok is false
// when fewer than two providers answered.
func (s Snapshot) Extremes() (lowest, highest PriceQuote, ok bool) {
	valid := s.ValidQuotes()
	if len(valid) < 2 {
		return PriceQuote{}, PriceQuote{}, false
	}
	lowest, highest = valid[0], valid[0]
	for _, q := range valid[1:] {
		if q.Price.Decimal.LessThan(lowest.Price.Decimal) {
			lowest = q
		}
		if q.Price.Decimal.GreaterThan(highest.Price.Decimal) {
			highest = q
		}
	}
	return lowest, highest, true
}

// Compute derives average, spread, and spread percent from a set of quotes.
// Pure function of its inputs: the same quotes always yield the same values.
//
//   - two or more prices: average, spread (max-min), spread percent
//   - exactly one price: average only; spread across one sample is undefined
//   - no prices: everything null; the snapshot itself is still meaningful
func Compute(quotes []PriceQuote) (average, spread, spreadPct decimal.NullDecimal) {
	prices := make([]decimal.Decimal, 0, len(quotes))
	for _, q := range quotes {
		if q.Price.Valid {
			prices = append(prices, q.Price.Decimal)
		}
	}

	if len(prices) == 0 {
		return
	}

	sum := decimal.Zero
	lo, hi := prices[0], prices[0]
	for _, p := range prices {
		sum = sum.Add(p)
		if p.LessThan(lo) {
			lo = p
		}
		if p.GreaterThan(hi) {
			hi = p
		}
	}

	average = decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(int64(len(prices)))))
	if len(prices) < 2 {
		return
	}

	spread = decimal.NewNullDecimal(hi.Sub(lo))
	if average.Decimal.IsZero() {
		spreadPct = decimal.NewNullDecimal(decimal.Zero)
		return
	}
	spreadPct = decimal.NewNullDecimal(spread.Decimal.Div(average.Decimal).Mul(decimal.NewFromInt(100)))
	return
}
