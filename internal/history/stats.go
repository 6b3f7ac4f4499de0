package history

import (
	"time"

	"github.com/shopspring/decimal"

	"coinwatch/internal/aggregate"
)

// averagesIn collects the valid average prices in the window.
func averagesIn(snaps []aggregate.Snapshot) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(snaps))
	for _, s := range snaps {
		if s.Average.Valid {
			out = append(out, s.Average.Decimal)
		}
	}
	return out
}

// MovingAverage returns the mean of the average prices within d of now.
func (s *Store) MovingAverage(now time.Time, d time.Duration) decimal.NullDecimal {
	prices := averagesIn(s.WindowAt(now, d))
	if len(prices) == 0 {
		return decimal.NullDecimal{}
	}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p)
	}
	return decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(int64(len(prices)))))
}

// Volatility returns the population standard deviation of average prices
// within d of now. At least two samples are required.
func (s *Store) Volatility(now time.Time, d time.Duration) decimal.NullDecimal {
	prices := averagesIn(s.WindowAt(now, d))
	if len(prices) < 2 {
		return decimal.NullDecimal{}
	}

	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(prices))))

	variance := decimal.Zero
	for _, p := range prices {
		diff := p.Sub(mean)
		variance = variance.Add(diff.Mul(diff))
	}
	variance = variance.Div(decimal.NewFromInt(int64(len(prices))))

	stddev, err := variance.PowWithPrecision(decimal.NewFromFloat(0.5), 12)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(stddev)
}

// Momentum returns the percent change from the oldest to the newest average
// price within d of now.
func (s *Store) Momentum(now time.Time, d time.Duration) decimal.NullDecimal {
	prices := averagesIn(s.WindowAt(now, d))
	if len(prices) < 2 {
		return decimal.NullDecimal{}
	}
	oldest, newest := prices[0], prices[len(prices)-1]
	if oldest.IsZero() {
		return decimal.NullDecimal{}
	}
	change := newest.Sub(oldest).Div(oldest).Mul(decimal.NewFromInt(100))
	return decimal.NewNullDecimal(change)
}
