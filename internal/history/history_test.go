package history

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"coinwatch/internal/aggregate"
)

func snapAt(ts time.Time, avg float64) aggregate.Snapshot {
	return aggregate.Snapshot{
		Timestamp: ts,
		Symbol:    "btc",
		Average:   decimal.NewNullDecimal(decimal.NewFromFloat(avg)),
	}
}

func TestAppendEvictsOldest(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	store := New(3)

	for i := 0; i < 5; i++ {
		store.Append(snapAt(base.Add(time.Duration(i)*time.Second), float64(i)))
	}

	require.Equal(t, 3, store.Len())
	latest, ok := store.Latest()
	require.True(t, ok)
	require.True(t, latest.Average.Decimal.Equal(decimal.NewFromInt(4)))

	window := store.WindowAt(base.Add(10*time.Second), time.Hour)
	require.Len(t, window, 3)
	require.True(t, window[0].Average.Decimal.Equal(decimal.NewFromInt(2)))
}

func TestLatestEmpty(t *testing.T) {
	store := New(10)
	_, ok := store.Latest()
	require.False(t, ok)
}

func TestWindowExcludesOldEntries(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	store := New(100)

	store.Append(snapAt(base, 1))
	store.Append(snapAt(base.Add(30*time.Second), 2))
	store.Append(snapAt(base.Add(60*time.Second), 3))

	window := store.WindowAt(base.Add(60*time.Second), 45*time.Second)
	require.Len(t, window, 2)
	require.True(t, window[0].Average.Decimal.Equal(decimal.NewFromInt(2)))
	require.True(t, window[1].Average.Decimal.Equal(decimal.NewFromInt(3)))
}

func TestWindowMalformedTimestampActsAsBoundary(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	store := New(100)

	store.Append(snapAt(base, 1))
	store.Append(aggregate.Snapshot{}) // zero timestamp
	store.Append(snapAt(base.Add(2*time.Second), 3))

	window := store.WindowAt(base.Add(2*time.Second), time.Hour)
	require.Len(t, window, 1)
	require.True(t, window[0].Average.Decimal.Equal(decimal.NewFromInt(3)))
}

func TestMovingAverage(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	store := New(100)

	store.Append(snapAt(base, 100))
	store.Append(snapAt(base.Add(10*time.Second), 200))
	store.Append(snapAt(base.Add(20*time.Second), 300))

	ma := store.MovingAverage(base.Add(20*time.Second), time.Minute)
	require.True(t, ma.Valid)
	require.True(t, ma.Decimal.Equal(decimal.NewFromInt(200)))

	empty := New(10).MovingAverage(base, time.Minute)
	require.False(t, empty.Valid)
}

func TestVolatility(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	store := New(100)

	// Constant series: zero volatility.
	store.Append(snapAt(base, 100))
	store.Append(snapAt(base.Add(time.Second), 100))

	vol := store.Volatility(base.Add(time.Second), time.Minute)
	require.True(t, vol.Valid)
	require.True(t, vol.Decimal.IsZero())

	// Two-point series {90, 110}: pstdev = 10.
	store2 := New(100)
	store2.Append(snapAt(base, 90))
	store2.Append(snapAt(base.Add(time.Second), 110))

	vol2 := store2.Volatility(base.Add(time.Second), time.Minute)
	require.True(t, vol2.Valid)
	require.True(t, vol2.Decimal.Sub(decimal.NewFromInt(10)).Abs().LessThan(decimal.NewFromFloat(0.0001)))
}

func TestMomentum(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	store := New(100)

	store.Append(snapAt(base, 100))
	store.Append(snapAt(base.Add(time.Second), 103))

	m := store.Momentum(base.Add(time.Second), time.Minute)
	require.True(t, m.Valid)
	require.True(t, m.Decimal.Equal(decimal.NewFromInt(3)))
}
