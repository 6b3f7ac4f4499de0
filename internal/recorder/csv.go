package recorder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coinwatch/internal/aggregate"
)

const timestampFormat = "2006-01-02 15:04:05"

// ErrNotConfigured indicates the recorder was constructed without a path.
var ErrNotConfigured = errors.New("recorder: log path not configured")

// CSVRecorder appends one row per poll cycle to a flat CSV log. The file is
// opened, written and closed on every append so a crash never loses more
// than the in-flight row.
type CSVRecorder struct {
	path      string
	providers []string
	logger    zerolog.Logger
}

// NewCSV builds a recorder for the given provider column set. Column order is
// fixed at construction and must match the order quotes arrive in snapshots.
func NewCSV(path string, providers []string, logger zerolog.Logger) *CSVRecorder {
	return &CSVRecorder{
		path:      path,
		providers: providers,
		logger:    logger.With().Str("component", "recorder").Logger(),
	}
}

func (r *CSVRecorder) header() []string {
	header := []string{"timestamp", "symbol", "base_currency"}
	header = append(header, r.providers...)
	return append(header, "average", "spread", "spread_pct")
}

func nullField(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// Append writes one snapshot row, creating the file and header on first use.
func (r *CSVRecorder) Append(snap aggregate.Snapshot) error {
	if r == nil || r.path == "" {
		return ErrNotConfigured
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open price log: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat price log: %w", err)
	}

	w := csv.NewWriter(f)
	if stat.Size() == 0 {
		if err := w.Write(r.header()); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}

	row := []string{
		snap.Timestamp.Format(timestampFormat),
		snap.Symbol,
		snap.QuoteCurrency,
	}
	for _, name := range r.providers {
		q, ok := snap.Quote(name)
		if !ok {
			row = append(row, "")
			continue
		}
		row = append(row, nullField(q.Price))
	}
	row = append(row, nullField(snap.Average), nullField(snap.Spread), nullField(snap.SpreadPct))

	if err := w.Write(row); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush price log: %w", err)
	}

	r.logger.Debug().Str("path", r.path).Msg("snapshot recorded")
	return nil
}

// Point is one decoded log row.
type Point struct {
	Timestamp time.Time
	Symbol    string
	Quote     string
	Prices    map[string]decimal.NullDecimal
	Average   decimal.NullDecimal
	Spread    decimal.NullDecimal
	SpreadPct decimal.NullDecimal
}

// ReadSeries decodes the full log back into points, discovering the provider
// columns from the header. Rows with malformed timestamps are skipped.
func ReadSeries(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price log: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) < 6 {
		return nil, fmt.Errorf("unexpected csv header: %v", header)
	}
	providers := header[3 : len(header)-3]

	parseNull := func(s string) decimal.NullDecimal {
		if s == "" {
			return decimal.NullDecimal{}
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	}

	points := make([]Point, 0, 256)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if len(row) != len(header) {
			continue
		}

		ts, err := time.Parse(timestampFormat, row[0])
		if err != nil {
			continue
		}

		p := Point{
			Timestamp: ts,
			Symbol:    row[1],
			Quote:     row[2],
			Prices:    make(map[string]decimal.NullDecimal, len(providers)),
		}
		for i, name := range providers {
			p.Prices[name] = parseNull(row[3+i])
		}
		tail := len(header) - 3
		p.Average = parseNull(row[tail])
		p.Spread = parseNull(row[tail+1])
		p.SpreadPct = parseNull(row[tail+2])

		points = append(points, p)
	}
	return points, nil
}
