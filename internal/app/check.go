package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"coinwatch/internal/aggregate"
)

// CheckOptions configure the one-shot check command.
type CheckOptions struct {
	JSON bool
}

// Check performs a single aggregation cycle and prints the result.
func (a *App) Check(ctx context.Context, opts CheckOptions) error {
	providers, err := a.newProviders()
	if err != nil {
		return err
	}

	agg := aggregate.New(providers, a.Config.Watch.RequestDelay, a.Logger)
	snap := agg.Aggregate(ctx, a.Config.Watch.Symbol, a.Config.Watch.Quote)

	if opts.JSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snap)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "%s/%s at %s\n\n", snap.Symbol, snap.QuoteCurrency, snap.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(writer, "Provider\tPrice\tStatus")

	for _, q := range snap.Quotes {
		if q.Price.Valid {
			fmt.Fprintf(writer, "%s\t%s\tok\n", q.Provider, formatNull(q.Price, 2))
			continue
		}
		fmt.Fprintf(writer, "%s\t-\t%s\n", q.Provider, q.Reason)
	}

	fmt.Fprintf(writer, "\nAverage\t%s\t\n", formatNull(snap.Average, 2))
	fmt.Fprintf(writer, "Spread\t%s\t\n", formatNull(snap.Spread, 2))
	fmt.Fprintf(writer, "Spread %%\t%s\t\n", formatNull(snap.SpreadPct, 3))

	return writer.Flush()
}

func formatNull(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(places)
}
