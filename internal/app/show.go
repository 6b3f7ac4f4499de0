package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"coinwatch/internal/recorder"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// Show prints the most recent rows of the price log.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	if a.Config.Watch.LogFile == "" {
		return errors.New("watch.log_file not configured; nothing to show")
	}

	points, err := recorder.ReadSeries(a.Config.Watch.LogFile)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Fprintln(os.Stdout, "no samples found")
		return nil
	}

	if opts.Limit > 0 && len(points) > opts.Limit {
		points = points[len(points)-opts.Limit:]
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tPair\tAverage\tSpread\tSpread%")

	for _, p := range points {
		fmt.Fprintf(
			writer,
			"%s\t%s/%s\t%s\t%s\t%s\n",
			p.Timestamp.Format("2006-01-02 15:04:05"),
			p.Symbol,
			p.Quote,
			formatNull(p.Average, 2),
			formatNull(p.Spread, 2),
			formatNull(p.SpreadPct, 3),
		)
	}

	return writer.Flush()
}
