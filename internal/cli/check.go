package cli

import (
	"github.com/spf13/cobra"

	"coinwatch/internal/app"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check [symbol] [quote]",
	Short: "Fetch current prices once and print the snapshot",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyPairArgs(args)
		return getApp().Check(cmd.Context(), app.CheckOptions{JSON: checkJSON})
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the snapshot as JSON")
}

// applyPairArgs lets positional symbol/quote override the configured pair.
func applyPairArgs(args []string) {
	cfg := getApp().Config
	if len(args) > 0 {
		cfg.Watch.Symbol = args[0]
	}
	if len(args) > 1 {
		cfg.Watch.Quote = args[1]
	}
}
