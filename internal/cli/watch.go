package cli

import (
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [symbol] [quote]",
	Short: "Run the continuous monitoring loop",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyPairArgs(args)
		return getApp().Watch(cmd.Context())
	},
}
