package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var testAlertPrices []string

var testAlertCmd = &cobra.Command{
	Use:   "test-alert",
	Short: "Send a test alert through the configured notifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(testAlertPrices) < 2 {
			return fmt.Errorf("at least two --price values are required")
		}

		prices := make([]decimal.Decimal, 0, len(testAlertPrices))
		for _, raw := range testAlertPrices {
			price, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("invalid --price value %q: %w", raw, err)
			}
			prices = append(prices, price)
		}

		return getApp().TestAlert(cmd.Context(), prices)
	},
}

func init() {
	testAlertCmd.Flags().StringSliceVar(&testAlertPrices, "price", []string{"100000", "100200"}, "Simulated provider prices")
}
