package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"coinwatch/internal/aggregate"
)

const messageTimeFormat = "2006-01-02 15:04:05"

func pairLabel(snap aggregate.Snapshot) string {
	return strings.ToUpper(snap.Symbol) + "/" + strings.ToUpper(snap.QuoteCurrency)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func renderSpreadAlert(snap aggregate.Snapshot, lowest, highest aggregate.PriceQuote, cfg Config, now time.Time) string {
	spread := snap.Spread.Decimal
	spreadPct := snap.SpreadPct.Decimal

	// Round-trip costs two trades, so the fee is charged twice.
	netProfitPct := spreadPct.Sub(cfg.FeePct.Mul(decimal.NewFromInt(2)))
	netProfitUSD := netProfitPct.Div(decimal.NewFromInt(100)).Mul(snap.Average.Decimal)

	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("📊 <b>SPREAD ALERT — %s</b>\n\n", pairLabel(snap)))
	b.WriteString(fmt.Sprintf("<b>Spread: %s%%</b>\n\n", spreadPct.StringFixed(3)))
	b.WriteString(fmt.Sprintf("💰 <b>Buy on %s:</b> %s\n", lowest.Provider, money(lowest.Price.Decimal)))
	b.WriteString(fmt.Sprintf("💸 <b>Sell on %s:</b> %s\n\n", highest.Provider, money(highest.Price.Decimal)))
	b.WriteString(fmt.Sprintf("<b>Difference:</b> %s\n", money(spread)))
	b.WriteString(fmt.Sprintf("<b>Net profit (after ~%s%% fees):</b> %s per %s\n\n",
		cfg.FeePct.Mul(decimal.NewFromInt(2)).StringFixed(1), money(netProfitUSD), strings.ToUpper(snap.Symbol)))
	b.WriteString("<b>All Prices:</b>\n")
	for _, q := range snap.ValidQuotes() {
		b.WriteString(fmt.Sprintf("• %s: %s\n", q.Provider, money(q.Price.Decimal)))
	}
	b.WriteString(fmt.Sprintf("\n<i>%s</i>", now.Format(messageTimeFormat)))
	return b.String()
}

func renderThresholdAlert(snap aggregate.Snapshot, threshold decimal.Decimal, above bool, now time.Time) string {
	b := strings.Builder{}
	if above {
		b.WriteString(fmt.Sprintf("🟢 <b>PRICE ABOVE %s — %s</b>\n\n", money(threshold), pairLabel(snap)))
	} else {
		b.WriteString(fmt.Sprintf("🔴 <b>PRICE BELOW %s — %s</b>\n\n", money(threshold), pairLabel(snap)))
	}
	b.WriteString(fmt.Sprintf("<b>Current Price:</b> %s\n", money(snap.Average.Decimal)))
	b.WriteString(fmt.Sprintf("<b>Threshold:</b> %s\n\n", money(threshold)))
	if above {
		b.WriteString(fmt.Sprintf("%s has broken above your target! 🚀\n", strings.ToUpper(snap.Symbol)))
	} else {
		b.WriteString(fmt.Sprintf("%s has dropped below your target! ⚠️\n", strings.ToUpper(snap.Symbol)))
	}
	b.WriteString(fmt.Sprintf("\n<i>%s</i>", now.Format(messageTimeFormat)))
	return b.String()
}

func renderChangeAlert(snap aggregate.Snapshot, oldest, changePct decimal.Decimal, window time.Duration, now time.Time) string {
	direction := "📈 UP"
	emoji := "🚀"
	if changePct.IsNegative() {
		direction = "📉 DOWN"
		emoji = "🔻"
	}

	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("%s <b>%s %s%% — %s</b>\n\n", emoji, direction, changePct.Abs().StringFixed(1), pairLabel(snap)))
	b.WriteString(fmt.Sprintf("<b>Change: %s%%</b>\n\n", changePct.StringFixed(2)))
	b.WriteString(fmt.Sprintf("<b>From:</b> %s\n", money(oldest)))
	b.WriteString(fmt.Sprintf("<b>To:</b> %s\n", money(snap.Average.Decimal)))
	b.WriteString(fmt.Sprintf("<b>Time window:</b> %d minutes\n", int(window.Minutes())))
	b.WriteString(fmt.Sprintf("\n<i>%s</i>", now.Format(messageTimeFormat)))
	return b.String()
}

func renderStatusUpdate(snap aggregate.Snapshot, now time.Time) string {
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("📊 <b>%s Status</b>\n\n", pairLabel(snap)))

	if snap.Average.Valid {
		b.WriteString(fmt.Sprintf("<b>Average:</b> %s\n", money(snap.Average.Decimal)))
	} else {
		b.WriteString("<b>Average:</b> no data\n")
	}
	if snap.SpreadPct.Valid {
		b.WriteString(fmt.Sprintf("<b>Spread:</b> %s%%\n", snap.SpreadPct.Decimal.StringFixed(3)))
	}

	valid := snap.ValidQuotes()
	if len(valid) > 0 {
		b.WriteString("\n<b>Prices:</b>\n")
		for _, q := range valid {
			b.WriteString(fmt.Sprintf("• %s: %s\n", q.Provider, money(q.Price.Decimal)))
		}
	}

	if lowest, highest, ok := snap.Extremes(); ok {
		b.WriteString(fmt.Sprintf("\n💡 <b>Buy:</b> %s → <b>Sell:</b> %s\n", lowest.Provider, highest.Provider))
	}

	b.WriteString(fmt.Sprintf("\n<i>%s</i>", now.Format(messageTimeFormat)))
	return b.String()
}

// StartupMessage announces a new monitoring session and its active rules.
func StartupMessage(symbol, quote string, interval time.Duration, cfg Config) string {
	rules := make([]string, 0, 4)
	if cfg.SpreadThresholdPct.IsPositive() {
		rules = append(rules, fmt.Sprintf("• Spread > %s%%", cfg.SpreadThresholdPct.String()))
	}
	if cfg.PriceAbove.Valid {
		rules = append(rules, fmt.Sprintf("• Price > %s", money(cfg.PriceAbove.Decimal)))
	}
	if cfg.PriceBelow.Valid {
		rules = append(rules, fmt.Sprintf("• Price < %s", money(cfg.PriceBelow.Decimal)))
	}
	if cfg.ChangeThresholdPct.IsPositive() && cfg.ChangeWindow > 0 {
		rules = append(rules, fmt.Sprintf("• %s%% move in %dmin", cfg.ChangeThresholdPct.String(), int(cfg.ChangeWindow.Minutes())))
	}

	b := strings.Builder{}
	b.WriteString("🤖 <b>Crypto Alert Bot Started</b>\n\n")
	b.WriteString(fmt.Sprintf("<b>Monitoring:</b> %s/%s\n", strings.ToUpper(symbol), strings.ToUpper(quote)))
	b.WriteString(fmt.Sprintf("<b>Interval:</b> %s\n", interval))
	if len(rules) > 0 {
		b.WriteString("<b>Active Alerts:</b>\n")
		b.WriteString(strings.Join(rules, "\n"))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n<b>Cooldown:</b> %s between alerts", cfg.Cooldown))
	if cfg.StatusInterval > 0 {
		b.WriteString(fmt.Sprintf("\n<b>Status updates:</b> Every %s", cfg.StatusInterval))
	}
	return b.String()
}

// ShutdownMessage is the final notification flushed when a session stops.
func ShutdownMessage(symbol string, cycles, alerts int) string {
	return fmt.Sprintf("🛑 <b>Alert Bot Stopped</b>\n\nMonitored %s for %d intervals.\nTotal alerts sent: %d",
		strings.ToUpper(symbol), cycles, alerts)
}
