package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/leeduo/marketdeck/internal/api"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6"))

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	downStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	dimStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	progressStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B"))

	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	failStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)
)

// DisplayBanner shows the dashboard banner.
func DisplayBanner() {
	banner := `
╔══════════════════════════════════════════════╗
║   📈 MarketDeck · terminal market dashboard  ║
╚══════════════════════════════════════════════╝`
	fmt.Println(titleStyle.Render(banner))
}

// changeStyle picks the quote color convention used by A-share terminals:
// red for gains, green for losses.
func changeStyle(change decimal.Decimal) lipgloss.Style {
	switch change.Sign() {
	case 1:
		return upStyle
	case -1:
		return downStyle
	}
	return dimStyle
}

// DisplaySnapshot prints the market snapshot as a quote table.
func DisplaySnapshot(snap *api.MarketSnapshot) {
	if snap == nil {
		fmt.Println(dimStyle.Render("no market data yet"))
		return
	}

	idx := snap.Index
	fmt.Printf("%s  %s %s  %s\n",
		headerStyle.Render(idx.Name),
		idx.Price.StringFixed(2),
		changeStyle(idx.ChangePct).Render(formatPct(idx.ChangePct)),
		dimStyle.Render("updated "+snap.LastUpdate),
	)
	fmt.Println()

	fmt.Printf("%-10s %-12s %10s %9s %7s %8s  %s\n",
		"SYMBOL", "NAME", "PRICE", "CHANGE", "VOL.R", "SCORE", "STATUS")
	for _, q := range snap.Stocks {
		status := q.Status
		if status == "warning" {
			status = warnStyle.Render(status + " " + strings.Join(q.Alerts, "; "))
		}
		fmt.Printf("%-10s %-12s %10s %9s %7s %8s  %s\n",
			q.Symbol,
			truncate(q.Name, 12),
			q.Price.StringFixed(2),
			changeStyle(q.ChangePct).Render(formatPct(q.ChangePct)),
			q.VolumeRatio.StringFixed(2),
			q.CompositeScore.StringFixed(1),
			status,
		)
	}
}

// DisplaySelections prints the screener's candidate list.
func DisplaySelections(selections []api.Selection) {
	if len(selections) == 0 {
		fmt.Println(dimStyle.Render("no screener candidates"))
		return
	}

	fmt.Println(headerStyle.Render("Screener candidates"))
	fmt.Printf("%-10s %-12s %10s %7s %8s\n", "SYMBOL", "NAME", "CLOSE", "VOL.R", "SCORE")
	for _, sel := range selections {
		fmt.Printf("%-10s %-12s %10s %7s %8s\n",
			sel.Symbol,
			truncate(sel.Name, 12),
			sel.ClosePrice.StringFixed(2),
			sel.VolumeRatio.StringFixed(2),
			sel.CompositeScore.StringFixed(1),
		)
	}
}

// DisplayKline prints a compact candle summary for a symbol.
func DisplayKline(k *api.Kline, days int) {
	if k == nil || len(k.Dates) == 0 {
		fmt.Println(dimStyle.Render("no kline data"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%s (%s) last %d sessions", k.Name, k.Symbol, days)))
	fmt.Printf("%-12s %10s %10s %10s %10s %12s\n", "DATE", "OPEN", "CLOSE", "LOW", "HIGH", "VOLUME")

	// The three arrays come from separate backend series; never trust them
	// to be the same length.
	n := len(k.Dates)
	if len(k.Values) < n {
		n = len(k.Values)
	}
	if len(k.Volumes) < n {
		n = len(k.Volumes)
	}

	start := n - days
	if start < 0 {
		start = 0
	}
	for i := start; i < n; i++ {
		if len(k.Values[i]) < 4 {
			continue
		}
		open, close := k.Values[i][0], k.Values[i][1]
		low, high := k.Values[i][2], k.Values[i][3]
		style := changeStyle(close.Sub(open))
		fmt.Printf("%-12s %10s %10s %10s %10s %12s\n",
			k.Dates[i],
			open.StringFixed(2),
			style.Render(close.StringFixed(2)),
			low.StringFixed(2),
			high.StringFixed(2),
			k.Volumes[i].StringFixed(0),
		)
	}
}

// DisplayProgress prints a transient progress line for a streaming session.
func DisplayProgress(percent int, label string) {
	line := label
	if percent > 0 {
		line = fmt.Sprintf("[%3d%%] %s", percent, label)
	}
	fmt.Printf("\r\033[K%s", progressStyle.Render(line))
}

// ClearProgress ends the transient progress line.
func ClearProgress() {
	fmt.Print("\r\033[K")
}

func formatPct(d decimal.Decimal) string {
	sign := ""
	if d.Sign() > 0 {
		sign = "+"
	}
	return sign + d.StringFixed(2) + "%"
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
