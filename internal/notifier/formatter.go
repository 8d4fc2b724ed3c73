package notifier

import (
	"fmt"
	"strings"

	"PatternSentinel/internal/analyzer"
)

// FormatAnalyze formats a five-day similarity verdict.
func FormatAnalyze(res analyzer.AnalyzeResult) string {
	var b strings.Builder

	icon := "⚪"
	verdict := "not similar"
	if res.Similarity.IsSimilar {
		icon = "🟢"
		verdict = "SIMILAR"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | 5-day echo: %s\n\n", icon, res.Symbol, res.Interval, verdict))
	b.WriteString(fmt.Sprintf("Window: %d bars (prior window %d bars back)\n", res.Window, res.Offset))
	b.WriteString(fmt.Sprintf("Correlation: %.4f\n", res.Similarity.Correlation))
	b.WriteString(fmt.Sprintf("Cosine: %.4f\n", res.Similarity.Cosine))
	if n := len(res.Current); n > 0 {
		b.WriteString(fmt.Sprintf("Last close: %.2f\n", res.Current[n-1]))
	}
	return b.String()
}

// FormatTrend formats the best historical periods that moved like the recent hours.
func FormatTrend(res analyzer.TrendResult, limit int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>%s %s</b> | last %dh trend\n\n", res.Symbol, res.Interval, res.Hours))
	s := res.RecentStats
	b.WriteString(fmt.Sprintf("Recent: %+.2f%% over %d moves (↑%d ↓%d →%d)\n",
		s.TotalChange, s.TotalMoves, s.UpMoves, s.DownMoves, s.SidewaysMoves))
	b.WriteString(fmt.Sprintf("History: %d points, %d days covered\n\n", res.YearlyPoints, res.Coverage.CoveredDays()))

	if len(res.Matches) == 0 {
		b.WriteString("No similar periods found.")
		return b.String()
	}
	b.WriteString("🔎 <b>Similar periods:</b>\n")
	for i, m := range res.Matches {
		if limit > 0 && i >= limit {
			break
		}
		b.WriteString(fmt.Sprintf("  %d. %s  score %.4f  then %s\n",
			i+1, m.StartTime.Format("2006-01-02 15:04"), m.Similarity, continuationLabel(m.ContinuationPrices)))
	}
	return b.String()
}

func continuationLabel(prices []float64) string {
	if len(prices) < 2 || prices[0] == 0 {
		return "n/a"
	}
	change := (prices[len(prices)-1] - prices[0]) / prices[0] * 100
	return fmt.Sprintf("%+.2f%%", change)
}

// FormatSnapshot formats a live chart summary.
func FormatSnapshot(snap analyzer.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s %s</b> | last %dh\n\n", snap.Symbol, snap.Interval, snap.Hours))
	b.WriteString(fmt.Sprintf("Price: %.2f (%+.2f, %+.2f%%)\n", snap.CurrentPrice, snap.Change, snap.ChangePercent))
	b.WriteString(fmt.Sprintf("High: %.2f | Low: %.2f\n", snap.High, snap.Low))
	b.WriteString(fmt.Sprintf("Volume: %.2f\n", snap.Volume))
	b.WriteString(fmt.Sprintf("RSI(14): %.1f\n", snap.RSI))
	b.WriteString(fmt.Sprintf("Bars: %d, until %s\n", snap.DataPoints, snap.EndTime.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatCacheStatus formats the response cache state.
func FormatCacheStatus(driver string, entries int) string {
	return fmt.Sprintf("🗄 <b>Cache</b>\n\nDriver: %s\nLive entries: %d\n", driver, entries)
}

// FormatError formats a failed command.
func FormatError(command string, err error) string {
	return fmt.Sprintf("❌ %s failed (%s): %v", command, analyzer.ErrorClass(err), err)
}

// HelpText lists the supported commands.
const HelpText = `🤖 <b>PatternSentinel</b>

/analyze SYMBOL - compare the latest window with five days ago
/trend SYMBOL - find periods that moved like the last hours
/snapshot SYMBOL - live chart summary
/cache - response cache status
/help - this message`
