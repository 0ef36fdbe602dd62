package notifier

import (
	"fmt"
	"html"
	"strings"

	"LeverageLens/internal/model"
)

// style abstracts the markup differences between Telegram HTML and terminal text.
type style struct {
	bold   func(string) string
	escape func(string) string
}

var (
	htmlStyle = style{
		bold:   func(s string) string { return "<b>" + html.EscapeString(s) + "</b>" },
		escape: html.EscapeString,
	}
	plainStyle = style{
		bold:   func(s string) string { return s },
		escape: func(s string) string { return s },
	}
)

// FormatReport formats a result as a Telegram HTML message.
func FormatReport(res *model.Result) string {
	return format(res, htmlStyle)
}

// FormatPlain formats a result for the terminal.
func FormatPlain(res *model.Result) string {
	return format(res, plainStyle)
}

// FormatError formats a failed run for Telegram.
func FormatError(what string, err error) string {
	return fmt.Sprintf("❌ %s: %s", html.EscapeString(what), html.EscapeString(err.Error()))
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	b.WriteString("• /report [variant] - run the analysis now\n")
	b.WriteString("• /help - show this message\n\n")
	names := make([]string, len(model.Variants))
	for i, v := range model.Variants {
		names[i] = string(v)
	}
	b.WriteString("Variants: " + strings.Join(names, ", "))
	return b.String()
}

func format(res *model.Result, st style) string {
	var b strings.Builder
	req := res.Request
	a, bb := st.escape(res.SymbolA), st.escape(res.SymbolB)

	fmt.Fprintf(&b, "📊 %s | %s vs %s\n", st.bold("LeverageLens"), a, bb)
	fmt.Fprintf(&b, "%s ~ %s (%d trading days), variant %s\n\n",
		res.From.Format(model.DateLayout), res.To.Format(model.DateLayout), res.TradingDays, req.Variant)

	if n := len(res.Dates); n > 0 {
		fmt.Fprintf(&b, "%s %s\n", st.bold("Last close"), res.Dates[n-1].Format(model.DateLayout))
		fmt.Fprintf(&b, "  %s: %.2f%s\n", a, res.A[n-1], smaSuffix(res.A[n-1], res.SMAA, n-1, req.SMAWindow))
		fmt.Fprintf(&b, "  %s: %.2f%s\n\n", bb, res.B[n-1], smaSuffix(res.B[n-1], res.SMAB, n-1, req.SMAWindow))
	}

	if q := res.Quadrants; q != nil {
		fmt.Fprintf(&b, "🎲 %s (%d days)\n", st.bold(fmt.Sprintf("Quadrants vs %dSMA", req.SMAWindow)), q.Days)
		fmt.Fprintf(&b, "  both below: %.1f%% (%d)\n", q.BothBelowPct, q.BothBelow)
		fmt.Fprintf(&b, "  %s below, %s above: %.1f%% (%d)\n", bb, a, q.BBelowAPct, q.BBelowAAbove)
		fmt.Fprintf(&b, "  %s above, %s below: %.1f%% (%d)\n", bb, a, q.BAboveAPct, q.BAboveABelow)
		fmt.Fprintf(&b, "  both above: %.1f%% (%d)\n\n", q.BothAbovePct, q.BothAbove)
	}

	if c := res.Crossing; c != nil {
		fmt.Fprintf(&b, "🔀 %s (±%d days, %s)\n", st.bold("SMA crossings"), req.AlignmentDays, req.Convention)
		fmt.Fprintf(&b, "  up: %s %d, %s %d\n", a, len(c.A.Up), bb, len(c.B.Up))
		writeLeadLag(&b, c.Up, a, bb)
		fmt.Fprintf(&b, "  down: %s %d, %s %d\n", a, len(c.A.Down), bb, len(c.B.Down))
		writeLeadLag(&b, c.Down, a, bb)
		b.WriteString("\n")
	}

	if r := res.Returns; r != nil {
		fmt.Fprintf(&b, "📈 %s\n", st.bold("Returns"))
		fmt.Fprintf(&b, "  cumulative: %s %s, %s %s\n", a, pct(r.CumulativeA), bb, pct(r.CumulativeB))
		if r.Correlation != nil || r.Beta != nil {
			fmt.Fprintf(&b, "  correlation %s, beta %s\n", num(r.Correlation, 3), num(r.Beta, 2))
		}
		if r.BestLag != nil {
			fmt.Fprintf(&b, "  best lag %+d days (corr %s, n=%d)\n", r.BestLag.Lag, num(r.BestLag.Correlation, 3), r.BestLag.Samples)
		}
		b.WriteString("\n")
	}

	if d := res.Drawdown; d != nil {
		fmt.Fprintf(&b, "📉 %s (≤ -%.1f%%)\n", st.bold("Large drops"), d.ThresholdPct)
		if d.MaxA != nil && d.MaxB != nil {
			fmt.Fprintf(&b, "  max drawdown: %s %.1f%%, %s %.1f%%\n", a, d.MaxA.Pct, bb, d.MaxB.Pct)
		}
		fmt.Fprintf(&b, "  drop days: %s %d, %s %d\n", a, len(d.DropsA), bb, len(d.DropsB))
		writeLeadLag(&b, d.LeadLag, a, bb)
		b.WriteString("\n")
	}

	for _, n := range res.Notices {
		fmt.Fprintf(&b, "⚠️ %s\n", st.escape(n))
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeLeadLag(b *strings.Builder, ll model.LeadLag, a, bb string) {
	if ll.Matched == 0 {
		b.WriteString("    no matched events\n")
		return
	}
	fmt.Fprintf(b, "    matched %d: %s leads %s, %s leads %s, together %s\n",
		ll.Matched, a, pct(ll.ALeadsPct), bb, pct(ll.BLeadsPct), pct(ll.SimultaneousPct))
}

func smaSuffix(price float64, sma []float64, i, window int) string {
	if i >= len(sma) {
		return ""
	}
	v := model.Ptr(sma[i])
	if v == nil {
		return ""
	}
	side := "below"
	if price > *v {
		side = "above"
	}
	return fmt.Sprintf(" (%dSMA %.2f, %s)", window, *v, side)
}

func pct(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *p)
}

func num(p *float64, prec int) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, *p)
}
