package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeverageLens/internal/model"
)

func f(v float64) *float64 { return &v }

func reportFixture() *model.Result {
	d0 := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	return &model.Result{
		Request:     model.DefaultRequest(model.VariantFull, d0),
		SymbolA:     "0050.TW",
		SymbolB:     "00631L.TW",
		From:        d0,
		To:          d0.AddDate(0, 0, 1),
		TradingDays: 2,
		Dates:       []time.Time{d0, d0.AddDate(0, 0, 1)},
		A:           []float64{150, 151},
		B:           []float64{200, 204},
		SMAA:        []float64{149, 150},
		SMAB:        []float64{205, 206},
		Quadrants:   &model.QuadrantStats{Days: 2, BBelowAAbove: 2, BBelowAPct: 100},
		Crossing: &model.CrossingReport{
			Up:   model.LeadLag{Direction: model.Upward, Matched: 4, ALeads: 3, Simultaneous: 1, ALeadsPct: f(75), BLeadsPct: f(0), SimultaneousPct: f(25)},
			Down: model.LeadLag{Direction: model.Downward},
		},
		Returns: &model.ReturnsReport{
			CumulativeA: f(0.67),
			CumulativeB: f(2),
			Correlation: f(0.987),
			Beta:        f(1.98),
			BestLag:     &model.LagCorrelation{Lag: 0, Samples: 1, Correlation: f(0.987)},
		},
		Drawdown: &model.DrawdownReport{
			ThresholdPct: 3,
			MaxA:         &model.Drawdown{Pct: -12.5},
			MaxB:         &model.Drawdown{Pct: -24.1},
		},
		Notices: []string{"no down crossings matched within 5 days"},
	}
}

func TestFormatReport(t *testing.T) {
	msg := FormatReport(reportFixture())

	assert.Contains(t, msg, "<b>LeverageLens</b>")
	assert.Contains(t, msg, "0050.TW: 151.00 (200SMA 150.00, above)")
	assert.Contains(t, msg, "00631L.TW: 204.00 (200SMA 206.00, below)")
	assert.Contains(t, msg, "00631L.TW below, 0050.TW above: 100.0% (2)")
	assert.Contains(t, msg, "matched 4: 0050.TW leads 75.0%, 00631L.TW leads 0.0%, together 25.0%")
	assert.Contains(t, msg, "no matched events")
	assert.Contains(t, msg, "correlation 0.987, beta 1.98")
	assert.Contains(t, msg, "max drawdown: 0050.TW -12.5%, 00631L.TW -24.1%")
	assert.Contains(t, msg, "⚠️ no down crossings matched within 5 days")
}

func TestFormatReport_EscapesHTML(t *testing.T) {
	res := reportFixture()
	res.Notices = []string{"a < b & c"}
	assert.Contains(t, FormatReport(res), "a &lt; b &amp; c")
	assert.Contains(t, FormatPlain(res), "a < b & c")
}

func TestFormatPlain_OmitsDisabledSections(t *testing.T) {
	res := reportFixture()
	res.Quadrants, res.Crossing, res.Returns, res.Drawdown, res.SMAA, res.SMAB = nil, nil, nil, nil, nil, nil
	msg := FormatPlain(res)

	assert.NotContains(t, msg, "<b>")
	assert.NotContains(t, msg, "Quadrants")
	assert.NotContains(t, msg, "SMA crossings")
	assert.Contains(t, msg, "0050.TW: 151.00\n")
}

func TestFormatHelp(t *testing.T) {
	help := FormatHelp()
	assert.Contains(t, help, "/report")
	assert.Contains(t, help, "drawdown")
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "❌ daily report: boom &lt;x&gt;", FormatError("daily report", errors.New("boom <x>")))
}

type fakeBot struct {
	mu       sync.Mutex
	sent     []map[string]string
	failures int
	updates  []telegramUpdate
	polled   int
	onSend   func()
}

func (b *fakeBot) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		if b.failures > 0 {
			b.failures--
			b.mu.Unlock()
			http.Error(w, `{"ok":false}`, http.StatusTooManyRequests)
			return
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		b.sent = append(b.sent, payload)
		cb := b.onSend
		b.mu.Unlock()
		fmt.Fprint(w, `{"ok":true}`)
		if cb != nil {
			cb()
		}
	})
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.polled++
		updates := b.updates
		b.updates = nil
		b.mu.Unlock()
		if len(updates) == 0 {
			<-r.Context().Done()
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": updates})
	})
	return mux
}

func newTestNotifier(t *testing.T, bot *fakeBot) *TelegramNotifier {
	srv := httptest.NewServer(bot.handler())
	t.Cleanup(srv.Close)
	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	return tn
}

func TestSend(t *testing.T) {
	bot := &fakeBot{}
	tn := newTestNotifier(t, bot)

	require.NoError(t, tn.Send(context.Background(), "<b>hi</b>"))
	require.Len(t, bot.sent, 1)
	assert.Equal(t, "42", bot.sent[0]["chat_id"])
	assert.Equal(t, "HTML", bot.sent[0]["parse_mode"])
	assert.Equal(t, "<b>hi</b>", bot.sent[0]["text"])
}

func TestSendWithRetry(t *testing.T) {
	bot := &fakeBot{failures: 1}
	tn := newTestNotifier(t, bot)

	require.NoError(t, tn.SendWithRetry(context.Background(), "hello", 2))
	assert.Len(t, bot.sent, 1)
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	bot := &fakeBot{failures: 5}
	tn := newTestNotifier(t, bot)

	err := tn.SendWithRetry(context.Background(), "hello", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestStartPolling_RepliesToCommands(t *testing.T) {
	bot := &fakeBot{}
	update := telegramUpdate{UpdateID: 7}
	update.Message = &struct {
		Text string `json:"text"`
	}{Text: " /help "}
	bot.updates = []telegramUpdate{update}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	bot.onSend = cancel
	tn := newTestNotifier(t, bot)

	var got []string
	tn.StartPolling(ctx, func(_ context.Context, cmd string) string {
		got = append(got, cmd)
		return "reply to " + cmd
	})

	assert.Equal(t, []string{"/help"}, got)
	bot.mu.Lock()
	defer bot.mu.Unlock()
	require.Len(t, bot.sent, 1)
	assert.True(t, strings.HasPrefix(bot.sent[0]["text"], "reply to /help"))
	assert.GreaterOrEqual(t, bot.polled, 1)
}
