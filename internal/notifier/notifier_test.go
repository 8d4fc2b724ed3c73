package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternSentinel/internal/analyzer"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/retry"
	"PatternSentinel/internal/similarity"
	"PatternSentinel/internal/trend"
)

var fastPolicy = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: time.Millisecond}

func TestTelegramSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIURL = srv.URL

	require.NoError(t, n.Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestTelegramSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIURL = srv.URL

	require.NoError(t, n.SendWithRetry(context.Background(), "hello", fastPolicy))
	assert.Equal(t, int32(3), calls.Load())
}

func TestTelegramSendWithRetry_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIURL = srv.URL

	err := n.SendWithRetry(context.Background(), "hello", fastPolicy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(3), calls.Load())
}

func TestNoopNotifier(t *testing.T) {
	var n Notifier = NoopNotifier{}
	assert.NoError(t, n.Send(context.Background(), "first\nsecond"))
	assert.NoError(t, n.SendWithRetry(context.Background(), "x", fastPolicy))
}

func TestFormatAnalyze(t *testing.T) {
	res := analyzer.AnalyzeResult{
		Symbol:     "BTCUSDT",
		Interval:   model.Interval15m,
		Window:     60,
		Offset:     480,
		Similarity: similarity.Result{Correlation: 0.9512, Cosine: 0.9377, IsSimilar: true},
		Current:    model.Series{1, 2, 64123.456},
	}
	out := FormatAnalyze(res)
	assert.Contains(t, out, "🟢 <b>BTCUSDT 15m</b>")
	assert.Contains(t, out, "SIMILAR")
	assert.Contains(t, out, "Correlation: 0.9512")
	assert.Contains(t, out, "Cosine: 0.9377")
	assert.Contains(t, out, "480 bars back")
	assert.Contains(t, out, "Last close: 64123.46")

	res.Similarity.IsSimilar = false
	assert.Contains(t, FormatAnalyze(res), "not similar")
}

func TestFormatTrend(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	res := analyzer.TrendResult{
		Symbol:      "ETHUSDT",
		Interval:    model.Interval1h,
		Hours:       6,
		RecentStats: trend.Stats{TotalChange: 1.5, TotalMoves: 6, UpMoves: 4, DownMoves: 1, SidewaysMoves: 1},
		Matches: []analyzer.TrendMatch{
			{TimedMatch: analyzer.TimedMatch{Match: model.Match{Similarity: 0.91}, StartTime: start}, ContinuationPrices: model.Series{100, 103}},
			{TimedMatch: analyzer.TimedMatch{Match: model.Match{Similarity: 0.85}, StartTime: start.Add(time.Hour)}},
		},
	}

	out := FormatTrend(res, 1)
	assert.Contains(t, out, "last 6h trend")
	assert.Contains(t, out, "+1.50% over 6 moves (↑4 ↓1 →1)")
	assert.Contains(t, out, "1. 2024-03-01 08:00  score 0.9100  then +3.00%")
	assert.NotContains(t, out, "2. ")

	full := FormatTrend(res, 0)
	assert.Contains(t, full, "2. 2024-03-01 09:00  score 0.8500  then n/a")

	res.Matches = nil
	assert.Contains(t, FormatTrend(res, 3), "No similar periods found.")
}

func TestFormatSnapshotAndStatus(t *testing.T) {
	snap := analyzer.Snapshot{
		Symbol: "BTCUSDT", Interval: model.Interval1h, Hours: 24,
		CurrentPrice: 101, Change: 1, ChangePercent: 1, High: 105, Low: 95, RSI: 55.44, DataPoints: 25,
		EndTime: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	out := FormatSnapshot(snap)
	assert.Contains(t, out, "Price: 101.00 (+1.00, +1.00%)")
	assert.Contains(t, out, "High: 105.00 | Low: 95.00")
	assert.Contains(t, out, "RSI(14): 55.4")
	assert.Contains(t, out, "Bars: 25, until 2024-01-02 00:00")

	assert.Contains(t, FormatCacheStatus("sqlite", 7), "Live entries: 7")
	assert.Contains(t, FormatError("trend", analyzer.ErrInsufficientData), "trend failed (client)")
	assert.Contains(t, FormatError("trend", errors.New("boom")), "(upstream)")
}

func TestStartPolling_RepliesToCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var polls atomic.Int32
	replies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if polls.Add(1) == 1 {
				assert.Equal(t, "0", r.URL.Query().Get("offset"))
				w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /cache "}},{"update_id":8}]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			cancel()
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/botTOKEN/sendMessage":
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			replies <- payload["text"]
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIURL = srv.URL

	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			return "got " + cmd
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "polling did not stop")
	}
	assert.Equal(t, "got /cache", <-replies)
}
