package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"PatternSentinel/internal/cache"
	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/collector"
	"PatternSentinel/internal/model"
)

// KlinesResult holds the most recent closes of a symbol.
type KlinesResult struct {
	Symbol      string         `json:"symbol"`
	Interval    model.Interval `json:"interval"`
	Limit       int            `json:"limit"`
	ClosePrices model.Series   `json:"closePrices"`
}

// Klines returns up to limit recent closes. A limit outside 1..1000 uses 500.
func (s *Service) Klines(ctx context.Context, symbol string, interval model.Interval, limit int) (KlinesResult, error) {
	if err := validInterval(interval); err != nil {
		return KlinesResult{}, err
	}
	limit = orDefault(limit, 1, 1000, 500)

	key := cache.Key("klines", symbol, interval.String(), strconv.Itoa(limit))
	return cached(s, key, cache.TTLForInterval(interval), func() (KlinesResult, error) {
		bars, err := s.recentBars(ctx, symbol, interval, limit)
		if err != nil {
			return KlinesResult{}, err
		}
		return KlinesResult{Symbol: symbol, Interval: interval, Limit: limit, ClosePrices: model.Closes(bars)}, nil
	})
}

// recentBars fetches the last n bars ending now with a single provider call.
func (s *Service) recentBars(ctx context.Context, symbol string, interval model.Interval, n int) ([]model.OHLCV, error) {
	end := s.now()
	start := end.Add(-time.Duration(n-1) * interval.Duration())
	bars, err := s.retriever.Fetch(ctx, model.ChunkRequest{Symbol: symbol, Interval: interval, Start: start, End: end, Limit: n})
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", symbol, interval, err)
	}
	return bars, nil
}

// Historical retrieves the configured lookback of closes in provider-sized chunks.
func (s *Service) Historical(ctx context.Context, symbol string, interval model.Interval) (model.RetrievalResult, error) {
	if err := validInterval(interval); err != nil {
		return model.RetrievalResult{}, err
	}
	key := cache.Key("historical", symbol, interval.String())
	return cached(s, key, cache.TTLForInterval(interval), func() (model.RetrievalResult, error) {
		return s.retrieve(ctx, symbol, interval, s.lookback)
	})
}

func (s *Service) retrieve(ctx context.Context, symbol string, interval model.Interval, span time.Duration) (model.RetrievalResult, error) {
	end := s.now()
	res, err := s.retriever.Retrieve(ctx, collector.RetrievalRequest{
		Symbol:   symbol,
		Interval: interval,
		Start:    end.Add(-span),
		End:      end,
	})
	if err != nil {
		return model.RetrievalResult{}, fmt.Errorf("retrieve %s %s: %w", symbol, interval, err)
	}
	return res, nil
}

// Snapshot summarizes the last hours of trading.
type Snapshot struct {
	Symbol        string         `json:"symbol"`
	Interval      model.Interval `json:"interval"`
	Hours         int            `json:"hours"`
	DataPoints    int            `json:"dataPoints"`
	CurrentPrice  float64        `json:"currentPrice"`
	Change        float64        `json:"change"`
	ChangePercent float64        `json:"changePercent"`
	High          float64        `json:"high"`
	Low           float64        `json:"low"`
	Volume        float64        `json:"volume"`
	RSI           float64        `json:"rsi"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       time.Time      `json:"endTime"`
	Bars          []model.OHLCV  `json:"chartData"`
}

// Snapshot returns a live chart summary. Hours outside 1..168 use 24.
func (s *Service) Snapshot(ctx context.Context, symbol string, interval model.Interval, hours int) (Snapshot, error) {
	if err := validInterval(interval); err != nil {
		return Snapshot{}, err
	}
	hours = orDefault(hours, 1, 168, 24)

	key := cache.Key("live-chart", symbol, interval.String(), strconv.Itoa(hours))
	return cached(s, key, cache.LiveTTL, func() (Snapshot, error) {
		end := s.now()
		start := end.Add(-time.Duration(hours) * time.Hour)
		bars, err := s.retriever.Fetch(ctx, model.ChunkRequest{Symbol: symbol, Interval: interval, Start: start, End: end})
		if err != nil {
			return Snapshot{}, fmt.Errorf("fetch %s %s: %w", symbol, interval, err)
		}
		if len(bars) == 0 {
			return Snapshot{}, fmt.Errorf("%w: no bars for %s in the last %dh", ErrInsufficientData, symbol, hours)
		}
		return summarize(symbol, interval, hours, start, end, bars), nil
	})
}

func summarize(symbol string, interval model.Interval, hours int, start, end time.Time, bars []model.OHLCV) Snapshot {
	closes := model.Closes(bars)
	snap := Snapshot{
		Symbol:       symbol,
		Interval:     interval,
		Hours:        hours,
		DataPoints:   len(bars),
		CurrentPrice: closes[len(closes)-1],
		StartTime:    start,
		EndTime:      end,
		Bars:         bars,
		High:         bars[0].High,
		Low:          bars[0].Low,
	}
	snap.Change = snap.CurrentPrice - closes[0]
	if closes[0] != 0 {
		snap.ChangePercent = snap.Change / closes[0] * 100
	}
	for _, b := range bars {
		if b.High > snap.High {
			snap.High = b.High
		}
		if b.Low < snap.Low {
			snap.Low = b.Low
		}
		snap.Volume += b.Volume
	}
	if rsi, err := calculator.RSI(closes, 14); err == nil {
		snap.RSI = rsi
	}
	return snap
}
