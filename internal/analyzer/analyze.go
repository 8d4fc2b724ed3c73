package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"PatternSentinel/internal/cache"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/similarity"
)

// PriorDistance is how far back the comparison window sits.
const PriorDistance = 5 * 24 * time.Hour

// AnalyzeRequest compares the latest window with the one PriorDistance earlier.
type AnalyzeRequest struct {
	Symbol   string
	Interval model.Interval
	Window   int // 10..200, anything else uses 60
}

// AnalyzeResult is the similarity verdict between the two windows.
type AnalyzeResult struct {
	Symbol     string            `json:"symbol"`
	Interval   model.Interval    `json:"interval"`
	Window     int               `json:"window"`
	Offset     int               `json:"offset"`
	Similarity similarity.Result `json:"metrics"`
	Current    model.Series      `json:"current"`
	Prior      model.Series      `json:"prior"`
}

// PriorOffset converts PriorDistance into a number of bars of the interval.
func PriorOffset(interval model.Interval) int {
	step := interval.Duration()
	if step <= 0 {
		return 0
	}
	return int(PriorDistance / step)
}

// Analyze decides whether the latest window resembles the window five days earlier.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	if err := validInterval(req.Interval); err != nil {
		return AnalyzeResult{}, err
	}
	window := orDefault(req.Window, 10, 200, 60)
	offset := PriorOffset(req.Interval)

	key := cache.Key("analyze", req.Symbol, req.Interval.String(), strconv.Itoa(window))
	return cached(s, key, cache.AnalyzeTTL, func() (AnalyzeResult, error) {
		points := offset + window
		if points < 1000 {
			points = 1000
		}
		res, err := s.retrieve(ctx, req.Symbol, req.Interval, time.Duration(points)*req.Interval.Duration())
		if err != nil {
			return AnalyzeResult{}, err
		}
		closes := res.Series
		if len(closes) < 2*window {
			return AnalyzeResult{}, fmt.Errorf("%w: %d closes, need %d", ErrInsufficientData, len(closes), 2*window)
		}

		current := similarity.CurrentWindow(closes, window)
		prior := similarity.PriorWindow(closes, window, offset)
		if len(prior) < window {
			return AnalyzeResult{}, fmt.Errorf("%w: window %d bars back is not available", ErrInsufficientData, offset)
		}

		return AnalyzeResult{
			Symbol:     req.Symbol,
			Interval:   req.Interval,
			Window:     window,
			Offset:     offset,
			Similarity: similarity.Compare(current, prior),
			Current:    current,
			Prior:      prior,
		}, nil
	})
}
