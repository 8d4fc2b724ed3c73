package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/matcher"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/trend"
)

// MinHistoricalPoints is the smallest haystack worth searching.
const MinHistoricalPoints = 100

// MinPatternLen is the shortest pattern that has a shape to compare.
const MinPatternLen = 2

// PatternRequest searches the historical series for a caller-supplied shape.
// Zero or out-of-range tuning fields fall back to their defaults.
type PatternRequest struct {
	Symbol             string
	Interval           model.Interval
	Pattern            model.Series
	Threshold          float64 // 0..1, default 0.75
	MaxMatches         int     // 1..20, default 10
	ContinuationLength int     // 10..100, default 30
}

// TimedMatch is a match with its indices mapped to wall-clock time.
type TimedMatch struct {
	model.Match
	StartTime             time.Time `json:"startTime"`
	EndTime               time.Time `json:"endTime"`
	ContinuationStartTime time.Time `json:"continuationStartTime"`
	ContinuationEndTime   time.Time `json:"continuationEndTime"`
}

// PatternResult lists the best matching historical windows.
type PatternResult struct {
	Symbol        string         `json:"symbol"`
	Interval      model.Interval `json:"interval"`
	PatternLength int            `json:"patternLength"`
	WindowSize    int            `json:"windowSize"`
	Threshold     float64        `json:"threshold"`
	TotalPoints   int            `json:"totalDataPoints"`
	Coverage      model.Coverage `json:"coverage"`
	Matches       []TimedMatch   `json:"matches"`
}

func validPattern(pattern model.Series, min int) error {
	if len(pattern) < min {
		return fmt.Errorf("%w: pattern needs at least %d points, got %d", ErrInvalidInput, min, len(pattern))
	}
	for i, v := range pattern {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: pattern value %d is not finite", ErrInvalidInput, i)
		}
	}
	return nil
}

// history loads the lookback series and checks it is long enough to search.
func (s *Service) history(ctx context.Context, symbol string, interval model.Interval) (model.RetrievalResult, error) {
	hist, err := s.Historical(ctx, symbol, interval)
	if err != nil {
		return hist, err
	}
	if len(hist.Series) < MinHistoricalPoints {
		return hist, fmt.Errorf("%w: %d historical points, need %d", ErrInsufficientData, len(hist.Series), MinHistoricalPoints)
	}
	return hist, nil
}

func timed(m model.Match, cov model.Coverage, interval model.Interval) TimedMatch {
	return TimedMatch{
		Match:                 m,
		StartTime:             indexTime(cov, interval, m.StartIndex),
		EndTime:               indexTime(cov, interval, m.EndIndex),
		ContinuationStartTime: indexTime(cov, interval, m.ContinuationStartIndex),
		ContinuationEndTime:   indexTime(cov, interval, m.ContinuationEndIndex),
	}
}

// PatternSearch scans the historical series for windows shaped like req.Pattern.
// The window is at least 20 bars even for shorter patterns.
func (s *Service) PatternSearch(ctx context.Context, req PatternRequest) (PatternResult, error) {
	if err := validInterval(req.Interval); err != nil {
		return PatternResult{}, err
	}
	if err := validPattern(req.Pattern, MinPatternLen); err != nil {
		return PatternResult{}, err
	}
	opts := matcher.Options{
		WindowSize:         max(len(req.Pattern), 20),
		Threshold:          orDefault(req.Threshold, 0, 1, 0.75),
		MaxMatches:         orDefault(req.MaxMatches, 1, 20, 10),
		ContinuationLength: orDefault(req.ContinuationLength, 10, 100, 30),
	}
	if req.Threshold == 0 {
		opts.Threshold = 0.75
	}

	hist, err := s.history(ctx, req.Symbol, req.Interval)
	if err != nil {
		return PatternResult{}, err
	}

	found := matcher.FindMatches(req.Pattern, hist.Series, opts)
	matches := make([]TimedMatch, len(found))
	for i, m := range found {
		matches[i] = timed(m, hist.Coverage, req.Interval)
	}

	return PatternResult{
		Symbol:        req.Symbol,
		Interval:      req.Interval,
		PatternLength: len(req.Pattern),
		WindowSize:    opts.WindowSize,
		Threshold:     opts.Threshold,
		TotalPoints:   len(hist.Series),
		Coverage:      hist.Coverage,
		Matches:       matches,
	}, nil
}

// TrendRequest compares the movement of the last Hours (1..24, default 6)
// with the historical series.
type TrendRequest struct {
	Symbol   string
	Interval model.Interval
	Hours    int
}

// TrendMatch is a historical period that moved like the recent one.
// The embedded Match holds trend pattern values; Prices and
// ContinuationPrices hold the closes behind them.
type TrendMatch struct {
	TimedMatch
	Prices             model.Series `json:"prices"`
	ContinuationPrices model.Series `json:"continuationPrices"`
	Stats              trend.Stats  `json:"stats"`
}

// TrendResult lists historical periods that moved like the recent hours.
type TrendResult struct {
	Symbol        string         `json:"symbol"`
	Interval      model.Interval `json:"interval"`
	Hours         int            `json:"hours"`
	Recent        model.Series   `json:"recentData"`
	RecentPattern model.Series   `json:"recentTrendPattern"`
	RecentStats   trend.Stats    `json:"recentStats"`
	YearlyPoints  int            `json:"yearlyDataPoints"`
	Coverage      model.Coverage `json:"coverage"`
	Matches       []TrendMatch   `json:"matches"`
}

// Trend search tuning.
const (
	TrendThreshold  = 0.65
	TrendMaxMatches = 8
	MinRecentPoints = 10
)

// TrendAnalysis converts both the recent and the historical closes into trend
// patterns and searches one with the other.
func (s *Service) TrendAnalysis(ctx context.Context, req TrendRequest) (TrendResult, error) {
	if err := validInterval(req.Interval); err != nil {
		return TrendResult{}, err
	}
	hours := orDefault(req.Hours, 1, 24, 6)

	end := s.now()
	bars, err := s.retriever.Fetch(ctx, model.ChunkRequest{
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Start:    end.Add(-time.Duration(hours) * time.Hour),
		End:      end,
	})
	if err != nil {
		return TrendResult{}, fmt.Errorf("fetch recent %s %s: %w", req.Symbol, req.Interval, err)
	}
	recent := model.Closes(bars)
	if len(recent) < MinRecentPoints {
		return TrendResult{}, fmt.Errorf("%w: %d recent points, need %d", ErrInsufficientData, len(recent), MinRecentPoints)
	}

	hist, err := s.history(ctx, req.Symbol, req.Interval)
	if err != nil {
		return TrendResult{}, err
	}

	recentPattern := trend.ExtractPattern(recent)
	yearlyPattern := trend.ExtractPattern(hist.Series)
	found := matcher.FindMatches(recentPattern, yearlyPattern, matcher.Options{
		WindowSize:         len(recentPattern),
		Threshold:          TrendThreshold,
		MaxMatches:         TrendMaxMatches,
		ContinuationLength: min(30, len(recentPattern)/2),
	})

	matches := make([]TrendMatch, len(found))
	for i, m := range found {
		prices := priceSpan(hist.Series, m.StartIndex, m.EndIndex)
		matches[i] = TrendMatch{
			TimedMatch:         timed(m, hist.Coverage, req.Interval),
			Prices:             prices,
			ContinuationPrices: priceSpan(hist.Series, m.ContinuationStartIndex+1, m.ContinuationEndIndex),
			Stats:              trend.ComputeStats(prices),
		}
	}

	return TrendResult{
		Symbol:        req.Symbol,
		Interval:      req.Interval,
		Hours:         hours,
		Recent:        recent,
		RecentPattern: recentPattern,
		RecentStats:   trend.ComputeStats(recent),
		YearlyPoints:  len(hist.Series),
		Coverage:      hist.Coverage,
		Matches:       matches,
	}, nil
}

// priceSpan returns the closes behind trend pattern steps from..to. Step k is
// the move from close k to close k+1, so the span ends at close to+1.
// Indices are clipped to the series.
func priceSpan(closes model.Series, from, to int) model.Series {
	start := max(from, 0)
	end := min(to+2, len(closes))
	if start >= end {
		return model.Series{}
	}
	return closes[start:end].Clone()
}

// ImagePatternRequest searches for a shape extracted from a chart image.
type ImagePatternRequest struct {
	Symbol   string
	Interval model.Interval
	Pattern  model.Series
}

// ImageMatch is a historical window resembling the image pattern.
type ImageMatch struct {
	TimedMatch
	StartPrice  float64 `json:"startPrice"`
	EndPrice    float64 `json:"endPrice"`
	PriceChange float64 `json:"priceChange"`
}

// ImageSummary aggregates an image search.
type ImageSummary struct {
	TotalMatches  int     `json:"totalMatches"`
	AvgSimilarity float64 `json:"avgSimilarity"`
	BestMatch     float64 `json:"bestMatch"`
}

// ImageResult lists windows that resemble an image-derived pattern.
type ImageResult struct {
	Symbol        string         `json:"symbol"`
	Interval      model.Interval `json:"interval"`
	PatternLength int            `json:"patternLength"`
	WindowSize    int            `json:"windowSize"`
	TotalPoints   int            `json:"historicalDataPoints"`
	Matches       []ImageMatch   `json:"matches"`
	Summary       ImageSummary   `json:"summary"`
}

// Image search tuning.
const (
	ImageThreshold     = 0.9
	ImageMaxMatches    = 10
	MinImagePatternLen = 5
)

// ImageWindowSize returns the historical window compared with an image
// pattern: roughly half a day on 15m bars, a day on 1h and three days on 4h.
func ImageWindowSize(interval model.Interval) int {
	switch interval {
	case model.Interval15m:
		return 48
	case model.Interval1h:
		return 24
	case model.Interval4h:
		return 18
	default:
		return 24
	}
}

// SearchImagePattern range-normalizes an image-derived pattern and searches
// the historical series with a fixed window per interval.
func (s *Service) SearchImagePattern(ctx context.Context, req ImagePatternRequest) (ImageResult, error) {
	if err := validInterval(req.Interval); err != nil {
		return ImageResult{}, err
	}
	if err := validPattern(req.Pattern, MinImagePatternLen); err != nil {
		return ImageResult{}, err
	}

	hist, err := s.history(ctx, req.Symbol, req.Interval)
	if err != nil {
		return ImageResult{}, err
	}

	window := ImageWindowSize(req.Interval)
	found := matcher.FindMatches(calculator.NormalizeToRange(req.Pattern), hist.Series, matcher.Options{
		WindowSize: window,
		Threshold:  ImageThreshold,
		MaxMatches: ImageMaxMatches,
	})

	res := ImageResult{
		Symbol:        req.Symbol,
		Interval:      req.Interval,
		PatternLength: len(req.Pattern),
		WindowSize:    window,
		TotalPoints:   len(hist.Series),
		Matches:       make([]ImageMatch, len(found)),
	}
	var total float64
	for i, m := range found {
		first, last := m.Data[0], m.Data[len(m.Data)-1]
		im := ImageMatch{TimedMatch: timed(m, hist.Coverage, req.Interval), StartPrice: first, EndPrice: last}
		if first != 0 {
			im.PriceChange = (last - first) / first * 100
		}
		res.Matches[i] = im
		total += m.Similarity
	}
	if len(found) > 0 {
		res.Summary = ImageSummary{
			TotalMatches:  len(found),
			AvgSimilarity: total / float64(len(found)),
			BestMatch:     found[0].Similarity,
		}
	}
	return res, nil
}

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParsePatternText reads a numeric pattern out of free-form model output:
// a JSON array, optionally wrapped in a code fence, or failing that every
// number in the text.
func ParsePatternText(text string) (model.Series, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var values []float64
	if err := json.Unmarshal([]byte(cleaned), &values); err == nil && len(values) > 0 {
		return values, nil
	}

	var out model.Series
	for _, tok := range numberRe.FindAllString(text, -1) {
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no numbers in pattern text", ErrInvalidInput)
	}
	return out, nil
}
