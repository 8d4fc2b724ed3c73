// Package trend turns raw prices into movement shapes that compare across
// assets and periods with different volatility.
package trend

import (
	"math"
	"sort"

	"PatternSentinel/internal/model"
)

const (
	// MinNormalizationFactor keeps near-flat periods from amplifying noise.
	MinNormalizationFactor = 0.005
	// ClampLimit bounds single outlier moves such as gaps.
	ClampLimit = 2.0
	// SidewaysBand is the percent move at or below which a step counts as sideways.
	SidewaysBand = 0.1
)

// Stats summarizes a price window. All changes are in percent.
type Stats struct {
	TotalChange   float64 `json:"totalChange"`
	Volatility    float64 `json:"volatility"`
	UpMoves       int     `json:"upMoves"`
	DownMoves     int     `json:"downMoves"`
	SidewaysMoves int     `json:"sidewaysMoves"`
	TotalMoves    int     `json:"totalMoves"`
	AvgChange     float64 `json:"avgChange"`
}

// fractionalChanges returns (p[i]-p[i-1])/p[i-1]. A zero previous price yields 0.
func fractionalChanges(prices model.Series) []float64 {
	changes := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 {
			continue
		}
		changes[i-1] = (prices[i] - prev) / prev
	}
	return changes
}

// NormalizationFactor returns the nearest-rank 95th percentile of the absolute
// changes, floored at MinNormalizationFactor.
func NormalizationFactor(changes []float64) float64 {
	if len(changes) == 0 {
		return MinNormalizationFactor
	}
	abs := make([]float64, len(changes))
	for i, c := range changes {
		abs[i] = math.Abs(c)
	}
	sort.Float64s(abs)
	idx := int(math.Floor(float64(len(abs)) * 0.95))
	if idx >= len(abs) {
		idx = len(abs) - 1
	}
	return math.Max(abs[idx], MinNormalizationFactor)
}

// ExtractPattern converts N prices into N-1 adaptively normalized step
// changes clamped to [-2, 2]. Fewer than two prices yield nil.
func ExtractPattern(prices model.Series) model.Series {
	if len(prices) < 2 {
		return nil
	}
	changes := fractionalChanges(prices)
	factor := NormalizationFactor(changes)

	pattern := make(model.Series, len(changes))
	for i, c := range changes {
		pattern[i] = math.Max(-ClampLimit, math.Min(ClampLimit, c/factor))
	}
	return pattern
}

// ComputeStats returns movement statistics for the window, or the zero
// value when fewer than two prices are given.
func ComputeStats(prices model.Series) Stats {
	if len(prices) < 2 {
		return Stats{}
	}
	var s Stats
	var sum, sqSum float64
	for _, c := range fractionalChanges(prices) {
		pct := c * 100
		sum += pct
		sqSum += pct * pct
		switch {
		case pct > SidewaysBand:
			s.UpMoves++
		case pct < -SidewaysBand:
			s.DownMoves++
		default:
			s.SidewaysMoves++
		}
	}
	s.TotalMoves = len(prices) - 1
	s.AvgChange = sum / float64(s.TotalMoves)
	s.Volatility = math.Sqrt(sqSum / float64(s.TotalMoves))
	if first := prices[0]; first != 0 {
		s.TotalChange = (prices[len(prices)-1] - first) / first * 100
	}
	return s
}
