package calculator

import (
	"math"

	"PatternSentinel/internal/model"
)

// Pearson computes the product-moment correlation of two equal-length series.
// It returns 0 for empty or mismatched input and when either series is constant.
func Pearson(x, y model.Series) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	fn := float64(n)
	numerator := fn*sumXY - sumX*sumY
	denominator := math.Sqrt((fn*sumX2 - sumX*sumX) * (fn*sumY2 - sumY*sumY))
	if denominator == 0 || math.IsNaN(denominator) {
		return 0
	}
	return clampUnit(numerator / denominator)
}

// Cosine computes the cosine of the angle between two equal-length vectors.
// It returns 0 for empty or mismatched input and for zero-magnitude vectors.
func Cosine(x, y model.Series) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}
	var dot, magX, magY float64
	for i := 0; i < n; i++ {
		dot += x[i] * y[i]
		magX += x[i] * x[i]
		magY += y[i] * y[i]
	}
	denominator := math.Sqrt(magX) * math.Sqrt(magY)
	if denominator == 0 {
		return 0
	}
	return clampUnit(dot / denominator)
}

// ShapeSimilarity is 1 minus the mean absolute point distance, floored at 0.
// Both inputs are expected to be range-normalized already.
func ShapeSimilarity(a, b model.Series) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	total := 0.0
	for i := range a {
		total += math.Abs(a[i] - b[i])
	}
	return math.Max(0, 1-total/float64(len(a)))
}

// TrendDirections converts a series into per-step directions: 1 up, -1 down, 0 flat.
func TrendDirections(series model.Series) []int {
	if len(series) < 2 {
		return nil
	}
	dirs := make([]int, len(series)-1)
	for i := 1; i < len(series); i++ {
		switch {
		case series[i] > series[i-1]:
			dirs[i-1] = 1
		case series[i] < series[i-1]:
			dirs[i-1] = -1
		}
	}
	return dirs
}

// TrendSimilarity returns the fraction of steps where both series move the same way.
// Inputs shorter than 3 points or of different length score 0.
func TrendSimilarity(a, b model.Series) float64 {
	if len(a) < 3 || len(b) < 3 || len(a) != len(b) {
		return 0
	}
	da, db := TrendDirections(a), TrendDirections(b)
	matches := 0
	for i := range da {
		if da[i] == db[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(da))
}

// clampUnit trims floating point overshoot just outside [-1,1].
func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
