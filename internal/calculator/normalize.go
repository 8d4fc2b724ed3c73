package calculator

import (
	"math"

	"PatternSentinel/internal/model"
)

// Mean returns the arithmetic mean of the series, or 0 when it is empty.
func Mean(series model.Series) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// StdDev returns the population standard deviation (divisor N).
func StdDev(series model.Series) float64 {
	if len(series) == 0 {
		return 0
	}
	mean := Mean(series)
	var sqSum float64
	for _, v := range series {
		d := v - mean
		sqSum += d * d
	}
	return math.Sqrt(sqSum / float64(len(series)))
}

// ZScore subtracts the mean and divides by the population standard deviation.
// A constant series has no spread to scale by and maps to all zeros.
func ZScore(series model.Series) model.Series {
	if len(series) == 0 {
		return nil
	}
	out := make(model.Series, len(series))
	std := StdDev(series)
	if std == 0 {
		return out
	}
	mean := Mean(series)
	for i, v := range series {
		out[i] = (v - mean) / std
	}
	return out
}

// MinMax returns the lowest and highest value of a non-empty series.
func MinMax(series model.Series) (low, high float64) {
	low = math.Inf(1)
	high = math.Inf(-1)
	for _, v := range series {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	return low, high
}

// NormalizeToRange maps the series onto [0,1] using its own min and max.
// A flat series maps every point to 0.5 so it does not read as a trend.
func NormalizeToRange(series model.Series) model.Series {
	if len(series) == 0 {
		return nil
	}
	out := make(model.Series, len(series))
	low, high := MinMax(series)
	if high == low {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	span := high - low
	for i, v := range series {
		out[i] = (v - low) / span
	}
	return out
}

// Resample linearly interpolates the series to targetLength points.
// Equal lengths return an unchanged copy. targetLength == 1 returns the mean;
// targetLength < 1 or an empty series returns nil.
func Resample(series model.Series, targetLength int) model.Series {
	n := len(series)
	if n == 0 || targetLength < 1 {
		return nil
	}
	if targetLength == n {
		return series.Clone()
	}
	if targetLength == 1 {
		return model.Series{Mean(series)}
	}

	out := make(model.Series, targetLength)
	ratio := float64(n-1) / float64(targetLength-1)
	for i := 0; i < targetLength; i++ {
		pos := float64(i) * ratio
		lower := int(math.Floor(pos))
		if lower >= n-1 {
			out[i] = series[n-1]
			continue
		}
		weight := pos - float64(lower)
		out[i] = series[lower]*(1-weight) + series[lower+1]*weight
	}
	return out
}
