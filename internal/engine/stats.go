package engine

import "math"

// mean returns the arithmetic mean of values. Zero for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// popStdDev returns the population standard deviation of values.
func popStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// round2 rounds to two decimal places for report output.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
