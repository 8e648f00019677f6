package airquality

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// TrendWindow is the number of most recent smoothed points used for the fit
	TrendWindow = 60

	// MinTrendR2 is the fit quality below which a trend is reported as volatile
	MinTrendR2 = 0.20

	msPerMinute = 60000.0
)

// Fit is the result of a least-squares line through recent smoothed readings
type Fit struct {
	SlopePerMin float64
	Intercept   float64 // value at ts = 0 (epoch), in raw units
	R2          float64
}

// EstimateTrend regresses value against timestamp over the last TrendWindow
// points. Degenerate inputs (fewer than two points, identical timestamps, or a
// constant series) fall back to a zero slope and/or zero r².
func EstimateTrend(smoothed []PreparedPoint) Fit {
	if len(smoothed) > TrendWindow {
		smoothed = smoothed[len(smoothed)-TrendWindow:]
	}
	if len(smoothed) < 2 {
		return Fit{}
	}

	xs := make([]float64, len(smoothed))
	ys := make([]float64, len(smoothed))
	for i, p := range smoothed {
		xs[i] = p.TS
		ys[i] = p.Value
	}

	xMean := stat.Mean(xs, nil)
	yMean := stat.Mean(ys, nil)

	var sxx, ssTot float64
	for i := range xs {
		dx := xs[i] - xMean
		dy := ys[i] - yMean
		sxx += dx * dx
		ssTot += dy * dy
	}

	var slope, intercept float64
	if sxx == 0 {
		intercept = yMean
	} else {
		intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	}

	var r2 float64
	if ssTot != 0 {
		r2 = stat.RSquared(xs, ys, nil, intercept, slope)
	}
	// Rounding on near-degenerate inputs can push r² slightly outside [0,1]
	r2 = clamp(r2, 0, 1)
	if math.IsNaN(r2) {
		r2 = 0
	}

	return Fit{
		SlopePerMin: slope * msPerMinute,
		Intercept:   intercept,
		R2:          r2,
	}
}

// ClassifyTrend labels a fit. A poor fit is volatile no matter how steep it is.
func ClassifyTrend(fit Fit, threshold float64) Trend {
	switch {
	case fit.R2 < MinTrendR2:
		return TrendVolatile
	case fit.SlopePerMin > threshold:
		return TrendRising
	case fit.SlopePerMin < -threshold:
		return TrendFalling
	default:
		return TrendStable
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
