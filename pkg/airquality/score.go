package airquality

import (
	"math"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/aqi"
)

// Health curves for sensors whose score falls as the reading rises
var (
	co2Curve = aqi.Curve{
		{Value: 600, Score: 100},
		{Value: 1000, Score: 50},
		{Value: 1400, Score: 10},
		{Value: 2000, Score: 0},
	}
	pm25Curve = aqi.Curve{
		{Value: 5, Score: 100},
		{Value: 12, Score: 85},
		{Value: 35, Score: 50},
		{Value: 55, Score: 20},
		{Value: 150, Score: 0},
	}
	tvocCurve = aqi.Curve{
		{Value: 150, Score: 100},
		{Value: 300, Score: 80},
		{Value: 600, Score: 50},
		{Value: 1000, Score: 20},
		{Value: 2000, Score: 0},
	}
)

const (
	idealTempC            = 22.0
	tempPenaltyPerDeg     = 12.0
	idealHumidityLow      = 40.0
	idealHumidityHigh     = 55.0
	humidityPenaltyPerPct = 5.0
)

// Score maps the latest reading of the canonical sensor key to 0-100 using the
// default catalog. Unknown keys score 0.
func Score(key string, value float64) float64 {
	s, ok := DefaultCatalog().Lookup(key)
	if !ok {
		return 0
	}
	return s.ScoreOf(value)
}

func curveScore(c aqi.Curve) func(float64) float64 {
	return func(v float64) float64 {
		return clamp(c.At(v), 0, 100)
	}
}

// temperatureScore drops 12 points per degree away from 22 °C
func temperatureScore(v float64) float64 {
	return clamp(100-tempPenaltyPerDeg*math.Abs(v-idealTempC), 0, 100)
}

// humidityScore is flat across the ideal band and drops 5 points per percent
// outside it
func humidityScore(v float64) float64 {
	var distance float64
	switch {
	case v < idealHumidityLow:
		distance = idealHumidityLow - v
	case v > idealHumidityHigh:
		distance = v - idealHumidityHigh
	}
	return clamp(100-humidityPenaltyPerPct*distance, 0, 100)
}
