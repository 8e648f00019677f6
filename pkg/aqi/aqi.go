// Package aqi provides piecewise-linear health curves and functions for
// calculating Air Quality Index values from particulate matter concentrations
// according to EPA standards
package aqi

import "math"

// Breakpoint anchors a curve: at Value the curve yields Score
type Breakpoint struct {
	Value float64
	Score float64
}

// Curve is a piecewise-linear function defined by breakpoints sorted by Value.
// Below the first breakpoint and above the last one the curve is flat.
type Curve []Breakpoint

// At evaluates the curve at v
func (c Curve) At(v float64) float64 {
	if len(c) == 0 {
		return 0
	}
	if v <= c[0].Value {
		return c[0].Score
	}
	last := c[len(c)-1]
	if v >= last.Value {
		return last.Score
	}

	for i := 1; i < len(c); i++ {
		lo, hi := c[i-1], c[i]
		if v > hi.Value {
			continue
		}
		if hi.Value == lo.Value {
			return hi.Score
		}
		// I = (I_high - I_low) / (C_high - C_low) * (C - C_low) + I_low
		return (hi.Score-lo.Score)/(hi.Value-lo.Value)*(v-lo.Value) + lo.Score
	}
	return last.Score
}

// epaBand is one row of an EPA breakpoint table
type epaBand struct {
	cLow, cHigh float64
	iLow, iHigh float64
}

// EPA breakpoints for PM2.5 (24-hour average, μg/m³)
var pm25Bands = []epaBand{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
	{250.5, 350.4, 301, 400},
	{350.5, 500.4, 401, 500},
}

// EPA breakpoints for PM10 (24-hour average, μg/m³)
var pm10Bands = []epaBand{
	{0, 54, 0, 50},
	{55, 154, 51, 100},
	{155, 254, 101, 150},
	{255, 354, 151, 200},
	{355, 424, 201, 300},
	{425, 504, 301, 400},
	{505, 604, 401, 500},
}

func calculate(c float64, bands []epaBand) int32 {
	if c < 0 || math.IsNaN(c) {
		return 0
	}
	for _, b := range bands {
		if c <= b.cHigh {
			// Concentrations in the gap between two bands belong to the upper one
			if c < b.cLow {
				c = b.cLow
			}
			aqi := ((b.iHigh-b.iLow)/(b.cHigh-b.cLow))*(c-b.cLow) + b.iLow
			return int32(math.Round(aqi))
		}
	}
	// Beyond the last band, AQI is 500+
	return 500
}

// CalculatePM25 calculates the Air Quality Index from PM2.5 concentration (μg/m³)
// Based on EPA AQI calculation formula for 24-hour PM2.5 averages
func CalculatePM25(pm25 float64) int32 {
	return calculate(pm25, pm25Bands)
}

// CalculatePM10 calculates the Air Quality Index from PM10 concentration (μg/m³)
// Based on EPA AQI calculation formula for 24-hour PM10 averages
func CalculatePM10(pm10 float64) int32 {
	return calculate(pm10, pm10Bands)
}

// GetCategory returns the AQI category name for a given AQI value
func GetCategory(aqi int32) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// GetCategoryColor returns the standard color code for an AQI value
func GetCategoryColor(aqi int32) string {
	switch {
	case aqi <= 50:
		return "#00e400" // Green
	case aqi <= 100:
		return "#ffff00" // Yellow
	case aqi <= 150:
		return "#ff7e00" // Orange
	case aqi <= 200:
		return "#ff0000" // Red
	case aqi <= 300:
		return "#99004c" // Purple
	default:
		return "#7e0023" // Maroon
	}
}
