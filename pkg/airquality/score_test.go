package airquality

import (
	"reflect"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		key      string
		value    float64
		expected float64
	}{
		{SensorCO2, 420, 100},
		{SensorCO2, 600, 100},
		{SensorCO2, 800, 75},
		{SensorCO2, 1000, 50},
		{SensorCO2, 1400, 10},
		{SensorCO2, 1700, 5},
		{SensorCO2, 2500, 0},
		{SensorPM25, 2, 100},
		{SensorPM25, 12, 85},
		{SensorPM25, 45, 35},
		{SensorPM25, 400, 0},
		{SensorTVOC, 100, 100},
		{SensorTVOC, 450, 65},
		{SensorTVOC, 3000, 0},
		{SensorTemperature, 22, 100},
		{SensorTemperature, 25, 64},
		{SensorTemperature, 19.5, 70},
		{SensorTemperature, 40, 0},
		{SensorHumidity, 40, 100},
		{SensorHumidity, 47, 100},
		{SensorHumidity, 55, 100},
		{SensorHumidity, 35, 75},
		{SensorHumidity, 60, 75},
		{SensorHumidity, 0, 0},
		{SensorHumidity, 100, 0},
		{"radon", 10, 0},
	}

	for _, tt := range tests {
		got := Score(tt.key, tt.value)
		if !approxEqual(got, tt.expected, 1e-9) {
			t.Errorf("Score(%s, %v) = %v, expected %v", tt.key, tt.value, got, tt.expected)
		}
	}
}

func TestCO2ScoreNeverIncreases(t *testing.T) {
	prev := Score(SensorCO2, 0)
	for v := 0.0; v <= 5000; v += 3.7 {
		got := Score(SensorCO2, v)
		if got > prev {
			t.Fatalf("score increased at %v ppm: %v > %v", v, got, prev)
		}
		prev = got
	}
}

func TestScoresStayInRange(t *testing.T) {
	for _, sensor := range DefaultCatalog() {
		for v := -1000.0; v <= 10000; v += 13.3 {
			got := sensor.ScoreOf(v)
			if got < 0 || got > 100 {
				t.Fatalf("%s score out of range at %v: %v", sensor.Key, v, got)
			}
		}
	}
}

func TestAdvise(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    float64
		trend    Trend
		expected []string
	}{
		{"co2 fine", SensorCO2, 600, TrendRising, []string{}},
		{"co2 elevated but stable", SensorCO2, 1200, TrendStable, []string{}},
		{"co2 elevated and rising", SensorCO2, 1200, TrendRising, []string{adviceCO2Rising}},
		{"co2 high", SensorCO2, 1500, TrendFalling, []string{adviceCO2High}},
		{"co2 critical", SensorCO2, 2000, TrendStable, []string{adviceCO2Critical, adviceCO2Break}},
		{"pm25 clean", SensorPM25, 12, TrendStable, []string{}},
		{"pm25 moderate", SensorPM25, 20, TrendStable, []string{advicePM25Purify}},
		{"pm25 bad", SensorPM25, 35.1, TrendStable, []string{advicePM25PurifyMax, advicePM25Windows}},
		{"tvoc rising", SensorTVOC, 350, TrendRising, []string{adviceTVOCElevated}},
		{"tvoc moderate stable", SensorTVOC, 350, TrendStable, []string{}},
		{"tvoc elevated", SensorTVOC, 700, TrendFalling, []string{adviceTVOCElevated}},
		{"tvoc high", SensorTVOC, 1500, TrendFalling, []string{adviceTVOCHigh, adviceTVOCSources}},
		{"too warm", SensorTemperature, 27, TrendStable, []string{adviceTempHot}},
		{"too cold", SensorTemperature, 16, TrendStable, []string{adviceTempCold}},
		{"comfortable", SensorTemperature, 22, TrendRising, []string{}},
		{"dry", SensorHumidity, 25, TrendStable, []string{adviceRHDry}},
		{"humid", SensorHumidity, 70, TrendStable, []string{adviceRHHumid}},
		{"humidity climbing", SensorHumidity, 58, TrendRising, []string{adviceRHRising}},
		{"unknown sensor", "radon", 500, TrendRising, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advise(tt.key, tt.value, tt.trend)
			if got == nil {
				t.Fatal("advice must never be nil")
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDefaultCatalogWeightsSumToOne(t *testing.T) {
	var total float64
	for _, s := range DefaultCatalog() {
		total += s.Weight
	}
	if !approxEqual(total, 1, 1e-12) {
		t.Errorf("weights sum to %v", total)
	}

	expected := []string{SensorCO2, SensorPM25, SensorTVOC, SensorTemperature, SensorHumidity}
	if !reflect.DeepEqual(DefaultCatalog().Keys(), expected) {
		t.Errorf("unexpected declaration order %v", DefaultCatalog().Keys())
	}
}
