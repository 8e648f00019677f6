package airquality

import "github.com/KanzlerFabian/Airguard2.0-sub000/pkg/aqi"

// Canonical sensor keys
const (
	SensorCO2         = "co2"
	SensorPM25        = "pm25"
	SensorTVOC        = "tvoc"
	SensorTemperature = "temp"
	SensorHumidity    = "rh"
)

// Sensor describes how one canonical sensor is recognized, scored, and weighted
type Sensor struct {
	Key     string
	Aliases []string // input keys in priority order

	// SlopeThreshold is the per-minute slope beyond which the trend counts as
	// rising or falling
	SlopeThreshold float64

	// Weight is the sensor's share of the overall score
	Weight float64

	score  func(float64) float64
	advise func(float64, Trend) []string
	index  func(float64) int32
}

// ScoreOf maps a raw reading to 0-100
func (s Sensor) ScoreOf(value float64) float64 {
	if s.score == nil {
		return 0
	}
	return clamp(s.score(value), 0, 100)
}

// AdviceFor returns the sensor's recommendations for a reading and trend
func (s Sensor) AdviceFor(value float64, trend Trend) []string {
	if s.advise == nil {
		return []string{}
	}
	return s.advise(value, trend)
}

// Catalog is the ordered set of canonical sensors. Order matters: it is the
// evaluation order and therefore decides which advice becomes a highlight.
type Catalog []Sensor

// Lookup finds a sensor by canonical key
func (c Catalog) Lookup(key string) (Sensor, bool) {
	for _, s := range c {
		if s.Key == key {
			return s, true
		}
	}
	return Sensor{}, false
}

// Keys returns the canonical keys in declaration order
func (c Catalog) Keys() []string {
	keys := make([]string, len(c))
	for i, s := range c {
		keys[i] = s.Key
	}
	return keys
}

// DefaultCatalog returns a fresh copy of the built-in sensor table. Weights sum
// to 1.0.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			Key:            SensorCO2,
			Aliases:        []string{"co2", "CO2", "co₂", "CO₂", "rco2", "carbon_dioxide"},
			SlopeThreshold: 6,
			Weight:         0.40,
			score:          curveScore(co2Curve),
			advise:         co2Advice,
		},
		{
			Key:            SensorPM25,
			Aliases:        []string{"pm25", "PM25", "pm2.5", "PM2.5", "pm2_5", "pm02", "pm02Compensated"},
			SlopeThreshold: 0.4,
			Weight:         0.25,
			score:          curveScore(pm25Curve),
			advise:         pm25Advice,
			index:          aqi.CalculatePM25,
		},
		{
			Key:            SensorTVOC,
			Aliases:        []string{"tvoc", "TVOC", "voc", "VOC", "tvocIndex"},
			SlopeThreshold: 8,
			Weight:         0.20,
			score:          curveScore(tvocCurve),
			advise:         tvocAdvice,
		},
		{
			Key:            SensorTemperature,
			Aliases:        []string{"temp", "temperature", "Temperature", "atmp", "atmpCompensated"},
			SlopeThreshold: 0.05,
			Weight:         0.075,
			score:          temperatureScore,
			advise:         tempAdvice,
		},
		{
			Key:            SensorHumidity,
			Aliases:        []string{"rh", "RH", "humidity", "Humidity", "rhum", "rhumCompensated"},
			SlopeThreshold: 0.25,
			Weight:         0.075,
			score:          humidityScore,
			advise:         humidityAdvice,
		},
	}
}
