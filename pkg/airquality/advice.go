package airquality

// Advice strings. Thresholds here are tuned for what a person can act on and
// are deliberately independent of the score curves.
const (
	adviceCO2Critical   = "Ventilate now: CO2 is above 2000 ppm"
	adviceCO2Break      = "Take a break outside the room"
	adviceCO2High       = "Open a window: CO2 is above 1500 ppm"
	adviceCO2Rising     = "CO2 is rising: ventilate soon"
	advicePM25PurifyMax = "Run the air purifier on high"
	advicePM25Windows   = "Keep windows closed while outdoor air is polluted"
	advicePM25Purify    = "Run the air purifier"
	adviceTVOCHigh      = "Ventilate: VOC levels are high"
	adviceTVOCSources   = "Check for solvents, cleaners or fresh paint"
	adviceTVOCElevated  = "Air out the room to reduce VOCs"
	adviceTempHot       = "Cool the room down"
	adviceTempCold      = "Warm the room up"
	adviceRHDry         = "Air is dry: use a humidifier"
	adviceRHHumid       = "Air is humid: ventilate or dehumidify"
	adviceRHRising      = "Humidity is climbing: ventilate soon"
)

// Advise returns the ordered recommendations for the canonical sensor key
// using the default catalog. Unknown keys get no advice.
func Advise(key string, value float64, trend Trend) []string {
	s, ok := DefaultCatalog().Lookup(key)
	if !ok {
		return []string{}
	}
	return s.AdviceFor(value, trend)
}

func co2Advice(v float64, trend Trend) []string {
	switch {
	case v >= 2000:
		return []string{adviceCO2Critical, adviceCO2Break}
	case v >= 1500:
		return []string{adviceCO2High}
	case v >= 1000 && trend == TrendRising:
		return []string{adviceCO2Rising}
	}
	return []string{}
}

func pm25Advice(v float64, _ Trend) []string {
	switch {
	case v > 35:
		return []string{advicePM25PurifyMax, advicePM25Windows}
	case v > 12:
		return []string{advicePM25Purify}
	}
	return []string{}
}

func tvocAdvice(v float64, trend Trend) []string {
	switch {
	case v > 1000:
		return []string{adviceTVOCHigh, adviceTVOCSources}
	case v > 500, v > 300 && trend == TrendRising:
		return []string{adviceTVOCElevated}
	}
	return []string{}
}

func tempAdvice(v float64, _ Trend) []string {
	switch {
	case v > 26:
		return []string{adviceTempHot}
	case v < 18:
		return []string{adviceTempCold}
	}
	return []string{}
}

func humidityAdvice(v float64, trend Trend) []string {
	switch {
	case v < 30:
		return []string{adviceRHDry}
	case v > 65:
		return []string{adviceRHHumid}
	case v > 55 && trend == TrendRising:
		return []string{adviceRHRising}
	}
	return []string{}
}
