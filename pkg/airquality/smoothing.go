package airquality

// SmoothingAlpha is the weight of the newest reading in the moving average
const SmoothingAlpha = 0.3

// Smooth applies an exponential moving average to points in chronological
// order. The average is seeded with the first reading so the output does not
// start biased toward zero.
func Smooth(points []PreparedPoint) []PreparedPoint {
	if len(points) == 0 {
		return []PreparedPoint{}
	}

	smoothed := make([]PreparedPoint, len(points))
	ema := points[0].Value
	smoothed[0] = points[0]

	for i := 1; i < len(points); i++ {
		ema = SmoothingAlpha*points[i].Value + (1-SmoothingAlpha)*ema
		smoothed[i] = PreparedPoint{TS: points[i].TS, Value: ema}
	}

	return smoothed
}
