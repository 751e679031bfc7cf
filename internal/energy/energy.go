// Package energy estimates calorie expenditure and pace from accumulated
// distance and active duration. Everything here is a pure function.
package energy

import "time"

// minSampleDuration guards against near-zero divisors on very short samples.
const minSampleDuration = time.Second

type metBand struct {
	maxSpeedKmh float64
	met         float64
}

// metBands are matched in order; upper bounds are inclusive.
var metBands = []metBand{
	{maxSpeedKmh: 4.0, met: 2.0},
	{maxSpeedKmh: 8.0, met: 7.0},
	{maxSpeedKmh: 11.0, met: 8.5},
}

const fastestMET = 10.0

// METForSpeed returns the metabolic equivalent for a sustained speed in km/h.
func METForSpeed(speedKmh float64) float64 {
	for _, b := range metBands {
		if speedKmh <= b.maxSpeedKmh {
			return b.met
		}
	}
	return fastestMET
}

// EstimateCalories returns kcal burned covering distanceKm in d for a person
// weighing weightKg.
func EstimateCalories(weightKg, distanceKm float64, d time.Duration) float64 {
	if d < minSampleDuration {
		return 0
	}
	hours := d.Hours()
	if hours <= 0 {
		return 0
	}
	speed := distanceKm / hours
	return METForSpeed(speed) * weightKg * hours
}

// EstimatePace returns the average speed in km/h.
func EstimatePace(distanceKm float64, d time.Duration) float64 {
	if distanceKm <= 0 || d <= 0 {
		return 0
	}
	return distanceKm / d.Hours()
}
