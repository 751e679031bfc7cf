package workout

import (
	"fmt"
	"time"
)

// FormatDuration renders d as HH:MM:SS. Hours are not wrapped at 24.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	seconds := (ms / 1000) % 60
	minutes := (ms / (1000 * 60)) % 60
	hours := ms / (1000 * 60 * 60)
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func FormatDistance(km float64) string {
	return fmt.Sprintf("%.2f km", km)
}

func FormatCalories(kcal float64) string {
	return fmt.Sprintf("%.0f kcal", kcal)
}

func FormatPace(kmh float64) string {
	return fmt.Sprintf("%.2f km/h", kmh)
}
