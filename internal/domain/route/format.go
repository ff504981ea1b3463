package route

import (
	"fmt"
	"math"
)

// FormatDistance renders meters as "1.5 km" from 1000 m upwards, else "500 m".
func FormatDistance(meters float64) string {
	if meters < 0 || math.IsNaN(meters) {
		meters = 0
	}
	rounded := math.Round(meters)
	if rounded >= 1000 {
		return fmt.Sprintf("%.1f km", meters/1000)
	}
	return fmt.Sprintf("%d m", int64(rounded))
}

// FormatTime renders seconds as "1 hr 5 mins" from one hour upwards, else "5 mins".
// Seconds are rounded to the nearest minute first; a zero minute part is
// dropped after the hours ("2 hr").
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	totalMinutes := int64(math.Round(seconds / 60))
	hours := totalMinutes / 60
	minutes := totalMinutes % 60

	if hours == 0 {
		return pluralMinutes(minutes)
	}
	if minutes == 0 {
		return fmt.Sprintf("%d hr", hours)
	}
	return fmt.Sprintf("%d hr %s", hours, pluralMinutes(minutes))
}

func pluralMinutes(n int64) string {
	if n == 1 {
		return "1 min"
	}
	return fmt.Sprintf("%d mins", n)
}
