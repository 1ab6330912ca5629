package utils

import "time"

// HoursSince returns the elapsed hours since t, floored at min to keep
// frequency calculations finite for very young observations.
func HoursSince(now, t time.Time, min float64) float64 {
	hours := now.Sub(t).Hours()
	if hours < min {
		return min
	}
	return hours
}
