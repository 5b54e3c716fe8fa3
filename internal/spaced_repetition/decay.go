package spaced_repetition

import (
	"math"
	"time"
)

const (
	minDifficulty = 1.0
	maxDifficulty = 10.0
)

// Retrievability returns the estimated probability of recall after
// elapsedDays for an item with the given stability. Non-positive stability
// yields 0 and negative elapsed time counts as 0.
func Retrievability(elapsedDays, stability float64) float64 {
	if !(stability > 0) {
		return 0
	}
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	return math.Exp(-elapsedDays / stability)
}

// Interval converts stability into a whole number of days at which recall
// probability drops to requestRetention.
func Interval(stability, requestRetention, minimum, maximum float64) float64 {
	if !(stability > 0) || !(requestRetention > 0) {
		return minimum
	}
	days := math.Round(stability * math.Log(requestRetention) / math.Log(0.9))
	return clamp(days, minimum, maximum)
}

// QuizInterval is Interval scaled by (1 + jitter) and rounded to the nearest
// hour instead of the nearest day.
func QuizInterval(stability, requestRetention, jitter, minimum, maximum float64) float64 {
	if !(stability > 0) || !(requestRetention > 0) {
		return minimum
	}
	days := stability * math.Log(requestRetention) / math.Log(0.9) * (1 + jitter)
	hours := math.Round(days * 24)
	return clamp(hours/24, minimum, maximum)
}

// DaysToDuration converts an interval in days to a duration rounded to the hour
func DaysToDuration(days float64) time.Duration {
	return time.Duration(math.Round(days*24)) * time.Hour
}

// elapsedDays is the number of whole days between the last review and now
func elapsedDays(lastReview *time.Time, now time.Time) float64 {
	if lastReview == nil {
		return 0
	}
	return math.Max(0, math.Floor(now.Sub(*lastReview).Hours()/24))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDifficulty(d float64) float64 {
	return clamp(d, minDifficulty, maxDifficulty)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
