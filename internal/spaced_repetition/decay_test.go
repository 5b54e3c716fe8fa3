package spaced_repetition

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetrievability(t *testing.T) {
	tests := []struct {
		name      string
		elapsed   float64
		stability float64
		want      float64
	}{
		{"no time elapsed", 0, 10, 1},
		{"one stability elapsed", 10, 10, math.Exp(-1)},
		{"half stability elapsed", 5, 10, math.Exp(-0.5)},
		{"zero stability", 3, 0, 0},
		{"negative stability", 3, -2, 0},
		{"NaN stability", 3, math.NaN(), 0},
		{"negative elapsed counts as zero", -4, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Retrievability(tt.elapsed, tt.stability), 1e-12)
		})
	}
}

func TestInterval(t *testing.T) {
	tests := []struct {
		name      string
		stability float64
		retention float64
		want      float64
	}{
		{"retention 0.9 rounds stability", 3.7145, 0.9, 4},
		{"higher retention shortens", 10, 0.95, math.Round(10 * math.Log(0.95) / math.Log(0.9))},
		{"lower retention lengthens", 10, 0.8, math.Round(10 * math.Log(0.8) / math.Log(0.9))},
		{"clamped to minimum", 0.2, 0.9, 1},
		{"clamped to maximum", 1e9, 0.9, 36500},
		{"zero stability falls back to minimum", 0, 0.9, 1},
		{"zero retention falls back to minimum", 5, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interval(tt.stability, tt.retention, 1, 36500))
		})
	}
}

func TestQuizIntervalRoundsToHour(t *testing.T) {
	got := QuizInterval(1.5, 0.9, 0, 0.25, 180)
	assert.InDelta(t, 1.5, got, 1e-12)

	got = QuizInterval(3.4, 0.9, 0, 0.25, 180)
	assert.InDelta(t, 82.0/24.0, got, 1e-12)

	withJitter := QuizInterval(10, 0.9, 0.1, 0.25, 180)
	assert.InDelta(t, 11.0, withJitter, 1e-12)

	assert.Equal(t, 0.25, QuizInterval(0.01, 0.9, 0, 0.25, 180))
	assert.Equal(t, 180.0, QuizInterval(500, 0.9, 0.1, 0.25, 180))
}

func TestDaysToDuration(t *testing.T) {
	assert.Equal(t, 96*time.Hour, DaysToDuration(4))
	assert.Equal(t, 6*time.Hour, DaysToDuration(0.25))
	assert.Equal(t, 82*time.Hour, DaysToDuration(82.0/24.0))
}

func TestElapsedDays(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.0, elapsedDays(nil, now))

	last := now.Add(-53 * time.Hour)
	assert.Equal(t, 2.0, elapsedDays(&last, now))

	future := now.Add(5 * time.Hour)
	assert.Equal(t, 0.0, elapsedDays(&future, now))
}
