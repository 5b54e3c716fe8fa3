package review

import (
	"time"

	"github.com/example/wordsrs/internal/spaced_repetition"
	"github.com/example/wordsrs/pkg/models"
)

type numericField struct {
	name string
	get  func(models.ItemState) float64
}

// auditedFields are compared between the old and new state of every review
var auditedFields = []numericField{
	{"stability", func(s models.ItemState) float64 { return s.Stability }},
	{"difficulty", func(s models.ItemState) float64 { return s.Difficulty }},
	{"reps", func(s models.ItemState) float64 { return float64(s.Reps) }},
	{"lapses", func(s models.ItemState) float64 { return float64(s.Lapses) }},
	{"total_attempts", func(s models.ItemState) float64 { return float64(s.TotalAttempts) }},
	{"correct_attempts", func(s models.ItemState) float64 { return float64(s.CorrectAttempts) }},
	{"success_rate", func(s models.ItemState) float64 { return s.SuccessRate }},
	{"avg_response_time", func(s models.ItemState) float64 { return s.AvgResponseTime }},
	{"consecutive_correct", func(s models.ItemState) float64 { return float64(s.ConsecutiveCorrect) }},
	{"elapsed_days", func(s models.ItemState) float64 { return s.ElapsedDays }},
	{"interval_days", func(s models.ItemState) float64 { return s.IntervalDays }},
	{"retrievability", func(s models.ItemState) float64 { return s.Retrievability }},
	{"last_rating", func(s models.ItemState) float64 { return float64(s.LastRating) }},
}

// Diff lists every audited numeric field that differs between old and next
func Diff(old, next models.ItemState) models.FieldChanges {
	var changes models.FieldChanges
	for _, f := range auditedFields {
		before, after := f.get(old), f.get(next)
		if before != after {
			changes = append(changes, models.FieldChange{Field: f.name, Before: before, After: after})
		}
	}
	return changes
}

func (s *Service) buildAudit(old, next models.ItemState, ev spaced_repetition.Event, now time.Time) models.ReviewHistory {
	quality := spaced_repetition.Rating(next.LastRating)
	correct := ev.IsCorrect
	if next.Kind == models.KindCard {
		correct = quality != spaced_repetition.Again
	}

	return models.ReviewHistory{
		ID:               s.newID(),
		UserID:           next.UserID,
		ItemID:           next.ItemID,
		Kind:             next.Kind,
		Rating:           next.LastRating,
		IsCorrect:        correct,
		ResponseTimeMs:   ev.ResponseTimeMs,
		ResponseQuality:  quality.String(),
		StabilityBefore:  old.Stability,
		StabilityAfter:   next.Stability,
		DifficultyBefore: old.Difficulty,
		DifficultyAfter:  next.Difficulty,
		StateBefore:      old.State,
		StateAfter:       next.State,
		DueBefore:        old.Clone().DueDate,
		DueAfter:         next.Clone().DueDate,
		Changes:          Diff(old, next),
		ReviewedAt:       now,
	}
}
