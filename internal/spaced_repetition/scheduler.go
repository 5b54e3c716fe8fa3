package spaced_repetition

import (
	"fmt"
	"math"
	"time"

	"github.com/example/wordsrs/pkg/models"
)

// Event is a single learner response. Cards read Rating; quiz questions read
// IsCorrect and ResponseTimeMs.
type Event struct {
	Rating         Rating `json:"rating,omitempty"`
	IsCorrect      bool   `json:"is_correct"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}

// Preview is the outcome a response would produce, without persisting it
type Preview struct {
	IntervalDays float64              `json:"interval_days"`
	State        models.LearningState `json:"state"`
	DueDate      time.Time            `json:"due_date"`
}

// Scheduler computes the next memory state of an item after a response
type Scheduler interface {
	Kind() models.ItemKind
	// Schedule returns the new state; the input is never mutated.
	Schedule(state models.ItemState, event Event, now time.Time) (models.ItemState, error)
	NextIntervals(state models.ItemState, now time.Time) (map[Rating]Preview, error)
	IsDue(state models.ItemState, now time.Time) bool
}

// Registry maps item kinds to their scheduler
type Registry map[models.ItemKind]Scheduler

// NewRegistry indexes the schedulers by kind
func NewRegistry(schedulers ...Scheduler) Registry {
	r := make(Registry, len(schedulers))
	for _, s := range schedulers {
		r[s.Kind()] = s
	}
	return r
}

// For returns the scheduler responsible for kind
func (r Registry) For(kind models.ItemKind) (Scheduler, error) {
	s, ok := r[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no scheduler for kind %q", ErrInvalidArgument, kind)
	}
	return s, nil
}

// IsDue reports whether an item should be shown at now
func IsDue(state models.ItemState, now time.Time) bool {
	if state.DueDate == nil {
		return true
	}
	return !now.Before(*state.DueDate)
}

// IsMastered reports whether an item counts towards the mastered aggregates.
// Cards need five reviews and a month-long interval in the review state;
// quiz questions need five attempts at 80% success and three weeks of stability.
func IsMastered(state models.ItemState) bool {
	switch state.Kind {
	case models.KindCard:
		return state.State == models.StateReview && state.Reps >= 5 && state.IntervalDays >= 30
	case models.KindQuiz:
		return state.TotalAttempts >= 5 && state.SuccessRate >= 0.8 && state.Stability >= 21
	}
	return false
}

func validateState(state models.ItemState) error {
	if math.IsNaN(state.Stability) || state.Stability < 0 {
		return fmt.Errorf("%w: stability %v", ErrInvalidArgument, state.Stability)
	}
	if math.IsNaN(state.Difficulty) {
		return fmt.Errorf("%w: difficulty is NaN", ErrInvalidArgument)
	}
	if state.Reps < 0 || state.Lapses < 0 || state.TotalAttempts < 0 || state.CorrectAttempts < 0 {
		return fmt.Errorf("%w: negative counter", ErrInvalidArgument)
	}
	if state.CorrectAttempts > state.TotalAttempts {
		return fmt.Errorf("%w: correct attempts exceed total attempts", ErrInvalidArgument)
	}
	return nil
}

func stamp(next *models.ItemState, intervalDays float64, now time.Time) {
	last := now
	due := now.Add(DaysToDuration(intervalDays))
	next.LastReview = &last
	next.DueDate = &due
	next.IntervalDays = intervalDays
}
