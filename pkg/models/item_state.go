package models

import "time"

// ItemKind selects which scheduler owns an item
type ItemKind string

const (
	KindCard ItemKind = "card"
	KindQuiz ItemKind = "quiz"
)

// LearningState is the lifecycle position of an item
type LearningState string

const (
	StateNew        LearningState = "new"
	StateLearning   LearningState = "learning"
	StateReview     LearningState = "review"
	StateRelearning LearningState = "relearning"
)

// ItemState tracks a user's memory model for a single card or quiz question.
// Card-only fields (Reps, Lapses) and quiz-only fields (TotalAttempts,
// CorrectAttempts, SuccessRate, AvgResponseTime, ConsecutiveCorrect) share one
// record; Kind tells which ones are meaningful.
type ItemState struct {
	UserID             int64         `json:"user_id" db:"user_id"`
	ItemID             string        `json:"item_id" db:"item_id"`
	Kind               ItemKind      `json:"kind" db:"kind"`
	GroupTag           string        `json:"group_tag" db:"group_tag"`
	State              LearningState `json:"state" db:"state"`
	Stability          float64       `json:"stability" db:"stability"`   // days
	Difficulty         float64       `json:"difficulty" db:"difficulty"` // 1-10
	Reps               int           `json:"reps" db:"reps"`
	Lapses             int           `json:"lapses" db:"lapses"`
	TotalAttempts      int           `json:"total_attempts" db:"total_attempts"`
	CorrectAttempts    int           `json:"correct_attempts" db:"correct_attempts"`
	SuccessRate        float64       `json:"success_rate" db:"success_rate"`
	AvgResponseTime    float64       `json:"avg_response_time" db:"avg_response_time"` // milliseconds
	ConsecutiveCorrect int           `json:"consecutive_correct" db:"consecutive_correct"`
	DueDate            *time.Time    `json:"due_date" db:"due_date"`
	LastReview         *time.Time    `json:"last_review" db:"last_review"`
	ElapsedDays        float64       `json:"elapsed_days" db:"elapsed_days"`
	IntervalDays       float64       `json:"interval_days" db:"interval_days"`
	Retrievability     float64       `json:"retrievability" db:"retrievability"`
	LastRating         int           `json:"last_rating" db:"last_rating"`
	Version            int64         `json:"version" db:"version"`
}

// NewItemState returns the state of an item that has never been reviewed
func NewItemState(userID int64, itemID string, kind ItemKind) ItemState {
	return ItemState{
		UserID: userID,
		ItemID: itemID,
		Kind:   kind,
		State:  StateNew,
	}
}

// IsNew reports whether the item has no review history yet
func (s ItemState) IsNew() bool {
	return s.DueDate == nil || s.LastReview == nil
}

// Clone returns a copy that shares no pointers with s
func (s ItemState) Clone() ItemState {
	c := s
	if s.DueDate != nil {
		due := *s.DueDate
		c.DueDate = &due
	}
	if s.LastReview != nil {
		last := *s.LastReview
		c.LastReview = &last
	}
	return c
}
