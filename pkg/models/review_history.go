package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FieldChange records one numeric field that a review changed
type FieldChange struct {
	Field  string  `json:"field"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// FieldChanges is stored as a JSON column
type FieldChanges []FieldChange

// Value implements driver.Valuer
func (c FieldChanges) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (c *FieldChanges) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type for field changes: %T", src)
	}
	return json.Unmarshal(raw, c)
}

// ReviewHistory is the append-only audit record written once per review
type ReviewHistory struct {
	ID               string        `json:"id" db:"id"`
	UserID           int64         `json:"user_id" db:"user_id"`
	ItemID           string        `json:"item_id" db:"item_id"`
	Kind             ItemKind      `json:"kind" db:"kind"`
	Rating           int           `json:"rating" db:"rating"`
	IsCorrect        bool          `json:"is_correct" db:"is_correct"`
	ResponseTimeMs   int64         `json:"response_time_ms" db:"response_time_ms"`
	ResponseQuality  string        `json:"response_quality" db:"response_quality"`
	StabilityBefore  float64       `json:"stability_before" db:"stability_before"`
	StabilityAfter   float64       `json:"stability_after" db:"stability_after"`
	DifficultyBefore float64       `json:"difficulty_before" db:"difficulty_before"`
	DifficultyAfter  float64       `json:"difficulty_after" db:"difficulty_after"`
	StateBefore      LearningState `json:"state_before" db:"state_before"`
	StateAfter       LearningState `json:"state_after" db:"state_after"`
	DueBefore        *time.Time    `json:"due_before" db:"due_before"`
	DueAfter         *time.Time    `json:"due_after" db:"due_after"`
	Changes          FieldChanges  `json:"changes" db:"changes"`
	ReviewedAt       time.Time     `json:"reviewed_at" db:"reviewed_at"`
}

// Attempt is the most recent answer given for an item
type Attempt struct {
	ItemID      string    `json:"item_id" db:"item_id"`
	IsCorrect   bool      `json:"is_correct" db:"is_correct"`
	AttemptedAt time.Time `json:"attempted_at" db:"attempted_at"`
}
