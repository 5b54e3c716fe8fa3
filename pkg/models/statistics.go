package models

import "time"

// Statistics holds per-user aggregates maintained alongside reviews
type Statistics struct {
	UserID            int64     `json:"user_id" db:"user_id"`
	WordsMastered     int       `json:"words_mastered" db:"words_mastered"`
	QuestionsMastered int       `json:"questions_mastered" db:"questions_mastered"`
	ReviewsTotal      int       `json:"reviews_total" db:"reviews_total"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
