package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/wordsrs/pkg/models"
)

// StatisticsRepository handles database operations for statistics
type StatisticsRepository struct{}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository() *StatisticsRepository {
	return &StatisticsRepository{}
}

// GetByUser returns a user's aggregates; a user without any yet gets zeros
func (r *StatisticsRepository) GetByUser(ctx context.Context, userID int64) (*models.Statistics, error) {
	query := DB.Rebind(`
		SELECT user_id, words_mastered, questions_mastered, reviews_total, updated_at
		FROM user_statistics
		WHERE user_id = ?
	`)
	var stats models.Statistics
	err := DB.GetContext(ctx, &stats, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.Statistics{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return &stats, nil
}

// RecordReview increments the review counter and, when mastered is set, the
// mastered counter for the item kind.
func (r *StatisticsRepository) RecordReview(ctx context.Context, userID int64, kind models.ItemKind, mastered bool) error {
	var words, questions int
	if mastered {
		switch kind {
		case models.KindCard:
			words = 1
		case models.KindQuiz:
			questions = 1
		}
	}

	query := DB.Rebind(`
		INSERT INTO user_statistics (user_id, words_mastered, questions_mastered, reviews_total, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			words_mastered = user_statistics.words_mastered + excluded.words_mastered,
			questions_mastered = user_statistics.questions_mastered + excluded.questions_mastered,
			reviews_total = user_statistics.reviews_total + 1,
			updated_at = excluded.updated_at
	`)
	if _, err := DB.ExecContext(ctx, query, userID, words, questions, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update statistics: %w", err)
	}
	return nil
}
