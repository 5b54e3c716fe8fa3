package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordsrs/pkg/models"
)

const reviewHistoryColumns = `id, user_id, item_id, kind, rating, is_correct, response_time_ms,
	response_quality, stability_before, stability_after, difficulty_before, difficulty_after,
	state_before, state_after, due_before, due_after, changes, reviewed_at`

// ReviewHistoryRepository handles database operations for the review audit log
type ReviewHistoryRepository struct{}

// NewReviewHistoryRepository creates a new repository instance
func NewReviewHistoryRepository() *ReviewHistoryRepository {
	return &ReviewHistoryRepository{}
}

// ListByUser returns a user's review history since the given time, oldest first
func (r *ReviewHistoryRepository) ListByUser(ctx context.Context, userID int64, since time.Time) ([]models.ReviewHistory, error) {
	query := DB.Rebind(`SELECT ` + reviewHistoryColumns + ` FROM review_history
		WHERE user_id = ? AND reviewed_at >= ?
		ORDER BY reviewed_at, id`)

	var history []models.ReviewHistory
	if err := DB.SelectContext(ctx, &history, query, userID, since.UTC()); err != nil {
		return nil, fmt.Errorf("failed to list review history: %w", err)
	}
	return history, nil
}

// ListByItem returns the review history of one item, oldest first
func (r *ReviewHistoryRepository) ListByItem(ctx context.Context, userID int64, itemID string, kind models.ItemKind) ([]models.ReviewHistory, error) {
	query := DB.Rebind(`SELECT ` + reviewHistoryColumns + ` FROM review_history
		WHERE user_id = ? AND item_id = ? AND kind = ?
		ORDER BY reviewed_at, id`)

	var history []models.ReviewHistory
	if err := DB.SelectContext(ctx, &history, query, userID, itemID, string(kind)); err != nil {
		return nil, fmt.Errorf("failed to list item history: %w", err)
	}
	return history, nil
}

// LastAttempts returns the most recent attempt per item of one kind
func (r *ReviewHistoryRepository) LastAttempts(ctx context.Context, userID int64, kind models.ItemKind) (map[string]models.Attempt, error) {
	query := DB.Rebind(`SELECT item_id, is_correct, reviewed_at AS attempted_at
		FROM review_history
		WHERE user_id = ? AND kind = ?
		ORDER BY item_id, reviewed_at DESC, id DESC`)

	var rows []models.Attempt
	if err := DB.SelectContext(ctx, &rows, query, userID, string(kind)); err != nil {
		return nil, fmt.Errorf("failed to get last attempts: %w", err)
	}

	attempts := make(map[string]models.Attempt)
	for _, a := range rows {
		if _, seen := attempts[a.ItemID]; !seen {
			attempts[a.ItemID] = a
		}
	}
	return attempts, nil
}

func insertReviewHistory(ctx context.Context, tx *sqlx.Tx, h models.ReviewHistory) error {
	h.ReviewedAt = h.ReviewedAt.UTC()
	if h.DueBefore != nil {
		due := h.DueBefore.UTC()
		h.DueBefore = &due
	}
	if h.DueAfter != nil {
		due := h.DueAfter.UTC()
		h.DueAfter = &due
	}

	query := `INSERT INTO review_history (` + reviewHistoryColumns + `) VALUES (
		:id, :user_id, :item_id, :kind, :rating, :is_correct, :response_time_ms,
		:response_quality, :stability_before, :stability_after, :difficulty_before, :difficulty_after,
		:state_before, :state_after, :due_before, :due_after, :changes, :reviewed_at)`
	if _, err := tx.NamedExecContext(ctx, query, h); err != nil {
		return fmt.Errorf("failed to insert review history: %w", err)
	}
	return nil
}
