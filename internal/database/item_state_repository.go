package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordsrs/internal/queue"
	"github.com/example/wordsrs/pkg/models"
)

const itemStateColumns = `user_id, item_id, kind, group_tag, state, stability, difficulty,
	reps, lapses, total_attempts, correct_attempts, success_rate, avg_response_time,
	consecutive_correct, due_date, last_review, elapsed_days, interval_days,
	retrievability, last_rating, version`

// ItemStateRepository handles database operations for item states
type ItemStateRepository struct{}

// NewItemStateRepository creates a new repository instance
func NewItemStateRepository() *ItemStateRepository {
	return &ItemStateRepository{}
}

// Get returns the stored state of one item, or nil if the user has never
// reviewed it.
func (r *ItemStateRepository) Get(ctx context.Context, userID int64, itemID string, kind models.ItemKind) (*models.ItemState, error) {
	query := DB.Rebind(`SELECT ` + itemStateColumns + ` FROM item_states
		WHERE user_id = ? AND item_id = ? AND kind = ?`)

	var state models.ItemState
	err := DB.GetContext(ctx, &state, query, userID, itemID, string(kind))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item state: %w", err)
	}
	return &state, nil
}

// ListByUser returns every item state of one kind for a user
func (r *ItemStateRepository) ListByUser(ctx context.Context, userID int64, kind models.ItemKind) ([]models.ItemState, error) {
	query := DB.Rebind(`SELECT ` + itemStateColumns + ` FROM item_states
		WHERE user_id = ? AND kind = ?
		ORDER BY item_id`)

	var states []models.ItemState
	if err := DB.SelectContext(ctx, &states, query, userID, string(kind)); err != nil {
		return nil, fmt.Errorf("failed to list item states: %w", err)
	}
	return states, nil
}

// CountDue returns how many items of one kind are due for a user at now
func (r *ItemStateRepository) CountDue(ctx context.Context, userID int64, kind models.ItemKind, now time.Time) (int, error) {
	query := DB.Rebind(`SELECT COUNT(*) FROM item_states
		WHERE user_id = ? AND kind = ? AND (due_date IS NULL OR due_date <= ?)`)

	var count int
	if err := DB.GetContext(ctx, &count, query, userID, string(kind), now.UTC()); err != nil {
		return 0, fmt.Errorf("failed to count due items: %w", err)
	}
	return count, nil
}

// Candidates loads every item state of one kind together with its most
// recent attempt, ready for a queue policy.
func (r *ItemStateRepository) Candidates(ctx context.Context, userID int64, kind models.ItemKind) ([]queue.Candidate, error) {
	states, err := r.ListByUser(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	attempts, err := NewReviewHistoryRepository().LastAttempts(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	candidates := make([]queue.Candidate, len(states))
	for i, s := range states {
		candidates[i] = queue.Candidate{State: s}
		if a, ok := attempts[s.ItemID]; ok {
			a := a
			candidates[i].LastAttempt = &a
		}
	}
	return candidates, nil
}

// Seed stores new items at version 1, skipping items that already exist, and
// returns how many rows were created.
func (r *ItemStateRepository) Seed(ctx context.Context, states []models.ItemState) (int, error) {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO item_states (` + itemStateColumns + `) VALUES (
		:user_id, :item_id, :kind, :group_tag, :state, :stability, :difficulty,
		:reps, :lapses, :total_attempts, :correct_attempts, :success_rate, :avg_response_time,
		:consecutive_correct, :due_date, :last_review, :elapsed_days, :interval_days,
		:retrievability, :last_rating, :version)
		ON CONFLICT (user_id, item_id, kind) DO NOTHING`

	created := 0
	for _, s := range states {
		s = normalizeState(s)
		s.State = models.StateNew
		s.Version = 1
		result, err := tx.NamedExecContext(ctx, query, s)
		if err != nil {
			return 0, fmt.Errorf("failed to seed item %s: %w", s.ItemID, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		created += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}
	return created, nil
}

func insertItemState(ctx context.Context, tx *sqlx.Tx, state models.ItemState) error {
	query := `INSERT INTO item_states (` + itemStateColumns + `) VALUES (
		:user_id, :item_id, :kind, :group_tag, :state, :stability, :difficulty,
		:reps, :lapses, :total_attempts, :correct_attempts, :success_rate, :avg_response_time,
		:consecutive_correct, :due_date, :last_review, :elapsed_days, :interval_days,
		:retrievability, :last_rating, :version)`
	_, err := tx.NamedExecContext(ctx, query, normalizeState(state))
	return err
}

// updateItemState writes state if the stored version still equals expected
func updateItemState(ctx context.Context, tx *sqlx.Tx, state models.ItemState, expected int64) (bool, error) {
	query := `UPDATE item_states SET
			group_tag = :group_tag,
			state = :state,
			stability = :stability,
			difficulty = :difficulty,
			reps = :reps,
			lapses = :lapses,
			total_attempts = :total_attempts,
			correct_attempts = :correct_attempts,
			success_rate = :success_rate,
			avg_response_time = :avg_response_time,
			consecutive_correct = :consecutive_correct,
			due_date = :due_date,
			last_review = :last_review,
			elapsed_days = :elapsed_days,
			interval_days = :interval_days,
			retrievability = :retrievability,
			last_rating = :last_rating,
			version = :version
		WHERE user_id = :user_id AND item_id = :item_id AND kind = :kind AND version = :expected_version`

	arg := struct {
		models.ItemState
		ExpectedVersion int64 `db:"expected_version"`
	}{normalizeState(state), expected}

	result, err := tx.NamedExecContext(ctx, query, arg)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// normalizeState stores every timestamp in UTC so text comparisons in
// SQLite order correctly.
func normalizeState(s models.ItemState) models.ItemState {
	s = s.Clone()
	if s.DueDate != nil {
		due := s.DueDate.UTC()
		s.DueDate = &due
	}
	if s.LastReview != nil {
		last := s.LastReview.UTC()
		s.LastReview = &last
	}
	return s
}
