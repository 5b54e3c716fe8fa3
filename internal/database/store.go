package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/example/wordsrs/internal/spaced_repetition"
	"github.com/example/wordsrs/pkg/models"
)

// Store persists the result of a review atomically: the new item state and
// its audit record are written in one transaction guarded by the version
// the review was computed from.
type Store struct{}

// NewStore creates a new store instance
func NewStore() *Store {
	return &Store{}
}

// SaveReview writes next and audit if the stored version of the item still
// equals old.Version. A version of 0 means the item must not exist yet.
// It returns next with its new version.
func (s *Store) SaveReview(ctx context.Context, old, next models.ItemState, audit models.ReviewHistory) (models.ItemState, error) {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return models.ItemState{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := next.Clone()
	saved.Version = old.Version + 1

	if old.Version == 0 {
		if err := insertItemState(ctx, tx, saved); err != nil {
			if isUniqueViolation(err) {
				return models.ItemState{}, fmt.Errorf("%w: item %s was created concurrently",
					spaced_repetition.ErrPreconditionFailed, next.ItemID)
			}
			return models.ItemState{}, fmt.Errorf("failed to insert item state: %w", err)
		}
	} else {
		ok, err := updateItemState(ctx, tx, saved, old.Version)
		if err != nil {
			return models.ItemState{}, fmt.Errorf("failed to update item state: %w", err)
		}
		if !ok {
			return models.ItemState{}, fmt.Errorf("%w: item %s is no longer at version %d",
				spaced_repetition.ErrPreconditionFailed, next.ItemID, old.Version)
		}
	}

	if err := insertReviewHistory(ctx, tx, audit); err != nil {
		return models.ItemState{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.ItemState{}, fmt.Errorf("failed to commit review: %w", err)
	}
	return saved, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
