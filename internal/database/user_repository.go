package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/wordsrs/pkg/models"
)

// ErrUserNotFound is returned when no user has the requested ID
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles database operations for reminder subscribers
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// Upsert creates the user or updates its notification preferences
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO users (telegram_id, username, notification_enabled, notification_hour, daily_limit, created_at)
		VALUES (:telegram_id, :username, :notification_enabled, :notification_hour, :daily_limit, :created_at)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = excluded.username,
			notification_enabled = excluded.notification_enabled,
			notification_hour = excluded.notification_hour,
			daily_limit = excluded.daily_limit
	`
	if _, err := DB.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetByID returns a user by Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := DB.Rebind(`
		SELECT telegram_id, username, notification_enabled, notification_hour, daily_limit, created_at
		FROM users WHERE telegram_id = ?
	`)
	var user models.User
	err := DB.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUsersForNotification returns users who have notifications enabled for the given hour
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	query := DB.Rebind(`
		SELECT telegram_id, username, notification_enabled, notification_hour, daily_limit, created_at
		FROM users
		WHERE notification_enabled = ? AND notification_hour = ?
		ORDER BY telegram_id
	`)
	var users []models.User
	if err := DB.SelectContext(ctx, &users, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}
