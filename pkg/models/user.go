package models

import "time"

// User represents a learner subscribed to review reminders
type User struct {
	ID                  int64     `json:"id" db:"telegram_id"` // Telegram User ID
	Username            string    `json:"username" db:"username"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"` // Hour of day for notifications (0-23)
	DailyLimit          int       `json:"daily_limit" db:"daily_limit"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}
