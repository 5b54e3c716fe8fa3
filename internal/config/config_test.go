package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordsrs/internal/queue"
)

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "data/wordsrs.db", cfg.Database.SQLitePath)
	assert.True(t, cfg.Reminders.Enabled)
	assert.Equal(t, DefaultNotificationStartHour, cfg.Reminders.StartHour)
	assert.Equal(t, DefaultNotificationEndHour, cfg.Reminders.EndHour)
	assert.Equal(t, queue.PolicyPriority, cfg.Queue.Policy)
	assert.Equal(t, 20, cfg.Queue.Limit)
	assert.Equal(t, 0.9, cfg.SRS.RequestRetention)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestFromViperOverrides(t *testing.T) {
	v := newViper()
	v.Set("db_type", "Postgres")
	v.Set("db_dsn", "postgres://localhost/wordsrs?sslmode=disable")
	v.Set("queue_policy", "attempt_history")
	v.Set("srs_quiz_seed", 42)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, queue.PolicyAttemptHistory, cfg.Queue.Policy)
	assert.Equal(t, int64(42), cfg.SRS.QuizSeed)
}

func TestFromViperRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"unknown database", "db_type", "mysql"},
		{"postgres without dsn", "db_type", "postgres"},
		{"hour out of range", "notification_end_hour", 24},
		{"unknown policy", "queue_policy", "fifo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("QUEUE_LIMIT", "7")
	t.Setenv("NOTIFICATION_START_HOUR", "6")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Queue.Limit)
	assert.Equal(t, 6, cfg.Reminders.StartHour)
}
