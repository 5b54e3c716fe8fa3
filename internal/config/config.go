package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/wordsrs/internal/queue"
)

// Default notification window, in UTC hours
const (
	DefaultNotificationStartHour = 4
	DefaultNotificationEndHour   = 18
)

// Config is the full runtime configuration
type Config struct {
	Env       string
	Database  DatabaseConfig
	Telegram  TelegramConfig
	Reminders ReminderConfig
	Queue     QueueConfig
	SRS       SRSConfig
	Metrics   MetricsConfig
}

// DatabaseConfig selects the SQL backend
type DatabaseConfig struct {
	Type       string // "sqlite" or "postgres"
	DSN        string // used for postgres
	SQLitePath string
}

// TelegramConfig holds the bot credentials used for reminders
type TelegramConfig struct {
	Token string
}

// ReminderConfig controls the hourly reminder job
type ReminderConfig struct {
	Enabled   bool
	StartHour int
	EndHour   int
}

// QueueConfig selects and bounds the due queue
type QueueConfig struct {
	Policy     queue.PolicyKind
	Limit      int
	IncludeNew bool
}

// SRSConfig overrides scheduler parameters
type SRSConfig struct {
	RequestRetention    float64
	CardMaximumInterval float64
	QuizSeed            int64 // 0 seeds from the clock
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string // empty disables the endpoint
}

func init() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("db_type", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("sqlite_path", "data/wordsrs.db")
	v.SetDefault("telegram_bot_token", "")
	v.SetDefault("enable_scheduler", true)
	v.SetDefault("notification_start_hour", DefaultNotificationStartHour)
	v.SetDefault("notification_end_hour", DefaultNotificationEndHour)
	v.SetDefault("queue_policy", string(queue.PolicyPriority))
	v.SetDefault("queue_limit", 20)
	v.SetDefault("queue_include_new", true)
	v.SetDefault("srs_request_retention", 0.9)
	v.SetDefault("srs_card_max_interval", 36500.0)
	v.SetDefault("srs_quiz_seed", 0)
	v.SetDefault("metrics_addr", "")
}

// Load reads an optional .env file, then resolves every key from flags bound
// to the global viper instance, the environment and defaults.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.GetViper()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env: v.GetString("env"),
		Database: DatabaseConfig{
			Type:       strings.ToLower(v.GetString("db_type")),
			DSN:        v.GetString("db_dsn"),
			SQLitePath: v.GetString("sqlite_path"),
		},
		Telegram: TelegramConfig{
			Token: v.GetString("telegram_bot_token"),
		},
		Reminders: ReminderConfig{
			Enabled:   v.GetBool("enable_scheduler"),
			StartHour: v.GetInt("notification_start_hour"),
			EndHour:   v.GetInt("notification_end_hour"),
		},
		Queue: QueueConfig{
			Policy:     queue.PolicyKind(v.GetString("queue_policy")),
			Limit:      v.GetInt("queue_limit"),
			IncludeNew: v.GetBool("queue_include_new"),
		},
		SRS: SRSConfig{
			RequestRetention:    v.GetFloat64("srs_request_retention"),
			CardMaximumInterval: v.GetFloat64("srs_card_max_interval"),
			QuizSeed:            v.GetInt64("srs_quiz_seed"),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics_addr"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can work with
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must be set for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN must be set for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.Database.Type)
	}

	if !validHour(c.Reminders.StartHour) || !validHour(c.Reminders.EndHour) {
		return fmt.Errorf("notification hours must be within 0-23, got %d-%d",
			c.Reminders.StartHour, c.Reminders.EndHour)
	}

	if _, err := queue.NewPolicy(c.Queue.Policy); err != nil {
		return err
	}
	return nil
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}
