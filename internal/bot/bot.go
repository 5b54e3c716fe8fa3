package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/wordsrs/pkg/models"
)

const (
	// DefaultNotificationHour is used for users registering through /start
	DefaultNotificationHour = 9
	// DefaultDailyLimit caps the count announced in a reminder
	DefaultDailyLimit = 20

	requestTimeout = 10 * time.Second
)

// ErrUnknownUser is returned when a reminder targets an unregistered user
var ErrUnknownUser = errors.New("unknown user")

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UserStore persists reminder subscribers
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

// StatsSource reads per-user aggregates
type StatsSource interface {
	GetByUser(ctx context.Context, userID int64) (*models.Statistics, error)
}

// DueCounter reports how many items are waiting for a user
type DueCounter interface {
	DueCount(ctx context.Context, userID int64) (int, error)
}

// Bot sends review reminders and answers a few account commands
type Bot struct {
	api   *tgbotapi.BotAPI
	out   sender
	users UserStore
	stats StatsSource
	due   DueCounter
	log   *zap.Logger
}

// New authorizes against the Telegram API
func New(token string, users UserStore, stats StatsSource, log *zap.Logger) (*Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	b := newBot(api, users, stats, log)
	b.api = api
	b.log.Info("authorized on telegram", zap.String("account", api.Self.UserName))
	return b, nil
}

func newBot(out sender, users UserStore, stats StatsSource, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{out: out, users: users, stats: stats, log: log}
}

// SetDueCounter enables the /due command
func (b *Bot) SetDueCounter(d DueCounter) {
	b.due = d
}

// Run handles incoming updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				go b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(userID int64, count int) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := b.users.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("%w %d: %v", ErrUnknownUser, userID, err)
	}

	// private chats share the user ID
	if _, err := b.out.Send(tgbotapi.NewMessage(userID, ReminderText(count))); err != nil {
		return fmt.Errorf("failed to send reminder to %d: %w", userID, err)
	}
	b.log.Info("reminder sent", zap.Int64("user_id", userID), zap.Int("count", count))
	return nil
}

// ReminderText formats the reminder body
func ReminderText(count int) string {
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	return fmt.Sprintf("You have %d %s to review! Send /due to see what is waiting.", count, noun)
}

// StatsText formats the /stats reply
func StatsText(s models.Statistics) string {
	var sb strings.Builder
	sb.WriteString("📊 *Your statistics*\n\n")
	fmt.Fprintf(&sb, "Reviews: %d\n", s.ReviewsTotal)
	fmt.Fprintf(&sb, "Words mastered: %d\n", s.WordsMastered)
	fmt.Fprintf(&sb, "Questions mastered: %d\n", s.QuestionsMastered)
	return sb.String()
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || !message.IsCommand() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var text string
	switch message.Command() {
	case "start":
		text = b.handleStart(ctx, message)
	case "stats":
		text = b.handleStats(ctx, message)
	case "due":
		text = b.handleDue(ctx, message)
	case "hour":
		text = b.handleHour(ctx, message)
	default:
		text = "Unknown command. Available: /start, /stats, /due, /hour <0-23>"
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.out.Send(msg); err != nil {
		b.log.Error("failed to send reply", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) string {
	user, err := b.users.GetByID(ctx, message.From.ID)
	if err != nil || user == nil {
		user = &models.User{
			ID:                  message.From.ID,
			NotificationEnabled: true,
			NotificationHour:    DefaultNotificationHour,
			DailyLimit:          DefaultDailyLimit,
		}
	}
	user.Username = message.From.UserName

	if err := b.users.Upsert(ctx, user); err != nil {
		b.log.Error("failed to register user", zap.Int64("user_id", user.ID), zap.Error(err))
		return "❌ Registration failed. Please try again."
	}
	return fmt.Sprintf("👋 Welcome! Reminders are sent daily at %02d:00 UTC.", user.NotificationHour)
}

func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) string {
	stats, err := b.stats.GetByUser(ctx, message.From.ID)
	if err != nil {
		b.log.Error("failed to get user statistics", zap.Int64("user_id", message.From.ID), zap.Error(err))
		return "Statistics are not available yet."
	}
	return StatsText(*stats)
}

func (b *Bot) handleDue(ctx context.Context, message *tgbotapi.Message) string {
	if b.due == nil {
		return "Due queue is not available."
	}
	count, err := b.due.DueCount(ctx, message.From.ID)
	if err != nil {
		b.log.Error("failed to count due items", zap.Int64("user_id", message.From.ID), zap.Error(err))
		return "Due queue is not available."
	}
	if count == 0 {
		return "🎉 Nothing to review right now."
	}
	return ReminderText(count)
}

func (b *Bot) handleHour(ctx context.Context, message *tgbotapi.Message) string {
	hour, err := strconv.Atoi(strings.TrimSpace(message.CommandArguments()))
	if err != nil || hour < 0 || hour > 23 {
		return "Please send an hour between 0 and 23, e.g. /hour 8"
	}
	user, err := b.users.GetByID(ctx, message.From.ID)
	if err != nil {
		return "Send /start first."
	}
	user.NotificationHour = hour
	if err := b.users.Upsert(ctx, user); err != nil {
		b.log.Error("failed to update notification hour", zap.Int64("user_id", user.ID), zap.Error(err))
		return "❌ Error updating settings. Please try again."
	}
	return fmt.Sprintf("✅ Reminders will arrive at %02d:00 UTC", hour)
}
