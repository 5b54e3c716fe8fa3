package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/wordsrs/internal/config"
	"github.com/example/wordsrs/internal/metrics"
	"github.com/example/wordsrs/internal/queue"
	"github.com/example/wordsrs/pkg/models"
)

const checkTimeout = 2 * time.Minute

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(userID int64, count int) error
}

// UserSource lists reminder subscribers
type UserSource interface {
	GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error)
}

// CandidateSource loads the queue candidates of a user
type CandidateSource interface {
	Candidates(ctx context.Context, userID int64, kind models.ItemKind) ([]queue.Candidate, error)
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     UserSource
	items     CandidateSource
	policy    queue.Policy
	options   queue.Options
	window    config.ReminderConfig
	metrics   *metrics.Recorder
	log       *zap.Logger
	now       func() time.Time
}

// Option configures a Scheduler
type Option func(*Scheduler)

func WithMetrics(m *metrics.Recorder) Option { return func(s *Scheduler) { s.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(s *Scheduler) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Scheduler) { s.now = now } }

// New creates a new scheduler instance
func New(notifier Notifier, users UserSource, items CandidateSource, policy queue.Policy,
	opts queue.Options, window config.ReminderConfig, options ...Option) *Scheduler {
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		users:     users,
		items:     items,
		policy:    policy,
		options:   opts,
		window:    window,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders); err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	if err := s.CheckAndSendReminders(ctx); err != nil {
		s.log.Error("reminder check failed", zap.Error(err))
	}
}

// CheckAndSendReminders notifies every subscriber of the current hour who has
// items waiting, capped at their daily limit.
func (s *Scheduler) CheckAndSendReminders(ctx context.Context) error {
	currentHour := s.now().UTC().Hour()
	if currentHour < s.window.StartHour || currentHour > s.window.EndHour {
		s.log.Info("outside notification hours, skipping reminders",
			zap.Int("hour", currentHour),
			zap.Int("start_hour", s.window.StartHour),
			zap.Int("end_hour", s.window.EndHour),
		)
		return nil
	}

	users, err := s.users.GetUsersForNotification(ctx, currentHour)
	if err != nil {
		return fmt.Errorf("failed to get users for notification: %w", err)
	}

	for _, user := range users {
		count, err := s.DueCount(ctx, user.ID)
		if err != nil {
			s.log.Error("failed to build due queue", zap.Int64("user_id", user.ID), zap.Error(err))
			continue
		}
		if count == 0 {
			continue
		}
		if user.DailyLimit > 0 && count > user.DailyLimit {
			count = user.DailyLimit
		}

		err = s.notifier.SendReminders(user.ID, count)
		s.metrics.ReminderSent(err == nil)
		if err != nil {
			s.log.Error("failed to send reminder", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

// DueCount is the number of cards and quiz questions queued for a user
func (s *Scheduler) DueCount(ctx context.Context, userID int64) (int, error) {
	total := 0
	for _, kind := range []models.ItemKind{models.KindCard, models.KindQuiz} {
		candidates, err := s.items.Candidates(ctx, userID, kind)
		if err != nil {
			return 0, err
		}
		entries := s.policy.Build(candidates, s.now(), s.options)
		total += len(entries)
	}
	s.metrics.QueueBuilt(string(s.policy.Kind()), total)
	return total, nil
}

// RunManualCheck forces a check for a specific user
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	count, err := s.DueCount(ctx, userID)
	if err != nil {
		return err
	}
	if count > 0 {
		return s.notifier.SendReminders(userID, count)
	}
	return nil
}
