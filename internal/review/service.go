package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/wordsrs/internal/metrics"
	"github.com/example/wordsrs/internal/spaced_repetition"
	"github.com/example/wordsrs/pkg/models"
)

const defaultSideEffectTimeout = 5 * time.Second

// StateReader fetches the current state of an item. It returns nil when the
// user has never reviewed the item.
type StateReader interface {
	Get(ctx context.Context, userID int64, itemID string, kind models.ItemKind) (*models.ItemState, error)
}

// Recorder persists a review atomically and returns the stored state
type Recorder interface {
	SaveReview(ctx context.Context, old, next models.ItemState, audit models.ReviewHistory) (models.ItemState, error)
}

// StatsRecorder maintains per-user aggregates
type StatsRecorder interface {
	RecordReview(ctx context.Context, userID int64, kind models.ItemKind, mastered bool) error
}

// Request is one learner response to an item
type Request struct {
	UserID   int64
	ItemID   string
	Kind     models.ItemKind
	GroupTag string
	Event    spaced_repetition.Event
	// ExpectedVersion, when set, must equal the stored version
	ExpectedVersion *int64
}

// Result carries both states and the audit record of one review
type Result struct {
	Old   models.ItemState
	New   models.ItemState
	Audit models.ReviewHistory
}

// Service ingests learner responses
type Service struct {
	schedulers spaced_repetition.Registry
	states     StateReader
	recorder   Recorder
	stats      StatsRecorder
	metrics    *metrics.Recorder
	log        *zap.Logger
	now        func() time.Time
	newID      func() string
	timeout    time.Duration

	wg sync.WaitGroup
}

// Option configures a Service
type Option func(*Service)

// WithRecorder enables Review
func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

// WithStats enables the best-effort aggregate counters
func WithStats(st StatsRecorder) Option { return func(s *Service) { s.stats = st } }

func WithMetrics(m *metrics.Recorder) Option { return func(s *Service) { s.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithIDGenerator(gen func() string) Option { return func(s *Service) { s.newID = gen } }

// WithSideEffectTimeout bounds each aggregate counter update
func WithSideEffectTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

// NewService creates a review service
func NewService(schedulers spaced_repetition.Registry, states StateReader, opts ...Option) *Service {
	s := &Service{
		schedulers: schedulers,
		states:     states,
		log:        zap.NewNop(),
		now:        time.Now,
		newID:      uuid.NewString,
		timeout:    defaultSideEffectTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest computes the outcome of a response without persisting anything
func (s *Service) Ingest(ctx context.Context, req Request) (*Result, error) {
	res, err := s.ingest(ctx, req)
	if err != nil {
		s.metrics.ReviewFailed(string(req.Kind), reason(err))
		return nil, err
	}
	return res, nil
}

func (s *Service) ingest(ctx context.Context, req Request) (*Result, error) {
	if req.ItemID == "" {
		return nil, fmt.Errorf("%w: empty item id", spaced_repetition.ErrInvalidArgument)
	}
	scheduler, err := s.schedulers.For(req.Kind)
	if err != nil {
		return nil, err
	}

	old, err := s.currentState(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion != nil && *req.ExpectedVersion != old.Version {
		return nil, fmt.Errorf("%w: item %s is at version %d, expected %d",
			spaced_repetition.ErrPreconditionFailed, req.ItemID, old.Version, *req.ExpectedVersion)
	}

	now := s.now()
	next, err := scheduler.Schedule(old, req.Event, now)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule item %s: %w", req.ItemID, err)
	}

	return &Result{
		Old:   old,
		New:   next,
		Audit: s.buildAudit(old, next, req.Event, now),
	}, nil
}

// Review ingests a response and persists the new state with its audit record.
// Aggregate counters are updated afterwards in the background.
func (s *Service) Review(ctx context.Context, req Request) (*Result, error) {
	if s.recorder == nil {
		return nil, errors.New("review service has no recorder")
	}

	res, err := s.ingest(ctx, req)
	if err != nil {
		s.metrics.ReviewFailed(string(req.Kind), reason(err))
		return nil, err
	}

	saved, err := s.recorder.SaveReview(ctx, res.Old, res.New, res.Audit)
	if err != nil {
		s.metrics.ReviewFailed(string(req.Kind), reason(err))
		return nil, fmt.Errorf("failed to save review of item %s: %w", req.ItemID, err)
	}
	res.New = saved

	s.metrics.ReviewScheduled(string(req.Kind), res.Audit.ResponseQuality)
	s.log.Info("review recorded",
		zap.Int64("user_id", req.UserID),
		zap.String("item_id", req.ItemID),
		zap.String("kind", string(req.Kind)),
		zap.String("quality", res.Audit.ResponseQuality),
		zap.String("state", string(saved.State)),
		zap.Float64("interval_days", saved.IntervalDays),
	)

	s.recordStats(res)
	return res, nil
}

// Preview returns the outcome of every possible response without persisting
func (s *Service) Preview(ctx context.Context, userID int64, itemID string, kind models.ItemKind) (map[spaced_repetition.Rating]spaced_repetition.Preview, error) {
	scheduler, err := s.schedulers.For(kind)
	if err != nil {
		return nil, err
	}
	state, err := s.currentState(ctx, Request{UserID: userID, ItemID: itemID, Kind: kind})
	if err != nil {
		return nil, err
	}
	return scheduler.NextIntervals(state, s.now())
}

// Wait blocks until every pending aggregate update has finished
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) currentState(ctx context.Context, req Request) (models.ItemState, error) {
	stored, err := s.states.Get(ctx, req.UserID, req.ItemID, req.Kind)
	if err != nil {
		return models.ItemState{}, fmt.Errorf("failed to load item %s: %w", req.ItemID, err)
	}

	state := models.NewItemState(req.UserID, req.ItemID, req.Kind)
	if stored != nil {
		state = stored.Clone()
		if state.State == "" {
			state.State = models.StateNew
		}
	}
	if req.GroupTag != "" {
		state.GroupTag = req.GroupTag
	}
	return state, nil
}

func (s *Service) recordStats(res *Result) {
	if s.stats == nil {
		return
	}
	mastered := !spaced_repetition.IsMastered(res.Old) && spaced_repetition.IsMastered(res.New)
	userID, kind, itemID := res.New.UserID, res.New.Kind, res.New.ItemID

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.stats.RecordReview(ctx, userID, kind, mastered); err != nil {
			s.log.Warn("failed to update review statistics",
				zap.Int64("user_id", userID),
				zap.String("item_id", itemID),
				zap.Bool("mastered", mastered),
				zap.Error(err),
			)
		}
	}()
}

func reason(err error) string {
	switch {
	case errors.Is(err, spaced_repetition.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, spaced_repetition.ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, spaced_repetition.ErrComputationDegenerate):
		return "degenerate"
	}
	return "internal"
}
