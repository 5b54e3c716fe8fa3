package spaced_repetition

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/example/wordsrs/pkg/models"
)

// JitterSource supplies uniform values in [0,1). *rand.Rand satisfies it.
type JitterSource interface {
	Float64() float64
}

// QuizScheduler schedules quiz questions over a quarter-day to half-year
// horizon from binary correctness and response time.
type QuizScheduler struct {
	params QuizParameters

	mu  sync.Mutex
	rng JitterSource
}

// NewQuizScheduler validates params. A nil rng is replaced by a time-seeded source.
func NewQuizScheduler(params QuizParameters, rng JitterSource) (*QuizScheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("quiz parameters: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &QuizScheduler{params: params, rng: rng}, nil
}

// Parameters returns the parameter set in use
func (s *QuizScheduler) Parameters() QuizParameters {
	return s.params
}

// Kind implements Scheduler
func (s *QuizScheduler) Kind() models.ItemKind {
	return models.KindQuiz
}

// IsDue implements Scheduler
func (s *QuizScheduler) IsDue(state models.ItemState, now time.Time) bool {
	return IsDue(state, now)
}

// DetermineResponseQuality classifies an answer by comparing its response time
// with the learner's running average for the question.
func (s *QuizScheduler) DetermineResponseQuality(responseTimeMs int64, isCorrect bool, avgResponseTime float64) Rating {
	if !isCorrect {
		return Again
	}
	if avgResponseTime <= 0 {
		return Good
	}
	rt := float64(responseTimeMs)
	switch {
	case rt < s.params.FastResponseRatio*avgResponseTime:
		return Easy
	case rt > s.params.SlowResponseRatio*avgResponseTime:
		return Hard
	}
	return Good
}

// Schedule applies one answer to a quiz question
func (s *QuizScheduler) Schedule(state models.ItemState, event Event, now time.Time) (models.ItemState, error) {
	if event.ResponseTimeMs < 0 {
		return models.ItemState{}, fmt.Errorf("%w: negative response time", ErrInvalidArgument)
	}
	quality := s.DetermineResponseQuality(event.ResponseTimeMs, event.IsCorrect, state.AvgResponseTime)
	return s.apply(state, event, quality, s.jitter(), now)
}

// NextIntervals previews each response quality with no jitter
func (s *QuizScheduler) NextIntervals(state models.ItemState, now time.Time) (map[Rating]Preview, error) {
	previews := make(map[Rating]Preview, len(Ratings))
	for _, q := range Ratings {
		ev := Event{IsCorrect: q != Again, ResponseTimeMs: int64(state.AvgResponseTime)}
		next, err := s.apply(state, ev, q, 0, now)
		if err != nil {
			return nil, err
		}
		previews[q] = Preview{
			IntervalDays: next.IntervalDays,
			State:        next.State,
			DueDate:      *next.DueDate,
		}
	}
	return previews, nil
}

func (s *QuizScheduler) apply(state models.ItemState, event Event, quality Rating, jitter float64, now time.Time) (models.ItemState, error) {
	if err := validateState(state); err != nil {
		return models.ItemState{}, err
	}

	p := s.params
	next := state.Clone()
	next.Kind = models.KindQuiz

	stability := clamp(state.Stability, p.MinimumInterval, p.MaximumInterval)
	difficulty := clampDifficulty(state.Difficulty)
	if state.IsNew() {
		stability = p.InitialStability
		difficulty = p.InitialDifficulty
	}

	elapsed := elapsedDays(state.LastReview, now)
	retrievability := 1.0
	if state.LastReview != nil {
		retrievability = Retrievability(elapsed, stability)
	}

	newStability := s.nextStability(stability, difficulty, quality, event.IsCorrect)
	newDifficulty := s.nextDifficulty(difficulty, event.IsCorrect)
	if !finite(newStability, newDifficulty, retrievability) {
		return models.ItemState{}, fmt.Errorf("%w: stability=%v difficulty=%v",
			ErrComputationDegenerate, newStability, newDifficulty)
	}

	next.Stability = newStability
	next.Difficulty = newDifficulty
	next.TotalAttempts++
	if event.IsCorrect {
		next.CorrectAttempts++
		next.ConsecutiveCorrect++
		next.State = models.StateReview
	} else {
		next.ConsecutiveCorrect = 0
		next.State = models.StateRelearning
	}
	next.SuccessRate = float64(next.CorrectAttempts) / float64(next.TotalAttempts)
	next.AvgResponseTime = state.AvgResponseTime +
		(float64(event.ResponseTimeMs)-state.AvgResponseTime)/float64(next.TotalAttempts)
	next.ElapsedDays = elapsed
	next.Retrievability = retrievability
	next.LastRating = int(quality)
	stamp(&next, s.calculateInterval(newStability, jitter), now)
	return next, nil
}

func (s *QuizScheduler) nextStability(stability, difficulty float64, quality Rating, isCorrect bool) float64 {
	p := s.params
	if !isCorrect {
		return clamp(stability*p.IncorrectDecay, p.MinimumInterval, p.MaximumInterval)
	}
	multiplier := p.GoodMultiplier
	switch quality {
	case Easy:
		multiplier = p.EasyMultiplier
	case Hard:
		multiplier = p.HardMultiplier
	}
	return clamp(stability*multiplier*(11-difficulty)/10, p.MinimumInterval, p.MaximumInterval)
}

func (s *QuizScheduler) nextDifficulty(difficulty float64, isCorrect bool) float64 {
	if isCorrect {
		return clampDifficulty(difficulty - s.params.DifficultyDecrease)
	}
	return clampDifficulty(difficulty + s.params.DifficultyIncrease)
}

func (s *QuizScheduler) calculateInterval(stability, jitter float64) float64 {
	p := s.params
	return QuizInterval(stability, p.RequestRetention, jitter, p.MinimumInterval, p.MaximumInterval)
}

// jitter draws a value in [-JitterFraction, JitterFraction)
func (s *QuizScheduler) jitter() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.rng.Float64()*2 - 1) * s.params.JitterFraction
}

var _ Scheduler = (*QuizScheduler)(nil)
