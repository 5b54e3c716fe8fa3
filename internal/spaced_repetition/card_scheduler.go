package spaced_repetition

import (
	"fmt"
	"math"
	"time"

	"github.com/example/wordsrs/pkg/models"
)

// CardScheduler schedules vocabulary flashcards over a day-to-decades horizon
type CardScheduler struct {
	params CardParameters
}

// NewCardScheduler validates params and returns a scheduler
func NewCardScheduler(params CardParameters) (*CardScheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("card parameters: %w", err)
	}
	return &CardScheduler{params: params}, nil
}

// Parameters returns the parameter set in use
func (s *CardScheduler) Parameters() CardParameters {
	return s.params
}

// Kind implements Scheduler
func (s *CardScheduler) Kind() models.ItemKind {
	return models.KindCard
}

// IsDue implements Scheduler
func (s *CardScheduler) IsDue(state models.ItemState, now time.Time) bool {
	return IsDue(state, now)
}

// Schedule applies a rating to a card
func (s *CardScheduler) Schedule(state models.ItemState, event Event, now time.Time) (models.ItemState, error) {
	rating := event.Rating
	if !rating.Valid() {
		return models.ItemState{}, fmt.Errorf("%w: rating %d outside 1..4", ErrInvalidArgument, int(rating))
	}
	if err := validateState(state); err != nil {
		return models.ItemState{}, err
	}

	p := s.params
	next := state.Clone()
	next.Kind = models.KindCard

	elapsed := elapsedDays(state.LastReview, now)
	retrievability := 1.0

	var stability, difficulty float64
	if state.State == models.StateNew || state.State == "" {
		difficulty = s.initDifficulty(rating)
		stability = s.initStability(rating)
		next.Reps = 1
		if rating <= Hard {
			next.State = models.StateLearning
		} else {
			next.State = models.StateReview
		}
	} else {
		prevStability := clamp(state.Stability, p.MinimumInterval, p.MaximumInterval)
		prevDifficulty := clampDifficulty(state.Difficulty)
		if state.LastReview != nil {
			retrievability = Retrievability(elapsed, prevStability)
		}

		difficulty = s.nextDifficulty(prevDifficulty, rating)
		if rating == Again {
			stability = s.nextForgetStability(prevDifficulty, prevStability, retrievability)
			next.Lapses++
		} else {
			stability = s.nextRecallStability(prevDifficulty, prevStability, retrievability, rating)
		}
		next.Reps++

		switch {
		case rating != Again:
			next.State = models.StateReview
		case state.State == models.StateReview:
			next.State = models.StateRelearning
		default:
			next.State = state.State
		}
	}

	if !finite(stability, difficulty, retrievability) {
		return models.ItemState{}, fmt.Errorf("%w: stability=%v difficulty=%v retrievability=%v",
			ErrComputationDegenerate, stability, difficulty, retrievability)
	}

	next.Stability = clamp(stability, p.MinimumInterval, p.MaximumInterval)
	next.Difficulty = clampDifficulty(difficulty)
	next.ElapsedDays = elapsed
	next.Retrievability = retrievability
	next.LastRating = int(rating)
	stamp(&next, Interval(next.Stability, p.RequestRetention, p.MinimumInterval, p.MaximumInterval), now)
	return next, nil
}

// NextIntervals previews every rating against state
func (s *CardScheduler) NextIntervals(state models.ItemState, now time.Time) (map[Rating]Preview, error) {
	previews := make(map[Rating]Preview, len(Ratings))
	for _, r := range Ratings {
		next, err := s.Schedule(state, Event{Rating: r}, now)
		if err != nil {
			return nil, err
		}
		previews[r] = Preview{
			IntervalDays: next.IntervalDays,
			State:        next.State,
			DueDate:      *next.DueDate,
		}
	}
	return previews, nil
}

func (s *CardScheduler) initStability(r Rating) float64 {
	return s.params.W[int(r)-1]
}

func (s *CardScheduler) initDifficulty(r Rating) float64 {
	return s.params.W[4] - float64(r-Good)*s.params.W[5]
}

// nextDifficulty moves difficulty by w[6] per grade step, then pulls it
// towards the initial difficulty of a Good answer by w[7].
func (s *CardScheduler) nextDifficulty(d float64, r Rating) float64 {
	w := s.params.W
	adjusted := d - w[6]*float64(r-Good)
	return w[7]*s.initDifficulty(Good) + (1-w[7])*adjusted
}

func (s *CardScheduler) nextRecallStability(d, st, r float64, rating Rating) float64 {
	w := s.params.W
	hardPenalty, easyBonus := 1.0, 1.0
	switch rating {
	case Hard:
		hardPenalty = w[15]
	case Easy:
		easyBonus = w[16]
	}
	return st * (1 + math.Exp(w[8])*
		(11-d)*
		math.Pow(st, -w[9])*
		(math.Exp((1-r)*w[10])-1)*
		hardPenalty*
		easyBonus)
}

func (s *CardScheduler) nextForgetStability(d, st, r float64) float64 {
	w := s.params.W
	return w[11] *
		math.Pow(d, -w[12]) *
		(math.Pow(st+1, w[13]) - 1) *
		math.Exp((1-r)*w[14])
}

var _ Scheduler = (*CardScheduler)(nil)
