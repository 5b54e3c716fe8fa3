package spaced_repetition

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordsrs/pkg/models"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestCardScheduler(t *testing.T) *CardScheduler {
	t.Helper()
	s, err := NewCardScheduler(DefaultCardParameters())
	require.NoError(t, err)
	return s
}

func reviewCard(stability, difficulty float64, state models.LearningState, lastReview time.Time) models.ItemState {
	due := lastReview.Add(DaysToDuration(stability))
	return models.ItemState{
		UserID:     1,
		ItemID:     "word-1",
		Kind:       models.KindCard,
		State:      state,
		Stability:  stability,
		Difficulty: difficulty,
		Reps:       3,
		LastReview: &lastReview,
		DueDate:    &due,
	}
}

func TestCardScheduleNewGood(t *testing.T) {
	s := newTestCardScheduler(t)
	state := models.NewItemState(1, "word-1", models.KindCard)

	next, err := s.Schedule(state, Event{Rating: Good}, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.StateReview, next.State)
	assert.Equal(t, 1, next.Reps)
	assert.Equal(t, 0, next.Lapses)
	assert.InDelta(t, DefaultCardWeights[2], next.Stability, 1e-12)
	assert.InDelta(t, DefaultCardWeights[4], next.Difficulty, 1e-12)
	assert.Equal(t, 1.0, next.Retrievability)
	assert.Equal(t, 4.0, next.IntervalDays)
	require.NotNil(t, next.DueDate)
	assert.True(t, next.DueDate.After(testNow))
	assert.Equal(t, testNow.Add(96*time.Hour), *next.DueDate)
	assert.Equal(t, testNow, *next.LastReview)
	assert.Equal(t, int(Good), next.LastRating)
}

func TestCardScheduleNewTransitions(t *testing.T) {
	s := newTestCardScheduler(t)
	tests := []struct {
		rating    Rating
		wantState models.LearningState
		wantStab  float64
	}{
		{Again, models.StateLearning, 1}, // w[0] is below the one-day floor
		{Hard, models.StateLearning, DefaultCardWeights[1]},
		{Good, models.StateReview, DefaultCardWeights[2]},
		{Easy, models.StateReview, DefaultCardWeights[3]},
	}

	for _, tt := range tests {
		t.Run(tt.rating.String(), func(t *testing.T) {
			next, err := s.Schedule(models.NewItemState(1, "w", models.KindCard), Event{Rating: tt.rating}, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, next.State)
			assert.InDelta(t, tt.wantStab, next.Stability, 1e-12)
			assert.Equal(t, 0, next.Lapses)
			assert.Equal(t, 1, next.Reps)
		})
	}
}

func TestCardScheduleStateTransitions(t *testing.T) {
	s := newTestCardScheduler(t)
	last := testNow.Add(-3 * 24 * time.Hour)

	tests := []struct {
		name       string
		from       models.LearningState
		rating     Rating
		wantState  models.LearningState
		wantLapses int
	}{
		{"learning again stays learning", models.StateLearning, Again, models.StateLearning, 1},
		{"learning good graduates", models.StateLearning, Good, models.StateReview, 0},
		{"relearning again stays relearning", models.StateRelearning, Again, models.StateRelearning, 1},
		{"relearning hard graduates", models.StateRelearning, Hard, models.StateReview, 0},
		{"review again lapses", models.StateReview, Again, models.StateRelearning, 1},
		{"review easy stays review", models.StateReview, Easy, models.StateReview, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := reviewCard(5, 5, tt.from, last)
			next, err := s.Schedule(state, Event{Rating: tt.rating}, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, next.State)
			assert.Equal(t, tt.wantLapses, next.Lapses)
			assert.Equal(t, state.Reps+1, next.Reps)
			assert.Equal(t, 3.0, next.ElapsedDays)
		})
	}
}

func TestCardScheduleReviewFailure(t *testing.T) {
	s := newTestCardScheduler(t)
	state := reviewCard(10, 5, models.StateReview, testNow.Add(-5*24*time.Hour))

	failed, err := s.Schedule(state, Event{Rating: Again}, testNow)
	require.NoError(t, err)
	recalled, err := s.Schedule(state, Event{Rating: Good}, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.StateRelearning, failed.State)
	assert.Equal(t, state.Lapses+1, failed.Lapses)
	assert.Less(t, failed.Stability, recalled.Stability)
	assert.Less(t, failed.Stability, state.Stability)
	assert.InDelta(t, Retrievability(5, 10), failed.Retrievability, 1e-12)
	assert.Greater(t, failed.Difficulty, state.Difficulty)
}

func TestCardScheduleDoesNotMutateInput(t *testing.T) {
	s := newTestCardScheduler(t)
	state := reviewCard(10, 5, models.StateReview, testNow.Add(-5*24*time.Hour))
	snapshot := state.Clone()

	_, err := s.Schedule(state, Event{Rating: Easy}, testNow)
	require.NoError(t, err)
	assert.Equal(t, snapshot, state)
}

func TestCardScheduleInvalidInput(t *testing.T) {
	s := newTestCardScheduler(t)

	for _, r := range []Rating{0, 5, -1} {
		_, err := s.Schedule(models.NewItemState(1, "w", models.KindCard), Event{Rating: r}, testNow)
		assert.ErrorIs(t, err, ErrInvalidArgument, "rating %d", r)
	}

	bad := reviewCard(10, 5, models.StateReview, testNow.Add(-24*time.Hour))
	bad.Stability = -1
	_, err := s.Schedule(bad, Event{Rating: Good}, testNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCardScheduleClampsDifficultyOnRead(t *testing.T) {
	s := newTestCardScheduler(t)
	state := reviewCard(10, 42, models.StateReview, testNow.Add(-2*24*time.Hour))

	next, err := s.Schedule(state, Event{Rating: Again}, testNow)
	require.NoError(t, err)
	assert.LessOrEqual(t, next.Difficulty, 10.0)
	assert.GreaterOrEqual(t, next.Difficulty, 1.0)
}

func TestCardScheduleDegenerateCoefficients(t *testing.T) {
	params := DefaultCardParameters()
	params.W[8] = 1000
	s, err := NewCardScheduler(params)
	require.NoError(t, err)

	state := reviewCard(10, 5, models.StateReview, testNow.Add(-5*24*time.Hour))
	_, err = s.Schedule(state, Event{Rating: Good}, testNow)
	assert.ErrorIs(t, err, ErrComputationDegenerate)
}

func TestNewCardSchedulerRejectsBadParameters(t *testing.T) {
	params := DefaultCardParameters()
	params.RequestRetention = 1.5
	_, err := NewCardScheduler(params)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	params = DefaultCardParameters()
	params.MinimumInterval = 0
	_, err = NewCardScheduler(params)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCardNextIntervals(t *testing.T) {
	s := newTestCardScheduler(t)
	state := reviewCard(10, 5, models.StateReview, testNow.Add(-5*24*time.Hour))
	snapshot := state.Clone()

	first, err := s.NextIntervals(state, testNow)
	require.NoError(t, err)
	second, err := s.NextIntervals(state, testNow)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, state)
	require.Len(t, first, 4)

	assert.Equal(t, models.StateRelearning, first[Again].State)
	assert.Equal(t, models.StateReview, first[Good].State)
	assert.Less(t, first[Again].IntervalDays, first[Hard].IntervalDays)
	assert.Less(t, first[Hard].IntervalDays, first[Good].IntervalDays)
	assert.Less(t, first[Good].IntervalDays, first[Easy].IntervalDays)
}

func TestCardScheduleProperties(t *testing.T) {
	s := newTestCardScheduler(t)
	rng := rand.New(rand.NewSource(7))
	states := []models.LearningState{models.StateNew, models.StateLearning, models.StateReview, models.StateRelearning}

	for i := 0; i < 500; i++ {
		last := testNow.Add(-time.Duration(rng.Intn(400*24)) * time.Hour)
		state := reviewCard(rng.Float64()*1000, 1+rng.Float64()*9, states[rng.Intn(len(states))], last)
		if state.State == models.StateNew {
			state.LastReview, state.DueDate = nil, nil
		}
		rating := Ratings[rng.Intn(len(Ratings))]

		next, err := s.Schedule(state, Event{Rating: rating}, testNow)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, next.Stability, 1.0)
		assert.LessOrEqual(t, next.Stability, 36500.0)
		assert.GreaterOrEqual(t, next.Difficulty, 1.0)
		assert.LessOrEqual(t, next.Difficulty, 10.0)
		assert.GreaterOrEqual(t, next.Lapses, state.Lapses)
		assert.NotEqual(t, models.StateNew, next.State)
		assert.Equal(t, next.DueDate.Sub(*next.LastReview), DaysToDuration(next.IntervalDays))
		assert.True(t, next.DueDate.After(testNow))
	}
}
