package spaced_repetition

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordsrs/pkg/models"
)

func TestRegistry(t *testing.T) {
	cards := newTestCardScheduler(t)
	quizzes := newTestQuizScheduler(t, fixedJitter(0.5))
	reg := NewRegistry(cards, quizzes)

	s, err := reg.For(models.KindCard)
	require.NoError(t, err)
	assert.Same(t, cards, s)

	s, err = reg.For(models.KindQuiz)
	require.NoError(t, err)
	assert.Same(t, quizzes, s)

	_, err = reg.For("essay")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIsMastered(t *testing.T) {
	tests := []struct {
		name  string
		state models.ItemState
		want  bool
	}{
		{"card mastered", models.ItemState{Kind: models.KindCard, State: models.StateReview, Reps: 5, IntervalDays: 30}, true},
		{"card too few reps", models.ItemState{Kind: models.KindCard, State: models.StateReview, Reps: 4, IntervalDays: 60}, false},
		{"card relearning", models.ItemState{Kind: models.KindCard, State: models.StateRelearning, Reps: 9, IntervalDays: 60}, false},
		{"quiz mastered", models.ItemState{Kind: models.KindQuiz, TotalAttempts: 5, SuccessRate: 0.8, Stability: 21}, true},
		{"quiz low success", models.ItemState{Kind: models.KindQuiz, TotalAttempts: 10, SuccessRate: 0.7, Stability: 40}, false},
		{"unknown kind", models.ItemState{Kind: "essay", TotalAttempts: 10, SuccessRate: 1, Stability: 40}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMastered(tt.state))
		})
	}
}

func TestRatingJSON(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"rating":"easy"}`), &ev))
	assert.Equal(t, Easy, ev.Rating)

	require.NoError(t, json.Unmarshal([]byte(`{"rating":2}`), &ev))
	assert.Equal(t, Hard, ev.Rating)

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"rating":7}`), &ev), ErrInvalidArgument)

	b, err := json.Marshal(Good)
	require.NoError(t, err)
	assert.JSONEq(t, `"good"`, string(b))
}

func TestParseRating(t *testing.T) {
	r, err := ParseRating(" Again ")
	require.NoError(t, err)
	assert.Equal(t, Again, r)

	_, err = ParseRating("perfect")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
