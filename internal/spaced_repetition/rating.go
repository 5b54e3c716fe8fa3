package spaced_repetition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Rating is the learner's recall grade. Quiz answers are classified into the
// same four buckets as a response quality.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// Ratings lists every valid rating in ascending order
var Ratings = []Rating{Again, Hard, Good, Easy}

// Valid reports whether r is one of the four grades
func (r Rating) Valid() bool {
	return r >= Again && r <= Easy
}

func (r Rating) String() string {
	switch r {
	case Again:
		return "again"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// ParseRating accepts either the grade name or its number
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "again", "1":
		return Again, nil
	case "hard", "2":
		return Hard, nil
	case "good", "3":
		return Good, nil
	case "easy", "4":
		return Easy, nil
	}
	return 0, fmt.Errorf("%w: unknown rating %q", ErrInvalidArgument, s)
}

// MarshalJSON encodes the rating by name
func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: rating %d", ErrInvalidArgument, int(r))
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts a name or a number
func (r *Rating) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if !Rating(n).Valid() {
			return fmt.Errorf("%w: rating %d", ErrInvalidArgument, n)
		}
		*r = Rating(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRating(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

var (
	_ fmt.Stringer     = Rating(0)
	_ json.Marshaler   = Rating(0)
	_ json.Unmarshaler = (*Rating)(nil)
)
