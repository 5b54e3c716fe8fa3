package queue

import (
	"math"
	"time"
)

// PriorityPolicy queues new items and items whose due date has passed.
// Due items score clamp(1, 9, round(10 - difficulty - hoursOverdue/24)) so
// harder and more overdue items come first; new items score 3.
type PriorityPolicy struct{}

// Kind implements Policy
func (PriorityPolicy) Kind() PolicyKind {
	return PolicyPriority
}

// Build implements Policy
func (PriorityPolicy) Build(candidates []Candidate, now time.Time, opts Options) []Entry {
	entries := classify(candidates, func(c Candidate) (Entry, bool) {
		s := c.State
		if !inGroup(s, opts.Group) {
			return Entry{}, false
		}
		if s.IsNew() {
			return Entry{State: s, Priority: priorityNew, IsNew: true}, true
		}
		if s.DueDate.After(now) {
			return Entry{}, false
		}
		overdue := now.Sub(*s.DueDate).Hours()
		score := math.Round(10 - s.Difficulty - overdue/24)
		priority := int(math.Max(minDuePriority, math.Min(maxDuePriority, score)))
		return Entry{State: s, Priority: priority, HoursOverdue: overdue}, true
	})

	return sortAndLimit(entries, opts.Limit, func(a, b Entry) bool {
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.HoursOverdue != b.HoursOverdue {
			return a.HoursOverdue > b.HoursOverdue
		}
		return a.State.Difficulty > b.State.Difficulty
	})
}

var _ Policy = PriorityPolicy{}
