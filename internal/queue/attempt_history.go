package queue

import "time"

// RecentWindow is how long a correct answer keeps an item out of the queue
const RecentWindow = 24 * time.Hour

// AttemptHistoryPolicy ranks items by their most recent attempt: misses
// first, then unseen items (when requested), then items answered correctly
// more than a day ago. Items answered correctly within the last day are skipped.
type AttemptHistoryPolicy struct{}

// Kind implements Policy
func (AttemptHistoryPolicy) Kind() PolicyKind {
	return PolicyAttemptHistory
}

// Build implements Policy
func (AttemptHistoryPolicy) Build(candidates []Candidate, now time.Time, opts Options) []Entry {
	entries := classify(candidates, func(c Candidate) (Entry, bool) {
		if !inGroup(c.State, opts.Group) {
			return Entry{}, false
		}
		a := c.LastAttempt
		if a == nil {
			if !opts.IncludeNew {
				return Entry{}, false
			}
			return Entry{State: c.State, Priority: priorityNew, IsNew: true}, true
		}

		at := a.AttemptedAt
		e := Entry{State: c.State, LastAttempt: &at}
		switch {
		case !a.IsCorrect:
			e.Priority = priorityFailed
		case now.Sub(at) > RecentWindow:
			e.Priority = priorityRevisit
		default:
			return Entry{}, false
		}
		return e, true
	})

	return sortAndLimit(entries, opts.Limit, func(a, b Entry) bool {
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.LastAttempt == nil || b.LastAttempt == nil {
			return false
		}
		return a.LastAttempt.Before(*b.LastAttempt)
	})
}

var _ Policy = AttemptHistoryPolicy{}
