package queue

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/example/wordsrs/pkg/models"
)

// PolicyKind names a due-queue selection strategy
type PolicyKind string

const (
	// PolicyPriority scores items by overdue time and difficulty
	PolicyPriority PolicyKind = "priority"
	// PolicyAttemptHistory orders items by the outcome of their last attempt
	PolicyAttemptHistory PolicyKind = "attempt_history"
)

const (
	priorityFailed   = 1
	priorityNew      = 3
	priorityRevisit  = 5
	minDuePriority   = 1
	maxDuePriority   = 9
	parallelMinItems = 2048
)

// Candidate is an item state paired with its most recent attempt, if any
type Candidate struct {
	State       models.ItemState
	LastAttempt *models.Attempt
}

// Options narrows and bounds a queue
type Options struct {
	Group      string // empty means every group
	Limit      int    // <= 0 means no limit
	IncludeNew bool   // attempt-history policy only
}

// Entry is one queued item with the values it was ranked by
type Entry struct {
	State        models.ItemState `json:"state"`
	Priority     int              `json:"priority"`
	IsNew        bool             `json:"is_new"`
	HoursOverdue float64          `json:"hours_overdue"`
	LastAttempt  *time.Time       `json:"last_attempt,omitempty"`
}

// Policy builds an ordered review queue from candidates
type Policy interface {
	Kind() PolicyKind
	Build(candidates []Candidate, now time.Time, opts Options) []Entry
}

// NewPolicy returns the strategy registered under kind
func NewPolicy(kind PolicyKind) (Policy, error) {
	switch kind {
	case PolicyPriority, "":
		return PriorityPolicy{}, nil
	case PolicyAttemptHistory:
		return AttemptHistoryPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown queue policy %q", kind)
}

// FromStates wraps bare item states as candidates without attempts
func FromStates(states []models.ItemState) []Candidate {
	candidates := make([]Candidate, len(states))
	for i, s := range states {
		candidates[i] = Candidate{State: s}
	}
	return candidates
}

// classify runs fn over every candidate and keeps the entries it accepts.
// Large inputs are split across goroutines; the output keeps input order.
func classify(candidates []Candidate, fn func(Candidate) (Entry, bool)) []Entry {
	type slot struct {
		entry Entry
		ok    bool
	}
	slots := make([]slot, len(candidates))

	workers := runtime.GOMAXPROCS(0)
	if len(candidates) < parallelMinItems || workers < 2 {
		for i, c := range candidates {
			slots[i].entry, slots[i].ok = fn(c)
		}
	} else {
		chunk := (len(candidates) + workers - 1) / workers
		var wg sync.WaitGroup
		for start := 0; start < len(candidates); start += chunk {
			end := start + chunk
			if end > len(candidates) {
				end = len(candidates)
			}
			wg.Add(1)
			go func(start, end int) {
				defer wg.Done()
				for i := start; i < end; i++ {
					slots[i].entry, slots[i].ok = fn(candidates[i])
				}
			}(start, end)
		}
		wg.Wait()
	}

	entries := make([]Entry, 0, len(candidates))
	for _, s := range slots {
		if s.ok {
			entries = append(entries, s.entry)
		}
	}
	return entries
}

func sortAndLimit(entries []Entry, limit int, less func(a, b Entry) bool) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i], entries[j])
	})
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func inGroup(state models.ItemState, group string) bool {
	return group == "" || state.GroupTag == group
}
