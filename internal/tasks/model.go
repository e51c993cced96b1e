package tasks

import (
	"strings"
	"time"
)

type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Filter selects which tasks a view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

var Filters = []Filter{FilterAll, FilterPending, FilterCompleted}

// ParseFilter is lenient: anything unrecognized selects all tasks.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterPending:
		return FilterPending
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

func (f Filter) Match(t Task) bool {
	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Apply returns the matching tasks in their original relative order.
// The input slice is never modified.
func (f Filter) Apply(list []Task) []Task {
	out := make([]Task, 0, len(list))
	for _, t := range list {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// positions maps each index of the filtered view to its index in list.
func (f Filter) positions(list []Task) []int {
	var out []int
	for i, t := range list {
		if f.Match(t) {
			out = append(out, i)
		}
	}
	return out
}
