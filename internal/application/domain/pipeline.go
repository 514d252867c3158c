package domain

import "fmt"

// DefaultPipeline is the ordered status progression. Rejected sits outside
// the order and terminates the pipeline.
var DefaultPipeline = []Status{StatusDraft, StatusApplied, StatusInterview, StatusOffer}

// Pipeline ranks statuses and decides which incoming events supersede the
// current status.
type Pipeline struct {
	rank map[Status]int
}

// NewPipeline builds a pipeline from an ordered list of statuses.
func NewPipeline(order []Status) (Pipeline, error) {
	if len(order) == 0 {
		order = DefaultPipeline
	}
	rank := make(map[Status]int, len(order))
	for i, s := range order {
		if s == StatusRejected {
			return Pipeline{}, fmt.Errorf("pipeline: %s is terminal and cannot be ranked", s)
		}
		if _, dup := rank[s]; dup {
			return Pipeline{}, fmt.Errorf("pipeline: duplicate status %q", s)
		}
		rank[s] = i
	}
	return Pipeline{rank: rank}, nil
}

// Rank returns the position of s, or -1 when s is not part of the order.
func (p Pipeline) Rank(s Status) int {
	if r, ok := p.rank[s]; ok {
		return r
	}
	return -1
}

// ShouldUpdate reports whether an event of type incoming replaces current.
// Rejected always wins and can only be replaced by another Rejected.
func (p Pipeline) ShouldUpdate(current Status, incoming EventType) bool {
	next, ok := incoming.StatusFor()
	if !ok {
		return false
	}
	if next == StatusRejected {
		return true
	}
	if current == StatusRejected {
		return false
	}
	nextRank := p.Rank(next)
	if nextRank < 0 {
		return false
	}
	return nextRank >= p.Rank(current)
}

// ParsePipeline builds a pipeline from configured status names.
func ParsePipeline(names []string) (Pipeline, error) {
	order := make([]Status, 0, len(names))
	for _, name := range names {
		s, ok := ParseStatus(name)
		if !ok {
			return Pipeline{}, fmt.Errorf("pipeline: unknown status %q", name)
		}
		order = append(order, s)
	}
	return NewPipeline(order)
}
