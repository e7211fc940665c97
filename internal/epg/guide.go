package epg

import (
	"sort"
)

// Guide is one channel's complete programme timeline for a run.
// Programmes are ordered ascending by start time; entries with equal start
// keep the order in which they were passed to NewGuide.
type Guide struct {
	channel    Channel
	programmes []Programme
}

// NewGuide creates a Guide for ch from programmes.
// The slice is copied before sorting so callers keep ownership of theirs.
// Returns ErrEmptyGuide if programmes is empty: a channel without programmes
// does not contribute to the output document.
func NewGuide(ch Channel, programmes []Programme) (Guide, error) {
	if len(programmes) == 0 {
		return Guide{}, ErrEmptyGuide
	}

	sorted := make([]Programme, len(programmes))
	copy(sorted, programmes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].start < sorted[j].start
	})

	return Guide{
		channel:    ch,
		programmes: sorted,
	}, nil
}

// Channel returns the channel this guide belongs to.
func (g Guide) Channel() Channel {
	return g.channel
}

// Programmes returns a copy of the sorted programme list.
func (g Guide) Programmes() []Programme {
	out := make([]Programme, len(g.programmes))
	copy(out, g.programmes)
	return out
}

// Len returns the number of programmes in the guide.
func (g Guide) Len() int {
	return len(g.programmes)
}
