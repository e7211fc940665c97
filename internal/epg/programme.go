package epg

import (
	"strings"
)

// Programme is a single entry of a channel's schedule.
// Start and end are epoch milliseconds. An end before the start is kept as-is;
// the upstream service does not guarantee ordering and neither do we.
type Programme struct {
	start       int64
	end         int64
	title       string
	description string
	genres      []string
	episode     string
}

// NewProgramme creates a new Programme.
// Description and episode are kept verbatim; blank genres are dropped.
// Returns ErrEmptyTitle if title is empty or contains only whitespace.
func NewProgramme(start, end int64, title, description string, genres []string, episode string) (Programme, error) {
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		return Programme{}, ErrEmptyTitle
	}

	var gs []string
	for _, g := range genres {
		if g = strings.TrimSpace(g); g != "" {
			gs = append(gs, g)
		}
	}

	return Programme{
		start:       start,
		end:         end,
		title:       trimmedTitle,
		description: description,
		genres:      gs,
		episode:     episode,
	}, nil
}

// Start returns the start time in epoch milliseconds.
func (p Programme) Start() int64 {
	return p.start
}

// End returns the end time in epoch milliseconds.
func (p Programme) End() int64 {
	return p.end
}

// Title returns the programme title. It is never empty.
func (p Programme) Title() string {
	return p.title
}

// Description returns the programme description, or an empty string.
func (p Programme) Description() string {
	return p.description
}

// Genres returns a copy of the programme's genres in upstream order.
func (p Programme) Genres() []string {
	if len(p.genres) == 0 {
		return nil
	}
	out := make([]string, len(p.genres))
	copy(out, p.genres)
	return out
}

// Episode returns the episode number exactly as the upstream service sent it, or an empty string.
func (p Programme) Episode() string {
	return p.episode
}
