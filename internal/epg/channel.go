package epg

import (
	"strings"
)

// Channel represents a channel from the remote catalog.
// It is immutable once created and identified by its ID.
type Channel struct {
	id   string
	name string
	logo string
}

// NewChannel creates a new Channel with the given attributes.
// It trims whitespace from every field and validates that id and name are not empty.
// Returns ErrEmptyChannelID if the id is empty or contains only whitespace.
// Returns ErrEmptyChannelName if the name is empty or contains only whitespace.
func NewChannel(id, name, logo string) (Channel, error) {
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return Channel{}, ErrEmptyChannelID
	}

	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return Channel{}, ErrEmptyChannelName
	}

	return Channel{
		id:   trimmedID,
		name: trimmedName,
		logo: strings.TrimSpace(logo),
	}, nil
}

// ID returns the channel's stable external identifier.
func (c Channel) ID() string {
	return c.id
}

// Name returns the channel's display name.
func (c Channel) Name() string {
	return c.name
}

// Logo returns the channel's logo URL, or an empty string if it has none.
func (c Channel) Logo() string {
	return c.logo
}
