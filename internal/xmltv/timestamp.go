package xmltv

import (
	"fmt"
	"strconv"
	"time"
)

const timestampLayout = "20060102150405"

// Offset is a fixed UTC offset rendered verbatim after every timestamp.
// The zero value is UTC ("+0000").
type Offset struct {
	literal string
	seconds int
}

// UTC is the "+0000" offset.
var UTC = Offset{literal: "+0000"}

// ParseOffset parses a literal like "+0000" or "+0530".
func ParseOffset(s string) (Offset, error) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return Offset{}, fmt.Errorf("invalid timezone offset %q: want ±HHMM", s)
	}

	hours, err := strconv.Atoi(s[1:3])
	if err != nil || hours > 23 {
		return Offset{}, fmt.Errorf("invalid timezone offset %q: bad hours", s)
	}
	minutes, err := strconv.Atoi(s[3:5])
	if err != nil || minutes > 59 {
		return Offset{}, fmt.Errorf("invalid timezone offset %q: bad minutes", s)
	}

	seconds := hours*3600 + minutes*60
	if s[0] == '-' {
		seconds = -seconds
	}
	return Offset{literal: s, seconds: seconds}, nil
}

// String returns the offset literal.
func (o Offset) String() string {
	if o.literal == "" {
		return UTC.literal
	}
	return o.literal
}

func (o Offset) location() *time.Location {
	return time.FixedZone(o.String(), o.seconds)
}

// FormatTimestamp renders an epoch in milliseconds as "YYYYMMDDHHMMSS ±HHMM",
// converting the instant into the given fixed offset. The result does not
// depend on the host's local timezone or locale.
func FormatTimestamp(epochMS int64, o Offset) string {
	t := time.UnixMilli(epochMS).In(o.location())
	return t.Format(timestampLayout) + " " + o.String()
}
