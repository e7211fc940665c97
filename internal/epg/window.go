package epg

import "time"

// WindowDuration is the span of schedule the upstream service returns per offset.
const WindowDuration = 3 * time.Hour

// Windows enumerates the window offsets to query for each channel,
// ascending from first. A non-positive count yields no windows.
func Windows(first, count int) []int {
	if count <= 0 {
		return nil
	}

	windows := make([]int, count)
	for i := range windows {
		windows[i] = first + i
	}
	return windows
}

// Lookahead returns the total schedule span covered by count windows.
func Lookahead(count int) time.Duration {
	if count <= 0 {
		return 0
	}
	return time.Duration(count) * WindowDuration
}
