package application

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/alorle/epg-grabber/internal/epg"
	"github.com/alorle/epg-grabber/internal/port/driven"
)

// ChannelAggregator merges every schedule window of one channel into a guide.
type ChannelAggregator struct {
	fetcher     driven.WindowFetcher
	windows     []int
	concurrency int
}

// NewChannelAggregator creates an aggregator querying the given window offsets
// with at most concurrency fetches in flight per channel.
func NewChannelAggregator(fetcher driven.WindowFetcher, windows []int, concurrency int) *ChannelAggregator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ChannelAggregator{
		fetcher:     fetcher,
		windows:     append([]int(nil), windows...),
		concurrency: concurrency,
	}
}

// Aggregate fetches all windows of ch concurrently and returns its guide.
// Window results are concatenated in window order before the stable sort, so
// programmes sharing a start time keep their window order.
// Returns false if no window produced a programme.
func (a *ChannelAggregator) Aggregate(ctx context.Context, ch epg.Channel) (epg.Guide, bool) {
	results := make([][]epg.Programme, len(a.windows))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, window := range a.windows {
		g.Go(func() error {
			results[i] = a.fetcher.FetchWindow(ctx, ch.ID(), window)
			return nil
		})
	}
	// Window fetches never fail.
	_ = g.Wait()

	var programmes []epg.Programme
	for _, r := range results {
		programmes = append(programmes, r...)
	}

	guide, err := epg.NewGuide(ch, programmes)
	if err != nil {
		return epg.Guide{}, false
	}
	return guide, true
}
