package updater

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Progress is one cumulative downloaded/total snapshot published to a
// sink at the reporter's configured interval.
type Progress struct {
	Downloaded int64
	Total      int64
}

// ProgressSink receives Progress snapshots, typically forwarding them to
// the GUI event bus. It must not block the reporter for long.
type ProgressSink func(Progress)

// Reporter decouples the download fetch loop from progress publishing:
// the fetch loop sends chunk sizes into a buffered channel, and a
// dedicated goroutine drains it, accumulating and publishing to Sink on
// every Interval tick. The channel holds 256 reports and is not
// unbounded: once it is full, ReportChunk blocks the fetch loop until Run
// catches up, so a slow Sink or a Limiter wait slows the download.
type Reporter struct {
	Total    int64
	Interval time.Duration
	Sink     ProgressSink

	// Limiter optionally caps, in bytes per second, how fast Run admits
	// chunk reports. While Run waits on it the channel fills and
	// ReportChunk blocks, which throttles the fetch loop itself.
	Limiter *rate.Limiter

	chunks chan int64
}

// NewReporter constructs a Reporter publishing to sink every interval.
func NewReporter(total int64, interval time.Duration, sink ProgressSink) *Reporter {
	return &Reporter{
		Total:    total,
		Interval: interval,
		Sink:     sink,
		chunks:   make(chan int64, 256),
	}
}

// ReportChunk records a downloaded chunk's size. It returns at once while
// the channel has room and blocks while it is full; no report is dropped.
func (r *Reporter) ReportChunk(n int) {
	select {
	case r.chunks <- int64(n):
	default:
		// Buffer full: wait until Run drains a slot, so the chunk size
		// still reaches the cumulative total.
		r.chunks <- int64(n)
	}
}

// Close signals no further chunks will be reported, letting Run's
// publisher goroutine exit after flushing the final total.
func (r *Reporter) Close() {
	close(r.chunks)
}

// Run publishes cumulative progress to Sink on Interval until the chunk
// channel closes, then publishes one final snapshot and returns. If
// Limiter is set, each chunk's admission additionally waits on it —
// grounding an optional bandwidth cap on top of the publish interval.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	var downloaded int64
	dirty := false

	for {
		select {
		case n, ok := <-r.chunks:
			if !ok {
				if dirty && r.Sink != nil {
					r.Sink(Progress{Downloaded: downloaded, Total: r.Total})
				}
				return
			}
			if r.Limiter != nil {
				_ = r.Limiter.WaitN(ctx, int(n))
			}
			downloaded += n
			dirty = true
		case <-ticker.C:
			if dirty && r.Sink != nil {
				r.Sink(Progress{Downloaded: downloaded, Total: r.Total})
				dirty = false
			}
		case <-ctx.Done():
			return
		}
	}
}
