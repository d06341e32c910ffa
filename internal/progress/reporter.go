package progress

import (
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// Reporter debounces byte-count deltas into periodic Progress events. It
// emits at most one tick per reportThreshold consumed bytes so that fast
// runs do not flood the channel.
type Reporter[T any] struct {
	total           uint64
	processed       uint64
	lastReported    uint64
	reportThreshold uint64
	events          chan<- Event[T]
}

// NewReporter creates a Reporter against a source of total bytes. The
// threshold defaults to 1% of the source size.
func NewReporter[T any](total uint64, events chan<- Event[T]) *Reporter[T] {
	threshold := total / 100
	if threshold == 0 {
		threshold = 1
	}
	return &Reporter[T]{
		total:           total,
		reportThreshold: threshold,
		events:          events,
	}
}

// MakeProgress accounts for consumed bytes and emits a Progress event when
// the configured delta has been crossed since the last emission.
func (r *Reporter[T]) MakeProgress(consumed int) {
	r.processed += uint64(consumed)
	if r.processed-r.lastReported < r.reportThreshold {
		return
	}
	r.lastReported = r.processed
	log.Debug("progress", "processed", humanize.Bytes(r.processed),
		"total", humanize.Bytes(r.total))
	select {
	case r.events <- NewProgress[T](r.processed, r.total):
	default:
		// Channel congested, the tick is expendable.
	}
}

// Processed returns the number of bytes accounted for so far.
func (r *Reporter[T]) Processed() uint64 {
	return r.processed
}
