package render

import (
	"fmt"
	"log/slog"
	"sync"

	"keylight/internal/logging"
)

// tracker folds phase milestones and per-frame measurements into the
// monotonic, rate-limited stream the job's sink and log see. Reports can
// arrive from the job goroutine and from the engine's progress reader, so
// state is guarded. A sink error is sticky and cancels the job context,
// which kills every engine process started under it.
type tracker struct {
	sink   Sink
	cancel func()
	update func(Progress)
	logger *slog.Logger

	mu      sync.Mutex
	sampler *logging.ProgressSampler
	last    Progress
	sinkErr error
}

func newTracker(sink Sink, cancel func(), update func(Progress), logger *slog.Logger) *tracker {
	return &tracker{
		sink:    sink,
		cancel:  cancel,
		update:  update,
		logger:  logger,
		sampler: logging.NewProgressSampler(5),
	}
}

// report pushes one progress point. The percentage never decreases; the
// sink and log only see bucket or stage changes while the live job record
// tracks every report.
func (t *tracker) report(stage string, percent float64, message string) {
	t.mu.Lock()
	if percent < t.last.Percent {
		percent = t.last.Percent
	}
	if percent > 100 {
		percent = 100
	}
	point := Progress{Stage: stage, Percent: percent, Message: message}
	t.last = point
	emit := t.sampler.ShouldLog(percent, stage, message)
	sink := t.sink
	if t.sinkErr != nil {
		sink = nil
	}
	t.mu.Unlock()

	if t.update != nil {
		t.update(point)
	}
	if !emit {
		return
	}
	t.logger.Info("progress",
		logging.String("stage", stage),
		logging.Float64("percent", percent),
		logging.String("message", message))
	if sink == nil {
		return
	}
	if err := sink(point); err != nil {
		t.mu.Lock()
		if t.sinkErr == nil {
			t.sinkErr = err
		}
		t.mu.Unlock()
		if t.cancel != nil {
			t.cancel()
		}
	}
}

// frame maps composited-frame counts into the 30..95 band of the two-stream
// path. An unknown total pins the percentage at the band start and reports
// a coarse frame counter instead.
func (t *tracker) frame(index, total int64) {
	if total <= 0 {
		if index%240 == 0 {
			t.report(StageComposite, 30, fmt.Sprintf("frame %d", index+1))
		}
		return
	}
	done := index + 1
	percent := 30 + float64(done)/float64(total)*65
	if percent > 95 {
		percent = 95
	}
	t.report(StageComposite, percent, fmt.Sprintf("frame %d/%d", done, total))
}

// Err returns the sticky sink error, if any.
func (t *tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sinkErr
}

// Snapshot returns the most recent progress point.
func (t *tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
