package render

import (
	"strings"
	"time"
)

// Status is the lifecycle position of a job. Terminal statuses have no
// outgoing transitions.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[status]; !ok {
		return "", false
	}
	return status, true
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Kind identifies which path produced a job.
type Kind string

const (
	// KindRender is the two-stream pixel path.
	KindRender Kind = "render"
	// KindCompose is the N-layer graph path.
	KindCompose Kind = "compose"
)

// Stage names used in progress reports.
const (
	StageProbe     = "probe"
	StagePlan      = "plan"
	StageStreams   = "streams"
	StageComposite = "composite"
	StageEngine    = "engine"
	StageAudio     = "audio"
	StageFinalize  = "finalize"
)

// Progress is one report pushed to a job's sink: a coarse stage name, a
// monotonically non-decreasing percentage, and a short message.
type Progress struct {
	Stage   string
	Percent float64
	Message string
}

// Sink receives progress for one job. Returning a non-nil error requests
// cancellation; the job stops at the next frame or phase boundary.
type Sink func(Progress) error

// Job is a point-in-time snapshot of one render. The supervisor owns the
// live record; callers only ever see copies.
type Job struct {
	ID         string
	Kind       Kind
	Status     Status
	Sources    []string
	OutputPath string
	Progress   Progress
	Err        error
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}
