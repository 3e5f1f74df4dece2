package render

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"keylight/internal/config"
	"keylight/internal/filtergraph"
	"keylight/internal/history"
	"keylight/internal/logging"
	"keylight/internal/media"
	"keylight/internal/services"
)

// Supervisor launches composition jobs, tracks their lifecycle, archives
// every transition to the history store, and exposes cancellation through
// the shared registry. Validation and probing happen synchronously in the
// Start calls; everything after that runs on the job's own goroutine and
// surfaces only through the terminal status.
type Supervisor struct {
	cfg      *config.Config
	registry *Registry
	store    *history.Store
	engine   Engine
	logger   *slog.Logger

	mu   sync.Mutex
	jobs map[string]*jobState
}

// jobState is the live record of one job. The done channel closes when the
// job reaches a terminal status; the snapshot is immutable from then on.
type jobState struct {
	mu   sync.Mutex
	job  Job
	done chan struct{}
}

func (s *jobState) snapshot() Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.job
	job.Sources = append([]string(nil), s.job.Sources...)
	return job
}

// NewSupervisor wires the production engine. The registry may be shared
// with other components that cancel jobs; nil means the supervisor owns a
// fresh one. A nil store skips archiving.
func NewSupervisor(cfg *config.Config, registry *Registry, store *history.Store, logger *slog.Logger) (*Supervisor, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return NewSupervisorWithEngine(cfg, registry, store, engine, logger), nil
}

// NewSupervisorWithEngine injects the engine, primarily for tests.
func NewSupervisorWithEngine(cfg *config.Config, registry *Registry, store *history.Store, engine Engine, logger *slog.Logger) *Supervisor {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{
		cfg:      cfg,
		registry: registry,
		store:    store,
		engine:   engine,
		logger:   logging.NewComponentLogger(logger, "render"),
		jobs:     make(map[string]*jobState),
	}
}

// Registry returns the registry cancellation callers share.
func (s *Supervisor) Registry() *Registry { return s.registry }

// StartKey validates and probes a two-stream request, then runs the render
// on its own goroutine. The returned id is cancellable immediately, even
// before the first engine process spawns.
func (s *Supervisor) StartKey(ctx context.Context, req KeyRequest) (string, error) {
	if err := req.normalize(s.cfg); err != nil {
		return "", err
	}
	fg, err := s.engine.Probe(ctx, req.Foreground, media.StreamVideo)
	if err != nil {
		return "", services.Wrap(services.ErrSourceUnavailable, "render", "probe", req.Foreground, err)
	}
	bg, err := s.engine.Probe(ctx, req.Background, media.StreamVideo)
	if err != nil {
		return "", services.Wrap(services.ErrSourceUnavailable, "render", "probe", req.Background, err)
	}
	if req.Logo != nil {
		if err := probeLogo(req.Logo); err != nil {
			return "", err
		}
	}
	id, state := s.createJob(KindRender, []string{req.Foreground, req.Background}, req.Output)
	go s.runKey(services.WithJobID(ctx, id), state, req, fg, bg)
	return id, nil
}

// StartComposite validates and probes an N-layer request, builds the whole
// plan, then executes it on its own goroutine. No partial plan is ever
// submitted: an unprobeable source or invalid layer fails here and no job
// exists afterwards.
func (s *Supervisor) StartComposite(ctx context.Context, req CompositeRequest) (string, error) {
	if err := req.normalize(); err != nil {
		return "", err
	}
	base, err := s.engine.Probe(ctx, req.Base, media.StreamVideo)
	if err != nil {
		return "", services.Wrap(services.ErrSourceUnavailable, "compose", "probe", req.Base, err)
	}
	layers := make([]filtergraph.Layer, 0, len(req.Layers))
	sources := []string{req.Base}
	for _, spec := range req.Layers {
		stream, err := s.engine.Probe(ctx, spec.Path, media.StreamKind(spec.Kind))
		if err != nil {
			return "", services.Wrap(services.ErrSourceUnavailable, "compose", "probe", spec.Path, err)
		}
		layers = append(layers, filtergraph.Layer{
			Stream:     stream,
			Window:     spec.Window,
			Scale:      spec.Scale,
			KeepAspect: spec.KeepAspect,
			OffsetX:    spec.OffsetX,
			OffsetY:    spec.OffsetY,
			Opacity:    spec.Opacity,
			Chroma:     spec.Chroma,
		})
		sources = append(sources, spec.Path)
	}
	plan, err := filtergraph.NewBuilder().Build(base, layers)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "compose", "plan", "", err)
	}
	id, state := s.createJob(KindCompose, sources, req.Output)
	go s.runComposite(services.WithJobID(ctx, id), state, req, plan)
	return id, nil
}

// Job returns the snapshot of a job still held in memory. Terminal jobs
// stay visible until Wait retrieves them.
func (s *Supervisor) Job(id string) (Job, bool) {
	s.mu.Lock()
	state, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return Job{}, false
	}
	return state.snapshot(), true
}

// Wait blocks until the job reaches a terminal status, returns the final
// snapshot, and drops the in-memory record. An id that was never started or
// was already retrieved reports ErrNotFound.
func (s *Supervisor) Wait(ctx context.Context, id string) (Job, error) {
	s.mu.Lock()
	state, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return Job{}, services.Wrap(services.ErrNotFound, "render", "wait", "unknown job "+id, nil)
	}
	select {
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case <-state.done:
	}
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
	return state.snapshot(), nil
}

// Cancel force-stops a job: the live engine process is killed, the registry
// entry removed, and the partial output deleted by the job goroutine on its
// way out. It reports false when the job is unknown or already finished;
// cancelling a missing job is never an error.
func (s *Supervisor) Cancel(id string) bool {
	return s.registry.Cancel(id)
}

func (s *Supervisor) createJob(kind Kind, sources []string, output string) (string, *jobState) {
	id := uuid.New().String()
	state := &jobState{
		job: Job{
			ID:         id,
			Kind:       kind,
			Status:     StatusPending,
			Sources:    sources,
			OutputPath: output,
			CreatedAt:  time.Now().UTC(),
		},
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.jobs[id] = state
	s.mu.Unlock()
	s.registry.Register(id)
	s.archive(state)
	return id, state
}

// begin moves the job to running unless it was cancelled while pending.
func (s *Supervisor) begin(id string, state *jobState) bool {
	if !s.registry.Live(id) {
		return false
	}
	state.mu.Lock()
	state.job.Status = StatusRunning
	state.job.StartedAt = time.Now().UTC()
	state.mu.Unlock()
	s.archive(state)
	return true
}

// settle classifies the outcome once the job goroutine is done working.
// Losing the registry removal means a cancel won the race; context death
// and sink errors count as cancellation too.
func (s *Supervisor) settle(ctx context.Context, id string, state *jobState, tracker *tracker, logger *slog.Logger, err error, output string) {
	won := s.registry.Release(id)
	var status Status
	switch {
	case !won:
		status, err = StatusCancelled, nil
	case err == nil:
		status = StatusCompleted
	case services.Cancelled(err) || ctx.Err() != nil || tracker.Err() != nil:
		status, err = StatusCancelled, nil
	default:
		status = StatusFailed
	}
	s.finalize(id, state, tracker, logger, status, err, output)
}

// finalize records the terminal status, deletes the artifact unless the job
// completed, archives the final snapshot, and wakes waiters.
func (s *Supervisor) finalize(id string, state *jobState, tracker *tracker, logger *slog.Logger, status Status, jobErr error, output string) {
	if status == StatusCompleted {
		tracker.report(StageFinalize, 100, "completed")
	} else {
		removeIfPresent(output)
	}
	state.mu.Lock()
	state.job.Status = status
	state.job.Err = jobErr
	state.job.FinishedAt = time.Now().UTC()
	elapsed := state.job.FinishedAt.Sub(state.job.StartedAt)
	state.mu.Unlock()
	s.archive(state)
	switch status {
	case StatusCompleted:
		logger.Info("job completed",
			logging.String("output", output),
			logging.Duration("elapsed", elapsed))
	case StatusCancelled:
		logger.Info("job cancelled")
	default:
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.String(logging.FieldErrorHint, "inspect the per-job log capture for engine output"),
			logging.Error(jobErr))
	}
	close(state.done)
}

func (s *Supervisor) progressUpdater(state *jobState) func(Progress) {
	return func(p Progress) {
		state.mu.Lock()
		state.job.Progress = p
		state.mu.Unlock()
	}
}

// jobLogger derives the logger a job goroutine uses: the supervisor logger
// teed into the per-job capture file, tagged with the identity the Start
// calls stamped onto the context plus the job kind. The returned release
// closes the capture. A capture that cannot open only downgrades to the
// shared logger; it never blocks the job.
func (s *Supervisor) jobLogger(ctx context.Context, id string, kind Kind) (*slog.Logger, func()) {
	base := s.logger
	release := func() {}
	if s.cfg != nil && s.cfg.Paths.LogDir != "" {
		capture, err := logging.OpenJobLog(s.cfg.Paths.LogDir, id)
		if err != nil {
			base.Warn("job log capture unavailable", logging.Error(err))
		} else {
			base = logging.TeeLogger(base, capture.Handler())
			release = func() { _ = capture.Close() }
		}
	}
	logger := logging.WithContext(ctx, base).With(
		logging.String(logging.FieldKind, string(kind)))
	return logger, release
}

// archive pushes the current snapshot to the history store. Archive
// failures never affect the job.
func (s *Supervisor) archive(state *jobState) {
	if s.store == nil {
		return
	}
	job := state.snapshot()
	record := history.Record{
		ID:              job.ID,
		Kind:            string(job.Kind),
		Status:          string(job.Status),
		Sources:         job.Sources,
		OutputPath:      job.OutputPath,
		ProgressStage:   job.Progress.Stage,
		ProgressPercent: job.Progress.Percent,
		ProgressMessage: job.Progress.Message,
		CreatedAt:       job.CreatedAt,
	}
	if job.Err != nil {
		record.ErrorMessage = job.Err.Error()
	}
	if !job.StartedAt.IsZero() {
		started := job.StartedAt
		record.StartedAt = &started
	}
	if !job.FinishedAt.IsZero() {
		finished := job.FinishedAt
		record.FinishedAt = &finished
	}
	if err := s.store.Save(context.Background(), &record); err != nil {
		logging.WarnWithContext(s.logger, "history archive failed", "history_archive_failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldErrorHint, "check the history database file and its permissions"),
			logging.String(logging.FieldImpact, "job will be missing from the jobs list"),
			logging.Error(err))
	}
}

// verifyArtifact enforces the completion contract: the engine must leave a
// non-empty file behind.
func verifyArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrExecution, "render", "verify", "no output artifact", err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrExecution, "render", "verify", "output artifact is empty: "+path, nil)
	}
	return nil
}

func removeIfPresent(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
