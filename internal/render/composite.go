package render

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"keylight/internal/config"
	"keylight/internal/filtergraph"
	"keylight/internal/logging"
	"keylight/internal/services"
	"keylight/internal/services/ffmpeg"
)

func (s *Supervisor) runComposite(ctx context.Context, state *jobState, req CompositeRequest, plan *filtergraph.Plan) {
	id := state.snapshot().ID
	logger, release := s.jobLogger(ctx, id, KindCompose)
	defer release()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	tracker := newTracker(req.Sink, cancel, s.progressUpdater(state), logger)

	if !s.begin(id, state) {
		s.finalize(id, state, tracker, logger, StatusCancelled, nil, req.Output)
		return
	}
	tracker.report(StageProbe, 5, "sources probed")
	tracker.report(StagePlan, 15, "graph built")
	err := s.executePlan(runCtx, id, tracker, logger, plan, req.Output)
	s.settle(runCtx, id, state, tracker, logger, err, req.Output)
}

// executePlan runs one engine invocation for the plan. When the engine
// rejects a graph that carries audio, the plan is retried without its audio
// chain so the video still ships; the original failure surfaces only if the
// retry fails too.
func (s *Supervisor) executePlan(ctx context.Context, id string, tracker *tracker, logger *slog.Logger, plan *filtergraph.Plan, output string) error {
	err := s.runPlan(ctx, id, tracker, plan, output)
	if err == nil {
		return verifyArtifact(output)
	}
	if cerr := boundaryErr(ctx, tracker); cerr != nil {
		return cerr
	}
	if !s.registry.Live(id) {
		return services.Wrap(services.ErrCancelled, "compose", "engine", "cancelled", nil)
	}
	if plan.AudioMap == "" {
		return err
	}
	logger.Warn("engine rejected the graph, retrying without audio",
		logging.Alert("video_only_output"),
		logging.Error(err))
	removeIfPresent(output)
	if retryErr := s.runPlan(ctx, id, tracker, plan.VideoOnly(), output); retryErr != nil {
		return err
	}
	return verifyArtifact(output)
}

func (s *Supervisor) runPlan(ctx context.Context, id string, tracker *tracker, plan *filtergraph.Plan, output string) error {
	const stage = "compose"
	args := planArgs(s.cfg, plan, output)
	tracker.report(StageEngine, 30, "engine starting")
	var once sync.Once
	handle, err := s.engine.Run(ctx, args, func(p ffmpeg.Progress) {
		if p.Done {
			return
		}
		once.Do(func() {
			tracker.report(StageEngine, 60, "engine processing")
		})
	})
	if err != nil {
		return services.Wrap(services.ErrExecution, stage, "engine", "cannot start", err)
	}
	if !s.registry.Bind(id, handle) {
		handle.Kill()
		return services.Wrap(services.ErrCancelled, stage, "engine", "cancelled before start", nil)
	}
	if err := handle.Wait(); err != nil {
		return services.Wrap(services.ErrExecution, stage, "engine", handle.StderrTail(), err)
	}
	tracker.report(StageEngine, 95, "engine finished")
	return nil
}

// planArgs lays out one engine invocation: the input roster in plan order,
// the rendered graph, stream maps, encode settings, and the target duration
// cap that keeps looped inputs from overrunning the canvas.
func planArgs(cfg *config.Config, plan *filtergraph.Plan, output string) []string {
	args := []string{"-y"}
	for _, in := range plan.Inputs {
		args = append(args, in.Options...)
		args = append(args, "-i", in.Path)
	}
	if !plan.Graph.Empty() {
		args = append(args, "-filter_complex", plan.Graph.Render())
	}
	args = append(args, "-map", plan.VideoMap)
	if plan.AudioMap != "" {
		args = append(args, "-map", plan.AudioMap)
	}
	args = append(args, cfg.VideoEncodeArgs()...)
	if plan.AudioMap != "" {
		args = append(args, cfg.AudioEncodeArgs()...)
	}
	if plan.TargetDuration > 0 {
		args = append(args, "-t", strconv.FormatFloat(plan.TargetDuration, 'f', -1, 64))
	}
	args = append(args, cfg.MuxArgs()...)
	return append(args, output)
}
