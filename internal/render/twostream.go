package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"

	"keylight/internal/chroma"
	"keylight/internal/compose"
	"keylight/internal/fileutil"
	"keylight/internal/logging"
	"keylight/internal/mask"
	"keylight/internal/media"
	"keylight/internal/services"
	"keylight/internal/services/ffmpeg"
	"keylight/internal/timeline"
)

func (s *Supervisor) runKey(ctx context.Context, state *jobState, req KeyRequest, fg, bg media.Stream) {
	id := state.snapshot().ID
	logger, release := s.jobLogger(ctx, id, KindRender)
	defer release()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	tracker := newTracker(req.Sink, cancel, s.progressUpdater(state), logger)

	if !s.begin(id, state) {
		s.finalize(id, state, tracker, logger, StatusCancelled, nil, req.Output)
		return
	}
	tracker.report(StageProbe, 5, "sources probed")
	err := s.renderKey(runCtx, id, tracker, logger, req, fg, bg)
	s.settle(runCtx, id, state, tracker, logger, err, req.Output)
}

// keyAssets bundles the probed streams and the per-job resources the pixel
// loop consumes. Everything here is prepared before any stream opens.
type keyAssets struct {
	fg        media.Stream
	bg        media.Stream
	refiner   *mask.Refiner
	resampler *timeline.Resampler
	scaledW   int
	scaledH   int
	logo      *media.Frame
	logoMask  *media.Mask
}

// renderKey composites the keyed foreground over the background frame by
// frame into a silent intermediate, then attaches audio according to the
// requested mode. The caller classifies the returned error.
func (s *Supervisor) renderKey(ctx context.Context, id string, tracker *tracker, logger *slog.Logger, req KeyRequest, fg, bg media.Stream) error {
	const stage = "render"
	refiner, err := mask.NewRefiner(req.Kernel, req.Mode)
	if err != nil {
		return services.Wrap(services.ErrValidation, stage, "refiner", "", err)
	}
	fgFrames := totalFrames(fg)
	if fgFrames <= 0 {
		return services.Wrap(services.ErrValidation, stage, "probe", "foreground reports no frames: "+fg.Path, nil)
	}
	resampler, err := timeline.NewResampler(req.Window, fg.FPS, bg.FPS, fgFrames)
	if err != nil {
		return services.Wrap(services.ErrValidation, stage, "window", "", err)
	}

	assets := keyAssets{
		fg:        fg,
		bg:        bg,
		refiner:   refiner,
		resampler: resampler,
		scaledW:   scaleDim(fg.Width, req.Placement.Scale),
		scaledH:   scaleDim(fg.Height, req.Placement.Scale),
	}
	if assets.scaledW < 1 || assets.scaledH < 1 {
		return services.Wrap(services.ErrValidation, stage, "placement",
			fmt.Sprintf("scale %g collapses the foreground", req.Placement.Scale), nil)
	}
	if req.Logo != nil {
		assets.logo, assets.logoMask, err = loadLogo(req.Logo)
		if err != nil {
			return err
		}
	}

	silent := s.silentPath(id, req.Output)
	defer removeIfPresent(silent)

	if err := s.compositePass(ctx, id, tracker, req, assets, silent); err != nil {
		return err
	}
	if err := boundaryErr(ctx, tracker); err != nil {
		return err
	}
	tracker.report(StageAudio, 95, "attaching audio")
	return s.audioPass(ctx, id, logger, req, fg, bg, silent)
}

// compositePass runs the pixel loop: decode background and foreground, key
// and refine the foreground at its probed resolution whenever it advances,
// scale frame and mask together to placement size, blend, stamp the logo,
// and feed the encoder. Frame order within the job is strictly increasing;
// there is no read-ahead.
func (s *Supervisor) compositePass(ctx context.Context, id string, tracker *tracker, req KeyRequest, assets keyAssets, silent string) error {
	const stage = "render"
	background, err := s.engine.OpenSource(ctx, req.Background, assets.bg.Width, assets.bg.Height)
	if err != nil {
		return services.Wrap(services.ErrSourceUnavailable, stage, "decode", req.Background, err)
	}
	defer background.Close()

	foreground, err := s.engine.OpenSource(ctx, req.Foreground, assets.fg.Width, assets.fg.Height)
	if err != nil {
		return services.Wrap(services.ErrSourceUnavailable, stage, "decode", req.Foreground, err)
	}
	defer foreground.Close()

	sink, handle, err := s.engine.OpenSink(ctx, ffmpeg.WriterSpec{
		Path:       silent,
		Width:      assets.bg.Width,
		Height:     assets.bg.Height,
		FPS:        assets.bg.FPS,
		EncodeArgs: s.cfg.VideoEncodeArgs(),
	})
	if err != nil {
		return services.Wrap(services.ErrExecution, stage, "encode", "cannot start encoder", err)
	}
	defer sink.Close()
	if !s.registry.Bind(id, handle) {
		handle.Kill()
		return services.Wrap(services.ErrCancelled, stage, "encode", "cancelled before start", nil)
	}
	tracker.report(StageStreams, 15, "streams open")

	keyer := chroma.Precise{}
	total := totalFrames(assets.bg)
	var (
		native    *media.Frame
		overlay   *media.Frame
		weights   *media.Mask
		position  int64 = -1
		exhausted bool
	)
	for index := int64(0); ; index++ {
		if err := boundaryErr(ctx, tracker); err != nil {
			return err
		}
		canvas, err := background.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return services.Wrap(services.ErrExecution, stage, "decode", "background stream broke", err)
		}
		if assets.resampler.Visible(index) {
			target := assets.resampler.SourceIndex(index)
			advanced := false
			for !exhausted && position < target {
				frame, err := foreground.Next()
				if errors.Is(err, io.EOF) {
					// probe overestimated; freeze on the last frame
					exhausted = true
					break
				}
				if err != nil {
					return services.Wrap(services.ErrExecution, stage, "decode", "foreground stream broke", err)
				}
				native = frame
				position++
				advanced = true
			}
			if native != nil && (advanced || overlay == nil) {
				keyed := assets.refiner.Refine(keyer.Key(native, req.Bounds))
				overlay = native.Resize(assets.scaledW, assets.scaledH)
				weights = keyed.Resize(assets.scaledW, assets.scaledH)
			}
			if overlay != nil {
				if err := compose.Blend(canvas, overlay, weights, req.Placement.OffsetX, req.Placement.OffsetY, req.Placement.Opacity); err != nil {
					return services.Wrap(services.ErrExecution, stage, "blend", "", err)
				}
			}
		}
		if assets.logo != nil {
			if err := compose.Blend(canvas, assets.logo, assets.logoMask, req.Logo.OffsetX, req.Logo.OffsetY, 1); err != nil {
				return services.Wrap(services.ErrExecution, stage, "logo", "", err)
			}
		}
		if err := sink.Write(canvas); err != nil {
			return services.Wrap(services.ErrExecution, stage, "encode", "encoder rejected frame", err)
		}
		tracker.frame(index, total)
	}
	if err := sink.Close(); err != nil {
		return services.Wrap(services.ErrExecution, stage, "encode", "encoder failed", err)
	}
	return verifyArtifact(silent)
}

// probeLogo validates the watermark source the way video sources are
// probed, without decoding pixel data.
func probeLogo(spec *LogoSpec) error {
	width, height, err := media.ImageDimensions(spec.Path)
	if err != nil {
		return services.Wrap(services.ErrSourceUnavailable, "render", "probe", spec.Path, err)
	}
	if scaleDim(width, spec.Scale) < 1 || scaleDim(height, spec.Scale) < 1 {
		return services.Wrap(services.ErrValidation, "render", "probe",
			fmt.Sprintf("logo scale %g collapses %s", spec.Scale, spec.Path), nil)
	}
	return nil
}

// loadLogo decodes and scales the watermark once per job. The alpha channel
// becomes the blend mask, so transparent regions keep the canvas.
func loadLogo(spec *LogoSpec) (*media.Frame, *media.Mask, error) {
	frame, err := media.LoadImage(spec.Path)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrSourceUnavailable, "render", "logo", spec.Path, err)
	}
	frame = frame.Resize(scaleDim(frame.Width, spec.Scale), scaleDim(frame.Height, spec.Scale))
	return frame, frame.AlphaMask(), nil
}

func scaleDim(value int, scale float64) int {
	return int(math.Round(float64(value) * scale))
}

// audioPass attaches the requested track to the silent render. Any failure
// to assemble audio keeps the video-only result instead of discarding the
// job; only cancellation aborts.
func (s *Supervisor) audioPass(ctx context.Context, id string, logger *slog.Logger, req KeyRequest, fg, bg media.Stream, silent string) error {
	const stage = "render"
	args, err := audioMergeArgs(s.cfg, req.Audio, silent, fg, bg, req.Window, req.Output)
	if err != nil {
		logger.Warn("audio assembly skipped", logging.Error(err))
		return s.promoteSilent(silent, req.Output)
	}
	if args == nil {
		return s.promoteSilent(silent, req.Output)
	}
	handle, err := s.engine.Run(ctx, args, nil)
	if err != nil {
		logger.Warn("audio merge did not start, keeping video-only output", logging.Error(err))
		return s.promoteSilent(silent, req.Output)
	}
	if !s.registry.Bind(id, handle) {
		handle.Kill()
		return services.Wrap(services.ErrCancelled, stage, "audio", "cancelled before merge", nil)
	}
	if err := handle.Wait(); err != nil {
		if cerr := boundaryErr(ctx, nil); cerr != nil {
			return cerr
		}
		if !s.registry.Live(id) {
			return services.Wrap(services.ErrCancelled, stage, "audio", "cancelled during merge", nil)
		}
		logger.Warn("audio merge failed, keeping video-only output",
			logging.Alert("video_only_output"),
			logging.String("stderr", handle.StderrTail()),
			logging.Error(err))
		removeIfPresent(req.Output)
		return s.promoteSilent(silent, req.Output)
	}
	return verifyArtifact(req.Output)
}

// promoteSilent makes the video-only intermediate the final artifact.
func (s *Supervisor) promoteSilent(silent, output string) error {
	if err := fileutil.MoveFile(silent, output); err != nil {
		return services.Wrap(services.ErrExecution, "render", "finalize", "cannot move output into place", err)
	}
	return verifyArtifact(output)
}

// silentPath places the video-only intermediate in the work directory with
// the output's container extension so the engine picks the same muxer.
func (s *Supervisor) silentPath(id, output string) string {
	ext := filepath.Ext(output)
	if ext == "" {
		ext = ".mp4"
	}
	return filepath.Join(s.cfg.Paths.WorkDir, id+".video"+ext)
}

// boundaryErr is the per-step cancellation check: context death and sink
// cancellation requests both stop the job at the next boundary.
func boundaryErr(ctx context.Context, tracker *tracker) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrCancelled, "render", "", "", err)
	}
	if tracker != nil {
		if err := tracker.Err(); err != nil {
			return services.Wrap(services.ErrCancelled, "render", "sink", "cancellation requested", err)
		}
	}
	return nil
}

// totalFrames estimates a stream's frame count for progress mapping and
// resampling, falling back to duration times rate when the probe could not
// count packets.
func totalFrames(stream media.Stream) int64 {
	if stream.FrameCount > 0 {
		return stream.FrameCount
	}
	if stream.Duration > 0 && stream.FPS > 0 {
		return int64(math.Round(stream.Duration * stream.FPS))
	}
	return 0
}
