package render

import (
	"context"

	"keylight/internal/config"
	"keylight/internal/media"
	"keylight/internal/services/ffmpeg"
)

// Handle is one live engine process.
type Handle interface {
	PID() int
	Kill()
	Wait() error
	StderrTail() string
}

// Engine is the external transport a job drives: probing sources, opening
// decoded frame streams, encoding composited frames, and running whole
// graph invocations. NewEngine builds the production implementation; tests
// substitute stubs.
type Engine interface {
	Probe(ctx context.Context, path string, kind media.StreamKind) (media.Stream, error)
	OpenSource(ctx context.Context, path string, width, height int) (media.FrameSource, error)
	OpenSink(ctx context.Context, spec ffmpeg.WriterSpec) (media.FrameSink, Handle, error)
	Run(ctx context.Context, args []string, onProgress func(ffmpeg.Progress)) (Handle, error)
}

type ffmpegEngine struct {
	client  *ffmpeg.Client
	ffprobe string
}

// NewEngine builds the production engine from configuration.
func NewEngine(cfg *config.Config) (Engine, error) {
	client, err := ffmpeg.New(cfg.FFmpegBinary())
	if err != nil {
		return nil, err
	}
	return &ffmpegEngine{client: client, ffprobe: cfg.FFprobeBinary()}, nil
}

func (e *ffmpegEngine) Probe(ctx context.Context, path string, kind media.StreamKind) (media.Stream, error) {
	return media.ProbeStream(ctx, e.ffprobe, path, kind)
}

func (e *ffmpegEngine) OpenSource(ctx context.Context, path string, width, height int) (media.FrameSource, error) {
	return e.client.OpenFrameReader(ctx, path, width, height)
}

func (e *ffmpegEngine) OpenSink(ctx context.Context, spec ffmpeg.WriterSpec) (media.FrameSink, Handle, error) {
	writer, err := e.client.OpenFrameWriter(ctx, spec)
	if err != nil {
		return nil, nil, err
	}
	return writer, writer.Process(), nil
}

func (e *ffmpegEngine) Run(ctx context.Context, args []string, onProgress func(ffmpeg.Progress)) (Handle, error) {
	return e.client.Start(ctx, args, onProgress)
}
