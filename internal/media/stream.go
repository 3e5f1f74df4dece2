package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"keylight/internal/media/ffprobe"
)

// StreamKind identifies what a layer source contributes.
type StreamKind string

const (
	StreamVideo StreamKind = "video"
	StreamImage StreamKind = "image"
	StreamAudio StreamKind = "audio"
)

// ParseStreamKind converts a string into a known StreamKind.
func ParseStreamKind(value string) (StreamKind, bool) {
	normalized := StreamKind(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StreamVideo, StreamImage, StreamAudio:
		return normalized, true
	}
	return "", false
}

// Stream is a read-only probe result for one media source. It is created by
// ProbeStream and never mutated afterwards.
type Stream struct {
	Path       string
	Kind       StreamKind
	Width      int
	Height     int
	FPS        float64
	Duration   float64
	FrameCount int64
	HasAudio   bool
}

// Portrait reports whether the stream is taller than wide.
func (s Stream) Portrait() bool {
	return s.Height > s.Width
}

// AspectRatio returns width/height, or 0 for degenerate geometry.
func (s Stream) AspectRatio() float64 {
	if s.Height <= 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

// FrameSource delivers decoded frames in strictly increasing presentation
// order. It is exclusively owned by the job that opened it; Close must run on
// every exit path. Next returns io.EOF once the stream is exhausted.
type FrameSource interface {
	Next() (*Frame, error)
	Close() error
}

// FrameSink receives composited frames in order. Close flushes and finalizes
// the destination.
type FrameSink interface {
	Write(*Frame) error
	Close() error
}

// ProbeStream inspects a source with ffprobe and validates that it can serve
// the declared kind. Frame counts fall back to duration*fps when the
// container does not report them.
func ProbeStream(ctx context.Context, ffprobeBinary, path string, kind StreamKind) (Stream, error) {
	result, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return Stream{}, err
	}
	return StreamFromProbe(path, kind, result)
}

// StreamFromProbe builds a Stream from an already-parsed probe result.
func StreamFromProbe(path string, kind StreamKind, result ffprobe.Result) (Stream, error) {
	stream := Stream{
		Path:     path,
		Kind:     kind,
		Duration: result.DurationSeconds(),
		HasAudio: result.AudioStreamCount() > 0,
	}

	switch kind {
	case StreamAudio:
		if !stream.HasAudio {
			return Stream{}, fmt.Errorf("probe %s: no audio stream", path)
		}
		return stream, nil
	case StreamVideo, StreamImage:
		video, ok := result.FirstVideoStream()
		if !ok {
			return Stream{}, fmt.Errorf("probe %s: no video stream", path)
		}
		if video.Width <= 0 || video.Height <= 0 {
			return Stream{}, fmt.Errorf("probe %s: invalid dimensions %dx%d", path, video.Width, video.Height)
		}
		stream.Width = video.Width
		stream.Height = video.Height
		stream.FPS = video.FrameRate()
		if d := video.DurationSeconds(); d > 0 {
			stream.Duration = d
		}
		stream.FrameCount = video.FrameCount()
		if stream.FrameCount == 0 && stream.FPS > 0 && stream.Duration > 0 {
			stream.FrameCount = int64(math.Round(stream.Duration * stream.FPS))
		}
		if kind == StreamVideo && stream.FPS <= 0 {
			return Stream{}, fmt.Errorf("probe %s: no usable frame rate", path)
		}
		return stream, nil
	default:
		return Stream{}, errors.New("probe: unknown stream kind")
	}
}
