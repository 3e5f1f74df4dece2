package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"keylight/internal/media"
)

// FrameReader decodes one source into raw RGBA frames over a pipe. It
// implements media.FrameSource: frames arrive in strictly increasing
// presentation order and Next returns io.EOF once the stream is exhausted.
type FrameReader struct {
	proc   *Process
	stdout io.ReadCloser
	width  int
	height int
	closed bool
}

// OpenFrameReader spawns a decoder for the source at its native geometry.
func (c *Client) OpenFrameReader(ctx context.Context, path string, width, height int) (*FrameReader, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame reader %s: invalid geometry %dx%d", path, width, height)
	}
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-i", path,
		"-f", "rawvideo", "-pix_fmt", "rgba", "-",
	}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start decoder for %s: %w", path, err)
	}
	proc := newProcess(c.binary, cmd)
	proc.captureStderr(stderr)
	return &FrameReader{proc: proc, stdout: stdout, width: width, height: height}, nil
}

// Next returns the next decoded frame. A truncated trailing frame counts as
// end of stream.
func (r *FrameReader) Next() (*media.Frame, error) {
	frame := media.NewFrame(r.width, r.height)
	if _, err := io.ReadFull(r.stdout, frame.Pix); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return frame, nil
}

// Close stops the decoder. The reader may be abandoned mid-stream, so the
// process is terminated unconditionally and its exit status discarded.
func (r *FrameReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.proc.Kill()
	err := r.stdout.Close()
	_ = r.proc.Wait()
	return err
}

// FrameWriter feeds composited RGBA frames to an encoder over a pipe. It
// implements media.FrameSink.
type FrameWriter struct {
	proc   *Process
	stdin  io.WriteCloser
	width  int
	height int
	closed bool
}

// WriterSpec describes the encoder side of the two-stream pixel path. The
// encode arguments come from configuration and are inserted between the raw
// input and the output path.
type WriterSpec struct {
	Path       string
	Width      int
	Height     int
	FPS        float64
	EncodeArgs []string
}

// OpenFrameWriter spawns an encoder consuming raw frames on stdin.
func (c *Client) OpenFrameWriter(ctx context.Context, spec WriterSpec) (*FrameWriter, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("frame writer %s: invalid geometry %dx%d", spec.Path, spec.Width, spec.Height)
	}
	if spec.FPS <= 0 {
		return nil, fmt.Errorf("frame writer %s: invalid frame rate %g", spec.Path, spec.FPS)
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"-r", strconv.FormatFloat(spec.FPS, 'f', -1, 64),
		"-i", "-",
	}
	args = append(args, spec.EncodeArgs...)
	args = append(args, spec.Path)

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start encoder for %s: %w", spec.Path, err)
	}
	proc := newProcess(c.binary, cmd)
	proc.captureStderr(stderr)
	return &FrameWriter{proc: proc, stdin: stdin, width: spec.Width, height: spec.Height}, nil
}

// Process exposes the live encoder handle for cancellation.
func (w *FrameWriter) Process() *Process { return w.proc }

// Write sends one frame to the encoder. A killed encoder surfaces here as a
// broken pipe, which is the job's abort point.
func (w *FrameWriter) Write(frame *media.Frame) error {
	if frame.Width != w.width || frame.Height != w.height {
		return fmt.Errorf("write frame: got %dx%d, want %dx%d", frame.Width, frame.Height, w.width, w.height)
	}
	if err := frame.ValidateGeometry(); err != nil {
		return err
	}
	if _, err := w.stdin.Write(frame.Pix); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close flushes the stream and waits for the encoder. A non-zero exit is an
// encode failure and is returned with the diagnostic tail.
func (w *FrameWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.stdin.Close(); err != nil {
		_ = w.proc.Wait()
		return fmt.Errorf("close encoder input: %w", err)
	}
	return w.proc.Wait()
}

var (
	_ media.FrameSource = (*FrameReader)(nil)
	_ media.FrameSink   = (*FrameWriter)(nil)
)
