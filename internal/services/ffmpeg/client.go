package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

var commandContext = exec.CommandContext

// stderrTailLines bounds how much diagnostic output is kept per process.
const stderrTailLines = 40

// Client launches engine invocations.
type Client struct {
	binary string
}

// New constructs a client for the given engine binary.
func New(binary string) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	return &Client{binary: binary}, nil
}

// Binary returns the configured engine binary.
func (c *Client) Binary() string { return c.binary }

// Start launches the engine with the given arguments. When onProgress is
// set, the machine-parsable progress stream is requested on stdout and each
// completed report is forwarded. The returned Process is live; the caller
// owns it and must Wait.
func (c *Client) Start(ctx context.Context, args []string, onProgress func(Progress)) (*Process, error) {
	full := []string{"-nostdin", "-hide_banner"}
	if onProgress != nil {
		full = append(full, "-progress", "pipe:1")
	}
	full = append(full, args...)

	cmd := commandContext(ctx, c.binary, full...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.binary, err)
	}

	proc := newProcess(c.binary, cmd)
	proc.captureStderr(stderr)
	proc.scan.Add(1)
	go func() {
		defer proc.scan.Done()
		var parser progressParser
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			update, ok := parser.feed(scanner.Text())
			if ok && onProgress != nil {
				onProgress(update)
			}
		}
	}()
	return proc, nil
}

// Process is one live engine invocation. Kill is safe from any goroutine and
// after exit; Wait may be called repeatedly and returns the same result.
type Process struct {
	name     string
	cmd      *exec.Cmd
	tail     *lineTail
	scan     sync.WaitGroup
	waitOnce sync.Once
	waitErr  error
}

func newProcess(name string, cmd *exec.Cmd) *Process {
	return &Process{name: name, cmd: cmd, tail: newLineTail(stderrTailLines)}
}

// PID returns the operating system process id, or 0 before start.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Kill force-terminates the process with no graceful drain.
func (p *Process) Kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// Wait blocks until the process exits and all output is drained. Non-zero
// exits carry the retained diagnostic tail.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		p.scan.Wait()
		err := p.cmd.Wait()
		if err == nil {
			return
		}
		if tail := p.tail.String(); tail != "" {
			p.waitErr = fmt.Errorf("%s: %w: %s", p.name, err, tail)
		} else {
			p.waitErr = fmt.Errorf("%s: %w", p.name, err)
		}
	})
	return p.waitErr
}

// StderrTail returns the retained diagnostic output.
func (p *Process) StderrTail() string { return p.tail.String() }

func (p *Process) captureStderr(r io.Reader) {
	p.scan.Add(1)
	go func() {
		defer p.scan.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				p.tail.add(line)
			}
		}
	}()
}

// lineTail keeps the last few non-empty lines written to it.
type lineTail struct {
	mu    sync.Mutex
	limit int
	lines []string
}

func newLineTail(limit int) *lineTail { return &lineTail{limit: limit} }

func (t *lineTail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "; ")
}
