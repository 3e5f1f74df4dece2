package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"keylight/internal/media"
)

func setHelperCommand(t *testing.T, mode string, extraEnv ...string) *[]string {
	t.Helper()
	captured := &[]string{}
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE="+mode)
		cmd.Env = append(cmd.Env, extraEnv...)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return captured
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for blank binary")
	}
	client, err := New("ffmpeg")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.Binary() != "ffmpeg" {
		t.Fatalf("Binary() = %q", client.Binary())
	}
}

func TestStartReportsProgress(t *testing.T) {
	setHelperCommand(t, "progress")
	client, _ := New("ffmpeg")

	var updates []Progress
	proc, err := client.Start(context.Background(), []string{"-i", "in.mp4", "out.mp4"}, func(p Progress) {
		updates = append(updates, p)
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := proc.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if len(updates) != 2 {
		t.Fatalf("expected 2 progress reports, got %d: %+v", len(updates), updates)
	}
	first := updates[0]
	if first.Frame != 10 || first.OutTime != 2*time.Second || first.Done {
		t.Fatalf("unexpected first report %+v", first)
	}
	last := updates[1]
	if !last.Done || last.Frame != 50 {
		t.Fatalf("unexpected final report %+v", last)
	}
}

func TestStartRequestsProgressStream(t *testing.T) {
	captured := setHelperCommand(t, "progress")
	client, _ := New("ffmpeg")

	proc, err := client.Start(context.Background(), []string{"-i", "in.mp4", "out.mp4"}, func(Progress) {})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = proc.Wait()

	args := *captured
	found := false
	for i, arg := range args {
		if arg == "-progress" && i+1 < len(args) && args[i+1] == "pipe:1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected -progress pipe:1 in args %v", args)
	}
	if args[0] != "-nostdin" {
		t.Fatalf("expected -nostdin first, got %v", args)
	}
}

func TestWaitFailureIncludesStderrTail(t *testing.T) {
	setHelperCommand(t, "fail")
	client, _ := New("ffmpeg")

	proc, err := client.Start(context.Background(), []string{"-i", "in.mp4"}, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitErr := proc.Wait()
	if waitErr == nil {
		t.Fatal("expected failure")
	}
	if want := "no such filter"; !strings.Contains(waitErr.Error(), want) {
		t.Fatalf("error %q missing stderr detail %q", waitErr, want)
	}
	// Wait is idempotent.
	if second := proc.Wait(); second == nil || second.Error() != waitErr.Error() {
		t.Fatalf("repeated Wait returned %v", second)
	}
}

func TestKillTerminatesProcess(t *testing.T) {
	setHelperCommand(t, "sleep")
	client, _ := New("ffmpeg")

	proc, err := client.Start(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	proc.Kill()
	if err := proc.Wait(); err == nil {
		t.Fatal("expected error after kill")
	}
}

func TestFrameReaderSequence(t *testing.T) {
	setHelperCommand(t, "frames",
		"FFMPEG_HELPER_WIDTH=2",
		"FFMPEG_HELPER_HEIGHT=2",
		"FFMPEG_HELPER_FRAMES=3",
	)
	client, _ := New("ffmpeg")

	reader, err := client.OpenFrameReader(context.Background(), "/in/fg.mp4", 2, 2)
	if err != nil {
		t.Fatalf("OpenFrameReader: %v", err)
	}
	defer reader.Close()

	for i := 0; i < 3; i++ {
		frame, err := reader.Next()
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if frame.Width != 2 || frame.Height != 2 {
			t.Fatalf("frame %d geometry %dx%d", i, frame.Width, frame.Height)
		}
		if frame.Pix[0] != uint8(i) {
			t.Fatalf("frame %d first byte %d", i, frame.Pix[0])
		}
	}
	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestFrameReaderRejectsBadGeometry(t *testing.T) {
	client, _ := New("ffmpeg")
	if _, err := client.OpenFrameReader(context.Background(), "/in/fg.mp4", 0, 2); err == nil {
		t.Fatal("expected geometry error")
	}
}

func TestFrameWriterRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "count")
	setHelperCommand(t, "consume", "FFMPEG_HELPER_OUT="+out)
	client, _ := New("ffmpeg")

	writer, err := client.OpenFrameWriter(context.Background(), WriterSpec{
		Path:   "/out/video.mp4",
		Width:  2,
		Height: 2,
		FPS:    25,
	})
	if err != nil {
		t.Fatalf("OpenFrameWriter: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := writer.Write(media.NewFrame(2, 2)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read count file: %v", err)
	}
	if string(data) != "32" {
		t.Fatalf("encoder consumed %s bytes, want 32", data)
	}
}

func TestFrameWriterGeometryMismatch(t *testing.T) {
	out := filepath.Join(t.TempDir(), "count")
	setHelperCommand(t, "consume", "FFMPEG_HELPER_OUT="+out)
	client, _ := New("ffmpeg")

	writer, err := client.OpenFrameWriter(context.Background(), WriterSpec{
		Path:   "/out/video.mp4",
		Width:  4,
		Height: 4,
		FPS:    25,
	})
	if err != nil {
		t.Fatalf("OpenFrameWriter: %v", err)
	}
	defer writer.Close()
	if err := writer.Write(media.NewFrame(2, 2)); err == nil {
		t.Fatal("expected geometry mismatch error")
	}
}

func TestFrameWriterEncodeFailure(t *testing.T) {
	setHelperCommand(t, "consumefail")
	client, _ := New("ffmpeg")

	writer, err := client.OpenFrameWriter(context.Background(), WriterSpec{
		Path:   "/out/video.mp4",
		Width:  2,
		Height: 2,
		FPS:    25,
	})
	if err != nil {
		t.Fatalf("OpenFrameWriter: %v", err)
	}
	_ = writer.Write(media.NewFrame(2, 2))
	if err := writer.Close(); err == nil {
		t.Fatal("expected encode failure from Close")
	}
}

func TestProgressParser(t *testing.T) {
	var parser progressParser
	lines := []string{
		"frame=25",
		"out_time_us=1000000",
		"out_time=00:00:01.000000",
		"speed=1.98x",
		"progress=continue",
	}
	var update Progress
	var ok bool
	for _, line := range lines {
		update, ok = parser.feed(line)
		if ok {
			break
		}
	}
	if !ok {
		t.Fatal("no update produced")
	}
	if update.Frame != 25 || update.OutTime != time.Second || update.Speed != 1.98 || update.Done {
		t.Fatalf("unexpected update %+v", update)
	}

	update, ok = parser.feed("progress=end")
	if !ok || !update.Done {
		t.Fatalf("expected terminal update, got %+v ok=%v", update, ok)
	}
}

func TestProgressParserSkipsUnparsableValues(t *testing.T) {
	var parser progressParser
	if _, ok := parser.feed("out_time=N/A"); ok {
		t.Fatal("N/A should not complete a block")
	}
	if _, ok := parser.feed("not a key value line"); ok {
		t.Fatal("junk should be ignored")
	}
	update, ok := parser.feed("progress=continue")
	if !ok || update.OutTime != 0 {
		t.Fatalf("unexpected update %+v", update)
	}
}

func TestParseOutTime(t *testing.T) {
	d, err := parseOutTime("00:01:30.500000")
	if err != nil {
		t.Fatalf("parseOutTime: %v", err)
	}
	if d != 90*time.Second+500*time.Millisecond {
		t.Fatalf("parsed %s", d)
	}
	if _, err := parseOutTime("90.5"); err == nil {
		t.Fatal("expected error for short form")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "progress":
		fmt.Println("frame=10")
		fmt.Println("out_time_us=2000000")
		fmt.Println("speed=2.0x")
		fmt.Println("progress=continue")
		fmt.Println("frame=50")
		fmt.Println("out_time_us=10000000")
		fmt.Println("progress=end")
		os.Exit(0)
	case "fail":
		fmt.Fprintln(os.Stderr, "[AVFilterGraph] no such filter: 'bogus'")
		os.Exit(1)
	case "sleep":
		time.Sleep(30 * time.Second)
		os.Exit(0)
	case "frames":
		width, _ := strconv.Atoi(os.Getenv("FFMPEG_HELPER_WIDTH"))
		height, _ := strconv.Atoi(os.Getenv("FFMPEG_HELPER_HEIGHT"))
		count, _ := strconv.Atoi(os.Getenv("FFMPEG_HELPER_FRAMES"))
		for i := 0; i < count; i++ {
			pix := make([]byte, width*height*4)
			for j := range pix {
				pix[j] = byte(i)
			}
			if _, err := os.Stdout.Write(pix); err != nil {
				os.Exit(1)
			}
		}
		os.Exit(0)
	case "consume":
		n, err := io.Copy(io.Discard, os.Stdin)
		if err != nil {
			os.Exit(1)
		}
		if out := os.Getenv("FFMPEG_HELPER_OUT"); out != "" {
			_ = os.WriteFile(out, []byte(strconv.FormatInt(n, 10)), 0o644)
		}
		os.Exit(0)
	case "consumefail":
		_, _ = io.Copy(io.Discard, os.Stdin)
		fmt.Fprintln(os.Stderr, "Error initializing output stream")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
