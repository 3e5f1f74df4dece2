package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerNilHandlers(t *testing.T) {
	h := newFanoutHandler(nil, nil, nil)
	if _, ok := h.(NoopHandler); !ok {
		t.Errorf("expected NoopHandler for all nil handlers, got %T", h)
	}
}

func TestNewFanoutHandlerUnwrapsSingleHandler(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)

	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Error("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerEnabledWhenAnyAccepts(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	info := slog.NewJSONHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewJSONHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := newFanoutHandler(info, debug)

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected fanout enabled for debug via the debug handler")
	}
	if h.Enabled(context.Background(), slog.LevelDebug-4) {
		t.Error("expected fanout disabled below every handler's level")
	}
}

func TestFanoutHandlerRoutesByHandlerLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	info := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(newFanoutHandler(info, debug))
	logger.Debug("debug only message")
	logger.Info("shared message")

	if bytes.Contains(infoBuf.Bytes(), []byte("debug only message")) {
		t.Error("info handler should not receive debug records")
	}
	if !bytes.Contains(debugBuf.Bytes(), []byte("debug only message")) {
		t.Error("debug handler should receive debug records")
	}
	if !bytes.Contains(infoBuf.Bytes(), []byte("shared message")) || !bytes.Contains(debugBuf.Bytes(), []byte("shared message")) {
		t.Error("both handlers should receive info records")
	}
}

func TestFanoutHandlerWithAttrsReachesAllHandlers(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("key", "value")}))
	logger.Info("test")

	if !bytes.Contains(buf1.Bytes(), []byte(`"key"`)) || !bytes.Contains(buf2.Bytes(), []byte(`"key"`)) {
		t.Error("expected key attribute in both outputs")
	}
}

func TestTeeLogger(t *testing.T) {
	var baseBuf, teeBuf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&baseBuf, nil))

	logger := TeeLogger(base, slog.NewJSONHandler(&teeBuf, nil))
	logger.Info("teed message")

	if baseBuf.Len() == 0 {
		t.Error("expected output in base buffer")
	}
	if teeBuf.Len() == 0 {
		t.Error("expected output in tee buffer")
	}
}

func TestTeeLoggerNilBase(t *testing.T) {
	var teeBuf bytes.Buffer
	logger := TeeLogger(nil, slog.NewJSONHandler(&teeBuf, nil))
	logger.Info("no base")

	if teeBuf.Len() == 0 {
		t.Error("expected output in tee buffer")
	}
}

func TestTeeHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := TeeHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))

	slog.New(h).Info("tee handler test")

	if buf1.Len() == 0 || buf2.Len() == 0 {
		t.Error("expected output in both buffers")
	}
}
