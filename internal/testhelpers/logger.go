// Package testhelpers holds helpers shared by package tests.
package testhelpers

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/fittrack/internal/logging"
)

// NewLogger returns a debug-level logger writing to sink, usually NewWriter(t).
func NewLogger(sink io.Writer) *slog.Logger {
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(sink, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// Writer sends output to t.Log so logs only show for failing tests.
type Writer struct {
	t    *testing.T
	done chan struct{}
}

// NewWriter returns a Writer bound to t. Writing after the test has finished
// panics, which catches goroutines outliving their test.
func NewWriter(t *testing.T) io.Writer {
	w := &Writer{t: t, done: make(chan struct{})}
	t.Cleanup(func() { close(w.done) })
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	select {
	case <-w.done:
		panic("testhelpers: write after test completion")
	default:
	}
	if out := strings.TrimSuffix(string(p), "\n"); out != "" {
		w.t.Log(out)
	}
	return len(p), nil
}
