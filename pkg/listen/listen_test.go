package listen

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func collect(got *[]string) Handler {
	return func(_ context.Context, u string) { *got = append(*got, u) }
}

func TestRunReadsStdinLines(t *testing.T) {
	l := New(Options{Stdin: strings.NewReader("hey vega\n\nx\n  what time is it  \n"), Logger: quiet()})
	var got []string
	require.NoError(t, l.Run(context.Background(), collect(&got)))
	assert.Equal(t, []string{"hey vega", "what time is it"}, got)
}

func TestRunReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.txt")
	require.NoError(t, os.WriteFile(path, []byte("go to sleep\nwake up\n"), 0o644))

	var got []string
	require.NoError(t, New(Options{Source: path, Logger: quiet()}).Run(context.Background(), collect(&got)))
	assert.Equal(t, []string{"go to sleep", "wake up"}, got)
}

func TestMissingSourceIsReported(t *testing.T) {
	l := New(Options{Source: filepath.Join(t.TempDir(), "nope"), Logger: quiet()})
	err := l.Run(context.Background(), func(context.Context, string) { t.Fatal("must not be called") })
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- New(Options{Stdin: pr, Logger: quiet()}).Run(ctx, func(context.Context, string) {})
	}()
	cancel()
	assert.NoError(t, <-done)
}
