// Package listen feeds transcribed utterances to the engine one at a time.
package listen

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Stdin names standard input as the transcript source.
const Stdin = "-"

// Handler processes one utterance to completion.
type Handler func(ctx context.Context, utterance string)

// Options configures a Listener.
type Options struct {
	// Source is a file or FIFO path, or Stdin.
	Source string
	Stdin  io.Reader
	Logger *slog.Logger
}

// Listener reads one utterance per line.
type Listener struct {
	source string
	stdin  io.Reader
	logger *slog.Logger
}

func New(opt Options) *Listener {
	if opt.Source == "" {
		opt.Source = Stdin
	}
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Listener{source: opt.Source, stdin: opt.Stdin, logger: opt.Logger}
}

// Run calls handle for every utterance until the source ends or ctx is
// done. Handling is sequential: the next line is not read until handle
// returns. A source that cannot be opened is reported once and returned.
func (l *Listener) Run(ctx context.Context, handle Handler) error {
	r, closer, err := l.open()
	if err != nil {
		l.logger.Error("listener unavailable", "source", l.source, "err", err)
		return err
	}
	if closer != nil {
		defer closer.Close()
		stop := context.AfterFunc(ctx, func() { closer.Close() })
		defer stop()
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	l.logger.Info("listening", "source", l.source)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil && ctx.Err() == nil {
						return fmt.Errorf("read transcript: %w", err)
					}
				default:
				}
				return nil
			}
			text := strings.TrimSpace(line)
			if len([]rune(text)) <= 1 {
				continue
			}
			l.logger.Info("heard", "text", text)
			handle(ctx, text)
		}
	}
}

func (l *Listener) open() (io.Reader, io.Closer, error) {
	if l.source == Stdin {
		return l.stdin, nil, nil
	}
	f, err := os.Open(l.source)
	if err != nil {
		return nil, nil, fmt.Errorf("open transcript source: %w", err)
	}
	return f, f, nil
}
