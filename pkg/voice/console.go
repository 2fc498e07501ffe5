// Package voice provides a console stand-in for speech output: text is
// printed and playback time is simulated so stop commands and status
// reporting behave as with real audio.
package voice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/johncui/vega/pkg/model"
)

// DefaultWordsPerMinute paces simulated playback.
const DefaultWordsPerMinute = 180

// Options configures a Console.
type Options struct {
	Name  string
	Voice string
	Out   io.Writer
	// Duration returns how long text takes to play. Defaults to a
	// words-per-minute estimate.
	Duration func(text string) time.Duration
	Status   model.StatusReporter
	// Asleep decides which idle state is reported after playback.
	Asleep func() bool
	Logger *slog.Logger
}

// Console is a model.Speaker and model.Player.
type Console struct {
	name     string
	voice    string
	out      io.Writer
	duration func(string) time.Duration
	status   model.StatusReporter
	asleep   func() bool
	logger   *slog.Logger

	mu      sync.Mutex
	playing chan struct{}
	wg      sync.WaitGroup
}

func NewConsole(opt Options) *Console {
	if opt.Name == "" {
		opt.Name = "VEGA"
	}
	if opt.Out == nil {
		opt.Out = os.Stdout
	}
	if opt.Duration == nil {
		opt.Duration = estimate
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	if opt.Status == nil {
		opt.Status = NewStatusLog(opt.Logger)
	}
	if opt.Asleep == nil {
		opt.Asleep = func() bool { return false }
	}
	return &Console{
		name:     opt.Name,
		voice:    opt.Voice,
		out:      opt.Out,
		duration: opt.Duration,
		status:   opt.Status,
		asleep:   opt.Asleep,
		logger:   opt.Logger,
	}
}

// Speak prints text and starts simulated playback, interrupting any
// playback in progress. It returns once playback has started.
func (c *Console) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.halt()

	c.status.SetStatus("Speaking...", model.StatusSpeaking)
	if _, err := fmt.Fprintf(c.out, "%s: %s\n", c.name, text); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	c.logger.Debug("speaking", "voice", c.voice, "chars", len(text))

	stop := make(chan struct{})
	c.mu.Lock()
	c.playing = stop
	c.mu.Unlock()

	c.wg.Add(1)
	go c.monitor(stop, c.duration(text))
	return nil
}

func (c *Console) monitor(stop chan struct{}, d time.Duration) {
	defer c.wg.Done()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-stop:
		return
	}

	c.mu.Lock()
	current := c.playing == stop
	if current {
		c.playing = nil
	}
	c.mu.Unlock()
	if current {
		c.reportIdle()
	}
}

// Busy reports whether playback is in progress.
func (c *Console) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing != nil
}

// Stop halts playback. Stopping while idle is a no-op.
func (c *Console) Stop() error {
	if c.halt() {
		c.reportIdle()
	}
	return nil
}

func (c *Console) halt() bool {
	c.mu.Lock()
	stop := c.playing
	c.playing = nil
	c.mu.Unlock()
	if stop == nil {
		return false
	}
	close(stop)
	return true
}

func (c *Console) reportIdle() {
	if c.asleep() {
		c.status.SetStatus("Sleeping (Say 'Hey "+c.name+"')", model.StatusSleep)
	} else {
		c.status.SetStatus("Listening...", model.StatusListening)
	}
}

// Close stops playback and waits for the monitor to exit.
func (c *Console) Close() error {
	c.halt()
	c.wg.Wait()
	return nil
}

func estimate(text string) time.Duration {
	words := len(strings.Fields(text))
	return time.Duration(words) * time.Minute / DefaultWordsPerMinute
}
