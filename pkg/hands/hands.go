// Package hands performs local device actions: opening web pages and
// applications, media keys and literal typing.
package hands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// Presses is how many volume key presses one volume command sends.
	Presses = 5
	// CaptureFile is the screenshot file name inside the temp dir.
	CaptureFile = "vega-capture.png"
)

// Runner executes external programs. Start returns once the program is
// launched; Run waits for it to exit.
type Runner interface {
	Start(ctx context.Context, name string, args ...string) error
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

func (ExecRunner) Start(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go cmd.Wait()
	return nil
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Options configures an Executor.
type Options struct {
	Runner Runner
	// GOOS selects the platform commands; defaults to runtime.GOOS.
	GOOS   string
	Logger *slog.Logger
}

// Executor matches command text against an ordered action table.
type Executor struct {
	runner  Runner
	goos    string
	logger  *slog.Logger
	actions []action
}

type action struct {
	name string
	// do returns the spoken result, or false to let the next action try.
	do func(ctx context.Context, cmd string) (string, bool)
}

func New(opt Options) *Executor {
	if opt.Runner == nil {
		opt.Runner = ExecRunner{}
	}
	if opt.GOOS == "" {
		opt.GOOS = runtime.GOOS
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	e := &Executor{runner: opt.Runner, goos: opt.GOOS, logger: opt.Logger}
	e.actions = []action{
		{"youtube search", e.youtubeSearch},
		{"google search", e.googleSearch},
		{"calculator", e.when([]string{"calculator"}, "Calculator opened.", e.calculator)},
		{"open google", e.when([]string{"open google"}, "Google opened.", e.browse("https://www.google.com"))},
		{"open youtube", e.when([]string{"open youtube"}, "YouTube opened.", e.browse("https://www.youtube.com"))},
		{"file explorer", e.when([]string{"file explorer", "open files"}, "File Explorer opened.", e.fileExplorer)},
		{"volume up", e.when([]string{"volume up"}, "Volume Up", e.keys("XF86AudioRaiseVolume", Presses))},
		{"volume down", e.when([]string{"volume down"}, "Volume Down", e.keys("XF86AudioLowerVolume", Presses))},
		{"mute", e.when([]string{"mute"}, "Muted", e.keys("XF86AudioMute", 1))},
		{"minimize", e.when([]string{"minimize", "hide windows"}, "Desktop revealed", e.keys("super+d", 1))},
	}
	return e
}

// Execute runs the first action whose phrase occurs in command.
func (e *Executor) Execute(ctx context.Context, command string) (string, bool) {
	cmd := strings.ToLower(strings.TrimSpace(command))
	for _, a := range e.actions {
		if res, ok := a.do(ctx, cmd); ok {
			e.logger.Info("action", "name", a.name, "result", res)
			return res, true
		}
	}
	return "", false
}

// Capture saves a screenshot and returns its path.
func (e *Executor) Capture(ctx context.Context) (string, error) {
	path := filepath.Join(os.TempDir(), CaptureFile)
	var err error
	switch e.goos {
	case "darwin":
		err = e.runner.Run(ctx, "screencapture", "-x", path)
	case "windows":
		return "", fmt.Errorf("screen capture is not supported on %s", e.goos)
	default:
		err = e.runner.Run(ctx, "import", "-window", "root", path)
	}
	if err != nil {
		return "", fmt.Errorf("screen capture: %w", err)
	}
	return path, nil
}

// TypeText types text into the focused window.
func (e *Executor) TypeText(ctx context.Context, text string) error {
	if err := e.runner.Run(ctx, "xdotool", "type", "--clearmodifiers", "--", text); err != nil {
		return fmt.Errorf("typing failed: %w", err)
	}
	return nil
}

func (e *Executor) when(phrases []string, result string, run func(ctx context.Context) error) func(context.Context, string) (string, bool) {
	return func(ctx context.Context, cmd string) (string, bool) {
		for _, p := range phrases {
			if strings.Contains(cmd, p) {
				if err := run(ctx); err != nil {
					e.logger.Warn("action failed", "phrase", p, "err", err)
				}
				return result, true
			}
		}
		return "", false
	}
}

func (e *Executor) youtubeSearch(ctx context.Context, cmd string) (string, bool) {
	if !strings.Contains(cmd, "search") || !strings.Contains(cmd, "youtube") {
		return "", false
	}
	term := YouTubeTerm(cmd)
	e.open(ctx, "https://www.youtube.com/results?search_query="+url.QueryEscape(term))
	return "Searching YouTube for " + term, true
}

func (e *Executor) googleSearch(ctx context.Context, cmd string) (string, bool) {
	if !strings.Contains(cmd, "search") {
		return "", false
	}
	term := GoogleTerm(cmd)
	if term == "" {
		return "", false
	}
	e.open(ctx, "https://www.google.com/search?q="+url.QueryEscape(term))
	return "Searching Google for " + term, true
}

// YouTubeTerm is the text after the last "search" and before "on" or "from".
func YouTubeTerm(cmd string) string {
	i := strings.LastIndex(cmd, "search")
	words := strings.Fields(cmd[i+len("search"):])
	var term []string
	for _, w := range words {
		if w == "on" || w == "from" {
			break
		}
		term = append(term, w)
	}
	return strings.Join(term, " ")
}

// GoogleTerm is cmd without the command words.
func GoogleTerm(cmd string) string {
	var term []string
	for _, w := range strings.Fields(cmd) {
		switch w {
		case "search", "google", "on", "for":
			continue
		}
		term = append(term, w)
	}
	return strings.Join(term, " ")
}

func (e *Executor) browse(u string) func(context.Context) error {
	return func(ctx context.Context) error { return e.openURL(ctx, u) }
}

func (e *Executor) open(ctx context.Context, u string) {
	if err := e.openURL(ctx, u); err != nil {
		e.logger.Warn("open url failed", "url", u, "err", err)
	}
}

func (e *Executor) openURL(ctx context.Context, u string) error {
	switch e.goos {
	case "windows":
		return e.runner.Start(ctx, "rundll32", "url.dll,FileProtocolHandler", u)
	case "darwin":
		return e.runner.Start(ctx, "open", u)
	default:
		return e.runner.Start(ctx, "xdg-open", u)
	}
}

func (e *Executor) calculator(ctx context.Context) error {
	switch e.goos {
	case "windows":
		return e.runner.Start(ctx, "calc")
	case "darwin":
		return e.runner.Start(ctx, "open", "-a", "Calculator")
	default:
		return e.runner.Start(ctx, "gnome-calculator")
	}
}

func (e *Executor) fileExplorer(ctx context.Context) error {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	switch e.goos {
	case "windows":
		return e.runner.Start(ctx, "explorer", home)
	case "darwin":
		return e.runner.Start(ctx, "open", home)
	default:
		return e.runner.Start(ctx, "xdg-open", home)
	}
}

func (e *Executor) keys(key string, presses int) func(context.Context) error {
	return func(ctx context.Context) error {
		args := []string{"key"}
		if presses > 1 {
			args = append(args, "--repeat", fmt.Sprint(presses))
		}
		return e.runner.Run(ctx, "xdotool", append(args, key)...)
	}
}
