package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/johncui/vega/pkg/fsutil"
	"github.com/johncui/vega/pkg/model"
)

// DefaultLimit is the window length, preamble included, above which older
// turns are evicted.
const DefaultLimit = 20

// WindowOptions configures a conversation window.
type WindowOptions struct {
	// Limit caps the window length including the preamble.
	Limit int
	// Retain is how many recent turns survive an eviction. Defaults to Limit-1.
	Retain int
	// Path is the history file; empty disables persistence.
	Path   string
	Logger *slog.Logger
}

// Window is the bounded, ordered log of turns exchanged with the model.
// Index 0 is always the system preamble.
type Window struct {
	mu       sync.Mutex
	preamble model.Turn
	turns    []model.Turn
	limit    int
	retain   int
	path     string
	logger   *slog.Logger
}

// NewWindow returns a window holding only the preamble.
func NewWindow(preamble string, opt WindowOptions) *Window {
	if opt.Limit < 2 {
		opt.Limit = DefaultLimit
	}
	if opt.Retain <= 0 || opt.Retain >= opt.Limit {
		opt.Retain = opt.Limit - 1
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	p := model.Turn{Role: model.RoleSystem, Content: preamble}
	return &Window{
		preamble: p,
		turns:    []model.Turn{p},
		limit:    opt.Limit,
		retain:   opt.Retain,
		path:     opt.Path,
		logger:   opt.Logger,
	}
}

// Load replaces the window with the history file contents. A missing or
// corrupt file resets the window to the preamble alone.
func (w *Window) Load() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.turns = []model.Turn{w.preamble}
	if w.path == "" {
		return
	}
	data, err := os.ReadFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		w.logger.Warn("history unreadable, starting fresh", "path", w.path, "err", err)
		return
	}
	var stored []model.Turn
	if err := json.Unmarshal(data, &stored); err != nil {
		w.logger.Warn("history corrupt, starting fresh", "path", w.path, "err", err)
		return
	}
	for _, t := range stored {
		switch t.Role {
		case model.RoleUser, model.RoleAssistant:
			w.turns = append(w.turns, t)
		}
	}
	w.evict()
}

// Save rewrites the history file with the whole window.
func (w *Window) Save() error {
	w.mu.Lock()
	data, err := json.MarshalIndent(w.turns, "", "  ")
	w.mu.Unlock()
	if err != nil {
		return err
	}
	if w.path == "" {
		return nil
	}
	if err := fsutil.WriteFileAtomic(w.path, data, 0o644); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Append adds turns in order, then evicts down to the cap.
func (w *Window) Append(turns ...model.Turn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = append(w.turns, turns...)
	w.evict()
}

// evict rewrites the window to [preamble] + the most recent turns once the
// limit is exceeded. Caller holds mu.
func (w *Window) evict() {
	if len(w.turns) <= w.limit {
		return
	}
	recent := w.turns[len(w.turns)-w.retain:]
	kept := make([]model.Turn, 0, w.retain+1)
	kept = append(kept, w.preamble)
	kept = append(kept, recent...)
	w.turns = kept
}

// Turns returns a copy of the window.
func (w *Window) Turns() []model.Turn {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// With returns a copy of the window followed by next, without storing next.
func (w *Window) With(next model.Turn) []model.Turn {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.Turn, 0, len(w.turns)+1)
	out = append(out, w.turns...)
	return append(out, next)
}

// Len returns the number of turns including the preamble.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.turns)
}

// Reset drops every turn except the preamble.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = []model.Turn{w.preamble}
}
