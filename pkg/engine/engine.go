// Package engine is the dialogue controller. It owns the wake state, the
// conversation window and the running flag, and processes one utterance at
// a time: gate, route, augment, query the model, act on directives, speak.
package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/johncui/vega/pkg/engine/augment"
	"github.com/johncui/vega/pkg/engine/directive"
	"github.com/johncui/vega/pkg/engine/router"
	"github.com/johncui/vega/pkg/engine/wake"
	"github.com/johncui/vega/pkg/memory"
	"github.com/johncui/vega/pkg/model"
	"github.com/johncui/vega/pkg/scheduler"
)

const (
	Temperature = 0.6
	MaxTokens   = 400

	// ImageMarker replaces the image when a vision turn is stored.
	ImageMarker = " [Image]"

	DefaultQuitGrace = 3 * time.Second

	SleepAck = "Going to sleep."
	WakeAck  = "Systems online."
	Farewell = "Shutting down systems."
)

// Rule names reported in Response.Rule.
const (
	RuleWake    = "wake"
	RuleSleep   = "sleep"
	RuleStop    = "stop"
	RuleQuit    = "quit"
	RuleActions = "actions"
	RuleModel   = "model"
)

// Phrases are the lifecycle vocabularies. Each is matched against the whole
// normalized utterance, except Wake which is matched as a substring while
// asleep.
type Phrases struct {
	Wake  []string
	Sleep []string
	Stop  []string
	Quit  []string
}

// Options wires the engine to its collaborators. Only Model is required.
type Options struct {
	Name        string
	TextModel   string
	VisionModel string
	Phrases     Phrases

	// Window defaults to an unpersisted window with Preamble(Name).
	Window *memory.Window
	Memory model.FactMemory
	Model  model.ModelClient
	// Augmenter defaults to one built over Memory and Searcher.
	Augmenter *augment.Augmenter
	Searcher  model.Searcher
	Actions   model.ActionExecutor
	Injector  model.TextInjector
	Capturer  model.ScreenCapturer
	Speaker   model.Speaker
	Player    model.Player
	Status    model.StatusReporter

	QuitGrace time.Duration
	// OnShutdown runs once after the quit grace period, when the engine
	// has stopped audio and pending timers.
	OnShutdown func()
	Logger     *slog.Logger
}

// Response describes how one utterance was handled.
type Response struct {
	// Discarded is set when the gate dropped the utterance.
	Discarded bool   `json:"discarded,omitempty"`
	OneShot   bool   `json:"one_shot,omitempty"`
	Rule      string `json:"rule,omitempty"`
	// Reply is the spoken text, or the action result for RuleActions.
	Reply     string `json:"reply,omitempty"`
	Model     string `json:"model,omitempty"`
	Directive string `json:"directive,omitempty"`
	TimerID   string `json:"timer_id,omitempty"`
	// Remembered is the fact stored while augmenting, if any.
	Remembered *model.Fact `json:"remembered,omitempty"`
}

// Snapshot is the externally visible engine state.
type Snapshot struct {
	Wake          string   `json:"wake"`
	Running       bool     `json:"running"`
	TextModel     string   `json:"text_model"`
	VisionModel   string   `json:"vision_model"`
	Turns         int      `json:"turns"`
	PendingTimers int      `json:"pending_timers"`
	Rules         []string `json:"rules"`
}

// Engine is the single owner of dialogue state.
type Engine struct {
	mu sync.Mutex

	name      string
	gate      *wake.Gate
	router    *router.Router
	stopSet   func(router.Input) bool
	window    *memory.Window
	augmenter *augment.Augmenter
	model     model.ModelClient
	actions   model.ActionExecutor
	injector  model.TextInjector
	capturer  model.ScreenCapturer
	speaker   model.Speaker
	player    model.Player
	status    model.StatusReporter
	sched     *scheduler.Scheduler
	logger    *slog.Logger

	modelsMu    sync.RWMutex
	textModel   string
	visionModel string

	running    atomic.Bool
	quitGrace  time.Duration
	onShutdown func()
	quitOnce   sync.Once
	quitting   atomic.Bool
	downOnce   sync.Once

	// current collects details of the utterance being handled. Guarded by mu.
	current *Response
}

// Preamble is the fixed system turn that opens every conversation.
func Preamble(name string) string {
	return "You are " + name + ". " +
		"1. TIMER: Output '[TIMER: seconds, message]'. " +
		"2. TYPE: Output '[TYPE: text]'. " +
		"3. SEARCH: Use [SEARCH RESULT] to answer news/weather. " +
		"4. VISION: If an image is provided, analyze it directly. " +
		"Do not apologize. Be concise."
}

func New(opt Options) (*Engine, error) {
	if opt.Model == nil {
		return nil, fmt.Errorf("engine: model client is required")
	}
	if opt.Name == "" {
		opt.Name = "VEGA"
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	if opt.Window == nil {
		opt.Window = memory.NewWindow(Preamble(opt.Name), memory.WindowOptions{Logger: opt.Logger})
	}
	if opt.Augmenter == nil {
		opt.Augmenter = augment.New(augment.Options{Memory: opt.Memory, Searcher: opt.Searcher, Logger: opt.Logger})
	}
	if opt.Status == nil {
		opt.Status = logStatus{opt.Logger}
	}
	if opt.QuitGrace <= 0 {
		opt.QuitGrace = DefaultQuitGrace
	}

	e := &Engine{
		name:        opt.Name,
		gate:        wake.NewGate(opt.Phrases.Wake),
		stopSet:     router.Phrases(opt.Phrases.Stop...),
		window:      opt.Window,
		augmenter:   opt.Augmenter,
		model:       opt.Model,
		actions:     opt.Actions,
		injector:    opt.Injector,
		capturer:    opt.Capturer,
		speaker:     opt.Speaker,
		player:      opt.Player,
		status:      opt.Status,
		logger:      opt.Logger,
		textModel:   opt.TextModel,
		visionModel: opt.VisionModel,
		quitGrace:   opt.QuitGrace,
		onShutdown:  opt.OnShutdown,
	}
	e.running.Store(true)
	e.sched = scheduler.New(e.running.Load)
	e.router = router.New(
		router.Rule{Name: RuleSleep, Match: router.Phrases(opt.Phrases.Sleep...), Handle: e.handleSleep},
		router.Rule{Name: RuleStop, Match: e.stopSet, Handle: e.handleStop},
		router.Rule{Name: RuleQuit, Match: router.Phrases(opt.Phrases.Quit...), Handle: e.handleQuit},
		router.Rule{Name: RuleActions, Match: router.Always, Handle: e.handleAction},
		router.Rule{Name: RuleModel, Match: router.Always, Handle: e.handleQuery},
	)
	return e, nil
}

// Handle processes one transcribed utterance to completion. Calls are
// serialized.
func (e *Engine) Handle(ctx context.Context, utterance string) Response {
	if !e.running.Load() {
		return Response{Discarded: true}
	}
	normalized := wake.Normalize(utterance)
	if normalized == "" {
		return Response{Discarded: true}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// A stop phrase cuts playback whatever the wake state.
	if e.stopSet(router.Input{Normalized: normalized}) && e.player != nil && e.player.Busy() {
		e.interrupt()
		return Response{Rule: RuleStop}
	}

	adm := e.gate.Admit(normalized)
	switch adm.Verdict {
	case wake.Discard:
		return Response{Discarded: true}
	case wake.WakeUp:
		e.gate.Wake()
		e.ackWake(ctx)
		return Response{Rule: RuleWake, Reply: WakeAck}
	}

	in := router.Input{Raw: strings.TrimSpace(utterance), Normalized: adm.Text, OneShot: adm.OneShot}
	if adm.OneShot {
		e.logger.Info("one-shot command", "text", adm.Text)
		in.Raw = adm.Text
	}
	e.logger.Info("utterance", "text", in.Raw)

	e.current = &Response{OneShot: adm.OneShot}
	defer func() { e.current = nil }()

	out, ok := e.router.Route(ctx, in)
	res := *e.current
	if ok {
		res.Rule = out.Rule
		res.Reply = out.Reply
	}
	return res
}

func (e *Engine) handleSleep(ctx context.Context, _ router.Input) (string, bool) {
	if !e.gate.Sleep() {
		return "", true
	}
	e.ackSleep(ctx)
	return SleepAck, true
}

func (e *Engine) handleStop(context.Context, router.Input) (string, bool) {
	if e.player != nil && e.player.Busy() {
		e.interrupt()
	}
	return "", true
}

func (e *Engine) handleQuit(ctx context.Context, _ router.Input) (string, bool) {
	e.quitOnce.Do(func() {
		e.logger.Info("shutdown scheduled", "grace", e.quitGrace)
		e.quitting.Store(true)
		time.AfterFunc(e.quitGrace, e.Shutdown)
	})
	e.say(ctx, Farewell)
	return Farewell, true
}

func (e *Engine) handleAction(ctx context.Context, in router.Input) (string, bool) {
	if e.actions == nil {
		return "", false
	}
	result, ok := e.actions.Execute(ctx, in.Raw)
	if !ok {
		return "", false
	}
	e.logger.Info("action executed", "result", result)
	if e.gate.State() == model.Asleep {
		e.status.SetStatus("Sleeping...", model.StatusSleep)
	} else {
		e.status.SetStatus("Executed", model.StatusIdle)
	}
	return result, true
}

func (e *Engine) handleQuery(ctx context.Context, in router.Input) (string, bool) {
	e.status.SetStatus("Processing...", model.StatusThinking)

	text := in.Raw
	var image string
	if e.capturer != nil && e.augmenter.WantsVision(in.Normalized) {
		url, err := e.captureScreen(ctx)
		if err != nil {
			reply := fmt.Sprintf("Error reading image: %v", err)
			e.say(ctx, reply)
			return reply, true
		}
		image = url
		text += augment.VisionSuffix
	}

	aug := e.augmenter.Augment(ctx, in.Raw)
	e.current.Remembered = aug.Remembered

	content := text + aug.Annotation
	turn := model.Turn{Role: model.RoleUser, Content: content}
	modelID := e.TextModel()
	if image != "" {
		turn.Content = ""
		turn.Parts = []model.Part{
			{Type: model.PartText, Text: content},
			{Type: model.PartImage, ImageURL: image},
		}
		modelID = e.VisionModel()
	}
	e.current.Model = modelID

	reply, err := e.model.Complete(ctx, model.CompletionRequest{
		Model:       modelID,
		Turns:       e.window.With(turn),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		e.logger.Error("model query failed", "model", modelID, "err", err)
		reply = "Brain Error: " + err.Error()
		e.say(ctx, reply)
		return reply, true
	}

	stored := text
	if image != "" {
		stored += ImageMarker
	}
	e.window.Append(
		model.Turn{Role: model.RoleUser, Content: stored},
		model.Turn{Role: model.RoleAssistant, Content: reply},
	)
	if err := e.window.Save(); err != nil {
		e.logger.Error("saving conversation failed", "err", err)
	}

	parsed := directive.Parse(reply)
	switch d := parsed.Directive.(type) {
	case directive.Type:
		e.current.Directive = d.Tag()
		e.logger.Info("typing", "text", d.LiteralText)
		if e.injector != nil {
			if err := e.injector.TypeText(ctx, d.LiteralText); err != nil {
				e.logger.Warn("typing failed", "err", err)
			}
		}
	case directive.Timer:
		e.current.Directive = d.Tag()
		id, err := e.scheduleReminder(d)
		if err != nil {
			e.logger.Warn("timer not set", "err", err)
		}
		e.current.TimerID = id
	}

	e.say(ctx, parsed.Speech)
	return parsed.Speech, true
}

func (e *Engine) scheduleReminder(t directive.Timer) (string, error) {
	msg := t.Message
	id, err := e.sched.Schedule(t.Delay(), func() {
		e.logger.Info("REMINDER: " + msg)
		e.say(context.Background(), "Excuse me. Reminder: "+msg)
	})
	if err != nil {
		return "", err
	}
	e.logger.Info("timer set", "id", id, "seconds", t.DelaySeconds, "message", msg)
	return id, nil
}

// captureScreen grabs the screen and returns it as a data URL.
func (e *Engine) captureScreen(ctx context.Context) (string, error) {
	path, err := e.capturer.Capture(ctx)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mediaType := "image/jpeg"
	if strings.EqualFold(filepath.Ext(path), ".png") {
		mediaType = "image/png"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (e *Engine) interrupt() {
	if err := e.player.Stop(); err != nil {
		e.logger.Warn("stopping playback failed", "err", err)
		return
	}
	e.logger.Info("audio interrupted")
	e.status.SetStatus("Interrupted", model.StatusListening)
}

func (e *Engine) say(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" || e.speaker == nil {
		return
	}
	e.logger.Info("reply", "speaker", e.name, "text", text)
	if err := e.speaker.Speak(ctx, text); err != nil {
		e.logger.Warn("speech failed", "err", err)
	}
}

func (e *Engine) ackSleep(ctx context.Context) {
	e.logger.Info("entering sleep mode")
	e.status.SetStatus("Sleeping (Say 'Hey "+e.name+"')", model.StatusSleep)
	e.say(ctx, SleepAck)
}

func (e *Engine) ackWake(ctx context.Context) {
	e.logger.Info("systems waking up")
	e.status.SetStatus("Online", model.StatusIdle)
	e.say(ctx, WakeAck)
}

// ToggleSleep flips the wake state, then acknowledges it.
func (e *Engine) ToggleSleep(ctx context.Context) model.WakeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	state := e.gate.Toggle()
	if state == model.Asleep {
		e.ackSleep(ctx)
	} else {
		e.ackWake(ctx)
	}
	return state
}

// Asleep reports whether the gate is asleep.
func (e *Engine) Asleep() bool { return e.gate.State() == model.Asleep }

// SetModels replaces the model identities. Empty values are left unchanged.
func (e *Engine) SetModels(text, vision string) {
	e.modelsMu.Lock()
	defer e.modelsMu.Unlock()
	if text != "" && text != e.textModel {
		e.textModel = text
		e.logger.Info("switched text model", "model", text)
	}
	if vision != "" && vision != e.visionModel {
		e.visionModel = vision
		e.logger.Info("switched vision model", "model", vision)
	}
}

func (e *Engine) TextModel() string {
	e.modelsMu.RLock()
	defer e.modelsMu.RUnlock()
	return e.textModel
}

func (e *Engine) VisionModel() string {
	e.modelsMu.RLock()
	defer e.modelsMu.RUnlock()
	return e.visionModel
}

// Running reports whether the engine still accepts utterances.
func (e *Engine) Running() bool { return e.running.Load() }

// ShutdownPending reports whether a quit command has scheduled shutdown.
func (e *Engine) ShutdownPending() bool { return e.quitting.Load() }

// State returns a snapshot of the engine.
func (e *Engine) State() Snapshot {
	return Snapshot{
		Wake:          e.gate.State().String(),
		Running:       e.running.Load(),
		TextModel:     e.TextModel(),
		VisionModel:   e.VisionModel(),
		Turns:         e.window.Len(),
		PendingTimers: len(e.sched.Pending()),
		Rules:         e.router.Names(),
	}
}

// Shutdown stops the engine: no more utterances, audio stopped, pending
// timers dropped. The OnShutdown hook runs last. Safe to call repeatedly.
func (e *Engine) Shutdown() {
	e.downOnce.Do(func() {
		e.logger.Info("shutdown sequence")
		e.running.Store(false)
		if e.player != nil && e.player.Busy() {
			if err := e.player.Stop(); err != nil {
				e.logger.Warn("stopping playback failed", "err", err)
			}
		}
		e.sched.Stop()
		if e.onShutdown != nil {
			e.onShutdown()
		}
	})
}

type logStatus struct{ logger *slog.Logger }

func (s logStatus) SetStatus(text string, status model.Status) {
	s.logger.Debug("status", "state", string(status), "text", text)
}
