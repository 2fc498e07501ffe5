// Package wake implements the sleep/wake gate in front of command routing.
package wake

import (
	"strings"
	"sync"

	"github.com/johncui/vega/pkg/model"
)

// MinCommandLen is the shortest remainder, after stripping a wake phrase,
// that counts as a one-shot command.
const MinCommandLen = 2

// Verdict is what the gate decided about an utterance.
type Verdict int

const (
	// Discard drops the utterance silently.
	Discard Verdict = iota
	// Forward passes Text on to the router.
	Forward
	// WakeUp means the utterance was a bare wake phrase.
	WakeUp
)

func (v Verdict) String() string {
	switch v {
	case Forward:
		return "forward"
	case WakeUp:
		return "wake"
	default:
		return "discard"
	}
}

// Admission is the gate's decision for one utterance.
type Admission struct {
	Verdict Verdict
	// Text is the normalized utterance to route. For one-shot commands the
	// wake phrase has been stripped.
	Text string
	// OneShot is set when a command arrived together with a wake phrase
	// while asleep.
	OneShot bool
}

// Gate holds the wake state. Admit never changes it; transitions are
// committed by the caller through Sleep and Wake so that acknowledgment
// happens after the state is set.
type Gate struct {
	mu    sync.Mutex
	state model.WakeState
	wake  []string
}

// NewGate returns an awake gate that listens for the given wake phrases.
func NewGate(wakePhrases []string) *Gate {
	phrases := make([]string, 0, len(wakePhrases))
	for _, p := range wakePhrases {
		if p = Normalize(p); p != "" {
			phrases = append(phrases, p)
		}
	}
	return &Gate{state: model.Awake, wake: phrases}
}

// Admit classifies a normalized utterance against the current state.
func (g *Gate) Admit(text string) Admission {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == model.Awake {
		return Admission{Verdict: Forward, Text: text}
	}
	for _, phrase := range g.wake {
		if !strings.Contains(text, phrase) {
			continue
		}
		rest := strings.Join(strings.Fields(strings.Replace(text, phrase, "", 1)), " ")
		if len(rest) < MinCommandLen {
			return Admission{Verdict: WakeUp}
		}
		return Admission{Verdict: Forward, Text: rest, OneShot: true}
	}
	return Admission{Verdict: Discard}
}

// State returns the current wake state.
func (g *Gate) State() model.WakeState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Sleep commits the ASLEEP state and reports whether it changed.
func (g *Gate) Sleep() bool { return g.set(model.Asleep) }

// Wake commits the AWAKE state and reports whether it changed.
func (g *Gate) Wake() bool { return g.set(model.Awake) }

// Toggle flips the state and returns the new one.
func (g *Gate) Toggle() model.WakeState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == model.Awake {
		g.state = model.Asleep
	} else {
		g.state = model.Awake
	}
	return g.state
}

func (g *Gate) set(s model.WakeState) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	changed := g.state != s
	g.state = s
	return changed
}

// Normalize lowercases text and removes punctuation so phrase matching
// tolerates how the transcriber punctuated the utterance.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = strings.Map(func(r rune) rune {
		switch r {
		case '.', '!', '?', ',':
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}
