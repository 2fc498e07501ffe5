package wake

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johncui/vega/pkg/model"
)

var phrases = []string{"hello vega", "hei vega", "hey vega", "hi vega", "wake up"}

func asleepGate() *Gate {
	g := NewGate(phrases)
	g.Sleep()
	return g
}

func TestAwakeForwardsEverything(t *testing.T) {
	g := NewGate(phrases)
	got := g.Admit("random chatter")
	assert.Equal(t, Forward, got.Verdict)
	assert.Equal(t, "random chatter", got.Text)
	assert.False(t, got.OneShot)
}

func TestAsleepDiscardsWithoutWakePhrase(t *testing.T) {
	g := asleepGate()
	got := g.Admit("random chatter")
	assert.Equal(t, Discard, got.Verdict)
	assert.Equal(t, model.Asleep, g.State())
}

func TestAsleepOneShotCommand(t *testing.T) {
	g := asleepGate()
	got := g.Admit(Normalize("Hey Vega, what time is it?"))
	assert.Equal(t, Forward, got.Verdict)
	assert.Equal(t, "what time is it", got.Text)
	assert.True(t, got.OneShot)
	assert.Equal(t, model.Asleep, g.State(), "one-shot commands do not wake the gate")
}

func TestAsleepBareWakePhrase(t *testing.T) {
	for _, in := range []string{"hey vega", "Wake up!", "hello vega a"} {
		g := asleepGate()
		got := g.Admit(Normalize(in))
		assert.Equal(t, WakeUp, got.Verdict, in)
		assert.Equal(t, model.Asleep, g.State(), "Admit must not commit the transition")
	}
}

func TestTransitions(t *testing.T) {
	g := NewGate(phrases)
	assert.Equal(t, model.Awake, g.State())
	assert.True(t, g.Sleep())
	assert.False(t, g.Sleep())
	assert.True(t, g.Wake())
	assert.Equal(t, model.Asleep, g.Toggle())
	assert.Equal(t, model.Awake, g.Toggle())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "go to sleep", Normalize("Go to sleep."))
	assert.Equal(t, "stop", Normalize("  STOP!  "))
	assert.Equal(t, "hey vega what time is it", Normalize("Hey, Vega. What time is it?"))
	assert.Equal(t, "näytä", Normalize("Näytä"))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "discard", Discard.String())
	assert.Equal(t, "forward", Forward.String())
	assert.Equal(t, "wake", WakeUp.String())
}
