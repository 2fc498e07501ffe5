package directive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimer(t *testing.T) {
	res := Parse("Sure. [TIMER: 5, check the oven]")
	require.NotNil(t, res.Directive)

	timer, ok := res.Directive.(Timer)
	require.True(t, ok)
	assert.Equal(t, 5.0, timer.DelaySeconds)
	assert.Equal(t, "check the oven", timer.Message)
	assert.Equal(t, 5*time.Second, timer.Delay())
	assert.Equal(t, "Sure.", res.Speech)
}

func TestParseTimerMessageKeepsCommas(t *testing.T) {
	res := Parse("[TIMER:90,eggs, milk, bread] Reminder set.")
	timer, ok := res.Directive.(Timer)
	require.True(t, ok)
	assert.Equal(t, 90.0, timer.DelaySeconds)
	assert.Equal(t, "eggs, milk, bread", timer.Message)
	assert.Equal(t, "Reminder set.", res.Speech)
}

func TestParseType(t *testing.T) {
	res := Parse("Typing it now [TYPE: gg wp] done")
	typ, ok := res.Directive.(Type)
	require.True(t, ok)
	assert.Equal(t, "gg wp", typ.LiteralText)
	assert.Equal(t, "Typing it now done", res.Speech)
}

func TestTypeTakesPrecedence(t *testing.T) {
	res := Parse("[TIMER: 10, tea] and [TYPE: hello]")
	require.NotNil(t, res.Directive)
	assert.Equal(t, KindType, res.Directive.Kind())
	assert.Equal(t, "[TIMER: 10, tea] and", res.Speech)
}

func TestMalformedDirectivesFallBackToPlainReply(t *testing.T) {
	for _, reply := range []string{
		"Okay. [TIMER: soon, check the oven]",
		"Okay. [TIMER: 5]",
		"Okay. [TIMER: 5, ]",
		"Okay. [TIMER: -3, negative]",
		"Ok. [TIMER: 1e12, far future]",
		"Ok. [TIMER: 9300000000, far future]",
		"Okay. [TIMER: 5, unterminated",
		"Okay. [TYPE: ]",
		"Just a normal answer.",
	} {
		t.Run(reply, func(t *testing.T) {
			res := Parse(reply)
			assert.Nil(t, res.Directive)
			assert.Equal(t, reply, res.Speech)
		})
	}
}

func TestTimerAtDurationLimit(t *testing.T) {
	res := Parse("[TIMER: 9223372036, much later]")
	timer, ok := res.Directive.(Timer)
	require.True(t, ok)
	assert.Positive(t, timer.Delay())
}

func TestMalformedTypeFallsThroughToTimer(t *testing.T) {
	res := Parse("[TYPE: ] [TIMER: 1.5, stretch]")
	timer, ok := res.Directive.(Timer)
	require.True(t, ok)
	assert.Equal(t, 1.5, timer.DelaySeconds)
	assert.Equal(t, 1500*time.Millisecond, timer.Delay())
}

func TestTags(t *testing.T) {
	assert.Equal(t, "[TIMER: 5, check the oven]", Timer{DelaySeconds: 5, Message: "check the oven"}.Tag())
	assert.Equal(t, "[TYPE: hi]", Type{LiteralText: "hi"}.Tag())
}
