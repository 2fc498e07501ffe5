package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handled(reply string, calls *[]string, name string) Handler {
	return func(context.Context, Input) (string, bool) {
		*calls = append(*calls, name)
		return reply, true
	}
}

func TestFirstMatchingRuleWins(t *testing.T) {
	var calls []string
	r := New(
		Rule{Name: "stop", Match: Phrases("stop", "quiet"), Handle: handled("", &calls, "stop")},
		Rule{Name: "default", Match: Always, Handle: handled("model", &calls, "default")},
	)

	out, ok := r.Route(context.Background(), Input{Raw: "Stop.", Normalized: "stop"})
	require.True(t, ok)
	assert.Equal(t, "stop", out.Rule)
	assert.Equal(t, []string{"stop"}, calls)
}

func TestFallThroughWhenHandlerDeclines(t *testing.T) {
	var calls []string
	r := New(
		Rule{Name: "actions", Match: Always, Handle: func(context.Context, Input) (string, bool) {
			calls = append(calls, "actions")
			return "", false
		}},
		Rule{Name: "model", Match: Always, Handle: handled("answer", &calls, "model")},
	)

	out, ok := r.Route(context.Background(), Input{Normalized: "what is the time"})
	require.True(t, ok)
	assert.Equal(t, "model", out.Rule)
	assert.Equal(t, "answer", out.Reply)
	assert.Equal(t, []string{"actions", "model"}, calls)
}

func TestNoRuleMatches(t *testing.T) {
	r := New(Rule{Name: "quit", Match: Phrases("quit"), Handle: func(context.Context, Input) (string, bool) {
		t.Fatal("must not run")
		return "", true
	}})
	_, ok := r.Route(context.Background(), Input{Normalized: "hello"})
	assert.False(t, ok)
}

func TestNilMatchAlwaysRuns(t *testing.T) {
	r := New(Rule{Name: "any", Handle: func(context.Context, Input) (string, bool) { return "x", true }})
	out, ok := r.Route(context.Background(), Input{})
	require.True(t, ok)
	assert.Equal(t, "any", out.Rule)
}

func TestNames(t *testing.T) {
	r := New(Rule{Name: "a"}, Rule{Name: "b"})
	assert.Equal(t, []string{"a", "b"}, r.Names())
}

func TestPhrasesIsExact(t *testing.T) {
	m := Phrases("go to sleep", "Sleep Mode")
	assert.True(t, m(Input{Normalized: "go to sleep"}))
	assert.True(t, m(Input{Normalized: "sleep mode"}))
	assert.False(t, m(Input{Normalized: "please go to sleep"}))
}
