// Package router classifies utterances with an ordered rule table. The
// first rule whose predicate matches and whose handler accepts wins.
package router

import (
	"context"
	"strings"
)

// Input is one utterance as seen by the router.
type Input struct {
	// Raw is the utterance text to act on.
	Raw string
	// Normalized is Raw lowercased with punctuation removed.
	Normalized string
	// OneShot is set for commands carried by a wake phrase while asleep.
	OneShot bool
}

// Outcome is what the winning rule did.
type Outcome struct {
	Rule  string `json:"rule"`
	Reply string `json:"reply,omitempty"`
}

// Handler acts on a matched input. Returning false lets routing fall
// through to the next rule.
type Handler func(ctx context.Context, in Input) (reply string, handled bool)

// Rule is one (predicate, handler) row of the table.
type Rule struct {
	Name   string
	Match  func(in Input) bool
	Handle Handler
}

// Router evaluates rules in order.
type Router struct {
	rules []Rule
}

// New builds a router; rule order is priority order.
func New(rules ...Rule) *Router {
	return &Router{rules: rules}
}

// Route runs the first rule that matches and handles in. ok is false when
// no rule took the utterance.
func (r *Router) Route(ctx context.Context, in Input) (Outcome, bool) {
	for _, rule := range r.rules {
		if rule.Match != nil && !rule.Match(in) {
			continue
		}
		reply, handled := rule.Handle(ctx, in)
		if handled {
			return Outcome{Rule: rule.Name, Reply: reply}, true
		}
	}
	return Outcome{}, false
}

// Names lists the rules in priority order.
func (r *Router) Names() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// Always matches every input.
func Always(Input) bool { return true }

// Phrases matches when the normalized input equals one of phrases.
func Phrases(phrases ...string) func(Input) bool {
	set := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		set[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	return func(in Input) bool {
		_, ok := set[in.Normalized]
		return ok
	}
}
