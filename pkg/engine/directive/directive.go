// Package directive extracts bracketed control tags from model replies.
//
// Two forms are recognized: [TYPE: text] and [TIMER: seconds, message].
// TYPE is checked first and at most one directive is returned per reply.
// Anything malformed is treated as plain text.
package directive

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind names a directive variant.
type Kind string

const (
	KindType  Kind = "TYPE"
	KindTimer Kind = "TIMER"
)

// maxDelaySeconds is the longest delay a time.Duration can hold.
const maxDelaySeconds = float64(math.MaxInt64 / int64(time.Second))

// Directive is a parsed control instruction.
type Directive interface {
	Kind() Kind
	// Tag is the canonical textual form.
	Tag() string
}

// Timer asks for a reminder after Delay.
type Timer struct {
	DelaySeconds float64
	Message      string
}

func (Timer) Kind() Kind { return KindTimer }

func (t Timer) Tag() string {
	return "[TIMER: " + strconv.FormatFloat(t.DelaySeconds, 'f', -1, 64) + ", " + t.Message + "]"
}

// Delay converts DelaySeconds to a duration.
func (t Timer) Delay() time.Duration {
	return time.Duration(t.DelaySeconds * float64(time.Second))
}

// Type asks for LiteralText to be typed into the focused window.
type Type struct {
	LiteralText string
}

func (Type) Kind() Kind { return KindType }

func (t Type) Tag() string { return "[TYPE: " + t.LiteralText + "]" }

// Result is the outcome of parsing one reply.
type Result struct {
	// Directive is nil when the reply carries none.
	Directive Directive
	// Speech is the reply with the directive span removed.
	Speech string
}

// Parse scans reply for a directive. Without a valid one, Speech is the
// reply unmodified.
func Parse(reply string) Result {
	if d, speech, ok := parseType(reply); ok {
		return Result{Directive: d, Speech: speech}
	}
	if d, speech, ok := parseTimer(reply); ok {
		return Result{Directive: d, Speech: speech}
	}
	return Result{Speech: reply}
}

func parseType(reply string) (Directive, string, bool) {
	body, start, end, ok := span(reply, "[TYPE:")
	if !ok {
		return nil, "", false
	}
	text := strings.TrimSpace(body)
	if text == "" {
		return nil, "", false
	}
	return Type{LiteralText: text}, cut(reply, start, end), true
}

func parseTimer(reply string) (Directive, string, bool) {
	body, start, end, ok := span(reply, "[TIMER:")
	if !ok {
		return nil, "", false
	}
	secs, msg, found := strings.Cut(body, ",")
	if !found {
		return nil, "", false
	}
	delay, err := strconv.ParseFloat(strings.TrimSpace(secs), 64)
	if err != nil || delay < 0 || delay > maxDelaySeconds || math.IsNaN(delay) {
		return nil, "", false
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil, "", false
	}
	return Timer{DelaySeconds: delay, Message: msg}, cut(reply, start, end), true
}

// span finds the first "<open> ... ]" in s. It returns the text between the
// opener and the bracket, and the byte range of the whole tag.
func span(s, open string) (body string, start, end int, ok bool) {
	start = strings.Index(s, open)
	if start < 0 {
		return "", 0, 0, false
	}
	rest := s[start+len(open):]
	closeAt := strings.Index(rest, "]")
	if closeAt < 0 {
		return "", 0, 0, false
	}
	end = start + len(open) + closeAt + 1
	return rest[:closeAt], start, end, true
}

// cut removes s[start:end] and tidies the whitespace left behind.
func cut(s string, start, end int) string {
	return strings.Join(strings.Fields(s[:start]+" "+s[end:]), " ")
}
