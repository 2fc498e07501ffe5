package distill

import (
	"context"
	"regexp"
	"strings"
)

// MinUtteranceLen is the length an utterance must exceed before a remember
// cue is honored.
const MinUtteranceLen = 10

// Distiller turns an utterance into a statement worth remembering.
type Distiller interface {
	Distill(ctx context.Context, utterance string) (fact string, ok bool)
}

// HeuristicDistiller extracts facts from explicit "remember" requests.
type HeuristicDistiller struct {
	cue  *regexp.Regexp
	lead *regexp.Regexp
}

func NewHeuristic() *HeuristicDistiller {
	return &HeuristicDistiller{
		cue:  regexp.MustCompile(`(?i)\bremember\b`),
		lead: regexp.MustCompile(`(?i)^(that|to)\b`),
	}
}

// Distill keeps what follows the first "remember" cue, minus a leading
// "that" or "to":
//   - "remember that my dog's name is Rex" -> "my dog's name is Rex"
//   - "please remember I park on level 3." -> "I park on level 3"
func (h *HeuristicDistiller) Distill(_ context.Context, utterance string) (string, bool) {
	if len(strings.TrimSpace(utterance)) <= MinUtteranceLen {
		return "", false
	}
	loc := h.cue.FindStringIndex(utterance)
	if loc == nil {
		return "", false
	}

	fact := strings.TrimSpace(utterance[loc[1]:])
	fact = strings.TrimLeft(fact, ",: ")
	fact = strings.TrimSpace(h.lead.ReplaceAllString(fact, ""))
	fact = strings.TrimRight(fact, ".!?, ")
	if fact == "" {
		return "", false
	}
	return fact, true
}
