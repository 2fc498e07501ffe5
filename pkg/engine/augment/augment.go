// Package augment enriches an outgoing model query with recalled facts and
// live search snippets.
package augment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/johncui/vega/pkg/engine/distill"
	"github.com/johncui/vega/pkg/model"
)

const (
	DefaultRecallK      = 2
	DefaultSearchLimit  = 3
	DefaultSearchBudget = 1000

	// FailedSearch is appended when the live search could not be used.
	FailedSearch = "\n[SEARCH FAILED]"
	// VisionSuffix is appended to the text of a query that carries a screenshot.
	VisionSuffix = " (Analyze this)"
)

// DefaultSearchTriggers are the recency/factual terms that cause a web search.
var DefaultSearchTriggers = []string{"weather", "news", "price", "when is", "who is", "what is the", "current", "latest"}

// DefaultVisionCues are the words that ask the assistant to look at the screen.
var DefaultVisionCues = []string{"look", "see", "screen", "katso", "nayta", "näytä"}

// Options configures an Augmenter.
type Options struct {
	Memory         model.FactMemory
	Distiller      distill.Distiller
	Searcher       model.Searcher
	SearchTriggers []string
	VisionCues     []string
	RecallK        int
	SearchLimit    int
	SearchBudget   int
	Logger         *slog.Logger
}

// Augmenter builds the bracketed context annotations for one utterance.
type Augmenter struct {
	memory    model.FactMemory
	distiller distill.Distiller
	searcher  model.Searcher
	triggers  []string
	cues      []string
	recallK   int
	limit     int
	budget    int
	logger    *slog.Logger
}

// Result describes what augmentation did.
type Result struct {
	// Annotation is appended to the utterance text; it may be empty.
	Annotation string
	Remembered *model.Fact
	Recalled   []model.Fact
	Searched   bool
}

func New(opt Options) *Augmenter {
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	if opt.Distiller == nil {
		opt.Distiller = distill.NewHeuristic()
	}
	if opt.SearchTriggers == nil {
		opt.SearchTriggers = DefaultSearchTriggers
	}
	if opt.VisionCues == nil {
		opt.VisionCues = DefaultVisionCues
	}
	if opt.RecallK <= 0 {
		opt.RecallK = DefaultRecallK
	}
	if opt.SearchLimit <= 0 {
		opt.SearchLimit = DefaultSearchLimit
	}
	if opt.SearchBudget <= 0 {
		opt.SearchBudget = DefaultSearchBudget
	}
	return &Augmenter{
		memory:    opt.Memory,
		distiller: opt.Distiller,
		searcher:  opt.Searcher,
		triggers:  lower(opt.SearchTriggers),
		cues:      lower(opt.VisionCues),
		recallK:   opt.RecallK,
		limit:     opt.SearchLimit,
		budget:    opt.SearchBudget,
		logger:    opt.Logger,
	}
}

// Augment stores a fact when the utterance asks for it, then collects the
// memory and search annotations. It never fails.
func (a *Augmenter) Augment(ctx context.Context, utterance string) Result {
	var res Result
	var b strings.Builder

	if a.memory != nil {
		if text, ok := a.distiller.Distill(ctx, utterance); ok {
			f, err := a.memory.Remember(ctx, text)
			if err != nil {
				a.logger.Warn("memorizing failed", "text", text, "err", err)
			} else {
				res.Remembered = &f
			}
		}

		res.Recalled = a.memory.Recall(ctx, utterance, a.recallK)
		if len(res.Recalled) > 0 {
			texts := make([]string, len(res.Recalled))
			for i, f := range res.Recalled {
				texts[i] = f.Text
			}
			fmt.Fprintf(&b, "\n[MEMORY: %s]", strings.Join(texts, "; "))
		}
	}

	if a.searcher != nil && a.NeedsSearch(utterance) {
		res.Searched = true
		b.WriteString(a.search(ctx, utterance))
	}

	res.Annotation = b.String()
	return res
}

// NeedsSearch reports whether utterance contains a search trigger.
func (a *Augmenter) NeedsSearch(utterance string) bool {
	return containsAny(strings.ToLower(utterance), a.triggers)
}

// WantsVision reports whether utterance asks the assistant to look at the screen.
func (a *Augmenter) WantsVision(utterance string) bool {
	for _, word := range strings.FieldsFunc(strings.ToLower(utterance), isSeparator) {
		for _, cue := range a.cues {
			if word == cue || (cue != "see" && strings.HasPrefix(word, cue)) {
				return true
			}
		}
	}
	return false
}

func (a *Augmenter) search(ctx context.Context, query string) string {
	a.logger.Info("browsing internet", "query", query)
	results, err := a.searcher.Search(ctx, query, a.limit)
	if err != nil {
		a.logger.Warn("search failed", "query", query, "err", err)
		return FailedSearch
	}
	if len(results) == 0 {
		return FailedSearch
	}
	if len(results) > a.limit {
		results = results[:a.limit]
	}
	bodies := make([]string, 0, len(results))
	for _, r := range results {
		if body := strings.TrimSpace(r.Body); body != "" {
			bodies = append(bodies, body)
		}
	}
	if len(bodies) == 0 {
		return FailedSearch
	}
	summary := truncate(strings.Join(bodies, " "), a.budget)
	return fmt.Sprintf("\n[SEARCH RESULT for '%s': %s]", query, summary)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func lower(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '.', ',', '!', '?', ';', ':', '"', '(', ')':
		return true
	}
	return false
}
