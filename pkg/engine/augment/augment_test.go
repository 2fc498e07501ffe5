package augment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johncui/vega/pkg/model"
)

type fakeMemory struct {
	stored   []string
	recalled []model.Fact
	err      error
}

func (m *fakeMemory) Remember(_ context.Context, text string) (model.Fact, error) {
	if m.err != nil {
		return model.Fact{}, m.err
	}
	m.stored = append(m.stored, text)
	return model.Fact{ID: "id-" + text, Text: text}, nil
}

func (m *fakeMemory) Recall(context.Context, string, int) []model.Fact {
	return m.recalled
}

type fakeSearcher struct {
	results []model.SearchResult
	err     error
	queries []string
}

func (s *fakeSearcher) Search(_ context.Context, q string, _ int) ([]model.SearchResult, error) {
	s.queries = append(s.queries, q)
	return s.results, s.err
}

func newTestAugmenter(mem model.FactMemory, s model.Searcher) *Augmenter {
	return New(Options{
		Memory:   mem,
		Searcher: s,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRememberCueStoresFactAndStillRecalls(t *testing.T) {
	mem := &fakeMemory{recalled: []model.Fact{{Text: "my dog's name is Rex"}}}
	a := newTestAugmenter(mem, &fakeSearcher{})

	res := a.Augment(context.Background(), "remember that my dog's name is Rex")
	assert.Equal(t, []string{"my dog's name is Rex"}, mem.stored)
	require.NotNil(t, res.Remembered)
	assert.Equal(t, "\n[MEMORY: my dog's name is Rex]", res.Annotation)
	assert.False(t, res.Searched)
}

func TestMemoryAnnotationJoinsFacts(t *testing.T) {
	mem := &fakeMemory{recalled: []model.Fact{{Text: "a"}, {Text: "b"}}}
	a := newTestAugmenter(mem, nil)
	res := a.Augment(context.Background(), "tell me something")
	assert.Equal(t, "\n[MEMORY: a; b]", res.Annotation)
	assert.Empty(t, mem.stored)
}

func TestRememberFailureDoesNotAbort(t *testing.T) {
	mem := &fakeMemory{err: errors.New("disk full")}
	a := newTestAugmenter(mem, nil)
	res := a.Augment(context.Background(), "remember that the sky is blue")
	assert.Nil(t, res.Remembered)
	assert.Empty(t, res.Annotation)
}

func TestSearchAnnotation(t *testing.T) {
	s := &fakeSearcher{results: []model.SearchResult{
		{Body: "Sunny, 21C."}, {Body: "Light wind."}, {Body: "No rain."}, {Body: "ignored fourth"},
	}}
	a := newTestAugmenter(&fakeMemory{}, s)

	res := a.Augment(context.Background(), "What's the weather in Oslo")
	assert.True(t, res.Searched)
	assert.Equal(t, []string{"What's the weather in Oslo"}, s.queries)
	assert.Equal(t, "\n[SEARCH RESULT for 'What's the weather in Oslo': Sunny, 21C. Light wind. No rain.]", res.Annotation)
}

func TestSearchSummaryIsTruncated(t *testing.T) {
	s := &fakeSearcher{results: []model.SearchResult{{Body: strings.Repeat("x", 3000)}}}
	a := newTestAugmenter(nil, s)
	res := a.Augment(context.Background(), "latest news")
	assert.Contains(t, res.Annotation, strings.Repeat("x", DefaultSearchBudget)+"]")
	assert.NotContains(t, res.Annotation, strings.Repeat("x", DefaultSearchBudget+1))
}

func TestSearchFailureYieldsFailureAnnotation(t *testing.T) {
	for name, s := range map[string]*fakeSearcher{
		"error": {err: errors.New("rate limited")},
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			a := newTestAugmenter(&fakeMemory{}, s)
			res := a.Augment(context.Background(), "who is the president of Finland")
			assert.True(t, res.Searched)
			assert.Equal(t, FailedSearch, res.Annotation)
		})
	}
}

func TestNoTriggerNoSearch(t *testing.T) {
	s := &fakeSearcher{}
	a := newTestAugmenter(&fakeMemory{}, s)
	res := a.Augment(context.Background(), "tell me a joke")
	assert.False(t, res.Searched)
	assert.Empty(t, s.queries)
	assert.Empty(t, res.Annotation)
}

func TestWantsVision(t *testing.T) {
	a := newTestAugmenter(nil, nil)
	assert.True(t, a.WantsVision("look at this"))
	assert.True(t, a.WantsVision("What do you see?"))
	assert.True(t, a.WantsVision("read my screen"))
	assert.True(t, a.WantsVision("Näytä"))
	assert.False(t, a.WantsVision("it seems fine"))
	assert.False(t, a.WantsVision("have you seen my keys"))
	assert.False(t, a.WantsVision("who is overseeing the project"))
	assert.True(t, a.WantsVision("keep looking"))
	assert.False(t, a.WantsVision("what time is it"))
}
