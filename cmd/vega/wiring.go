package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/johncui/vega/pkg/config"
	"github.com/johncui/vega/pkg/engine"
	"github.com/johncui/vega/pkg/hands"
	"github.com/johncui/vega/pkg/llm"
	"github.com/johncui/vega/pkg/memory"
	"github.com/johncui/vega/pkg/model"
	"github.com/johncui/vega/pkg/search"
	"github.com/johncui/vega/pkg/store"
	"github.com/johncui/vega/pkg/voice"
)

func openStore(ctx context.Context, s config.Settings) (*store.FactStore, error) {
	var emb model.EmbeddingClient
	if strings.EqualFold(s.Memory.Embedder, "llm") {
		e, err := llm.NewEmbedder(s.LLMConfig(), s.LLM.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("embedder: %w", err)
		}
		emb = e
	}
	return store.NewFactStore(ctx, store.Options{
		DBPath:         s.Memory.DBPath,
		EnableVSS:      s.Memory.EnableVSS,
		ExtensionsPath: s.Memory.ExtensionsPath,
		VectorDim:      s.Memory.VectorDim,
		Embedder:       emb,
		Logger:         logger,
	})
}

// assistant bundles the engine with the resources it was built from.
type assistant struct {
	engine  *engine.Engine
	facts   *store.FactStore
	console *voice.Console
	status  *voice.StatusLog
}

func (a *assistant) Close() error {
	a.engine.Shutdown()
	a.console.Close()
	return a.facts.Close()
}

func newAssistant(ctx context.Context, s config.Settings, onShutdown func()) (*assistant, error) {
	client, err := llm.NewClient(s.LLMConfig())
	if err != nil {
		return nil, err
	}
	facts, err := openStore(ctx, s)
	if err != nil {
		return nil, err
	}

	window := memory.NewWindow(engine.Preamble(s.AssistantName), memory.WindowOptions{
		Limit:  s.Memory.WindowLimit,
		Retain: s.Memory.WindowRetain,
		Path:   s.Memory.HistoryPath,
		Logger: logger,
	})
	window.Load()

	var eng *engine.Engine
	status := voice.NewStatusLog(logger)
	console := voice.NewConsole(voice.Options{
		Name:   s.AssistantName,
		Voice:  s.Voice,
		Status: status,
		Asleep: func() bool { return eng != nil && eng.Asleep() },
		Logger: logger,
	})
	executor := hands.New(hands.Options{Logger: logger})

	eng, err = engine.New(engine.Options{
		Name:        s.AssistantName,
		TextModel:   s.TextModel,
		VisionModel: s.VisionModel,
		Phrases: engine.Phrases{
			Wake:  s.Phrases.Wake,
			Sleep: s.Phrases.Sleep,
			Stop:  s.Phrases.Stop,
			Quit:  s.Phrases.Quit,
		},
		Window:     window,
		Memory:     facts,
		Model:      client,
		Searcher:   search.New(search.Options{Logger: logger}),
		Actions:    executor,
		Injector:   executor,
		Capturer:   executor,
		Speaker:    console,
		Player:     console,
		Status:     status,
		OnShutdown: onShutdown,
		Logger:     logger,
	})
	if err != nil {
		facts.Close()
		return nil, err
	}
	return &assistant{engine: eng, facts: facts, console: console, status: status}, nil
}
