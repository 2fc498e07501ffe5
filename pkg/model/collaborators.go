package model

import "context"

// ModelClient sends a conversation to a language model and returns its reply.
type ModelClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Searcher queries the web for live context.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// ActionExecutor runs local device actions. ok is false when no action matched.
type ActionExecutor interface {
	Execute(ctx context.Context, command string) (result string, ok bool)
}

// TextInjector types literal text into the focused window.
type TextInjector interface {
	TypeText(ctx context.Context, text string) error
}

// ScreenCapturer grabs the screen and returns the path of the image file.
type ScreenCapturer interface {
	Capture(ctx context.Context) (string, error)
}

// Speaker synthesizes and plays text.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Player controls audio playback.
type Player interface {
	Busy() bool
	Stop() error
}

// StatusReporter receives visual state changes.
type StatusReporter interface {
	SetStatus(text string, status Status)
}

// FactMemory is the long-term memory contract used by the dialogue engine.
type FactMemory interface {
	Remember(ctx context.Context, text string) (Fact, error)
	Recall(ctx context.Context, query string, topK int) []Fact
}
