package model

import (
	"context"
	"strings"
	"time"
)

// Fact is a remembered natural-language statement keyed by the digest of its text.
type Fact struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Role identifies the speaker of a Turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType distinguishes the pieces of a multi-part turn.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image_url"
)

// Part is one element of a multi-part user turn.
type Part struct {
	Type     PartType `json:"type"`
	Text     string   `json:"text,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
}

// Turn mirrors one message of the conversation window. Content carries plain
// text; Parts is set instead for user turns that embed an image.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Parts   []Part `json:"parts,omitempty"`
}

// HasImage reports whether the turn carries an image part.
func (t Turn) HasImage() bool {
	for _, p := range t.Parts {
		if p.Type == PartImage {
			return true
		}
	}
	return false
}

// Text returns the textual content of the turn, joining text parts if needed.
func (t Turn) Text() string {
	if len(t.Parts) == 0 {
		return t.Content
	}
	var texts []string
	for _, p := range t.Parts {
		if p.Type == PartText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, " ")
}

// SearchResult is one hit returned by the web search collaborator.
type SearchResult struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Body  string `json:"body"`
}

// WakeState is the process-wide sleep/wake state.
type WakeState int

const (
	Awake WakeState = iota
	Asleep
)

func (s WakeState) String() string {
	if s == Asleep {
		return "ASLEEP"
	}
	return "AWAKE"
}

// Status is the visual state reported to the UI collaborator.
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusListening Status = "LISTENING"
	StatusThinking  Status = "THINKING"
	StatusSpeaking  Status = "SPEAKING"
	StatusSleep     Status = "SLEEP"
)

// CompletionRequest carries everything the model collaborator needs for one call.
type CompletionRequest struct {
	Model       string
	Turns       []Turn
	Temperature float32
	MaxTokens   int
}

// EmbeddingClient produces embeddings for fact similarity search.
type EmbeddingClient interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
}
