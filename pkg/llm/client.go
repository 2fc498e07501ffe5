package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/johncui/vega/pkg/model"
)

// GroqBaseURL is the OpenAI-compatible endpoint the assistant talks to by default.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// ErrNoAPIKey is returned when a hosted provider is configured without a key.
var ErrNoAPIKey = errors.New("llm: api key is required")

// Config selects and configures a model provider.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
}

// NewClient builds the model collaborator for cfg.Provider.
func NewClient(cfg Config) (model.ModelClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "groq", "openai":
		if cfg.APIKey == "" {
			return nil, ErrNoAPIKey
		}
		baseURL := cfg.BaseURL
		if baseURL == "" && strings.ToLower(cfg.Provider) != "openai" {
			baseURL = GroqBaseURL
		}
		return NewOpenAIClient(cfg.APIKey, baseURL), nil

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimRight(baseURL, "/") + "/v1"
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, baseURL), nil

	case "claude", "anthropic":
		if cfg.APIKey == "" {
			return nil, ErrNoAPIKey
		}
		return NewClaudeClient(cfg.APIKey, cfg.BaseURL), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

// NewEmbedder builds an embedding client. Only OpenAI-compatible
// endpoints serve embeddings.
func NewEmbedder(cfg Config, embeddingModel string) (model.EmbeddingClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "ollama":
	default:
		return nil, fmt.Errorf("provider %q does not serve embeddings", cfg.Provider)
	}
	c, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewOpenAIEmbedder(c.(*OpenAIClient), embeddingModel), nil
}

// parseDataURL splits "data:<media>;base64,<data>".
func parseDataURL(u string) (mediaType, data string, ok bool) {
	rest, found := strings.CutPrefix(u, "data:")
	if !found {
		return "", "", false
	}
	meta, data, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mediaType, found = strings.CutSuffix(meta, ";base64")
	if !found || mediaType == "" {
		return "", "", false
	}
	return mediaType, data, true
}
