// Package config loads assistant settings from a TOML file, a .env file and
// the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/johncui/vega/pkg/fsutil"
	"github.com/johncui/vega/pkg/llm"
)

// DefaultPath is where settings are read from when no path is given.
const DefaultPath = "vega_settings.toml"

type LLMSettings struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key,omitempty"`
	BaseURL        string `toml:"base_url"`
	EmbeddingModel string `toml:"embedding_model"`
}

type MemorySettings struct {
	DBPath string `toml:"db_path"`
	// Embedder is "hash" for the built-in feature hasher or "llm" for the
	// provider's embedding endpoint.
	Embedder       string `toml:"embedder"`
	VectorDim      int    `toml:"vector_dim"`
	EnableVSS      bool   `toml:"enable_vss"`
	ExtensionsPath string `toml:"extensions_path"`
	HistoryPath    string `toml:"history_path"`
	WindowLimit    int    `toml:"window_limit"`
	WindowRetain   int    `toml:"window_retain"`
}

type PhraseSettings struct {
	Wake  []string `toml:"wake"`
	Sleep []string `toml:"sleep"`
	Stop  []string `toml:"stop"`
	Quit  []string `toml:"quit"`
}

type ServerSettings struct {
	ListenAddr       string `toml:"listen_addr"`
	TranscriptSource string `toml:"transcript_source"`
}

// Settings is the full assistant configuration.
type Settings struct {
	AssistantName string         `toml:"assistant_name"`
	Voice         string         `toml:"voice"`
	TextModel     string         `toml:"text_model"`
	VisionModel   string         `toml:"vision_model"`
	Device        string         `toml:"device"`
	STTModel      string         `toml:"stt_model"`
	LLM           LLMSettings    `toml:"llm"`
	Memory        MemorySettings `toml:"memory"`
	Phrases       PhraseSettings `toml:"phrases"`
	Server        ServerSettings `toml:"server"`
}

// Default returns the built-in settings.
func Default() Settings {
	name := "VEGA"
	return Settings{
		AssistantName: name,
		Voice:         "en-US-ChristopherNeural",
		TextModel:     "llama-3.1-8b-instant",
		VisionModel:   "llama-3.2-11b-vision-preview",
		Device:        "cpu",
		STTModel:      "medium.en",
		LLM: LLMSettings{
			Provider: "groq",
			BaseURL:  llm.GroqBaseURL,
		},
		Memory: MemorySettings{
			DBPath:      "vega_memory.db",
			Embedder:    "hash",
			VectorDim:   256,
			HistoryPath: "chat_history.json",
			WindowLimit: 20,
		},
		Phrases: PhraseSettings{
			Wake:  WakePhrases(name),
			Sleep: []string{"go to sleep", "sleep mode", "mene nukkumaan", "lepotila"},
			Stop:  []string{"stop", "shh", "quiet", "silence", "hiljaa", "dur"},
			Quit:  []string{"quit", "exit"},
		},
		Server: ServerSettings{
			ListenAddr:       ":8080",
			TranscriptSource: "-",
		},
	}
}

// WakePhrases derives the wake vocabulary from the assistant name.
func WakePhrases(name string) []string {
	n := strings.ToLower(strings.TrimSpace(name))
	return []string{"hello " + n, "hei " + n, "hey " + n, "hi " + n, "wake up"}
}

// Load reads settings from path on top of the defaults. A missing file
// yields the defaults. A corrupt file yields the defaults and an error the
// caller should log.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("failed to parse TOML in '%s': %w", path, err)
	}
	return s, nil
}

// Save writes s to path, replacing the file atomically. The API key is
// never written.
func (s Settings) Save(path string) error {
	s.LLM.APIKey = ""
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return fsutil.WriteFileAtomic(path, data, 0o644)
}

// LoadEnv loads .env files into the environment. Missing files are skipped.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from VEGA_* variables and the provider API
// key variables.
func (s *Settings) ApplyEnv() {
	s.AssistantName = getenv("VEGA_NAME", s.AssistantName)
	s.Voice = getenv("VEGA_VOICE", s.Voice)
	s.TextModel = getenv("VEGA_TEXT_MODEL", s.TextModel)
	s.VisionModel = getenv("VEGA_VISION_MODEL", s.VisionModel)
	s.LLM.Provider = getenv("VEGA_PROVIDER", s.LLM.Provider)
	s.LLM.BaseURL = getenv("VEGA_BASE_URL", s.LLM.BaseURL)
	s.LLM.EmbeddingModel = getenv("VEGA_EMBEDDING_MODEL", s.LLM.EmbeddingModel)
	s.LLM.APIKey = getenv("VEGA_API_KEY", getenv(providerKeyVar(s.LLM.Provider), s.LLM.APIKey))
	s.Memory.DBPath = getenv("VEGA_DB_PATH", s.Memory.DBPath)
	s.Memory.Embedder = getenv("VEGA_EMBEDDER", s.Memory.Embedder)
	s.Memory.VectorDim = getenvInt("VEGA_VECTOR_DIM", s.Memory.VectorDim)
	s.Memory.EnableVSS = getenvBool("VEGA_ENABLE_VSS", s.Memory.EnableVSS)
	s.Memory.ExtensionsPath = getenv("GO_SQLITE3_EXTENSIONS", s.Memory.ExtensionsPath)
	s.Memory.HistoryPath = getenv("VEGA_HISTORY_PATH", s.Memory.HistoryPath)
	s.Memory.WindowLimit = getenvInt("VEGA_WINDOW_LIMIT", s.Memory.WindowLimit)
	s.Server.ListenAddr = getenv("VEGA_LISTEN_ADDR", s.Server.ListenAddr)
	s.Server.TranscriptSource = getenv("VEGA_TRANSCRIPT", s.Server.TranscriptSource)
}

// LLMConfig is the model client configuration.
func (s Settings) LLMConfig() llm.Config {
	return llm.Config{Provider: s.LLM.Provider, APIKey: s.LLM.APIKey, BaseURL: s.LLM.BaseURL}
}

func providerKeyVar(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return "OPENAI_API_KEY"
	case "claude", "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
