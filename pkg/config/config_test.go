package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
	assert.Equal(t, "llama-3.1-8b-instant", s.TextModel)
	assert.Equal(t, []string{"hello vega", "hei vega", "hey vega", "hi vega", "wake up"}, s.Phrases.Wake)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vega.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
text_model = "llama-3.3-70b-versatile"

[memory]
window_limit = 10

[phrases]
stop = ["stop", "enough"]
`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "llama-3.3-70b-versatile", s.TextModel)
	assert.Equal(t, "llama-3.2-11b-vision-preview", s.VisionModel)
	assert.Equal(t, 10, s.Memory.WindowLimit)
	assert.Equal(t, "vega_memory.db", s.Memory.DBPath)
	assert.Equal(t, []string{"stop", "enough"}, s.Phrases.Stop)
	assert.Equal(t, []string{"quit", "exit"}, s.Phrases.Quit)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vega.toml")
	require.NoError(t, os.WriteFile(path, []byte("text_model = = ["), 0o644))

	s, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, Default(), s)
}

func TestSaveRoundTripOmitsKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vega.toml")
	s := Default()
	s.TextModel = "a"
	s.VisionModel = "b"
	s.LLM.APIKey = "secret"
	require.NoError(t, s.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "a", got.TextModel)
	assert.Equal(t, "b", got.VisionModel)
	assert.Equal(t, "secret", s.LLM.APIKey, "Save must not mutate the receiver")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("VEGA_TEXT_MODEL", "fast")
	t.Setenv("VEGA_WINDOW_LIMIT", "8")
	t.Setenv("VEGA_ENABLE_VSS", "true")
	t.Setenv("VEGA_VECTOR_DIM", "not a number")

	s := Default()
	s.ApplyEnv()
	assert.Equal(t, "gsk_test", s.LLM.APIKey)
	assert.Equal(t, "fast", s.TextModel)
	assert.Equal(t, 8, s.Memory.WindowLimit)
	assert.True(t, s.Memory.EnableVSS)
	assert.Equal(t, 256, s.Memory.VectorDim)

	t.Setenv("VEGA_API_KEY", "explicit")
	s.ApplyEnv()
	assert.Equal(t, "explicit", s.LLM.APIKey)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("VEGA_TEST_ONLY_VAR=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("VEGA_TEST_ONLY_VAR") })

	require.NoError(t, LoadEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-dotenv", os.Getenv("VEGA_TEST_ONLY_VAR"))
}

func TestWakePhrasesFollowName(t *testing.T) {
	assert.Equal(t, []string{"hello nova", "hei nova", "hey nova", "hi nova", "wake up"}, WakePhrases(" Nova "))
}

func TestWatchReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vega.toml")
	require.NoError(t, Default().Save(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Settings, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, slog.New(slog.NewTextHandler(io.Discard, nil)), func(s Settings) { changes <- s })
	}()

	s := Default()
	s.VisionModel = "new-vision"
	require.Eventually(t, func() bool {
		if err := s.Save(path); err != nil {
			return false
		}
		select {
		case got := <-changes:
			return got.VisionModel == "new-vision"
		case <-time.After(300 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
