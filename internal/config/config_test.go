package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Document.TotalChars)
	assert.Equal(t, []string{"pro", "standard", "small"}, cfg.Routing.Models)
	assert.Equal(t, "static", cfg.AI.Provider)
}

func TestLoadConfig_YAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
document:
  total_chars: 8000
  author: reviewer
routing:
  models: ["big", "tiny"]
  complexity_threshold: 200
ai:
  provider: gemini
  model: gemini-2.0-flash
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("DRAFTER_API_KEY", "sk-test")
	t.Setenv("DRAFTER_TOTAL_CHARS", "9000")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Document.TotalChars)
	assert.Equal(t, "reviewer", cfg.Document.Author)
	assert.Equal(t, []string{"big", "tiny"}, cfg.Routing.Models)
	assert.Equal(t, 200, cfg.Routing.ComplexityThreshold)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
}
