package fallback

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"perplexity", "openrouter-online"}, cfg.Providers(StageDiscovery))
	assert.Equal(t, []string{"anthropic", "openrouter"}, cfg.Providers(StageStructuring))
	assert.Equal(t, []string{"perplexity-structured", "openrouter-online"}, cfg.Providers(StageCombined))
	assert.Equal(t, []string{"anthropic", "openrouter", "perplexity"}, cfg.Providers(StageEnrichment))
	assert.Nil(t, cfg.Providers("unknown"))
}

func TestParseConfig_OverridesKeepDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
fallback:
  timeout: 45s
  stages:
    discovery: [openrouter-online]
`))
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"openrouter-online"}, cfg.Providers(StageDiscovery))
	assert.Equal(t, []string{"anthropic", "openrouter"}, cfg.Providers(StageStructuring))
}

func TestParseConfig_Empty(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"malformed", "fallback: [", "fallback: parse config"},
		{"empty stage", "fallback:\n  stages:\n    combined: []\n", `stage "combined" has no providers`},
		{"negative timeout", "fallback:\n  timeout: -5s\n", "negative timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fallback:\n  stages:\n    enrichment: [openrouter]\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"openrouter"}, cfg.Providers(StageEnrichment))

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback: read config")
}
