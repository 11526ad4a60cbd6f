package fallback

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Stage names.
const (
	StageDiscovery   = "discovery"
	StageStructuring = "structuring"
	StageCombined    = "combined"
	StageEnrichment  = "enrichment"
)

// DefaultTimeout bounds a single adapter call.
const DefaultTimeout = 60 * time.Second

// Config holds the ordered provider list for every stage.
type Config struct {
	Timeout time.Duration       `yaml:"timeout"`
	Stages  map[string][]string `yaml:"stages"`
}

// DefaultConfig returns the built-in stage lists.
func DefaultConfig() *Config {
	return &Config{
		Timeout: DefaultTimeout,
		Stages: map[string][]string{
			StageDiscovery:   {"perplexity", "openrouter-online"},
			StageStructuring: {"anthropic", "openrouter"},
			StageCombined:    {"perplexity-structured", "openrouter-online"},
			StageEnrichment:  {"anthropic", "openrouter", "perplexity"},
		},
	}
}

// LoadConfig reads stage config from a YAML file. Stages and timeout missing
// from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fallback: read config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes stage config under a top-level "fallback" key.
func ParseConfig(data []byte) (*Config, error) {
	var wrapper struct {
		Fallback Config `yaml:"fallback"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "fallback: parse config")
	}

	cfg := DefaultConfig()
	if wrapper.Fallback.Timeout < 0 {
		return nil, eris.Errorf("fallback: negative timeout %s", wrapper.Fallback.Timeout)
	}
	if wrapper.Fallback.Timeout > 0 {
		cfg.Timeout = wrapper.Fallback.Timeout
	}
	for stage, names := range wrapper.Fallback.Stages {
		if len(names) == 0 {
			return nil, eris.Errorf("fallback: stage %q has no providers", stage)
		}
		cfg.Stages[stage] = names
	}
	return cfg, nil
}

// Providers returns the ordered provider names for stage.
func (c *Config) Providers(stage string) []string {
	return c.Stages[stage]
}
