package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

var knownBackends = map[string]bool{"exa": true, "jina": true, "google": true}

// Validate checks the settings a command needs. Missing provider credentials
// are not errors: those providers are simply skipped.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "discover", "enrich", "batch":
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateGeneration()...)
	case "serve":
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateGeneration()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.GenerateRPS <= 0 {
			errs = append(errs, "server.generate_rps must be > 0")
		}
		if c.Server.GenerateBurst < 1 {
			errs = append(errs, "server.generate_burst must be >= 1")
		}
	case "store":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch strings.ToLower(c.Store.Driver) {
	case "", "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	return errs
}

func (c *Config) validateGeneration() []string {
	var errs []string
	if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 20 {
		errs = append(errs, "batch.max_concurrent must be between 1 and 20")
	}
	if c.Fallback.TimeoutSecs <= 0 {
		errs = append(errs, "fallback.timeout_secs must be > 0")
	}
	if c.Discover.MaxExclusions < 1 {
		errs = append(errs, "discover.max_exclusions must be >= 1")
	}
	if c.Evidence.MaxResults < 1 || c.Evidence.MaxResults > 10 {
		errs = append(errs, "evidence.max_results must be between 1 and 10")
	}
	if c.Evidence.MaxChars < 50 {
		errs = append(errs, "evidence.max_chars must be >= 50")
	}
	for _, b := range c.Evidence.Backends {
		if !knownBackends[b] {
			errs = append(errs, "evidence.backends: unknown backend "+b)
		}
	}
	return errs
}
