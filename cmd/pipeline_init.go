package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/versus-cli/internal/config"
	"github.com/sells-group/versus-cli/internal/cost"
	"github.com/sells-group/versus-cli/internal/evidence"
	"github.com/sells-group/versus-cli/internal/fallback"
	"github.com/sells-group/versus-cli/internal/pipeline"
	"github.com/sells-group/versus-cli/internal/provider"
	"github.com/sells-group/versus-cli/internal/store"
	anthropicpkg "github.com/sells-group/versus-cli/pkg/anthropic"
	"github.com/sells-group/versus-cli/pkg/exa"
	"github.com/sells-group/versus-cli/pkg/google"
	"github.com/sells-group/versus-cli/pkg/jina"
	"github.com/sells-group/versus-cli/pkg/openrouter"
	"github.com/sells-group/versus-cli/pkg/perplexity"
)

// appEnv holds the store and pipeline needed by the generation commands.
type appEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initPipeline validates config for mode, opens the store and builds the
// pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	return &appEnv{Store: st, Pipeline: p}, nil
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, storeConfig(cfg.Store))
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

func storeConfig(sc config.StoreConfig) store.Config {
	return store.Config{
		Driver:      sc.Driver,
		DatabaseURL: sc.DatabaseURL,
		SQLitePath:  sc.SQLitePath,
		Pool: store.PoolConfig{
			MaxConns: sc.MaxConns,
			MinConns: sc.MinConns,
		},
	}
}

// buildPipeline wires clients, adapters, stage lists and the evidence
// retriever from c. Missing credentials leave the matching adapter
// unconfigured rather than failing.
func buildPipeline(c *config.Config) (*pipeline.Pipeline, error) {
	calc := cost.NewCalculator(c.Pricing)

	stages, err := stageConfig(c.Fallback)
	if err != nil {
		return nil, err
	}

	retriever, err := buildRetriever(c, calc)
	if err != nil {
		return nil, err
	}

	reg := buildRegistry(c, calc)
	zap.L().Info("providers registered",
		zap.Strings("configured", reg.Configured()),
		zap.Bool("evidence", retriever.Enabled()),
	)

	return pipeline.New(reg, stages,
		pipeline.WithRetriever(retriever),
		pipeline.WithMaxExclusions(c.Discover.MaxExclusions),
	)
}

// stageConfig loads the stage lists file when one is configured and applies
// the configured per-call timeout.
func stageConfig(fc config.FallbackConfig) (*fallback.Config, error) {
	stages := fallback.DefaultConfig()
	if fc.StagesPath != "" {
		loaded, err := fallback.LoadConfig(fc.StagesPath)
		if err != nil {
			return nil, eris.Wrap(err, "load fallback stages")
		}
		stages = loaded
	}
	if fc.TimeoutSecs > 0 {
		stages.Timeout = time.Duration(fc.TimeoutSecs) * time.Second
	}
	return stages, nil
}

// buildRegistry registers every known adapter. Adapters whose client is nil
// report themselves unconfigured.
func buildRegistry(c *config.Config, calc *cost.Calculator) *provider.Registry {
	var pplx perplexity.Client
	if c.Perplexity.Key != "" {
		var opts []perplexity.Option
		if c.Perplexity.BaseURL != "" {
			opts = append(opts, perplexity.WithBaseURL(c.Perplexity.BaseURL))
		}
		if c.Perplexity.Model != "" {
			opts = append(opts, perplexity.WithModel(c.Perplexity.Model))
		}
		pplx = perplexity.NewClient(c.Perplexity.Key, opts...)
	} else {
		zap.L().Debug("VERSUS_PERPLEXITY_KEY not set, perplexity adapters disabled")
	}

	var claude anthropicpkg.Client
	if c.Anthropic.Key != "" {
		claude = anthropicpkg.NewClient(c.Anthropic.Key)
	} else {
		zap.L().Debug("VERSUS_ANTHROPIC_KEY not set, anthropic adapter disabled")
	}

	var router openrouter.Client
	if c.OpenRouter.Key != "" {
		opts := []openrouter.Option{openrouter.WithReferer(c.OpenRouter.Referer, c.OpenRouter.Title)}
		if c.OpenRouter.BaseURL != "" {
			opts = append(opts, openrouter.WithBaseURL(c.OpenRouter.BaseURL))
		}
		if c.OpenRouter.Model != "" {
			opts = append(opts, openrouter.WithModel(c.OpenRouter.Model))
		}
		router = openrouter.NewClient(c.OpenRouter.Key, opts...)
	} else {
		zap.L().Debug("VERSUS_OPENROUTER_KEY not set, openrouter adapters disabled")
	}

	return provider.NewRegistry(
		provider.NewPerplexity("perplexity", pplx, calc, false),
		provider.NewPerplexity("perplexity-structured", pplx, calc, true),
		provider.NewAnthropic(claude, c.Anthropic.Model, calc),
		provider.NewOpenRouter("openrouter", router, c.OpenRouter.Model, false, calc),
		provider.NewOpenRouter("openrouter-online", router, c.OpenRouter.OnlineModel, true, calc),
	)
}

// buildRetriever creates search backends in configured order, skipping any
// without credentials.
func buildRetriever(c *config.Config, calc *cost.Calculator) (*evidence.Retriever, error) {
	blocklist := evidence.DefaultBlocklist
	if len(c.Evidence.Blocklist) > 0 {
		blocklist = c.Evidence.Blocklist
	}

	var backends []evidence.Backend
	for _, name := range c.Evidence.Backends {
		switch name {
		case "exa":
			if c.Exa.Key == "" {
				continue
			}
			var opts []exa.Option
			if c.Exa.BaseURL != "" {
				opts = append(opts, exa.WithBaseURL(c.Exa.BaseURL))
			}
			client := exa.NewClient(c.Exa.Key, opts...)
			backends = append(backends, evidence.NewExaBackend(client, c.Exa.NumResults, blocklist))
		case "jina":
			if c.Jina.Key == "" {
				continue
			}
			var opts []jina.Option
			if c.Jina.SearchBaseURL != "" {
				opts = append(opts, jina.WithBaseURL(c.Jina.SearchBaseURL))
			}
			client := jina.NewClient(c.Jina.Key, opts...)
			backends = append(backends, evidence.NewJinaBackend(client, c.Jina.NumResults))
		case "google":
			if c.Google.Key == "" || c.Google.EngineID == "" {
				continue
			}
			opts := []google.Option{google.WithNum(c.Google.NumResults)}
			if c.Google.BaseURL != "" {
				opts = append(opts, google.WithBaseURL(c.Google.BaseURL))
			}
			client := google.NewClient(c.Google.Key, c.Google.EngineID, opts...)
			backends = append(backends, evidence.NewGoogleBackend(client))
		default:
			return nil, eris.Errorf("evidence: unknown backend %q", name)
		}
	}

	return evidence.NewRetriever(backends,
		evidence.WithBlocklist(blocklist),
		evidence.WithMaxResults(c.Evidence.MaxResults),
		evidence.WithMaxChars(c.Evidence.MaxChars),
		evidence.WithCostCalculator(calc),
	), nil
}
