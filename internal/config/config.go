package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/versus-cli/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenRouter OpenRouterConfig `yaml:"openrouter" mapstructure:"openrouter"`
	Exa        ExaConfig        `yaml:"exa" mapstructure:"exa"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Evidence   EvidenceConfig   `yaml:"evidence" mapstructure:"evidence"`
	Fallback   FallbackConfig   `yaml:"fallback" mapstructure:"fallback"`
	Discover   DiscoverConfig   `yaml:"discover" mapstructure:"discover"`
	Pricing    cost.Rates       `yaml:"pricing" mapstructure:"pricing"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenRouterConfig holds OpenRouter API settings. OnlineModel backs the
// web-search variant of the adapter.
type OpenRouterConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Model       string `yaml:"model" mapstructure:"model"`
	OnlineModel string `yaml:"online_model" mapstructure:"online_model"`
	Referer     string `yaml:"referer" mapstructure:"referer"`
	Title       string `yaml:"title" mapstructure:"title"`
}

// ExaConfig holds Exa search settings.
type ExaConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	NumResults int    `yaml:"num_results" mapstructure:"num_results"`
}

// JinaConfig holds Jina AI Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
	NumResults    int    `yaml:"num_results" mapstructure:"num_results"`
}

// GoogleConfig holds Google Programmable Search settings.
type GoogleConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	EngineID   string `yaml:"engine_id" mapstructure:"engine_id"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	NumResults int    `yaml:"num_results" mapstructure:"num_results"`
}

// EvidenceConfig configures evidence retrieval for enrichment.
type EvidenceConfig struct {
	Backends   []string `yaml:"backends" mapstructure:"backends"`
	MaxResults int      `yaml:"max_results" mapstructure:"max_results"`
	MaxChars   int      `yaml:"max_chars" mapstructure:"max_chars"`
	Blocklist  []string `yaml:"blocklist" mapstructure:"blocklist"`
}

// FallbackConfig points at the optional stage list file.
type FallbackConfig struct {
	StagesPath  string `yaml:"stages_path" mapstructure:"stages_path"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// DiscoverConfig configures discovery runs.
type DiscoverConfig struct {
	MaxExclusions int `yaml:"max_exclusions" mapstructure:"max_exclusions"`
}

// BatchConfig configures batch enrichment.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	GenerateRPS    float64  `yaml:"generate_rps" mapstructure:"generate_rps"`
	GenerateBurst  int      `yaml:"generate_burst" mapstructure:"generate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VERSUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials have empty defaults so AutomaticEnv picks them up.
	for _, key := range []string{
		"store.database_url",
		"perplexity.key",
		"anthropic.key",
		"openrouter.key",
		"exa.key",
		"jina.key",
		"google.key",
		"google.engine_id",
		"fallback.stages_path",
	} {
		v.SetDefault(key, "")
	}

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "versus.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.generate_rps", 0.5)
	v.SetDefault("server.generate_burst", 2)
	v.SetDefault("batch.max_concurrent", 3)
	v.SetDefault("discover.max_exclusions", 50)
	v.SetDefault("fallback.timeout_secs", 60)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "anthropic/claude-haiku-4.5")
	v.SetDefault("openrouter.online_model", "perplexity/sonar")
	v.SetDefault("openrouter.title", "versus")
	v.SetDefault("exa.base_url", "https://api.exa.ai")
	v.SetDefault("exa.num_results", 10)
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.num_results", 5)
	v.SetDefault("google.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("google.num_results", 10)
	v.SetDefault("evidence.backends", []string{"exa", "jina", "google"})
	v.SetDefault("evidence.max_results", 3)
	v.SetDefault("evidence.max_chars", 500)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Pricing = mergeRates(cost.DefaultRates(), cfg.Pricing)

	return &cfg, nil
}

// mergeRates overlays configured pricing on the defaults. Zero values keep
// the default.
func mergeRates(def, over cost.Rates) cost.Rates {
	out := def
	out.Anthropic = make(map[string]cost.ModelRate, len(def.Anthropic)+len(over.Anthropic))
	for k, r := range def.Anthropic {
		out.Anthropic[k] = r
	}
	for k, r := range over.Anthropic {
		out.Anthropic[k] = r
	}
	setIf(&out.Perplexity.PerQuery, over.Perplexity.PerQuery)
	setIf(&out.Perplexity.Input, over.Perplexity.Input)
	setIf(&out.Perplexity.Output, over.Perplexity.Output)
	setIf(&out.OpenRouter.Input, over.OpenRouter.Input)
	setIf(&out.OpenRouter.Output, over.OpenRouter.Output)
	setIf(&out.Search.Exa, over.Search.Exa)
	setIf(&out.Search.Jina, over.Search.Jina)
	setIf(&out.Search.Google, over.Search.Google)
	return out
}

func setIf(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
