// Package config loads charterflow settings from config.yaml and CHARTER_*
// environment variables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// LLMConfig configures the OpenAI compatible chat model used for extraction
// and prompt phrasing. An empty APIKey selects offline extraction.
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	Model             string  `yaml:"model" mapstructure:"model"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Temperature       float32 `yaml:"temperature" mapstructure:"temperature"`
	Lang              string  `yaml:"lang" mapstructure:"lang"`
	RephrasePrompts   bool    `yaml:"rephrase_prompts" mapstructure:"rephrase_prompts"`
	ParseCommands     bool    `yaml:"parse_commands" mapstructure:"parse_commands"`
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

type SessionConfig struct {
	IdempotencyTTLSecs int  `yaml:"idempotency_ttl_secs" mapstructure:"idempotency_ttl_secs"`
	HistoryWindow      int  `yaml:"history_window" mapstructure:"history_window"`
	ShowProgress       bool `yaml:"show_progress" mapstructure:"show_progress"`
}

func (c SessionConfig) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLSecs) * time.Second
}

// CatalogConfig points at a YAML field catalog. Empty uses the built in
// project charter.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CHARTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.requests_per_minute", 60)
	v.SetDefault("llm.burst", 5)
	v.SetDefault("llm.timeout_secs", 30)
	v.SetDefault("llm.temperature", 0)
	v.SetDefault("llm.lang", "English")
	v.SetDefault("llm.rephrase_prompts", false)
	v.SetDefault("llm.parse_commands", false)
	v.SetDefault("session.idempotency_ttl_secs", 60)
	v.SetDefault("session.history_window", 40)
	v.SetDefault("session.show_progress", true)
	v.SetDefault("catalog.path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_secs", 60)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// Validate checks the settings a command needs. Unknown commands only get
// the shared checks.
func (c *Config) Validate(command string) error {
	var problems []string
	if c.Session.IdempotencyTTLSecs < 0 {
		problems = append(problems, "session.idempotency_ttl_secs must not be negative")
	}
	if c.Session.HistoryWindow < 1 {
		problems = append(problems, "session.history_window must be at least 1")
	}
	if c.LLM.Enabled() && c.LLM.Model == "" {
		problems = append(problems, "llm.model is required when llm.api_key is set")
	}
	if command == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		problems = append(problems, "server.port must be between 1 and 65535")
	}
	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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
