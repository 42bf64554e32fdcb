// Package config loads the mediaplan configuration from defaults, an
// optional file and MEDIAPLAN_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tbxark/mediaplan/loopguard"
	"github.com/tbxark/mediaplan/research"
	"github.com/tbxark/mediaplan/types"
)

const envPrefix = "MEDIAPLAN"

type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Search      SearchConfig    `mapstructure:"search"`
	Session     SessionConfig   `mapstructure:"session"`
	LoopGuard   LoopGuardConfig `mapstructure:"loop_guard"`
	Log         LogConfig       `mapstructure:"log"`
	TurnTimeout time.Duration   `mapstructure:"turn_timeout"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LLMConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	// DialogueLang enables model written acknowledgements when set.
	DialogueLang string `mapstructure:"dialogue_lang"`
}

type SearchConfig struct {
	Provider        string        `mapstructure:"provider"`
	APIKey          string        `mapstructure:"api_key"`
	ResultsPerQuery int           `mapstructure:"results_per_query"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type LoopGuardConfig struct {
	TerminateAfter int    `mapstructure:"terminate_after"`
	AdvanceAfter   int    `mapstructure:"advance_after"`
	DefaultBudget  string `mapstructure:"default_budget"`
	DefaultFocus   string `mapstructure:"default_focus"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Load reads path when it is not empty and overlays the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &conf, nil
}

func setDefaults(v *viper.Viper) {
	def := loopguard.DefaultConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.dialogue_lang", "")

	v.SetDefault("search.provider", string(research.ProviderNone))
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.results_per_query", 5)
	v.SetDefault("search.timeout", "15s")

	v.SetDefault("session.backend", BackendMemory)
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.lock_ttl", "2m")
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.prefix", "mediaplan:session:")

	v.SetDefault("loop_guard.terminate_after", def.TerminateAfter)
	v.SetDefault("loop_guard.advance_after", def.AdvanceAfter)
	v.SetDefault("loop_guard.default_budget", def.DefaultBudget)
	v.SetDefault("loop_guard.default_focus", string(def.DefaultFocus))

	v.SetDefault("log.level", "info")
	v.SetDefault("turn_timeout", "90s")
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Session.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.Session.Backend))
	}
	switch research.Provider(c.Search.Provider) {
	case research.ProviderNone:
	case research.ProviderSerper, research.ProviderBrave:
		if c.Search.APIKey == "" {
			errs = append(errs, fmt.Errorf("search provider %s needs an api key", c.Search.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown search provider %q", c.Search.Provider))
	}
	if _, ok := types.ParseFocus(c.LoopGuard.DefaultFocus); !ok {
		errs = append(errs, fmt.Errorf("invalid loop guard default focus %q", c.LoopGuard.DefaultFocus))
	}
	if c.TurnTimeout <= 0 {
		errs = append(errs, errors.New("turn_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// LoopGuardConfig converts the section for loopguard.New.
func (c *Config) LoopGuardConfig() loopguard.Config {
	focus, _ := types.ParseFocus(c.LoopGuard.DefaultFocus)
	return loopguard.Config{
		TerminateAfter: c.LoopGuard.TerminateAfter,
		AdvanceAfter:   c.LoopGuard.AdvanceAfter,
		DefaultBudget:  c.LoopGuard.DefaultBudget,
		DefaultFocus:   focus,
	}
}
