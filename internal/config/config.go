// Package config loads quizmastery settings from defaults, an optional
// YAML file and QUIZMASTERY_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizmastery/internal/llm"
	"github.com/abhisek/quizmastery/internal/logger"
	"github.com/abhisek/quizmastery/internal/questions"
	"github.com/abhisek/quizmastery/internal/store"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "QUIZMASTERY_"

type Config struct {
	Log   logger.Options `yaml:"log"`
	Store store.Options  `yaml:"store"`
	HTTP  HTTPConfig     `yaml:"http"`
	Auth  AuthConfig     `yaml:"auth"`
	LLM   llm.Config     `yaml:"llm"`
	Quiz  QuizConfig     `yaml:"quiz"`
}

type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	CORSOrigins       []string      `yaml:"cors_origins"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig verifies bearer tokens. Tokens are issued elsewhere.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type QuizConfig struct {
	// GenerateTimeout bounds one LLM question fetch before the fallback
	// bank is served.
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
}

// Default returns the built-in configuration: SQLite at the default path,
// no LLM provider and a local HTTP listener.
func Default() *Config {
	return &Config{
		Log:   logger.Options{Mode: "dev", Level: "info", Redact: true},
		Store: store.Options{Driver: store.DriverSQLite},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			CORSOrigins:       []string{"http://localhost:3000"},
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		LLM:  llm.DefaultConfig(),
		Quiz: QuizConfig{GenerateTimeout: questions.DefaultTimeout},
	}
}

// Load builds a Config. path may be empty, in which case QUIZMASTERY_CONFIG
// is consulted; a missing file is only an error when a path was given.
// When no LLM provider is set, the vendors' standard key variables are
// probed with llm.DiscoverConfig.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvPrefix + "CONFIG"))
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.LLM.Provider == llm.ProviderNone {
		if discovered, ok := llm.DiscoverConfig(cfg.LLM); ok {
			cfg.LLM = discovered
		}
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + name)); v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v := strings.TrimSpace(os.Getenv(EnvPrefix + name))
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("LOG_MODE", &c.Log.Mode)
	str("LOG_LEVEL", &c.Log.Level)
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "LOG_REDACT")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sLOG_REDACT: %w", EnvPrefix, err)
		}
		c.Log.Redact = b
	}

	str("DB_DRIVER", &c.Store.Driver)
	str("DB_DSN", &c.Store.DSN)
	str("SESSIONS", &c.Store.Sessions)
	str("REDIS_ADDR", &c.Store.Redis.Addr)
	str("REDIS_PASSWORD", &c.Store.Redis.Password)
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "REDIS_DB")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", EnvPrefix, err)
		}
		c.Store.Redis.DB = n
	}
	if err := dur("REDIS_TTL", &c.Store.Redis.TTL); err != nil {
		return err
	}

	str("HTTP_ADDR", &c.HTTP.Addr)
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "CORS_ORIGINS")); v != "" {
		c.HTTP.CORSOrigins = splitList(v)
	}
	str("JWT_SECRET", &c.Auth.JWTSecret)

	str("LLM_PROVIDER", &c.LLM.Provider)
	str("ANTHROPIC_API_KEY", &c.LLM.Anthropic.APIKey)
	str("ANTHROPIC_MODEL", &c.LLM.Anthropic.Model)
	str("OPENAI_API_KEY", &c.LLM.OpenAI.APIKey)
	str("OPENAI_MODEL", &c.LLM.OpenAI.Model)
	str("GEMINI_API_KEY", &c.LLM.Gemini.APIKey)
	str("GEMINI_MODEL", &c.LLM.Gemini.Model)
	str("OPENROUTER_API_KEY", &c.LLM.OpenRouter.APIKey)
	str("OPENROUTER_MODEL", &c.LLM.OpenRouter.Model)
	str("GROQ_API_KEY", &c.LLM.Groq.APIKey)
	str("GROQ_MODEL", &c.LLM.Groq.Model)

	return dur("GENERATE_TIMEOUT", &c.Quiz.GenerateTimeout)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case store.DriverMemory, store.DriverSQLite:
	case store.DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver: %q", c.Store.Driver))
	}
	switch c.Store.Sessions {
	case "":
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required when sessions are kept in redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session backend: %q", c.Store.Sessions))
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Quiz.GenerateTimeout <= 0 {
		errs = append(errs, errors.New("quiz.generate_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateServe adds the checks only the HTTP server needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required to serve (set %sJWT_SECRET)", EnvPrefix)
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	return nil
}
