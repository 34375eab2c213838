package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/rs/zerolog"
)

// Config is read once at cold start. Provider credentials are optional: a
// missing key only makes that provider unavailable.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	ParamPrefix string `env:"PARAM_PREFIX"`
	StateTable  string `env:"STATE_TABLE"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	HuggingFaceAPIKey  string `env:"HUGGINGFACE_API_KEY"`
	HuggingFaceModel   string `env:"HUGGINGFACE_MODEL"`
	HuggingFaceBaseURL string `env:"HUGGINGFACE_BASE_URL"`

	ForestWatchAPIKey  string `env:"GFW_API_KEY"`
	ForestWatchBaseURL string `env:"GFW_BASE_URL"`

	OpenWeatherAPIKey  string `env:"OPENWEATHER_API_KEY"`
	OpenWeatherBaseURL string `env:"OPENWEATHER_BASE_URL"`

	ProviderTimeout  time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"8s"`
	MaxHistoryItems  int           `env:"MAX_HISTORY_ITEMS" envDefault:"10"`
	MaxMessageLength int           `env:"MAX_MESSAGE_LENGTH" envDefault:"1000"`

	SeverityCriticalAbove float64 `env:"SEVERITY_CRITICAL_ABOVE" envDefault:"90"`
	SeverityHighAbove     float64 `env:"SEVERITY_HIGH_ABOVE" envDefault:"70"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if cfg.ProviderTimeout <= 0 {
		return nil, fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %s", cfg.ProviderTimeout)
	}
	if cfg.MaxHistoryItems <= 0 {
		return nil, fmt.Errorf("MAX_HISTORY_ITEMS must be positive, got %d", cfg.MaxHistoryItems)
	}
	if cfg.MaxMessageLength <= 0 {
		return nil, fmt.Errorf("MAX_MESSAGE_LENGTH must be positive, got %d", cfg.MaxMessageLength)
	}
	if cfg.SeverityHighAbove <= 0 || cfg.SeverityCriticalAbove <= cfg.SeverityHighAbove {
		return nil, fmt.Errorf("SEVERITY_CRITICAL_ABOVE (%v) must exceed SEVERITY_HIGH_ABOVE (%v) > 0",
			cfg.SeverityCriticalAbove, cfg.SeverityHighAbove)
	}
	cfg.ParamPrefix = strings.TrimRight(strings.TrimSpace(cfg.ParamPrefix), "/")
	return cfg, nil
}

// Credentials holds one API key per provider. An empty key means the
// provider is not configured.
type Credentials struct {
	OpenAI      string
	HuggingFace string
	ForestWatch string
	OpenWeather string
}

// Credentials returns the keys set directly in the environment.
func (c *Config) Credentials() Credentials {
	return Credentials{
		OpenAI:      strings.TrimSpace(c.OpenAIAPIKey),
		HuggingFace: strings.TrimSpace(c.HuggingFaceAPIKey),
		ForestWatch: strings.TrimSpace(c.ForestWatchAPIKey),
		OpenWeather: strings.TrimSpace(c.OpenWeatherAPIKey),
	}
}

// TokenSource is satisfied by *paramstore.Client.
type TokenSource interface {
	Token(ctx context.Context, name string) (string, error)
}

// Parameter names, relative to PARAM_PREFIX.
const (
	ParamOpenAI      = "openai-api-key"
	ParamHuggingFace = "huggingface-api-key"
	ParamForestWatch = "gfw-api-key"
	ParamOpenWeather = "openweather-api-key"
)

// ResolveCredentials fills every key missing from the environment with the
// value stored under prefix. Keys already set are never looked up. A failed
// lookup leaves that key empty, so only its provider becomes unavailable.
func ResolveCredentials(ctx context.Context, base Credentials, src TokenSource, prefix string, log zerolog.Logger) Credentials {
	if src == nil || prefix == "" {
		return base
	}
	out := base
	for _, f := range []struct {
		param string
		dst   *string
	}{
		{ParamOpenAI, &out.OpenAI},
		{ParamHuggingFace, &out.HuggingFace},
		{ParamForestWatch, &out.ForestWatch},
		{ParamOpenWeather, &out.OpenWeather},
	} {
		if *f.dst != "" {
			continue
		}
		name := prefix + "/" + f.param
		token, err := src.Token(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("parameter", name).Msg("credential lookup failed, provider disabled")
			continue
		}
		*f.dst = token
	}
	return out
}
