package config

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	require.Equal(t, 8*time.Second, cfg.ProviderTimeout)
	require.Equal(t, 10, cfg.MaxHistoryItems)
	require.Equal(t, 1000, cfg.MaxMessageLength)
	require.Equal(t, 90.0, cfg.SeverityCriticalAbove)
	require.Equal(t, 70.0, cfg.SeverityHighAbove)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PARAM_PREFIX", "/climate/prod/")
	t.Setenv("PROVIDER_TIMEOUT", "3s")
	t.Setenv("OPENAI_API_KEY", " sk-env ")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/climate/prod", cfg.ParamPrefix)
	require.Equal(t, 3*time.Second, cfg.ProviderTimeout)
	require.Equal(t, "sk-env", cfg.Credentials().OpenAI)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"bad duration":       {"PROVIDER_TIMEOUT", "soon"},
		"zero timeout":       {"PROVIDER_TIMEOUT", "0s"},
		"zero history":       {"MAX_HISTORY_ITEMS", "0"},
		"inverted threshold": {"SEVERITY_HIGH_ABOVE", "95"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
		})
	}
}

type fakeTokens struct {
	values map[string]string
	errs   map[string]error
	asked  []string
}

func (f *fakeTokens) Token(_ context.Context, name string) (string, error) {
	f.asked = append(f.asked, name)
	if err := f.errs[name]; err != nil {
		return "", err
	}
	return f.values[name], nil
}

func TestResolveCredentials_FillsOnlyMissingKeys(t *testing.T) {
	src := &fakeTokens{values: map[string]string{
		"/p/openai-api-key":      "sk-ssm",
		"/p/gfw-api-key":         "gfw-ssm",
		"/p/openweather-api-key": "",
	}}

	got := ResolveCredentials(context.Background(), Credentials{OpenAI: "sk-env"}, src, "/p", zerolog.Nop())
	require.Equal(t, Credentials{OpenAI: "sk-env", ForestWatch: "gfw-ssm"}, got)
	require.NotContains(t, src.asked, "/p/openai-api-key")
	require.Len(t, src.asked, 3)
}

func TestResolveCredentials_NoPrefixSkipsLookup(t *testing.T) {
	src := &fakeTokens{}
	base := Credentials{HuggingFace: "hf"}

	got := ResolveCredentials(context.Background(), base, src, "", zerolog.Nop())
	require.Equal(t, base, got)
	require.Empty(t, src.asked)
}

func TestResolveCredentials_LookupErrorDisablesOnlyThatProvider(t *testing.T) {
	src := &fakeTokens{
		values: map[string]string{
			"/p/openai-api-key":      "sk-ssm",
			"/p/openweather-api-key": "ow-ssm",
		},
		errs: map[string]error{
			"/p/gfw-api-key":         errors.New("AccessDeniedException"),
			"/p/huggingface-api-key": errors.New("ThrottlingException"),
		},
	}

	var buf bytes.Buffer
	got := ResolveCredentials(context.Background(), Credentials{}, src, "/p", zerolog.New(&buf))
	require.Equal(t, Credentials{OpenAI: "sk-ssm", OpenWeather: "ow-ssm"}, got)
	require.Len(t, src.asked, 4)
	require.Contains(t, buf.String(), "AccessDeniedException")
	require.Contains(t, buf.String(), "/p/gfw-api-key")
}
