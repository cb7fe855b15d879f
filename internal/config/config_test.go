package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, content map[string]any) string {
	t.Helper()
	raw, err := yaml.Marshal(content)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"provider": map[string]any{"api_key": "td-test-key"},
		"auth":     map[string]any{"jwt_secret": "s3cret"},
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, ":8820", cfg.App.HTTPAddr)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "data/baskt.db", cfg.Database.Path)
	assert.Equal(t, "https://api.twelvedata.com", cfg.Provider.BaseURL)
	assert.Equal(t, 15, cfg.Provider.TimeoutSeconds)
	assert.Equal(t, 24, cfg.Auth.TokenTTLHours)
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"auth": map[string]any{"jwt_secret": "s3cret"},
	})

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider.api_key")
}

func TestLoadRejectsMissingJWTSecret(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"provider": map[string]any{"api_key": "td-test-key"},
	})

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BASKT_PROVIDER_API_KEY", "env-key")
	t.Setenv("BASKT_JWT_SECRET", "env-secret")

	path := writeConfigFile(t, map[string]any{
		"app": map[string]any{"log_level": "debug"},
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Provider.APIKey)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}
