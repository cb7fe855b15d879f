package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	envAPIKey    = "BASKT_PROVIDER_API_KEY"
	envJWTSecret = "BASKT_JWT_SECRET"
)

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv(envAPIKey); key != "" {
		c.Provider.APIKey = key
	}
	if secret := os.Getenv(envJWTSecret); secret != "" {
		c.Auth.JWTSecret = secret
	}
}
