package config

import (
	"fmt"
	"strings"
)

// validate performs basic sanity checks. Missing secrets fail startup rather
// than individual requests.
func validate(c *Config) error {
	if err := c.Provider.validate(); err != nil {
		return err
	}
	if err := c.Auth.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	return nil
}

func (p *ProviderConfig) validate() error {
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("provider.api_key is required (set it in the config file or via %s)", envAPIKey)
	}
	if strings.TrimSpace(p.BaseURL) == "" {
		return fmt.Errorf("provider.base_url cannot be empty")
	}
	return nil
}

func (a *AuthConfig) validate() error {
	if strings.TrimSpace(a.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is required (set it in the config file or via %s)", envJWTSecret)
	}
	return nil
}
