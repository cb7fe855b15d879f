package config

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":8820"
	defaultDatabasePath    = "data/baskt.db"
	defaultArchivePath     = "data/trade_archive.db"
	defaultProviderBase    = "https://api.twelvedata.com"
	defaultBinanceBase     = "https://fapi.binance.com"
	defaultProviderTimeout = 15
	defaultTokenTTLHours   = 24
)

func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.Database.applyDefaults()
	c.Provider.applyDefaults()
	c.Auth.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	if a.Env == "" {
		a.Env = defaultAppEnv
	}
	if a.LogLevel == "" {
		a.LogLevel = defaultAppLogLevel
	}
	if a.HTTPAddr == "" {
		a.HTTPAddr = defaultAppHTTPAddr
	}
}

func (d *DatabaseConfig) applyDefaults() {
	if d.Path == "" {
		d.Path = defaultDatabasePath
	}
	if d.ArchivePath == "" {
		d.ArchivePath = defaultArchivePath
	}
}

func (p *ProviderConfig) applyDefaults() {
	if p.BaseURL == "" {
		p.BaseURL = defaultProviderBase
	}
	if p.BinanceBaseURL == "" {
		p.BinanceBaseURL = defaultBinanceBase
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultProviderTimeout
	}
}

func (a *AuthConfig) applyDefaults() {
	if a.TokenTTLHours <= 0 {
		a.TokenTTLHours = defaultTokenTTLHours
	}
}
