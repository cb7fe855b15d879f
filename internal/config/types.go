package config

// Config is the top-level configuration carrier for baskt.
type Config struct {
	App      AppConfig      `toml:"app"`
	Database DatabaseConfig `toml:"database"`
	Provider ProviderConfig `toml:"provider"`
	Auth     AuthConfig     `toml:"auth"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

type DatabaseConfig struct {
	Path        string `toml:"path"`
	ArchivePath string `toml:"archive_path"`
}

// ProviderConfig describes the market-data provider access.
// APIKey can be injected via BASKT_PROVIDER_API_KEY.
type ProviderConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	BinanceBaseURL string `toml:"binance_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AuthConfig controls token issuance. JWTSecret can be injected via BASKT_JWT_SECRET.
type AuthConfig struct {
	JWTSecret     string `toml:"jwt_secret"`
	TokenTTLHours int    `toml:"token_ttl_hours"`
}
