package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Upstream UpstreamConfig `toml:"upstream"`
	Cache    CacheConfig    `toml:"cache"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// UpstreamConfig contains settings for the extractor service that turns
// media ids into playable audio URLs.
type UpstreamConfig struct {
	BaseURL       string  `toml:"base_url"`
	TimeoutSecs   int     `toml:"timeout_secs"`
	RateLimit     float64 `toml:"rate_limit"`
	OAuthClientID string  `toml:"oauth_client_id"`
	OAuthSecret   string  `toml:"oauth_client_secret"`
	OAuthTokenURL string  `toml:"oauth_token_url"`
	SearchLimit   int     `toml:"search_limit"`
	RelatedLimit  int     `toml:"related_limit"`
	PrefetchLimit int     `toml:"prefetch_limit"`
	PrefetchSlots int     `toml:"prefetch_slots"`
	TrendingQuery string  `toml:"trending_query"`
}

// CacheConfig contains TTL settings, in minutes, for each cache tier.
type CacheConfig struct {
	AudioTTLMins   int `toml:"audio_ttl_mins"`
	RelatedTTLMins int `toml:"related_ttl_mins"`
	SearchTTLMins  int `toml:"search_ttl_mins"`
}

// AudioTTL returns the audio URL cache TTL as a [time.Duration].
func (c CacheConfig) AudioTTL() time.Duration {
	return time.Duration(c.AudioTTLMins) * time.Minute
}

// RelatedTTL returns the related-list cache TTL as a [time.Duration].
func (c CacheConfig) RelatedTTL() time.Duration {
	return time.Duration(c.RelatedTTLMins) * time.Minute
}

// SearchTTL returns the per-user search cache TTL as a [time.Duration].
func (c CacheConfig) SearchTTL() time.Duration {
	return time.Duration(c.SearchTTLMins) * time.Minute
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
