package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mikey/phishing-detector/internal/detectors"
	"github.com/mikey/phishing-detector/internal/heuristics"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return NewFromFile("")
}

// NewFromFile creates a configuration instance reading path, or searching
// the default locations when path is empty
func NewFromFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/phishing-detector/")
		v.AddConfigPath("$HOME/.phishing-detector")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("PHISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.transport", "http")
	v.SetDefault("server.listen_address", "0.0.0.0:8000")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.smtp.listen_address", "0.0.0.0:10026")
	v.SetDefault("server.smtp.relay_address", "")
	v.SetDefault("server.smtp.block_dangerous", false)
	v.SetDefault("server.smtp.max_links", 10)
	v.SetDefault("server.smtp.domain", "localhost")
	v.SetDefault("server.headers.score", "X-Phishing-Score")
	v.SetDefault("server.headers.level", "X-Phishing-Level")
	v.SetDefault("server.headers.urls", "X-Phishing-URLs")

	// Detector defaults
	v.SetDefault("detectors.timeout", "8s")
	v.SetDefault("detectors.assessment_timeout", "20s")
	v.SetDefault("detectors.user_agent", "Mozilla/5.0 (compatible; phishing-detector/1.0)")
	v.SetDefault("detectors.substitution.confusables", []string{"0=o", "1=il", "3=e", "4=a", "5=s", "7=t", "8=b", "9=g"})
	v.SetDefault("detectors.domain_age.min_days", detectors.DefaultMinDomainAgeDays)
	v.SetDefault("detectors.redirects.max_hops", 10)
	v.SetDefault("detectors.redirects.max_suspicious_hops", detectors.DefaultMaxSuspiciousHops)
	v.SetDefault("detectors.certificate.port", 443)
	v.SetDefault("detectors.certificate.free_ca_markers", detectors.DefaultFreeCAMarkers())
	v.SetDefault("detectors.content.fetcher", "http")
	v.SetDefault("detectors.content.max_body_bytes", 2*1024*1024)
	v.SetDefault("detectors.content.keywords", detectors.DefaultSensitiveKeywords())
	v.SetDefault("detectors.content.chrome_path", "")
	v.SetDefault("detectors.brand.catalog", heuristics.DefaultBrandCatalog())
	v.SetDefault("detectors.brand.max_distance", heuristics.DefaultMaxBrandDistance)
	v.SetDefault("detectors.dynamic_dns.providers", heuristics.DefaultDynamicDNSProviders())

	// Blocklist defaults
	v.SetDefault("blocklist.sources", []string{"openphish"})
	v.SetDefault("blocklist.openphish_url", "https://openphish.com/feed.txt")
	v.SetDefault("blocklist.openphish_timeout", "10s")
	v.SetDefault("blocklist.refresh", "10m")
	v.SetDefault("blocklist.rbl_zones", []string{"multi.surbl.org", "dbl.spamhaus.org"})
	v.SetDefault("blocklist.rbl_resolver", "8.8.8.8:53")
	v.SetDefault("blocklist.sql_driver", "sqlite3")
	v.SetDefault("blocklist.sql_dsn", "/data/blocklist.db")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.cleanup_frequency", "1m")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// Scoring defaults
	v.SetDefault("scoring.suspicious_threshold", 4)
	v.SetDefault("scoring.dangerous_threshold", 7)
	v.SetDefault("scoring.weights.blocklist", 4)
	v.SetDefault("scoring.weights.number_substitution", 2)
	v.SetDefault("scoring.weights.special_characters", 1)
	v.SetDefault("scoring.weights.domain_age", 2)
	v.SetDefault("scoring.weights.dynamic_dns", 3)
	v.SetDefault("scoring.weights.certificate", 2)
	v.SetDefault("scoring.weights.redirects", 2)
	v.SetDefault("scoring.weights.brand_similarity", 3)
	v.SetDefault("scoring.weights.content", 3)

	// Allowlist defaults
	v.SetDefault("allowlist.domains", []string{})

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Set overrides a configuration value
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
