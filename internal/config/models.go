package config

import (
	"fmt"
	"time"

	"github.com/mikey/phishing-detector/internal/core"
)

// ServerConfig represents the configuration of the transports
type ServerConfig struct {
	Transport     string
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	SMTP          SMTPConfig
	Headers       HeadersConfig
}

// SMTPConfig represents the configuration of the SMTP link filter
type SMTPConfig struct {
	ListenAddress  string
	RelayAddress   string
	Domain         string
	BlockDangerous bool
	MaxLinks       int
}

// HeadersConfig names the headers the SMTP filter adds to messages
type HeadersConfig struct {
	Score string
	Level string
	URLs  string
}

// DetectorsConfig represents the configuration of the detectors
type DetectorsConfig struct {
	Timeout           time.Duration
	AssessmentTimeout time.Duration
	UserAgent         string
	Confusables       []string
	MinDomainAgeDays  int
	MaxRedirectHops   int
	MaxSuspiciousHops int
	CertificatePort   int
	FreeCAMarkers     []string
	ContentFetcher    string
	MaxBodyBytes      int64
	Keywords          []string
	ChromePath        string
	BrandCatalog      []string
	MaxBrandDistance  int
	DynamicDNS        []string
}

// BlocklistConfig represents the configuration of the blocklist feeds
type BlocklistConfig struct {
	Sources          []string
	OpenPhishURL     string
	OpenPhishTimeout time.Duration
	Refresh          time.Duration
	RBLZones         []string
	RBLResolver      string
	SQLDriver        string
	SQLDSN           string
}

// CacheConfig represents the configuration of the verdict cache
type CacheConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
}

// MetricsConfig represents the configuration of the metrics endpoint
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// GetServer returns the server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	readTimeout, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	writeTimeout, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{
		Transport:     c.GetString("server.transport"),
		ListenAddress: c.GetString("server.listen_address"),
		ReadTimeout:   readTimeout,
		WriteTimeout:  writeTimeout,
		SMTP: SMTPConfig{
			ListenAddress:  c.GetString("server.smtp.listen_address"),
			RelayAddress:   c.GetString("server.smtp.relay_address"),
			Domain:         c.GetString("server.smtp.domain"),
			BlockDangerous: c.GetBool("server.smtp.block_dangerous"),
			MaxLinks:       c.GetInt("server.smtp.max_links"),
		},
		Headers: HeadersConfig{
			Score: c.GetString("server.headers.score"),
			Level: c.GetString("server.headers.level"),
			URLs:  c.GetString("server.headers.urls"),
		},
	}, nil
}

// GetDetectors returns the detectors configuration
func (c *Config) GetDetectors() (DetectorsConfig, error) {
	timeout, err := c.GetDuration("detectors.timeout")
	if err != nil {
		return DetectorsConfig{}, err
	}
	assessmentTimeout, err := c.GetDuration("detectors.assessment_timeout")
	if err != nil {
		return DetectorsConfig{}, err
	}
	if assessmentTimeout < timeout {
		return DetectorsConfig{}, fmt.Errorf("detectors.assessment_timeout (%s) must not be shorter than detectors.timeout (%s)",
			assessmentTimeout, timeout)
	}
	return DetectorsConfig{
		Timeout:           timeout,
		AssessmentTimeout: assessmentTimeout,
		UserAgent:         c.GetString("detectors.user_agent"),
		Confusables:       c.GetStringSlice("detectors.substitution.confusables"),
		MinDomainAgeDays:  c.GetInt("detectors.domain_age.min_days"),
		MaxRedirectHops:   c.GetInt("detectors.redirects.max_hops"),
		MaxSuspiciousHops: c.GetInt("detectors.redirects.max_suspicious_hops"),
		CertificatePort:   c.GetInt("detectors.certificate.port"),
		FreeCAMarkers:     c.GetStringSlice("detectors.certificate.free_ca_markers"),
		ContentFetcher:    c.GetString("detectors.content.fetcher"),
		MaxBodyBytes:      c.GetInt64("detectors.content.max_body_bytes"),
		Keywords:          c.GetStringSlice("detectors.content.keywords"),
		ChromePath:        c.GetString("detectors.content.chrome_path"),
		BrandCatalog:      c.GetStringSlice("detectors.brand.catalog"),
		MaxBrandDistance:  c.GetInt("detectors.brand.max_distance"),
		DynamicDNS:        c.GetStringSlice("detectors.dynamic_dns.providers"),
	}, nil
}

// GetBlocklist returns the blocklist configuration
func (c *Config) GetBlocklist() (BlocklistConfig, error) {
	timeout, err := c.GetDuration("blocklist.openphish_timeout")
	if err != nil {
		return BlocklistConfig{}, err
	}
	refresh, err := c.GetDuration("blocklist.refresh")
	if err != nil {
		return BlocklistConfig{}, err
	}
	return BlocklistConfig{
		Sources:          c.GetStringSlice("blocklist.sources"),
		OpenPhishURL:     c.GetString("blocklist.openphish_url"),
		OpenPhishTimeout: timeout,
		Refresh:          refresh,
		RBLZones:         c.GetStringSlice("blocklist.rbl_zones"),
		RBLResolver:      c.GetString("blocklist.rbl_resolver"),
		SQLDriver:        c.GetString("blocklist.sql_driver"),
		SQLDSN:           c.GetString("blocklist.sql_dsn"),
	}, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Enabled:          c.GetBool("cache.enabled"),
		Type:             c.GetString("cache.type"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		RedisAddr:        c.GetString("cache.redis_addr"),
		RedisPassword:    c.GetString("cache.redis_password"),
		RedisDB:          c.GetInt("cache.redis_db"),
	}, nil
}

// GetScoring returns the validated scoring configuration
func (c *Config) GetScoring() (core.ScoringConfig, error) {
	weights := make(map[core.DetectorKind]int, len(core.AllKinds()))
	for _, kind := range core.AllKinds() {
		weights[kind] = c.GetInt("scoring.weights." + string(kind))
	}
	scoring := core.ScoringConfig{
		Weights:             weights,
		SuspiciousThreshold: c.GetInt("scoring.suspicious_threshold"),
		DangerousThreshold:  c.GetInt("scoring.dangerous_threshold"),
	}
	if err := scoring.Validate(); err != nil {
		return core.ScoringConfig{}, fmt.Errorf("invalid scoring configuration: %w", err)
	}
	return scoring, nil
}

// GetAllowlist returns the allowlisted host fragments
func (c *Config) GetAllowlist() []string {
	return c.GetStringSlice("allowlist.domains")
}

// GetMetrics returns the metrics configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled: c.GetBool("metrics.enabled"),
		Path:    c.GetString("metrics.path"),
	}
}
