package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/phishing-detector/internal/core"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	server, err := cfg.GetServer()
	require.NoError(t, err)
	assert.Equal(t, "http", server.Transport)
	assert.Equal(t, "0.0.0.0:8000", server.ListenAddress)
	assert.Equal(t, "X-Phishing-Score", server.Headers.Score)
	assert.Equal(t, 10, server.SMTP.MaxLinks)

	det, err := cfg.GetDetectors()
	require.NoError(t, err)
	assert.Equal(t, 8*time.Second, det.Timeout)
	assert.Equal(t, 180, det.MinDomainAgeDays)
	assert.Equal(t, []string{"Let's Encrypt"}, det.FreeCAMarkers)
	assert.Contains(t, det.BrandCatalog, "google.com")
	assert.Len(t, det.Confusables, 8)

	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.True(t, cache.Enabled)
	assert.Equal(t, 5*time.Minute, cache.TTL)

	scoring, err := cfg.GetScoring()
	require.NoError(t, err)
	assert.Equal(t, core.DefaultScoringConfig(), scoring)

	blocklist, err := cfg.GetBlocklist()
	require.NoError(t, err)
	assert.Equal(t, []string{"openphish"}, blocklist.Sources)
	assert.Equal(t, 10*time.Second, blocklist.OpenPhishTimeout)
}

func TestFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
detectors:
  timeout: 3s
scoring:
  suspicious_threshold: 5
  weights:
    content: 6
allowlist:
  domains:
    - example.com
`), 0o600))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	det, err := cfg.GetDetectors()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, det.Timeout)

	scoring, err := cfg.GetScoring()
	require.NoError(t, err)
	assert.Equal(t, 5, scoring.SuspiciousThreshold)
	assert.Equal(t, 6, scoring.Weights[core.KindContent])
	assert.Equal(t, 4, scoring.Weights[core.KindBlocklist])

	assert.Equal(t, []string{"example.com"}, cfg.GetAllowlist())
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("PHISH_CACHE_TTL", "90s")
	_, err := NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "an explicit config file that does not exist must be an error")

	cfg, err := New()
	require.NoError(t, err)
	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cache.TTL)
}

func TestInvalidValues(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	cfg.Set("scoring.dangerous_threshold", 3)
	_, err := cfg.GetScoring()
	assert.Error(t, err)

	cfg.Set("detectors.timeout", "soon")
	_, err = cfg.GetDetectors()
	assert.Error(t, err)

	cfg.Set("detectors.timeout", "30s")
	_, err = cfg.GetDetectors()
	assert.Error(t, err, "assessment timeout shorter than detector timeout")
}
