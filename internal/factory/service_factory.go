package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
)

// NewAssessmentService builds the assessment service from configuration.
// cache and metrics may be nil.
func NewAssessmentService(
	cfg *config.Config,
	logger *zap.Logger,
	detectors []core.Detector,
	cache core.VerdictCache,
	allowlist core.Allowlist,
	metrics core.Metrics,
) (*core.AssessmentService, error) {
	dc, err := cfg.GetDetectors()
	if err != nil {
		return nil, err
	}
	cc, err := cfg.GetCache()
	if err != nil {
		return nil, err
	}
	scoring, err := cfg.GetScoring()
	if err != nil {
		return nil, err
	}

	logger.Info("Scoring configured",
		zap.Int("suspicious_threshold", scoring.SuspiciousThreshold),
		zap.Int("dangerous_threshold", scoring.DangerousThreshold))

	return core.NewAssessmentService(detectors, cache, allowlist, metrics, logger, core.AssessmentConfig{
		DetectorTimeout:   dc.Timeout,
		AssessmentTimeout: dc.AssessmentTimeout,
		CacheEnabled:      cc.Enabled && cache != nil,
		CacheTTL:          cc.TTL,
		Scoring:           scoring,
	}), nil
}
