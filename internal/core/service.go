package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AssessmentConfig holds the tunables of the AssessmentService
type AssessmentConfig struct {
	DetectorTimeout   time.Duration
	AssessmentTimeout time.Duration
	CacheEnabled      bool
	CacheTTL          time.Duration
	Scoring           ScoringConfig
}

// AssessmentService is the core service for phishing URL assessment
type AssessmentService struct {
	detectors []Detector
	cache     VerdictCache
	allowlist Allowlist
	metrics   Metrics
	logger    *zap.Logger
	cfg       AssessmentConfig
	now       func() time.Time
}

// NewAssessmentService creates a new assessment service.
// cache, allowlist and metrics may be nil.
func NewAssessmentService(
	detectors []Detector,
	cache VerdictCache,
	allowlist Allowlist,
	metrics Metrics,
	logger *zap.Logger,
	cfg AssessmentConfig,
) *AssessmentService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if cfg.Scoring.Weights == nil {
		cfg.Scoring = DefaultScoringConfig()
	}
	return &AssessmentService{
		detectors: detectors,
		cache:     cache,
		allowlist: allowlist,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Kinds returns the detector kinds this service reports, in registration order
func (s *AssessmentService) Kinds() []DetectorKind {
	kinds := make([]DetectorKind, len(s.detectors))
	for i, d := range s.detectors {
		kinds[i] = d.Kind()
	}
	return kinds
}

// Assess runs every detector against rawURL and assembles the verdict.
// An error is returned only when ctx ends before the verdict is complete;
// detector failures are folded into their results.
func (s *AssessmentService) Assess(ctx context.Context, rawURL string) (*Verdict, error) {
	target := NewTarget(rawURL)

	// Check cache if enabled
	if s.cacheEnabled() {
		if cached, err := s.cache.Get(ctx, target.URL); err == nil {
			s.logger.Debug("Cache hit for URL", zap.String("url", target.URL))
			s.metrics.ObserveCache(true)
			return cached, nil
		}
		s.logger.Debug("Cache miss for URL", zap.String("url", target.URL))
		s.metrics.ObserveCache(false)
	}

	runCtx := ctx
	if s.cfg.AssessmentTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.AssessmentTimeout)
		defer cancel()
	}

	results := s.runDetectors(runCtx, target)

	// Only the caller giving up abandons the verdict; the assessment
	// deadline just turns slow detectors into fallbacks
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assessment of %q abandoned: %w", target.URL, err)
	}

	verdict := &Verdict{
		ID:         uuid.NewString(),
		URL:        target.URL,
		Domain:     target.Domain,
		Results:    results,
		AssessedAt: s.now().UTC(),
	}

	// Allowlisted hosts are still fully assessed so the report stays complete
	if s.allowlist != nil && s.allowlist.IsAllowlisted(target.Domain.Host) {
		s.logger.Info("URL host is allowlisted",
			zap.String("url", target.URL),
			zap.String("host", target.Domain.Host),
			zap.String("action", "allowlist_bypass"))
		verdict.Risk = Allowlisted(target.Domain.Host)
	} else {
		verdict.Risk = Score(results, s.cfg.Scoring)
	}
	s.metrics.ObserveVerdict(verdict.Risk.Level)

	s.logger.Info("URL assessed",
		zap.String("id", verdict.ID),
		zap.String("url", verdict.URL),
		zap.Int("score", verdict.Risk.Score),
		zap.String("level", string(verdict.Risk.Level)))

	// Update cache with result if enabled
	if s.cacheEnabled() {
		// Bounded independently of the caller deadline
		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(setCtx, target.URL, verdict, s.cfg.CacheTTL); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	return verdict, nil
}

func (s *AssessmentService) cacheEnabled() bool {
	return s.cfg.CacheEnabled && s.cache != nil
}

// runDetectors fans out over all detectors and merges their results.
// Each detector writes only its own slot, so no locking is needed before the merge.
func (s *AssessmentService) runDetectors(ctx context.Context, target *Target) map[DetectorKind]DetectorResult {
	slots := make([]DetectorResult, len(s.detectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range s.detectors {
		i, d := i, d
		g.Go(func() error {
			slots[i] = s.runDetector(gctx, d, target)
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[DetectorKind]DetectorResult, len(s.detectors))
	for i, d := range s.detectors {
		r := slots[i]
		if r == nil {
			r = FallbackResult(d.Kind(), ErrNoResult)
		}
		results[d.Kind()] = r
	}
	return results
}

// runDetector bounds a single detector by its own deadline and substitutes
// the fallback result when the detector does not answer in time
func (s *AssessmentService) runDetector(ctx context.Context, d Detector, target *Target) DetectorResult {
	kind := d.Kind()
	start := time.Now()

	dctx := ctx
	if s.cfg.DetectorTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, s.cfg.DetectorTimeout)
		defer cancel()
	}

	done := make(chan DetectorResult, 1)
	go func() {
		done <- d.Detect(dctx, target)
	}()

	var result DetectorResult
	select {
	case result = <-done:
	case <-dctx.Done():
		result = FallbackResult(kind, dctx.Err())
	}
	if result == nil {
		result = FallbackResult(kind, ErrNoResult)
	}

	s.metrics.ObserveDetector(kind, time.Since(start), result)
	if result.Failed() {
		category, reason := result.Failure()
		s.logger.Warn("Detector fell back to conservative result",
			zap.String("detector", string(kind)),
			zap.String("url", target.URL),
			zap.String("category", string(category)),
			zap.String("reason", reason))
	}
	return result
}
