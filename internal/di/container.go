package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/allowlist"
	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/factory"
	"github.com/mikey/phishing-detector/internal/logging"
	"github.com/mikey/phishing-detector/internal/metrics"
	"github.com/mikey/phishing-detector/internal/ports"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, reg *prometheus.Registry) core.Metrics {
		if !cfg.GetMetrics().Enabled {
			return nil
		}
		return metrics.New(reg)
	}); err != nil {
		return nil, err
	}

	if err := provideAssessment(container); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewServerFactory); err != nil {
		return nil, err
	}

	// Register transport
	if err := container.Provide(func(f *factory.ServerFactory) (ports.URLChecker, error) {
		return f.CreateURLChecker()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideAssessment registers the detectors, cache, allowlist and the
// assessment service. It expects the config, logger and metrics.
func provideAssessment(container *dig.Container) error {
	if err := container.Provide(factory.NewDetectorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}

	// Register detectors
	if err := container.Provide(func(f *factory.DetectorFactory) ([]core.Detector, error) {
		return f.CreateDetectors()
	}); err != nil {
		return err
	}

	// Register verdict cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.VerdictCache, error) {
		return f.CreateVerdictCache()
	}); err != nil {
		return err
	}

	// Register allowlist
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.Allowlist {
		return allowlist.NewChecker(cfg.GetAllowlist(), logger)
	}); err != nil {
		return err
	}

	// Register assessment service
	return container.Provide(factory.NewAssessmentService)
}
