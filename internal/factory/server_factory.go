package factory

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/adapters/server"
	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/ports"
)

// ServerFactory creates the transport exposing the assessment service
type ServerFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	service  *core.AssessmentService
	registry *prometheus.Registry
}

// NewServerFactory creates a new server factory
func NewServerFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.AssessmentService,
	registry *prometheus.Registry,
) *ServerFactory {
	return &ServerFactory{
		cfg:      cfg,
		logger:   logger,
		service:  service,
		registry: registry,
	}
}

// CreateURLChecker creates a transport based on the configuration
func (f *ServerFactory) CreateURLChecker() (ports.URLChecker, error) {
	sc, err := f.cfg.GetServer()
	if err != nil {
		return nil, err
	}

	switch sc.Transport {
	case "http":
		mc := f.cfg.GetMetrics()
		var metricsHandler http.Handler
		if mc.Enabled && f.registry != nil {
			metricsHandler = promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{})
		}
		return server.NewHTTPServer(
			f.service,
			f.logger,
			sc.ListenAddress,
			sc.ReadTimeout,
			sc.WriteTimeout,
			mc.Path,
			metricsHandler,
		), nil
	case "smtp":
		return server.NewSMTPFilter(f.service, f.logger, server.SMTPFilterConfig{
			ListenAddress:  sc.SMTP.ListenAddress,
			Domain:         sc.SMTP.Domain,
			RelayAddress:   sc.SMTP.RelayAddress,
			BlockDangerous: sc.SMTP.BlockDangerous,
			MaxLinks:       sc.SMTP.MaxLinks,
			ScoreHeader:    sc.Headers.Score,
			LevelHeader:    sc.Headers.Level,
			URLsHeader:     sc.Headers.URLs,
		}), nil
	case "cli":
		return server.NewCLIChecker(f.service, f.logger, os.Stdout, f.cfg.GetBool("cli.json")), nil
	default:
		return nil, fmt.Errorf("unsupported transport: %s", sc.Transport)
	}
}
