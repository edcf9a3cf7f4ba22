package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/adapters/blocklist"
	"github.com/mikey/phishing-detector/internal/adapters/htmlparse"
	"github.com/mikey/phishing-detector/internal/adapters/httpfetch"
	"github.com/mikey/phishing-detector/internal/adapters/tlsprobe"
	"github.com/mikey/phishing-detector/internal/adapters/whois"
	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/detectors"
	"github.com/mikey/phishing-detector/internal/heuristics"
)

// DetectorFactory creates the detectors and the adapters behind them
type DetectorFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	stoppers []func()
}

// NewDetectorFactory creates a new detector factory
func NewDetectorFactory(cfg *config.Config, logger *zap.Logger) *DetectorFactory {
	return &DetectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDetectors creates every detector in reporting order
func (f *DetectorFactory) CreateDetectors() ([]core.Detector, error) {
	dc, err := f.cfg.GetDetectors()
	if err != nil {
		return nil, err
	}

	feed, err := f.CreateBlocklistFeed()
	if err != nil {
		return nil, err
	}

	confusables, err := heuristics.ParseConfusables(dc.Confusables)
	if err != nil {
		return nil, fmt.Errorf("invalid detectors.substitution.confusables: %w", err)
	}

	httpCfg := httpfetch.Config{
		Timeout:   dc.Timeout,
		MaxHops:   dc.MaxRedirectHops,
		MaxBytes:  dc.MaxBodyBytes,
		UserAgent: dc.UserAgent,
	}

	fetcher, err := f.createPageFetcher(dc, httpCfg)
	if err != nil {
		return nil, err
	}

	detectorList := []core.Detector{
		detectors.NewBlocklist(feed),
		heuristics.NewSubstitution(confusables),
		heuristics.NewSpecialChars(),
		detectors.NewDomainAge(whois.NewLookup(dc.Timeout, f.logger), dc.MinDomainAgeDays),
		heuristics.NewDynamicDNS(dc.DynamicDNS),
		detectors.NewCertificate(tlsprobe.NewProber(dc.CertificatePort, dc.Timeout), dc.FreeCAMarkers),
		detectors.NewRedirects(httpfetch.NewRedirectWalker(httpCfg), dc.MaxSuspiciousHops),
		heuristics.NewBrandSimilarity(dc.BrandCatalog, dc.MaxBrandDistance),
		detectors.NewContent(fetcher, htmlparse.New(), dc.Keywords),
	}

	f.logger.Info("Created detectors",
		zap.Int("count", len(detectorList)),
		zap.String("content_fetcher", dc.ContentFetcher),
		zap.Duration("timeout", dc.Timeout))

	return detectorList, nil
}

func (f *DetectorFactory) createPageFetcher(dc config.DetectorsConfig, httpCfg httpfetch.Config) (core.PageFetcher, error) {
	switch dc.ContentFetcher {
	case "http", "":
		return httpfetch.NewPageFetcher(httpCfg), nil
	case "chromedp":
		rendered := httpfetch.NewRenderedFetcher(httpCfg, dc.ChromePath, f.logger)
		f.stoppers = append(f.stoppers, rendered.Stop)
		return rendered, nil
	default:
		return nil, fmt.Errorf("unsupported content fetcher: %s", dc.ContentFetcher)
	}
}

// CreateBlocklistFeed combines the configured blocklist sources
func (f *DetectorFactory) CreateBlocklistFeed() (core.BlocklistFeed, error) {
	bc, err := f.cfg.GetBlocklist()
	if err != nil {
		return nil, err
	}

	var feeds []blocklist.NamedFeed
	for _, source := range bc.Sources {
		switch strings.ToLower(strings.TrimSpace(source)) {
		case "openphish":
			feeds = append(feeds, blocklist.NewOpenPhishFeed(blocklist.OpenPhishConfig{
				URL:     bc.OpenPhishURL,
				Timeout: bc.OpenPhishTimeout,
				Refresh: bc.Refresh,
			}, f.logger))
		case "rbl":
			resolver := blocklist.NewResolver(bc.RBLResolver, bc.OpenPhishTimeout)
			feeds = append(feeds, blocklist.NewRBLFeed(bc.RBLZones, resolver, f.logger))
		case "sql":
			sqlFeed, err := f.CreateSQLFeed()
			if err != nil {
				return nil, err
			}
			feeds = append(feeds, sqlFeed)
		default:
			return nil, fmt.Errorf("unsupported blocklist source: %s", source)
		}
	}

	f.logger.Info("Created blocklist feed", zap.Strings("sources", bc.Sources))
	return blocklist.NewCompositeFeed(f.logger, feeds...), nil
}

// CreateSQLFeed opens the SQL blocklist table
func (f *DetectorFactory) CreateSQLFeed() (*blocklist.SQLFeed, error) {
	bc, err := f.cfg.GetBlocklist()
	if err != nil {
		return nil, err
	}
	if bc.SQLDriver == "sqlite3" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(bc.SQLDSN), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
	}
	feed, err := blocklist.NewSQLFeed(bc.SQLDriver, bc.SQLDSN, f.logger)
	if err != nil {
		return nil, err
	}
	f.stoppers = append(f.stoppers, feed.Stop)
	return feed, nil
}

// Stop releases browsers and database handles opened by the factory
func (f *DetectorFactory) Stop() {
	for _, stop := range f.stoppers {
		stop()
	}
	f.stoppers = nil
}
