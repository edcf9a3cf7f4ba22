package core

import (
	"context"
	"strings"
	"time"
)

// Target is the URL under assessment together with its decomposed host
type Target struct {
	// URL is the input as received, trimmed
	URL string
	// FetchURL is URL with a scheme, suitable for network requests
	FetchURL string
	Domain   DecomposedDomain
}

// NewTarget decomposes rawURL once for every detector to share
func NewTarget(rawURL string) *Target {
	trimmed := strings.TrimSpace(rawURL)
	fetchURL := trimmed
	if trimmed != "" && !strings.Contains(trimmed, "://") {
		fetchURL = "http://" + strings.TrimPrefix(trimmed, "//")
	}
	return &Target{
		URL:      trimmed,
		FetchURL: fetchURL,
		Domain:   Decompose(trimmed),
	}
}

// Detector produces one independent signal about a Target.
// Detect never fails: problems are reported through the result's Outcome.
type Detector interface {
	Kind() DetectorKind
	Detect(ctx context.Context, target *Target) DetectorResult
}

// BlocklistFeed answers whether a URL appears in a phishing feed
type BlocklistFeed interface {
	Contains(ctx context.Context, url string) (bool, error)
}

// WhoisLookup resolves the registration date of a domain
type WhoisLookup interface {
	CreationDate(ctx context.Context, domain string) (time.Time, error)
}

// LeafCertificate is the part of a served certificate the detectors inspect
type LeafCertificate struct {
	Issuer    string
	NotBefore time.Time
	NotAfter  time.Time
	SubjectCN string
	DNSNames  []string
}

// CertificateFetch retrieves the leaf certificate served by a host
type CertificateFetch interface {
	Leaf(ctx context.Context, host string) (*LeafCertificate, error)
}

// RedirectFollower walks the redirect chain starting at a URL
type RedirectFollower interface {
	FollowRedirects(ctx context.Context, url string) ([]RedirectHop, error)
}

// PageFetcher downloads the HTML body of a page
type PageFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// FormInput is an input element of an HTML form
type FormInput struct {
	Type string
	Name string
}

// Form is an HTML form and its inputs
type Form struct {
	Action string
	Method string
	Inputs []FormInput
}

// HTMLParser extracts the structure the content detector needs from a page
type HTMLParser interface {
	ExtractForms(html []byte) ([]Form, error)
	ExtractText(html []byte) (string, error)
}

// VerdictCache keeps recent verdicts for a bounded time
type VerdictCache interface {
	// Get retrieves the cached verdict for a URL
	Get(ctx context.Context, url string) (*Verdict, error)

	// Set stores a verdict for ttl
	Set(ctx context.Context, url string, verdict *Verdict, ttl time.Duration) error
}

// Allowlist decides whether a host is trusted by the operator
type Allowlist interface {
	IsAllowlisted(host string) bool
}

// Metrics records assessment telemetry
type Metrics interface {
	ObserveDetector(kind DetectorKind, elapsed time.Duration, result DetectorResult)
	ObserveVerdict(level RiskLevel)
	ObserveCache(hit bool)
}

// NopMetrics discards all telemetry
type NopMetrics struct{}

func (NopMetrics) ObserveDetector(DetectorKind, time.Duration, DetectorResult) {}
func (NopMetrics) ObserveVerdict(RiskLevel)                                    {}
func (NopMetrics) ObserveCache(bool)                                           {}
