package detectors

import (
	"context"
	"strings"
	"time"

	"github.com/mikey/phishing-detector/internal/core"
)

// DefaultFreeCAMarkers are issuer fragments of certificate authorities that issue certificates for free
func DefaultFreeCAMarkers() []string {
	return []string{"Let's Encrypt"}
}

// Certificate inspects the leaf certificate served by the URL's host.
// Issuance by a free CA is a weighting signal, not proof of abuse.
type Certificate struct {
	fetch   core.CertificateFetch
	markers []string
	now     func() time.Time
}

// NewCertificate creates a certificate detector
func NewCertificate(fetch core.CertificateFetch, freeCAMarkers []string) *Certificate {
	markers := make([]string, 0, len(freeCAMarkers))
	for _, m := range freeCAMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			markers = append(markers, m)
		}
	}
	return &Certificate{fetch: fetch, markers: markers, now: time.Now}
}

func (d *Certificate) Kind() core.DetectorKind { return core.KindCertificate }

func (d *Certificate) Detect(ctx context.Context, target *core.Target) core.DetectorResult {
	host := target.Domain.Host
	if host == "" {
		return core.FallbackResult(core.KindCertificate, core.BadData("no host in %q", target.URL))
	}

	leaf, err := d.fetch.Leaf(ctx, host)
	if err != nil {
		return core.FallbackResult(core.KindCertificate, err)
	}
	if leaf == nil {
		return core.FallbackResult(core.KindCertificate, core.BadData("no certificate served by %s", host))
	}

	expiry := leaf.NotAfter
	matches := matchesDomain(leaf, target.Domain.RegistrableDomain)
	expired := d.now().After(expiry)
	freeCA := d.isFreeCA(leaf.Issuer)

	return &core.CertificateResult{
		Issuer:        leaf.Issuer,
		Expiry:        &expiry,
		MatchesDomain: matches,
		IsExpired:     expired,
		IsFreeCA:      freeCA,
		IsSuspicious:  !matches || expired || freeCA,
		Outcome:       core.Succeeded(),
	}
}

func (d *Certificate) isFreeCA(issuer string) bool {
	issuer = strings.ToLower(issuer)
	for _, m := range d.markers {
		if strings.Contains(issuer, m) {
			return true
		}
	}
	return false
}

// matchesDomain reports whether the subject CN or a SAN names the registrable
// domain or a name below it. Wildcards are compared by their base name.
func matchesDomain(leaf *core.LeafCertificate, registrable string) bool {
	if registrable == "" {
		return false
	}
	registrable = strings.ToLower(registrable)

	names := append([]string{leaf.SubjectCN}, leaf.DNSNames...)
	for _, name := range names {
		name = strings.TrimPrefix(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), "."), "*.")
		if name == "" {
			continue
		}
		if name == registrable || strings.HasSuffix(name, "."+registrable) {
			return true
		}
	}
	return false
}
