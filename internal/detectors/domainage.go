package detectors

import (
	"context"
	"time"

	"github.com/mikey/phishing-detector/internal/core"
)

// DefaultMinDomainAgeDays is the age below which a domain is considered freshly registered
const DefaultMinDomainAgeDays = 180

// DomainAge flags recently registered domains
type DomainAge struct {
	whois   core.WhoisLookup
	minDays int
	now     func() time.Time
}

// NewDomainAge creates a domain age detector
func NewDomainAge(whois core.WhoisLookup, minDays int) *DomainAge {
	if minDays <= 0 {
		minDays = DefaultMinDomainAgeDays
	}
	return &DomainAge{whois: whois, minDays: minDays, now: time.Now}
}

func (d *DomainAge) Kind() core.DetectorKind { return core.KindDomainAge }

func (d *DomainAge) Detect(ctx context.Context, target *core.Target) core.DetectorResult {
	domain := target.Domain.RegistrableDomain
	if domain == "" {
		return core.FallbackResult(core.KindDomainAge, core.BadData("no registrable domain in %q", target.URL))
	}

	created, err := d.whois.CreationDate(ctx, domain)
	if err != nil {
		return core.FallbackResult(core.KindDomainAge, err)
	}
	if created.IsZero() {
		return core.FallbackResult(core.KindDomainAge, core.BadData("no creation date for %s", domain))
	}

	age := core.AgeInDays(created, d.now())
	return &core.DomainAgeResult{
		AgeDays:      &age,
		CreationDate: &created,
		IsSuspicious: age < d.minDays,
		Outcome:      core.Succeeded(),
	}
}
