package detectors

import (
	"context"

	"github.com/mikey/phishing-detector/internal/core"
)

// DefaultMaxSuspiciousHops is the number of hops a chain may take before it is suspicious
const DefaultMaxSuspiciousHops = 2

// Redirects walks the redirect chain and flags long or cross-domain chains
type Redirects struct {
	follower core.RedirectFollower
	maxHops  int
}

// NewRedirects creates a redirect chain detector
func NewRedirects(follower core.RedirectFollower, maxSuspiciousHops int) *Redirects {
	if maxSuspiciousHops <= 0 {
		maxSuspiciousHops = DefaultMaxSuspiciousHops
	}
	return &Redirects{follower: follower, maxHops: maxSuspiciousHops}
}

func (d *Redirects) Kind() core.DetectorKind { return core.KindRedirects }

func (d *Redirects) Detect(ctx context.Context, target *core.Target) core.DetectorResult {
	hops, err := d.follower.FollowRedirects(ctx, target.FetchURL)
	if err != nil {
		return core.FallbackResult(core.KindRedirects, err)
	}
	if hops == nil {
		hops = []core.RedirectHop{}
	}

	origin := target.Domain.RegistrableDomain
	crossDomain := false
	for _, hop := range hops {
		if core.RegistrableDomainOf(hop.To) != origin {
			crossDomain = true
			break
		}
	}

	return &core.RedirectResult{
		Chain:        hops,
		Count:        len(hops),
		CrossDomain:  crossDomain,
		IsSuspicious: len(hops) > d.maxHops || crossDomain,
		Outcome:      core.Succeeded(),
	}
}
