package heuristics

import (
	"context"
	"strings"

	"github.com/mikey/phishing-detector/internal/core"
)

// DefaultDynamicDNSProviders returns provider domains that hand out dynamic hostnames
func DefaultDynamicDNSProviders() []string {
	return []string{
		"no-ip.com",
		"no-ip.org",
		"ddns.net",
		"hopto.org",
		"zapto.org",
		"sytes.net",
		"duckdns.org",
		"dyndns.org",
		"dynu.com",
		"freedns.afraid.org",
		"changeip.com",
		"dnsdynamic.org",
		"servebeer.com",
		"serveftp.com",
		"myftp.biz",
		"3utilities.com",
	}
}

// DynamicDNS flags hosts under a dynamic DNS provider
type DynamicDNS struct {
	providers []string
}

// NewDynamicDNS creates a dynamic DNS detector over providers
func NewDynamicDNS(providers []string) *DynamicDNS {
	lowered := make([]string, 0, len(providers))
	for _, p := range providers {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return &DynamicDNS{providers: lowered}
}

func (d *DynamicDNS) Kind() core.DetectorKind { return core.KindDynamicDNS }

func (d *DynamicDNS) Detect(_ context.Context, target *core.Target) core.DetectorResult {
	provider := d.Evaluate(target.Domain.FullDomain())
	return &core.DynamicDNSResult{
		UsesDynamicDNS: provider != "",
		Provider:       provider,
		Outcome:        core.Succeeded(),
	}
}

// Evaluate returns the first provider contained in domain, or "" when none is
func (d *DynamicDNS) Evaluate(domain string) string {
	domain = strings.ToLower(domain)
	if domain == "" {
		return ""
	}
	for _, p := range d.providers {
		if strings.Contains(domain, p) {
			return p
		}
	}
	return ""
}
