package core

import (
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DecomposedDomain is the host of a URL split along the public suffix boundary
type DecomposedDomain struct {
	Host              string `json:"host"`
	Subdomain         string `json:"subdomain"`
	RegistrableDomain string `json:"registrable_domain"`
	Suffix            string `json:"suffix"`
	DomainLabel       string `json:"domain_label"`
}

// FullDomain returns the subdomain joined with the registrable domain
func (d DecomposedDomain) FullDomain() string {
	if d.Subdomain == "" {
		return d.RegistrableDomain
	}
	if d.RegistrableDomain == "" {
		return d.Subdomain
	}
	return d.Subdomain + "." + d.RegistrableDomain
}

// Decompose splits the host of rawURL into subdomain, registrable domain and suffix.
// It never fails: input without a usable host yields empty fields.
func Decompose(rawURL string) DecomposedDomain {
	host := extractHost(rawURL)
	if host == "" {
		return DecomposedDomain{}
	}

	if net.ParseIP(host) != nil {
		return DecomposedDomain{Host: host, RegistrableDomain: host, DomainLabel: host}
	}

	suffix := icannSuffix(host)
	if suffix == host {
		return DecomposedDomain{Host: host, Suffix: suffix}
	}

	rest := host
	if suffix != "" {
		rest = strings.TrimSuffix(host, "."+suffix)
	}

	label, subdomain := rest, ""
	if i := strings.LastIndex(rest, "."); i >= 0 {
		label, subdomain = rest[i+1:], rest[:i]
	}

	registrable := label
	if suffix != "" && label != "" {
		registrable = label + "." + suffix
	}

	return DecomposedDomain{
		Host:              host,
		Subdomain:         subdomain,
		RegistrableDomain: registrable,
		Suffix:            suffix,
		DomainLabel:       label,
	}
}

// RegistrableDomainOf returns the registrable domain of rawURL
func RegistrableDomainOf(rawURL string) string {
	return Decompose(rawURL).RegistrableDomain
}

// icannSuffix returns the ICANN public suffix of host, ignoring privately
// operated suffixes such as github.io. Hosts under an unknown TLD have no suffix.
func icannSuffix(host string) string {
	candidate := host
	for {
		suffix, icann := publicsuffix.PublicSuffix(candidate)
		if icann {
			return suffix
		}
		i := strings.Index(suffix, ".")
		if i < 0 {
			return ""
		}
		candidate = suffix[i+1:]
	}
}

// extractHost pulls the lowercase host out of a URL that may lack a scheme
func extractHost(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	} else {
		s = strings.TrimPrefix(s, "//")
	}

	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}

	// Bracketed IPv6 literal with optional port
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return ""
		}
		return strings.ToLower(s[1:end])
	}

	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")
	if strings.ContainsAny(s, " \t\r\n") {
		return ""
	}
	return strings.ToLower(s)
}
