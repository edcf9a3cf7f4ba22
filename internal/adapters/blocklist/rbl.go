package blocklist

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
)

// DefaultRBLZones are DNS blocklists that list phishing domains
func DefaultRBLZones() []string {
	return []string{"multi.surbl.org", "dbl.spamhaus.org"}
}

// Resolver is the subset of net.Resolver the RBL feed needs
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// RBLFeed checks the registrable domain of a URL against DNS blocklists
type RBLFeed struct {
	zones    []string
	resolver Resolver
	logger   *zap.Logger
}

// NewResolver returns a resolver that queries server (host:port) directly
func NewResolver(server string, timeout time.Duration) *net.Resolver {
	if server == "" {
		return net.DefaultResolver
	}
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			d := net.Dialer{Timeout: timeout}
			return d.DialContext(ctx, network, server)
		},
	}
}

// NewRBLFeed creates a DNS blocklist feed
func NewRBLFeed(zones []string, resolver Resolver, logger *zap.Logger) *RBLFeed {
	if len(zones) == 0 {
		zones = DefaultRBLZones()
	}
	return &RBLFeed{zones: zones, resolver: resolver, logger: logger}
}

// Name identifies the feed in logs
func (f *RBLFeed) Name() string { return "rbl" }

// Contains reports whether any zone lists the registrable domain of url.
// It fails only when no zone could be queried.
func (f *RBLFeed) Contains(ctx context.Context, url string) (bool, error) {
	domain := core.RegistrableDomainOf(url)
	if domain == "" {
		return false, core.BadData("no registrable domain in %q", url)
	}

	var errs []error
	for _, zone := range f.zones {
		listed, err := f.query(ctx, domain, zone)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if listed {
			f.logger.Debug("Domain listed in RBL", zap.String("domain", domain), zap.String("zone", zone))
			return true, nil
		}
	}
	if len(errs) == len(f.zones) {
		return false, errors.Join(errs...)
	}
	return false, nil
}

// ErrRBLRefused is returned when a zone answers with an error code instead of a listing
var ErrRBLRefused = errors.New("rbl refused query")

// query resolves domain.zone and interprets the answer codes of the zone
func (f *RBLFeed) query(ctx context.Context, domain, zone string) (bool, error) {
	zone = strings.TrimSuffix(zone, ".")
	name := domain + "." + zone
	addrs, err := f.resolver.LookupHost(ctx, name)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false, nil
		}
		return false, fmt.Errorf("rbl lookup %s: %w", name, err)
	}

	var refused []string
	for _, addr := range addrs {
		switch answerCode(zone, net.ParseIP(addr)) {
		case answerListed:
			return true, nil
		case answerRefused:
			refused = append(refused, addr)
		}
	}
	if len(refused) > 0 {
		return false, fmt.Errorf("%w: %s answered %s", ErrRBLRefused, name, strings.Join(refused, ","))
	}
	return false, nil
}

type answer int

const (
	answerIgnored answer = iota
	answerListed
	answerRefused
)

// answerCode classifies one A record returned by zone.
// 127.255.255.0/24 is the Spamhaus error range, returned to public resolvers among others.
// SURBL answers 127.0.0.1 when the querying resolver is blocked.
// DBL lists domains in 127.0.1.0/24 only.
func answerCode(zone string, ip net.IP) answer {
	ip4 := ip.To4()
	if ip4 == nil || ip4[0] != 127 {
		return answerIgnored
	}
	if ip4[1] == 255 && ip4[2] == 255 {
		return answerRefused
	}

	switch {
	case isZone(zone, "surbl.org"):
		if ip4.Equal(net.IPv4(127, 0, 0, 1)) {
			return answerRefused
		}
	case isZone(zone, "dbl.spamhaus.org"):
		if ip4[1] != 0 || ip4[2] != 1 {
			return answerIgnored
		}
	}
	return answerListed
}

func isZone(zone, parent string) bool {
	zone = strings.ToLower(zone)
	return zone == parent || strings.HasSuffix(zone, "."+parent)
}
