package tlsprobe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/mikey/phishing-detector/internal/core"
)

// Prober fetches the leaf certificate a host serves
type Prober struct {
	port    int
	timeout time.Duration
}

// NewProber creates a prober dialing port (443 when zero)
func NewProber(port int, timeout time.Duration) *Prober {
	if port <= 0 {
		port = 443
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{port: port, timeout: timeout}
}

// Leaf performs a TLS handshake with host and returns its leaf certificate.
// Verification is skipped so that expired or mismatched certificates can still be inspected.
func (p *Prober) Leaf(ctx context.Context, host string) (*core.LeafCertificate, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.timeout},
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: true, //nolint:gosec // certificate is inspected, not trusted
		},
	}

	addr := net.JoinHostPort(host, strconv.Itoa(p.port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tls dial %s: %w", addr, err)
	}
	defer conn.Close()

	certs := conn.(*tls.Conn).ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, core.BadData("no peer certificate from %s", addr)
	}

	leaf := certs[0]
	return &core.LeafCertificate{
		Issuer:    leaf.Issuer.String(),
		NotBefore: leaf.NotBefore,
		NotAfter:  leaf.NotAfter,
		SubjectCN: leaf.Subject.CommonName,
		DNSNames:  leaf.DNSNames,
	}, nil
}
