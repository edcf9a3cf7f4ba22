package whois

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	whoisclient "github.com/likexian/whois"
	parser "github.com/likexian/whois-parser"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
)

// ErrNoCreationDate is returned when a WHOIS record carries no usable creation date
var ErrNoCreationDate = fmt.Errorf("%w: no creation date in whois record", core.ErrBadData)

// dateLayouts are the creation date formats seen across registries
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"2006/01/02",
	"02.01.2006",
	"20060102",
}

// QueryFunc performs a raw WHOIS query for domain
type QueryFunc func(domain string) (string, error)

// Lookup resolves domain creation dates over WHOIS
type Lookup struct {
	query  QueryFunc
	logger *zap.Logger
}

// NewLookup creates a WHOIS lookup whose raw queries time out after timeout
func NewLookup(timeout time.Duration, logger *zap.Logger) *Lookup {
	client := whoisclient.NewClient().SetTimeout(timeout)
	return NewLookupWithQuery(func(domain string) (string, error) {
		return client.Whois(domain)
	}, logger)
}

// NewLookupWithQuery creates a WHOIS lookup over a custom query function
func NewLookupWithQuery(query QueryFunc, logger *zap.Logger) *Lookup {
	return &Lookup{query: query, logger: logger}
}

type lookupResult struct {
	created time.Time
	err     error
}

// CreationDate returns the registration date of domain.
// The WHOIS client is not context aware, so the query runs aside and is abandoned when ctx ends.
func (l *Lookup) CreationDate(ctx context.Context, domain string) (time.Time, error) {
	done := make(chan lookupResult, 1)
	go func() {
		created, err := l.creationDate(domain)
		done <- lookupResult{created: created, err: err}
	}()

	select {
	case res := <-done:
		return res.created, res.err
	case <-ctx.Done():
		return time.Time{}, fmt.Errorf("whois %s: %w", domain, ctx.Err())
	}
}

// creationDate queries domain, retrying on the parent domain when the record cannot be parsed.
// Retries stop at the registrable domain so a public suffix is never queried
func (l *Lookup) creationDate(domain string) (time.Time, error) {
	raw, err := l.query(domain)
	if err != nil {
		return time.Time{}, fmt.Errorf("whois query %s: %w", domain, err)
	}

	info, err := parser.Parse(raw)
	if err != nil || info.Domain == nil {
		if parent, ok := parentDomain(domain); ok {
			l.logger.Debug("Retrying WHOIS on parent domain",
				zap.String("domain", domain),
				zap.String("parent", parent))
			return l.creationDate(parent)
		}
		if err == nil {
			err = errors.New("record has no domain section")
		}
		return time.Time{}, fmt.Errorf("%w: parse whois for %s: %v", core.ErrBadData, domain, err)
	}

	created, ok := parseDate(info.Domain.CreatedDate)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %w", domain, ErrNoCreationDate)
	}
	return created, nil
}

// parentDomain strips the leftmost label of domain unless domain is already registrable
func parentDomain(domain string) (string, bool) {
	registrable := core.RegistrableDomainOf(domain)
	if registrable == "" || strings.EqualFold(domain, registrable) {
		return "", false
	}
	i := strings.Index(domain, ".")
	if i < 0 {
		return "", false
	}
	parent := domain[i+1:]
	if len(parent) < len(registrable) {
		return "", false
	}
	return parent, true
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
