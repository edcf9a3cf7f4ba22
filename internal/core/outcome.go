package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	// ErrBadData marks a dependency answer that could not be interpreted
	ErrBadData = errors.New("bad data")

	// ErrNoResult marks a detector that returned without producing a result
	ErrNoResult = errors.New("detector produced no result")
)

// Status tells whether a detector result was measured or substituted
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// FailureCategory classifies why a detector fell back
type FailureCategory string

const (
	FailureTimeout               FailureCategory = "timeout"
	FailureDependencyUnavailable FailureCategory = "dependency_unavailable"
	FailureBadData               FailureCategory = "bad_data"
	FailureCancelled             FailureCategory = "cancelled"
)

// Outcome is embedded in every detector result and tags it as measured or fallback
type Outcome struct {
	Status   Status          `json:"status"`
	Category FailureCategory `json:"failure_category,omitempty"`
	Reason   string          `json:"failure_reason,omitempty"`
}

// Succeeded returns the outcome of a completed measurement
func Succeeded() Outcome {
	return Outcome{Status: StatusOK}
}

// FailedWith returns the outcome of a detector that could not complete
func FailedWith(err error) Outcome {
	if err == nil {
		err = ErrNoResult
	}
	return Outcome{
		Status:   StatusFailed,
		Category: ClassifyFailure(err),
		Reason:   err.Error(),
	}
}

func (o Outcome) Failed() bool { return o.Status == StatusFailed }

func (o Outcome) Failure() (FailureCategory, string) { return o.Category, o.Reason }

// ClassifyFailure maps a detector error onto a FailureCategory
func ClassifyFailure(err error) FailureCategory {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCancelled
	case errors.Is(err, ErrBadData):
		return FailureBadData
	case errors.As(err, &netErr) && netErr.Timeout():
		return FailureTimeout
	default:
		return FailureDependencyUnavailable
	}
}

// BadData wraps err so that it classifies as FailureBadData
func BadData(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadData, fmt.Sprintf(format, args...))
}

// FallbackResult builds the conservative result a detector reports when it cannot complete.
// Every kind but the blocklist is flagged suspicious. A failed blocklist lookup counts as
// not listed, which departs from the rule that network-backed fallbacks are suspicious;
// the failure stays visible through Status=failed and adds no score.
func FallbackResult(kind DetectorKind, err error) DetectorResult {
	outcome := FailedWith(err)
	switch kind {
	case KindBlocklist:
		return &BlocklistResult{Outcome: outcome}
	case KindSubstitution:
		return &SubstitutionResult{HasSubstitution: true, Outcome: outcome}
	case KindSpecialChars:
		return &SpecialCharResult{HasSpecialChars: true, Outcome: outcome}
	case KindDomainAge:
		return &DomainAgeResult{IsSuspicious: true, Outcome: outcome}
	case KindDynamicDNS:
		return &DynamicDNSResult{UsesDynamicDNS: true, Outcome: outcome}
	case KindCertificate:
		return &CertificateResult{IsExpired: true, IsSuspicious: true, Outcome: outcome}
	case KindRedirects:
		return &RedirectResult{Chain: []RedirectHop{}, IsSuspicious: true, Outcome: outcome}
	case KindBrandSimilarity:
		return &BrandSimilarityResult{Matches: []BrandMatch{}, IsSuspicious: true, Outcome: outcome}
	case KindContent:
		return &ContentResult{SensitiveKeywords: []string{}, IsSuspicious: true, Outcome: outcome}
	default:
		return &unknownResult{kind: kind, Outcome: outcome}
	}
}

// unknownResult stands in for a kind this build does not know how to represent
type unknownResult struct {
	kind DetectorKind
	Outcome
}

func (r *unknownResult) Kind() DetectorKind { return r.kind }
func (r *unknownResult) Suspicious() bool   { return true }

// AgeInDays returns the whole days elapsed since created, as of now
func AgeInDays(created, now time.Time) int {
	return int(now.Sub(created).Hours() / 24)
}
