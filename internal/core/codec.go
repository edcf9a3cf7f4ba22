package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// newResult returns an empty result value for kind, ready to be decoded into
func newResult(kind DetectorKind) (DetectorResult, error) {
	switch kind {
	case KindBlocklist:
		return &BlocklistResult{}, nil
	case KindSubstitution:
		return &SubstitutionResult{}, nil
	case KindSpecialChars:
		return &SpecialCharResult{}, nil
	case KindDomainAge:
		return &DomainAgeResult{}, nil
	case KindDynamicDNS:
		return &DynamicDNSResult{}, nil
	case KindCertificate:
		return &CertificateResult{}, nil
	case KindRedirects:
		return &RedirectResult{}, nil
	case KindBrandSimilarity:
		return &BrandSimilarityResult{}, nil
	case KindContent:
		return &ContentResult{}, nil
	default:
		return nil, fmt.Errorf("unknown detector kind %q", kind)
	}
}

// UnmarshalJSON restores the concrete result types keyed by detector kind
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         string                           `json:"id"`
		URL        string                           `json:"url"`
		Domain     DecomposedDomain                 `json:"domain"`
		Results    map[DetectorKind]json.RawMessage `json:"results"`
		Risk       RiskSummary                      `json:"risk"`
		AssessedAt time.Time                        `json:"assessed_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	results := make(map[DetectorKind]DetectorResult, len(raw.Results))
	for kind, msg := range raw.Results {
		r, err := newResult(kind)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(msg, r); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", kind, err)
		}
		results[kind] = r
	}

	*v = Verdict{
		ID:         raw.ID,
		URL:        raw.URL,
		Domain:     raw.Domain,
		Results:    results,
		Risk:       raw.Risk,
		AssessedAt: raw.AssessedAt,
	}
	return nil
}
