package core

import (
	"fmt"
	"strings"
)

// ScoringConfig weights suspicious signals into a RiskSummary
type ScoringConfig struct {
	Weights             map[DetectorKind]int
	SuspiciousThreshold int
	DangerousThreshold  int
}

// DefaultScoringConfig returns the default weights and thresholds
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: map[DetectorKind]int{
			KindBlocklist:       4,
			KindSubstitution:    2,
			KindSpecialChars:    1,
			KindDomainAge:       2,
			KindDynamicDNS:      3,
			KindCertificate:     2,
			KindRedirects:       2,
			KindBrandSimilarity: 3,
			KindContent:         3,
		},
		SuspiciousThreshold: 4,
		DangerousThreshold:  7,
	}
}

// Validate checks that the thresholds are ordered and the weights are usable
func (c ScoringConfig) Validate() error {
	if c.SuspiciousThreshold >= c.DangerousThreshold {
		return fmt.Errorf("suspicious threshold (%d) must be less than dangerous threshold (%d)",
			c.SuspiciousThreshold, c.DangerousThreshold)
	}
	for kind, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("weight for %s must not be negative", kind)
		}
	}
	return nil
}

// Score sums the weights of suspicious results and classifies the total
func Score(results map[DetectorKind]DetectorResult, cfg ScoringConfig) RiskSummary {
	summary := RiskSummary{Breakdown: make(map[DetectorKind]int)}
	var reasons []string

	for _, kind := range AllKinds() {
		r, ok := results[kind]
		if !ok || !r.Suspicious() {
			continue
		}
		w := cfg.Weights[kind]
		if w == 0 {
			continue
		}
		summary.Score += w
		summary.Breakdown[kind] = w
		if r.Failed() {
			reasons = append(reasons, fmt.Sprintf("%s unavailable (+%d)", kind, w))
		} else {
			reasons = append(reasons, fmt.Sprintf("%s (+%d)", kind, w))
		}
	}

	switch {
	case summary.Score >= cfg.DangerousThreshold:
		summary.Level = LevelDangerous
	case summary.Score >= cfg.SuspiciousThreshold:
		summary.Level = LevelSuspicious
	default:
		summary.Level = LevelSafe
	}

	if len(reasons) == 0 {
		summary.Reason = "no suspicious signals"
	} else {
		summary.Reason = strings.Join(reasons, ", ")
	}
	return summary
}

// Allowlisted returns the summary reported for an operator-trusted host
func Allowlisted(host string) RiskSummary {
	return RiskSummary{
		Level:       LevelAllowlisted,
		Allowlisted: true,
		Reason:      fmt.Sprintf("host %s is allowlisted", host),
	}
}
