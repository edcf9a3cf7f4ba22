package heuristics

import (
	"context"
	"regexp"

	"github.com/mikey/phishing-detector/internal/core"
)

var specialChars = regexp.MustCompile(`[!@#$%^&*()_+=\[\]{};:'"\\|,.<>/?]`)

// SpecialChars flags punctuation in the domain label.
// Subdomain and suffix are ignored.
type SpecialChars struct{}

// NewSpecialChars creates a special character detector
func NewSpecialChars() *SpecialChars {
	return &SpecialChars{}
}

func (d *SpecialChars) Kind() core.DetectorKind { return core.KindSpecialChars }

func (d *SpecialChars) Detect(_ context.Context, target *core.Target) core.DetectorResult {
	matched := d.Evaluate(target.Domain.DomainLabel)
	return &core.SpecialCharResult{
		HasSpecialChars: len(matched) > 0,
		Matched:         matched,
		Outcome:         core.Succeeded(),
	}
}

// Evaluate returns the distinct special characters in label, in order of appearance
func (d *SpecialChars) Evaluate(label string) []string {
	var matched []string
	seen := make(map[string]bool)
	for _, m := range specialChars.FindAllString(label, -1) {
		if !seen[m] {
			seen[m] = true
			matched = append(matched, m)
		}
	}
	return matched
}
