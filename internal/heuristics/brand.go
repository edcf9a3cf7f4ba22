package heuristics

import (
	"context"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/mikey/phishing-detector/internal/core"
)

// DefaultBrandCatalog returns frequently impersonated registrable domains
func DefaultBrandCatalog() []string {
	return []string{
		"google.com",
		"facebook.com",
		"instagram.com",
		"whatsapp.com",
		"microsoft.com",
		"outlook.com",
		"live.com",
		"apple.com",
		"icloud.com",
		"amazon.com",
		"paypal.com",
		"netflix.com",
		"linkedin.com",
		"twitter.com",
		"dropbox.com",
		"mercadolivre.com.br",
		"itau.com.br",
		"bradesco.com.br",
		"nubank.com.br",
		"caixa.gov.br",
	}
}

// DefaultMaxBrandDistance is the largest edit distance still reported as a lookalike
const DefaultMaxBrandDistance = 2

// BrandSimilarity reports catalog brands within a small edit distance of the registrable domain
type BrandSimilarity struct {
	catalog     []string
	maxDistance int
}

// NewBrandSimilarity creates a brand similarity scorer over catalog
func NewBrandSimilarity(catalog []string, maxDistance int) *BrandSimilarity {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxBrandDistance
	}
	folded := make([]string, len(catalog))
	for i, brand := range catalog {
		folded[i] = cases.Fold().String(brand)
	}
	return &BrandSimilarity{catalog: folded, maxDistance: maxDistance}
}

func (b *BrandSimilarity) Kind() core.DetectorKind { return core.KindBrandSimilarity }

func (b *BrandSimilarity) Detect(_ context.Context, target *core.Target) core.DetectorResult {
	matches := b.Evaluate(target.Domain.RegistrableDomain)
	return &core.BrandSimilarityResult{
		Matches:      matches,
		IsSuspicious: len(matches) > 0,
		Outcome:      core.Succeeded(),
	}
}

// Evaluate returns the lookalike brands of domain in catalog order.
// An exact match is the brand itself and is never reported.
func (b *BrandSimilarity) Evaluate(domain string) []core.BrandMatch {
	matches := []core.BrandMatch{}
	if domain == "" {
		return matches
	}

	folded := cases.Fold().String(domain)
	for _, brand := range b.catalog {
		d := levenshtein.ComputeDistance(folded, brand)
		if d > 0 && d <= b.maxDistance {
			matches = append(matches, core.BrandMatch{Brand: brand, Distance: d})
		}
	}
	return matches
}
