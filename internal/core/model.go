package core

import (
	"time"
)

// DetectorKind identifies a detector and keys its result in a Verdict
type DetectorKind string

const (
	KindBlocklist       DetectorKind = "blocklist"
	KindSubstitution    DetectorKind = "number_substitution"
	KindSpecialChars    DetectorKind = "special_characters"
	KindDomainAge       DetectorKind = "domain_age"
	KindDynamicDNS      DetectorKind = "dynamic_dns"
	KindCertificate     DetectorKind = "certificate"
	KindRedirects       DetectorKind = "redirects"
	KindBrandSimilarity DetectorKind = "brand_similarity"
	KindContent         DetectorKind = "content"
)

// AllKinds returns every detector kind in report order
func AllKinds() []DetectorKind {
	return []DetectorKind{
		KindBlocklist,
		KindSubstitution,
		KindSpecialChars,
		KindDomainAge,
		KindDynamicDNS,
		KindCertificate,
		KindRedirects,
		KindBrandSimilarity,
		KindContent,
	}
}

// DetectorResult is the outcome of a single detector for one URL
type DetectorResult interface {
	// Kind returns the detector that produced the result
	Kind() DetectorKind

	// Suspicious reports whether the signal points towards phishing
	Suspicious() bool

	// Failed reports whether the value is a fallback rather than a measurement
	Failed() bool

	// Failure returns the failure category and reason of a fallback result
	Failure() (FailureCategory, string)
}

// BlocklistResult reports membership in a phishing feed
type BlocklistResult struct {
	InBlocklist  bool `json:"in_blocklist"`
	IsSuspicious bool `json:"is_suspicious"`
	Outcome
}

func (r *BlocklistResult) Kind() DetectorKind { return KindBlocklist }
func (r *BlocklistResult) Suspicious() bool   { return r.IsSuspicious }

// SubstitutionResult reports digit-for-letter typosquatting in the domain label
type SubstitutionResult struct {
	HasSubstitution bool   `json:"has_substitution"`
	Candidate       string `json:"candidate,omitempty"`
	Outcome
}

func (r *SubstitutionResult) Kind() DetectorKind { return KindSubstitution }
func (r *SubstitutionResult) Suspicious() bool   { return r.HasSubstitution }

// SpecialCharResult reports punctuation found in the domain label
type SpecialCharResult struct {
	HasSpecialChars bool     `json:"has_special_chars"`
	Matched         []string `json:"matched,omitempty"`
	Outcome
}

func (r *SpecialCharResult) Kind() DetectorKind { return KindSpecialChars }
func (r *SpecialCharResult) Suspicious() bool   { return r.HasSpecialChars }

// DomainAgeResult reports the registration age of the registrable domain
type DomainAgeResult struct {
	AgeDays      *int       `json:"age_days"`
	CreationDate *time.Time `json:"creation_date"`
	IsSuspicious bool       `json:"is_suspicious"`
	Outcome
}

func (r *DomainAgeResult) Kind() DetectorKind { return KindDomainAge }
func (r *DomainAgeResult) Suspicious() bool   { return r.IsSuspicious }

// DynamicDNSResult reports whether the host lives under a dynamic DNS provider
type DynamicDNSResult struct {
	UsesDynamicDNS bool   `json:"uses_dynamic_dns"`
	Provider       string `json:"provider,omitempty"`
	Outcome
}

func (r *DynamicDNSResult) Kind() DetectorKind { return KindDynamicDNS }
func (r *DynamicDNSResult) Suspicious() bool   { return r.UsesDynamicDNS }

// CertificateResult describes the leaf certificate served by the host
type CertificateResult struct {
	Issuer        string     `json:"issuer,omitempty"`
	Expiry        *time.Time `json:"expiry"`
	MatchesDomain bool       `json:"matches_domain"`
	IsExpired     bool       `json:"is_expired"`
	IsFreeCA      bool       `json:"is_free_ca"`
	IsSuspicious  bool       `json:"is_suspicious"`
	Outcome
}

func (r *CertificateResult) Kind() DetectorKind { return KindCertificate }
func (r *CertificateResult) Suspicious() bool   { return r.IsSuspicious }

// RedirectHop is one step of a redirect chain
type RedirectHop struct {
	From       string `json:"from"`
	To         string `json:"to"`
	StatusCode int    `json:"status_code,omitempty"`
}

// RedirectResult describes the redirect chain starting at the URL
type RedirectResult struct {
	Chain        []RedirectHop `json:"chain"`
	Count        int           `json:"count"`
	CrossDomain  bool          `json:"cross_domain"`
	IsSuspicious bool          `json:"is_suspicious"`
	Outcome
}

func (r *RedirectResult) Kind() DetectorKind { return KindRedirects }
func (r *RedirectResult) Suspicious() bool   { return r.IsSuspicious }

// BrandMatch is a catalog brand close to the assessed domain
type BrandMatch struct {
	Brand    string `json:"brand"`
	Distance int    `json:"distance"`
}

// BrandSimilarityResult lists the brands the registrable domain imitates
type BrandSimilarityResult struct {
	Matches      []BrandMatch `json:"matches"`
	IsSuspicious bool         `json:"is_suspicious"`
	Outcome
}

func (r *BrandSimilarityResult) Kind() DetectorKind { return KindBrandSimilarity }
func (r *BrandSimilarityResult) Suspicious() bool   { return r.IsSuspicious }

// ContentResult describes credential-harvesting traits of the landing page
type ContentResult struct {
	HasLoginForm      bool     `json:"has_login_form"`
	SensitiveKeywords []string `json:"sensitive_keywords"`
	IsSuspicious      bool     `json:"is_suspicious"`
	Outcome
}

func (r *ContentResult) Kind() DetectorKind { return KindContent }
func (r *ContentResult) Suspicious() bool   { return r.IsSuspicious }

// RiskLevel is the coarse classification derived from the weighted score
type RiskLevel string

const (
	LevelSafe        RiskLevel = "safe"
	LevelSuspicious  RiskLevel = "suspicious"
	LevelDangerous   RiskLevel = "dangerous"
	LevelAllowlisted RiskLevel = "allowlisted"
)

// RiskSummary is the weighted aggregate over all detector results
type RiskSummary struct {
	Score       int                  `json:"score"`
	Level       RiskLevel            `json:"level"`
	Allowlisted bool                 `json:"allowlisted"`
	Reason      string               `json:"reason"`
	Breakdown   map[DetectorKind]int `json:"breakdown,omitempty"`
}

// Verdict is the complete assessment of one URL
type Verdict struct {
	ID         string                          `json:"id"`
	URL        string                          `json:"url"`
	Domain     DecomposedDomain                `json:"domain"`
	Results    map[DetectorKind]DetectorResult `json:"results"`
	Risk       RiskSummary                     `json:"risk"`
	AssessedAt time.Time                       `json:"assessed_at"`
}

// Result returns the result stored for a detector kind
func (v *Verdict) Result(kind DetectorKind) (DetectorResult, bool) {
	r, ok := v.Results[kind]
	return r, ok
}

// SuspiciousKinds returns the kinds whose results are suspicious, in report order
func (v *Verdict) SuspiciousKinds() []DetectorKind {
	var kinds []DetectorKind
	for _, kind := range AllKinds() {
		if r, ok := v.Results[kind]; ok && r.Suspicious() {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
