package detectors

import (
	"context"
	"sort"
	"strings"

	"github.com/mikey/phishing-detector/internal/core"
)

// DefaultSensitiveKeywords returns page phrases typical of credential harvesting
func DefaultSensitiveKeywords() []string {
	return []string{
		"login",
		"log in",
		"sign in",
		"password",
		"senha",
		"verify",
		"verify your account",
		"account",
		"bank",
		"credit card",
		"card number",
		"cvv",
		"ssn",
		"social security",
		"update your payment",
		"confirm your identity",
	}
}

// Content fetches the landing page and looks for login forms and sensitive wording
type Content struct {
	fetcher  core.PageFetcher
	parser   core.HTMLParser
	keywords []string
}

// NewContent creates a content detector
func NewContent(fetcher core.PageFetcher, parser core.HTMLParser, keywords []string) *Content {
	lowered := make([]string, 0, len(keywords))
	seen := make(map[string]bool)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && !seen[k] {
			seen[k] = true
			lowered = append(lowered, k)
		}
	}
	return &Content{fetcher: fetcher, parser: parser, keywords: lowered}
}

func (d *Content) Kind() core.DetectorKind { return core.KindContent }

func (d *Content) Detect(ctx context.Context, target *core.Target) core.DetectorResult {
	body, err := d.fetcher.Get(ctx, target.FetchURL)
	if err != nil {
		return core.FallbackResult(core.KindContent, err)
	}

	forms, err := d.parser.ExtractForms(body)
	if err != nil {
		return core.FallbackResult(core.KindContent, err)
	}
	text, err := d.parser.ExtractText(body)
	if err != nil {
		return core.FallbackResult(core.KindContent, err)
	}

	loginForm := hasLoginForm(forms)
	keywords := d.findKeywords(text)
	return &core.ContentResult{
		HasLoginForm:      loginForm,
		SensitiveKeywords: keywords,
		IsSuspicious:      loginForm || len(keywords) > 0,
		Outcome:           core.Succeeded(),
	}
}

// findKeywords returns the configured keywords present in text, sorted
func (d *Content) findKeywords(text string) []string {
	text = strings.ToLower(text)
	found := []string{}
	for _, k := range d.keywords {
		if strings.Contains(text, k) {
			found = append(found, k)
		}
	}
	sort.Strings(found)
	return found
}

func hasLoginForm(forms []core.Form) bool {
	for _, f := range forms {
		for _, in := range f.Inputs {
			if strings.EqualFold(in.Type, "password") {
				return true
			}
		}
	}
	return false
}
