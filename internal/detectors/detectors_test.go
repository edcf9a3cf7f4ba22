package detectors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mikey/phishing-detector/internal/core"
)

type fakeFeed struct {
	listed bool
	err    error
	seen   string
}

func (f *fakeFeed) Contains(_ context.Context, url string) (bool, error) {
	f.seen = url
	return f.listed, f.err
}

type fakeWhois struct {
	created time.Time
	err     error
	seen    string
}

func (f *fakeWhois) CreationDate(_ context.Context, domain string) (time.Time, error) {
	f.seen = domain
	return f.created, f.err
}

type fakeCerts struct {
	leaf *core.LeafCertificate
	err  error
}

func (f *fakeCerts) Leaf(context.Context, string) (*core.LeafCertificate, error) {
	return f.leaf, f.err
}

type fakeFollower struct {
	hops []core.RedirectHop
	err  error
}

func (f *fakeFollower) FollowRedirects(context.Context, string) ([]core.RedirectHop, error) {
	return f.hops, f.err
}

type fakePage struct {
	body []byte
	err  error
}

func (f *fakePage) Get(context.Context, string) ([]byte, error) {
	return f.body, f.err
}

type fakeParser struct {
	forms   []core.Form
	text    string
	formErr error
}

func (f *fakeParser) ExtractForms([]byte) ([]core.Form, error) { return f.forms, f.formErr }
func (f *fakeParser) ExtractText([]byte) (string, error)       { return f.text, nil }

type DetectorsSuite struct {
	suite.Suite
	ctx    context.Context
	target *core.Target
	now    time.Time
}

func TestDetectorsSuite(t *testing.T) {
	suite.Run(t, new(DetectorsSuite))
}

func (s *DetectorsSuite) SetupTest() {
	s.ctx = context.Background()
	s.target = core.NewTarget("https://login.example.com/account")
	s.now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
}

func (s *DetectorsSuite) TestBlocklist() {
	s.Run("listed url is suspicious", func() {
		feed := &fakeFeed{listed: true}
		r := NewBlocklist(feed).Detect(s.ctx, s.target).(*core.BlocklistResult)
		s.True(r.InBlocklist)
		s.True(r.IsSuspicious)
		s.Equal("https://login.example.com/account", feed.seen)
	})

	s.Run("unlisted url is not suspicious", func() {
		r := NewBlocklist(&fakeFeed{}).Detect(s.ctx, s.target)
		s.False(r.Suspicious())
		s.False(r.Failed())
	})

	s.Run("feed failure counts as not found", func() {
		r := NewBlocklist(&fakeFeed{err: errors.New("feed down")}).Detect(s.ctx, s.target).(*core.BlocklistResult)
		s.False(r.InBlocklist)
		s.False(r.IsSuspicious)
		s.True(r.Failed())
	})
}

func (s *DetectorsSuite) TestDomainAge() {
	newDetector := func(w core.WhoisLookup) *DomainAge {
		d := NewDomainAge(w, 0)
		d.now = func() time.Time { return s.now }
		return d
	}

	s.Run("young domain is suspicious", func() {
		whois := &fakeWhois{created: s.now.AddDate(0, 0, -30)}
		r := newDetector(whois).Detect(s.ctx, s.target).(*core.DomainAgeResult)
		s.Require().NotNil(r.AgeDays)
		s.Equal(30, *r.AgeDays)
		s.True(r.IsSuspicious)
		s.Equal("example.com", whois.seen)
	})

	s.Run("old domain is not suspicious", func() {
		r := newDetector(&fakeWhois{created: s.now.AddDate(-10, 0, 0)}).Detect(s.ctx, s.target).(*core.DomainAgeResult)
		s.False(r.IsSuspicious)
		s.Require().NotNil(r.CreationDate)
	})

	s.Run("exactly the threshold is not suspicious", func() {
		r := newDetector(&fakeWhois{created: s.now.AddDate(0, 0, -180)}).Detect(s.ctx, s.target)
		s.False(r.Suspicious())
	})

	s.Run("lookup failure yields empty suspicious result", func() {
		r := newDetector(&fakeWhois{err: context.DeadlineExceeded}).Detect(s.ctx, s.target).(*core.DomainAgeResult)
		s.Nil(r.AgeDays)
		s.Nil(r.CreationDate)
		s.True(r.IsSuspicious)
		s.Equal(core.FailureTimeout, r.Category)
	})

	s.Run("missing creation date is bad data", func() {
		r := newDetector(&fakeWhois{}).Detect(s.ctx, s.target).(*core.DomainAgeResult)
		s.True(r.IsSuspicious)
		s.Equal(core.FailureBadData, r.Category)
	})
}

func (s *DetectorsSuite) TestCertificate() {
	newDetector := func(c core.CertificateFetch) *Certificate {
		d := NewCertificate(c, DefaultFreeCAMarkers())
		d.now = func() time.Time { return s.now }
		return d
	}
	valid := func() *core.LeafCertificate {
		return &core.LeafCertificate{
			Issuer:    "CN=DigiCert Global G2,O=DigiCert Inc",
			NotAfter:  s.now.AddDate(0, 6, 0),
			SubjectCN: "example.com",
			DNSNames:  []string{"example.com", "www.example.com"},
		}
	}

	s.Run("valid certificate for the domain", func() {
		r := newDetector(&fakeCerts{leaf: valid()}).Detect(s.ctx, s.target).(*core.CertificateResult)
		s.True(r.MatchesDomain)
		s.False(r.IsExpired)
		s.False(r.IsFreeCA)
		s.False(r.IsSuspicious)
		s.Equal("CN=DigiCert Global G2,O=DigiCert Inc", r.Issuer)
	})

	s.Run("wildcard SAN matches", func() {
		leaf := valid()
		leaf.SubjectCN = "cdn.provider.net"
		leaf.DNSNames = []string{"*.example.com"}
		r := newDetector(&fakeCerts{leaf: leaf}).Detect(s.ctx, s.target).(*core.CertificateResult)
		s.True(r.MatchesDomain)
	})

	s.Run("foreign certificate does not match", func() {
		leaf := valid()
		leaf.SubjectCN = "notexample.com"
		leaf.DNSNames = []string{"example.com.evil.net"}
		r := newDetector(&fakeCerts{leaf: leaf}).Detect(s.ctx, s.target).(*core.CertificateResult)
		s.False(r.MatchesDomain)
		s.True(r.IsSuspicious)
	})

	s.Run("expired certificate", func() {
		leaf := valid()
		leaf.NotAfter = s.now.Add(-time.Hour)
		r := newDetector(&fakeCerts{leaf: leaf}).Detect(s.ctx, s.target).(*core.CertificateResult)
		s.True(r.IsExpired)
		s.True(r.IsSuspicious)
	})

	s.Run("free CA issuer is a suspicious signal", func() {
		leaf := valid()
		leaf.Issuer = "CN=R11,O=Let's Encrypt,C=US"
		r := newDetector(&fakeCerts{leaf: leaf}).Detect(s.ctx, s.target).(*core.CertificateResult)
		s.True(r.IsFreeCA)
		s.True(r.MatchesDomain)
		s.True(r.IsSuspicious)
	})

	s.Run("handshake failure yields all-suspicious fallback", func() {
		r := newDetector(&fakeCerts{err: errors.New("tls: handshake failure")}).Detect(s.ctx, s.target).(*core.CertificateResult)
		s.False(r.MatchesDomain)
		s.True(r.IsExpired)
		s.True(r.IsSuspicious)
		s.Nil(r.Expiry)
		s.Equal(core.FailureDependencyUnavailable, r.Category)
	})
}

func (s *DetectorsSuite) TestRedirects() {
	s.Run("same domain chain within limit", func() {
		follower := &fakeFollower{hops: []core.RedirectHop{
			{From: "http://example.com", To: "https://example.com/", StatusCode: 301},
		}}
		r := NewRedirects(follower, 0).Detect(s.ctx, core.NewTarget("http://example.com")).(*core.RedirectResult)
		s.Equal(1, r.Count)
		s.False(r.CrossDomain)
		s.False(r.IsSuspicious)
	})

	s.Run("cross domain hop is suspicious", func() {
		follower := &fakeFollower{hops: []core.RedirectHop{
			{From: "http://a.example.com", To: "http://b.example.com", StatusCode: 302},
			{From: "http://b.example.com", To: "http://c.other.net", StatusCode: 302},
		}}
		r := NewRedirects(follower, 0).Detect(s.ctx, core.NewTarget("http://a.example.com")).(*core.RedirectResult)
		s.Equal(2, r.Count)
		s.True(r.CrossDomain)
		s.True(r.IsSuspicious)
	})

	s.Run("more than two hops is suspicious", func() {
		follower := &fakeFollower{hops: []core.RedirectHop{
			{From: "http://example.com/1", To: "http://example.com/2"},
			{From: "http://example.com/2", To: "http://example.com/3"},
			{From: "http://example.com/3", To: "http://example.com/4"},
		}}
		r := NewRedirects(follower, 0).Detect(s.ctx, core.NewTarget("http://example.com/1"))
		s.True(r.Suspicious())
	})

	s.Run("no redirects", func() {
		r := NewRedirects(&fakeFollower{}, 0).Detect(s.ctx, s.target).(*core.RedirectResult)
		s.NotNil(r.Chain)
		s.Zero(r.Count)
		s.False(r.IsSuspicious)
	})

	s.Run("walker failure yields empty suspicious chain", func() {
		r := NewRedirects(&fakeFollower{err: errors.New("too many redirects")}, 0).Detect(s.ctx, s.target).(*core.RedirectResult)
		s.Empty(r.Chain)
		s.True(r.IsSuspicious)
		s.True(r.Failed())
	})
}

func (s *DetectorsSuite) TestContent() {
	keywords := []string{"Password", "bank", "verify", "bank"}

	s.Run("login form is suspicious", func() {
		parser := &fakeParser{
			forms: []core.Form{{Inputs: []core.FormInput{{Type: "text", Name: "user"}, {Type: "PASSWORD", Name: "pw"}}}},
			text:  "Welcome",
		}
		r := NewContent(&fakePage{body: []byte("<html/>")}, parser, keywords).Detect(s.ctx, s.target).(*core.ContentResult)
		s.True(r.HasLoginForm)
		s.Empty(r.SensitiveKeywords)
		s.True(r.IsSuspicious)
	})

	s.Run("keywords are matched case-insensitively and sorted", func() {
		parser := &fakeParser{text: "Please VERIFY your Bank password"}
		r := NewContent(&fakePage{}, parser, keywords).Detect(s.ctx, s.target).(*core.ContentResult)
		s.False(r.HasLoginForm)
		s.Equal([]string{"bank", "password", "verify"}, r.SensitiveKeywords)
		s.True(r.IsSuspicious)
	})

	s.Run("plain page is clean", func() {
		parser := &fakeParser{text: "Recipes for dinner", forms: []core.Form{{Inputs: []core.FormInput{{Type: "search"}}}}}
		r := NewContent(&fakePage{}, parser, keywords).Detect(s.ctx, s.target).(*core.ContentResult)
		s.False(r.IsSuspicious)
		s.NotNil(r.SensitiveKeywords)
	})

	s.Run("fetch failure yields all-false suspicious result", func() {
		r := NewContent(&fakePage{err: errors.New("http 500")}, &fakeParser{}, keywords).Detect(s.ctx, s.target).(*core.ContentResult)
		s.False(r.HasLoginForm)
		s.Empty(r.SensitiveKeywords)
		s.True(r.IsSuspicious)
		s.True(r.Failed())
	})

	s.Run("parse failure yields fallback", func() {
		parser := &fakeParser{formErr: core.BadData("unparseable page")}
		r := NewContent(&fakePage{}, parser, keywords).Detect(s.ctx, s.target).(*core.ContentResult)
		s.True(r.IsSuspicious)
		s.Equal(core.FailureBadData, r.Category)
	})
}
