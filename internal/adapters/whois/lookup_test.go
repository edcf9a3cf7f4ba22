package whois

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
)

const exampleRecord = `   Domain Name: EXAMPLE.COM
   Registry Domain ID: 2336799_DOMAIN_COM-VRSN
   Registrar WHOIS Server: whois.iana.org
   Registrar URL: http://res-dom.iana.org
   Updated Date: 2024-08-14T07:01:34Z
   Creation Date: 1995-08-14T04:00:00Z
   Registry Expiry Date: 2025-08-13T04:00:00Z
   Registrar: RESERVED-Internet Assigned Numbers Authority
   Registrar IANA ID: 376
   Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
   Name Server: A.IANA-SERVERS.NET
   Name Server: B.IANA-SERVERS.NET
   DNSSEC: signedDelegation
`

func TestParseDate(t *testing.T) {
	want := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	for _, value := range []string{"2021-03-04", "2021-03-04 00:00:00", "04-Mar-2021", "2021.03.04", "2021-03-04T00:00:00Z", " 20210304 "} {
		got, ok := parseDate(value)
		require.True(t, ok, value)
		assert.True(t, want.Equal(got), value)
	}

	_, ok := parseDate("last tuesday")
	assert.False(t, ok)
	_, ok = parseDate("")
	assert.False(t, ok)
}

func TestParentDomain(t *testing.T) {
	for domain, want := range map[string]string{
		"a.b.example.com":    "b.example.com",
		"b.example.com":      "example.com",
		"example.com":        "",
		"paypa1-login.co.uk": "",
		"x.paypa1.co.uk":     "paypa1.co.uk",
		"192.168.1.10":       "",
	} {
		got, ok := parentDomain(domain)
		assert.Equal(t, want != "", ok, domain)
		assert.Equal(t, want, got, domain)
	}
}

func TestCreationDate(t *testing.T) {
	ctx := context.Background()

	t.Run("parses the creation date", func(t *testing.T) {
		lookup := NewLookupWithQuery(func(string) (string, error) { return exampleRecord, nil }, zap.NewNop())
		created, err := lookup.CreationDate(ctx, "example.com")
		require.NoError(t, err)
		assert.True(t, time.Date(1995, 8, 14, 4, 0, 0, 0, time.UTC).Equal(created))
	})

	t.Run("retries on the parent domain", func(t *testing.T) {
		var asked []string
		lookup := NewLookupWithQuery(func(domain string) (string, error) {
			asked = append(asked, domain)
			if domain == "example.com" {
				return exampleRecord, nil
			}
			return `No match for "` + domain + `".`, nil
		}, zap.NewNop())

		_, err := lookup.CreationDate(ctx, "a.b.example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.b.example.com", "b.example.com", "example.com"}, asked)
	})

	t.Run("never retries on a public suffix", func(t *testing.T) {
		var asked []string
		lookup := NewLookupWithQuery(func(domain string) (string, error) {
			asked = append(asked, domain)
			if domain == "co.uk" {
				return exampleRecord, nil
			}
			return `No match for "` + domain + `".`, nil
		}, zap.NewNop())

		_, err := lookup.CreationDate(ctx, "paypa1-login.co.uk")
		require.Error(t, err)
		assert.Equal(t, core.FailureBadData, core.ClassifyFailure(err))
		assert.Equal(t, []string{"paypa1-login.co.uk"}, asked)

		asked = nil
		_, err = lookup.CreationDate(ctx, "secure.paypa1-login.com.br")
		require.Error(t, err)
		assert.Equal(t, []string{"secure.paypa1-login.com.br", "paypa1-login.com.br"}, asked)
	})

	t.Run("unparseable record is bad data", func(t *testing.T) {
		lookup := NewLookupWithQuery(func(domain string) (string, error) {
			return `No match for "` + domain + `".`, nil
		}, zap.NewNop())
		_, err := lookup.CreationDate(ctx, "example.com")
		require.Error(t, err)
		assert.Equal(t, core.FailureBadData, core.ClassifyFailure(err))
	})

	t.Run("query failure is a dependency failure", func(t *testing.T) {
		lookup := NewLookupWithQuery(func(string) (string, error) { return "", errors.New("connection refused") }, zap.NewNop())
		_, err := lookup.CreationDate(ctx, "example.com")
		require.Error(t, err)
		assert.Equal(t, core.FailureDependencyUnavailable, core.ClassifyFailure(err))
	})

	t.Run("slow query is abandoned when the context ends", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		lookup := NewLookupWithQuery(func(string) (string, error) {
			<-release
			return exampleRecord, nil
		}, zap.NewNop())

		tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := lookup.CreationDate(tctx, "example.com")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
