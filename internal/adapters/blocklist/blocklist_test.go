package blocklist

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
)

func TestOpenPhishFeed(t *testing.T) {
	var hits atomic.Int32
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		fmt.Fprint(w, "# comment\nhttp://evil.example/login\n\n  https://paypa1.com/  \n")
	}))
	defer srv.Close()

	feed := NewOpenPhishFeed(OpenPhishConfig{URL: srv.URL, UserAgent: "test-agent", Refresh: time.Minute}, zap.NewNop())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feed.now = func() time.Time { return now }
	ctx := context.Background()

	listed, err := feed.Contains(ctx, "http://evil.example/login?next=1")
	require.NoError(t, err)
	assert.True(t, listed)

	listed, err = feed.Contains(ctx, "https://example.com")
	require.NoError(t, err)
	assert.False(t, listed)
	assert.EqualValues(t, 1, hits.Load(), "feed is reused within the refresh period")

	// A failed refresh keeps the previous copy
	fail.Store(true)
	now = now.Add(2 * time.Minute)
	listed, err = feed.Contains(ctx, "https://paypa1.com/")
	require.NoError(t, err)
	assert.True(t, listed)
	assert.EqualValues(t, 2, hits.Load())
}

func TestOpenPhishFeedUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	feed := NewOpenPhishFeed(OpenPhishConfig{URL: srv.URL}, zap.NewNop())
	_, err := feed.Contains(context.Background(), "http://x.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 503")
}

type fakeResolver struct {
	answers map[string][]string
	err     error
	asked   []string
}

func (r *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	r.asked = append(r.asked, host)
	if r.err != nil {
		return nil, r.err
	}
	if addrs, ok := r.answers[host]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func TestRBLFeed(t *testing.T) {
	ctx := context.Background()

	t.Run("loopback answer means listed", func(t *testing.T) {
		resolver := &fakeResolver{answers: map[string][]string{"evil.com.dbl.example": {"127.0.1.2"}}}
		feed := NewRBLFeed([]string{"surbl.example", "dbl.example."}, resolver, zap.NewNop())

		listed, err := feed.Contains(ctx, "https://login.evil.com/path")
		require.NoError(t, err)
		assert.True(t, listed)
		assert.Equal(t, []string{"evil.com.surbl.example", "evil.com.dbl.example"}, resolver.asked)
	})

	t.Run("nxdomain means not listed", func(t *testing.T) {
		feed := NewRBLFeed([]string{"dbl.example"}, &fakeResolver{}, zap.NewNop())
		listed, err := feed.Contains(ctx, "https://example.com")
		require.NoError(t, err)
		assert.False(t, listed)
	})

	t.Run("non loopback answer is ignored", func(t *testing.T) {
		resolver := &fakeResolver{answers: map[string][]string{"example.com.dbl.example": {"10.0.0.1"}}}
		feed := NewRBLFeed([]string{"dbl.example"}, resolver, zap.NewNop())
		listed, err := feed.Contains(ctx, "https://example.com")
		require.NoError(t, err)
		assert.False(t, listed)
	})

	t.Run("all zones failing is an error", func(t *testing.T) {
		feed := NewRBLFeed([]string{"a.example", "b.example"}, &fakeResolver{err: errors.New("server misbehaving")}, zap.NewNop())
		_, err := feed.Contains(ctx, "https://example.com")
		assert.Error(t, err)
	})

	t.Run("dbl error codes are failures, not listings", func(t *testing.T) {
		for _, code := range []string{"127.255.255.252", "127.255.255.254", "127.255.255.255"} {
			resolver := &fakeResolver{answers: map[string][]string{"example.com.dbl.spamhaus.org": {code}}}
			feed := NewRBLFeed([]string{"dbl.spamhaus.org"}, resolver, zap.NewNop())
			listed, err := feed.Contains(ctx, "https://example.com")
			assert.False(t, listed, code)
			require.ErrorIs(t, err, ErrRBLRefused, code)
			assert.Equal(t, core.FailureDependencyUnavailable, core.ClassifyFailure(err), code)
		}
	})

	t.Run("surbl blocked access is a failure", func(t *testing.T) {
		resolver := &fakeResolver{answers: map[string][]string{"example.com.multi.surbl.org": {"127.0.0.1"}}}
		feed := NewRBLFeed([]string{"multi.surbl.org"}, resolver, zap.NewNop())
		listed, err := feed.Contains(ctx, "https://example.com")
		assert.False(t, listed)
		assert.ErrorIs(t, err, ErrRBLRefused)
	})

	t.Run("one refusing zone does not fail the lookup", func(t *testing.T) {
		resolver := &fakeResolver{answers: map[string][]string{"example.com.dbl.spamhaus.org": {"127.255.255.254"}}}
		feed := NewRBLFeed(DefaultRBLZones(), resolver, zap.NewNop())
		listed, err := feed.Contains(ctx, "https://example.com")
		require.NoError(t, err)
		assert.False(t, listed)
	})

	t.Run("every zone refusing is an error", func(t *testing.T) {
		resolver := &fakeResolver{answers: map[string][]string{
			"example.com.multi.surbl.org":  {"127.0.0.1"},
			"example.com.dbl.spamhaus.org": {"127.255.255.252"},
		}}
		feed := NewRBLFeed(DefaultRBLZones(), resolver, zap.NewNop())
		listed, err := feed.Contains(ctx, "https://example.com")
		assert.False(t, listed)
		assert.ErrorIs(t, err, ErrRBLRefused)
	})

	t.Run("real listing codes", func(t *testing.T) {
		resolver := &fakeResolver{answers: map[string][]string{
			"evil.com.multi.surbl.org":   {"127.0.0.8"},
			"bad.com.dbl.spamhaus.org":   {"127.0.1.4"},
			"other.com.dbl.spamhaus.org": {"127.0.0.2"},
		}}
		surbl := NewRBLFeed([]string{"multi.surbl.org"}, resolver, zap.NewNop())
		listed, err := surbl.Contains(ctx, "http://evil.com")
		require.NoError(t, err)
		assert.True(t, listed)

		dbl := NewRBLFeed([]string{"dbl.spamhaus.org"}, resolver, zap.NewNop())
		listed, err = dbl.Contains(ctx, "http://bad.com")
		require.NoError(t, err)
		assert.True(t, listed)

		listed, err = dbl.Contains(ctx, "http://other.com")
		require.NoError(t, err)
		assert.False(t, listed, "dbl only lists in 127.0.1.0/24")
	})

	t.Run("url without domain is bad data", func(t *testing.T) {
		feed := NewRBLFeed(nil, &fakeResolver{}, zap.NewNop())
		_, err := feed.Contains(ctx, "")
		assert.ErrorIs(t, err, core.ErrBadData)
	})
}

type SQLFeedSuite struct {
	suite.Suite
	feed *SQLFeed
	ctx  context.Context
}

func TestSQLFeedSuite(t *testing.T) {
	suite.Run(t, new(SQLFeedSuite))
}

func (s *SQLFeedSuite) SetupTest() {
	feed, err := NewSQLFeed("sqlite3", ":memory:", zap.NewNop())
	s.Require().NoError(err)
	s.feed = feed
	s.ctx = context.Background()
}

func (s *SQLFeedSuite) TearDownTest() {
	s.feed.Stop()
}

func (s *SQLFeedSuite) TestContains() {
	s.Require().NoError(s.feed.Add(s.ctx, "evil.com", "manual"))
	s.Require().NoError(s.feed.Add(s.ctx, "evil.com", "manual"), "re-adding is a no-op")

	listed, err := s.feed.Contains(s.ctx, "https://login.evil.com/x")
	s.Require().NoError(err)
	s.True(listed)

	listed, err = s.feed.Contains(s.ctx, "https://example.com")
	s.Require().NoError(err)
	s.False(listed)

	s.Error(s.feed.Add(s.ctx, "  ", "manual"))
}

func (s *SQLFeedSuite) TestImport() {
	n, err := s.feed.Import(s.ctx, strings.NewReader("# feed\nhttp://a.test/x\nb_c.test\n\nhttp://a.test/x\n"), "openphish")
	s.Require().NoError(err)
	s.Equal(3, n)

	count, err := s.feed.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)

	// Underscore is matched literally, not as a wildcard
	listed, err := s.feed.Contains(s.ctx, "http://bxc.test/")
	s.Require().NoError(err)
	s.False(listed)

	listed, err = s.feed.Contains(s.ctx, "http://b_c.test/")
	s.Require().NoError(err)
	s.True(listed)
}

func TestNewSQLFeedRejectsUnknownDriver(t *testing.T) {
	_, err := NewSQLFeed("postgres", "", zap.NewNop())
	assert.Error(t, err)
}

type stubFeed struct {
	name   string
	listed bool
	err    error
	calls  int
}

func (f *stubFeed) Name() string { return f.name }

func (f *stubFeed) Contains(context.Context, string) (bool, error) {
	f.calls++
	return f.listed, f.err
}

func TestCompositeFeed(t *testing.T) {
	ctx := context.Background()

	t.Run("first listing wins", func(t *testing.T) {
		a := &stubFeed{name: "a", listed: true}
		b := &stubFeed{name: "b"}
		listed, err := NewCompositeFeed(zap.NewNop(), a, b).Contains(ctx, "u")
		require.NoError(t, err)
		assert.True(t, listed)
		assert.Zero(t, b.calls)
	})

	t.Run("partial failure is tolerated", func(t *testing.T) {
		a := &stubFeed{name: "a", err: errors.New("down")}
		b := &stubFeed{name: "b", listed: true}
		listed, err := NewCompositeFeed(zap.NewNop(), a, b).Contains(ctx, "u")
		require.NoError(t, err)
		assert.True(t, listed)
	})

	t.Run("all feeds failing is an error", func(t *testing.T) {
		a := &stubFeed{name: "a", err: context.DeadlineExceeded}
		b := &stubFeed{name: "b", err: errors.New("down")}
		_, err := NewCompositeFeed(zap.NewNop(), a, b).Contains(ctx, "u")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, core.FailureTimeout, core.ClassifyFailure(err))
	})

	t.Run("no feeds is never listed", func(t *testing.T) {
		listed, err := NewCompositeFeed(zap.NewNop()).Contains(ctx, "u")
		require.NoError(t, err)
		assert.False(t, listed)
	})
}
