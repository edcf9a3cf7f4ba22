package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
)

type MemoryCacheSuite struct {
	suite.Suite
	cache *MemoryCache
	now   time.Time
	ctx   context.Context
}

func TestMemoryCacheSuite(t *testing.T) {
	suite.Run(t, new(MemoryCacheSuite))
}

func (s *MemoryCacheSuite) SetupTest() {
	s.cache = NewMemoryCache(zap.NewNop(), time.Hour)
	s.now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.cache.now = func() time.Time { return s.now }
	s.ctx = context.Background()
}

func (s *MemoryCacheSuite) TearDownTest() {
	s.cache.Stop()
}

func (s *MemoryCacheSuite) TestGetSet() {
	s.Run("returns stored verdict before expiry", func() {
		v := &core.Verdict{ID: "1", URL: "http://a.test"}
		s.Require().NoError(s.cache.Set(s.ctx, v.URL, v, 5*time.Minute))

		got, err := s.cache.Get(s.ctx, v.URL)
		s.Require().NoError(err)
		s.Same(v, got)
	})

	s.Run("unknown url is not found", func() {
		_, err := s.cache.Get(s.ctx, "http://missing.test")
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("entry expires at its ttl", func() {
		v := &core.Verdict{ID: "2", URL: "http://b.test"}
		s.Require().NoError(s.cache.Set(s.ctx, v.URL, v, time.Minute))
		s.now = s.now.Add(time.Minute)

		_, err := s.cache.Get(s.ctx, v.URL)
		s.ErrorIs(err, ErrExpired)
	})
}

func (s *MemoryCacheSuite) TestCleanup() {
	s.Require().NoError(s.cache.Set(s.ctx, "old", &core.Verdict{}, time.Minute))
	s.Require().NoError(s.cache.Set(s.ctx, "new", &core.Verdict{}, time.Hour))
	s.now = s.now.Add(2 * time.Minute)

	s.Require().NoError(s.cache.Cleanup(s.ctx))
	s.Equal(1, s.cache.Len())

	s.Require().NoError(s.cache.Delete(s.ctx, "new"))
	s.Zero(s.cache.Len())
}

func (s *MemoryCacheSuite) TestStopIsIdempotent() {
	s.cache.Stop()
	s.NotPanics(s.cache.Stop)
}

func TestRedisKeyAndEncoding(t *testing.T) {
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "", zap.NewNop())
	defer c.Stop()
	require.Equal(t, "phish:verdict:http://a.test/x", c.key("http://a.test/x"))

	verdict := &core.Verdict{
		ID:     "abc",
		URL:    "http://a.test/x",
		Domain: core.Decompose("http://a.test/x"),
		Results: map[core.DetectorKind]core.DetectorResult{
			core.KindDomainAge: core.FallbackResult(core.KindDomainAge, context.DeadlineExceeded),
		},
		Risk: core.RiskSummary{Score: 2, Level: core.LevelSafe},
	}
	data, err := encodeVerdict(verdict)
	require.NoError(t, err)

	decoded, err := decodeVerdict(data)
	require.NoError(t, err)
	require.Equal(t, verdict.Results, decoded.Results)
	require.Equal(t, verdict.Domain, decoded.Domain)

	_, err = decodeVerdict([]byte("{"))
	require.Error(t, err)
}
