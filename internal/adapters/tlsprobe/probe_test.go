package tlsprobe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaf(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	leaf, err := NewProber(port, time.Second).Leaf(context.Background(), host)
	require.NoError(t, err)
	assert.Contains(t, leaf.Issuer, "Acme Co")
	assert.Contains(t, leaf.DNSNames, "example.com")
	assert.True(t, leaf.NotAfter.After(leaf.NotBefore))
}

func TestLeafUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	_, err = NewProber(port, time.Second).Leaf(context.Background(), "127.0.0.1")
	assert.Error(t, err)
}

func TestLeafHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProber(443, time.Second).Leaf(ctx, "127.0.0.1")
	assert.ErrorIs(t, err, context.Canceled)
}
