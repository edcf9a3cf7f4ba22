package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mikey/phishing-detector/internal/core"
)

// Config holds settings shared by the HTTP clients
type Config struct {
	Timeout   time.Duration // per request, default 8s
	MaxHops   int           // default 10
	MaxBytes  int64         // default 2MB
	UserAgent string
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 8 * time.Second
	}
	if c.MaxHops <= 0 {
		c.MaxHops = 10
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 2 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; phishing-detector/1.0)"
	}
}

// RedirectWalker records every redirect hop of a URL
type RedirectWalker struct {
	client *http.Client
	config Config
}

// NewRedirectWalker creates a walker that never lets the client follow redirects
func NewRedirectWalker(cfg Config) *RedirectWalker {
	cfg.defaults()
	return &RedirectWalker{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		config: cfg,
	}
}

// FollowRedirects follows rawURL to its final destination and returns the hops taken
func (w *RedirectWalker) FollowRedirects(ctx context.Context, rawURL string) ([]core.RedirectHop, error) {
	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, core.BadData("invalid url %q: %v", rawURL, err)
	}

	hops := []core.RedirectHop{}
	for {
		status, location, err := w.step(ctx, current.String())
		if err != nil {
			return nil, err
		}
		if !isRedirect(status) || location == "" {
			return hops, nil
		}
		if len(hops) >= w.config.MaxHops {
			return nil, fmt.Errorf("too many redirects (%d)", len(hops))
		}

		next, err := current.Parse(location)
		if err != nil {
			return nil, core.BadData("invalid redirect location %q: %v", location, err)
		}
		hops = append(hops, core.RedirectHop{From: current.String(), To: next.String(), StatusCode: status})
		current = next
	}
}

// step issues one request without following redirects
func (w *RedirectWalker) step(ctx context.Context, target string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", w.config.UserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	return resp.StatusCode, resp.Header.Get("Location"), nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
