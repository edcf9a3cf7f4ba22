package blocklist

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultOpenPhishURL is the public OpenPhish community feed
const DefaultOpenPhishURL = "https://openphish.com/feed.txt"

// OpenPhishConfig configures the OpenPhish feed
type OpenPhishConfig struct {
	URL       string
	Timeout   time.Duration // default 10s
	Refresh   time.Duration // reuse period of a download, default 10m
	MaxBytes  int64         // default 16MB
	UserAgent string
}

func (c *OpenPhishConfig) defaults() {
	if c.URL == "" {
		c.URL = DefaultOpenPhishURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Refresh <= 0 {
		c.Refresh = 10 * time.Minute
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 16 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "phishing-detector/1.0"
	}
}

// OpenPhishFeed matches URLs against the OpenPhish text feed
type OpenPhishFeed struct {
	client    *http.Client
	config    OpenPhishConfig
	logger    *zap.Logger
	mu        sync.Mutex
	entries   []string
	fetchedAt time.Time
	now       func() time.Time
}

// NewOpenPhishFeed creates a new OpenPhish feed
func NewOpenPhishFeed(cfg OpenPhishConfig, logger *zap.Logger) *OpenPhishFeed {
	cfg.defaults()
	return &OpenPhishFeed{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Name identifies the feed in logs
func (f *OpenPhishFeed) Name() string { return "openphish" }

// Contains reports whether any feed entry occurs in url
func (f *OpenPhishFeed) Contains(ctx context.Context, url string) (bool, error) {
	entries, err := f.load(ctx)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if strings.Contains(url, entry) {
			return true, nil
		}
	}
	return false, nil
}

// load returns the cached entries, downloading the feed when they are stale.
// A failed refresh keeps serving the previous download.
func (f *OpenPhishFeed) load(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.entries != nil && f.now().Sub(f.fetchedAt) < f.config.Refresh {
		return f.entries, nil
	}

	entries, err := f.fetch(ctx)
	if err != nil {
		if f.entries != nil {
			f.logger.Warn("Failed to refresh OpenPhish feed, using previous copy",
				zap.Error(err),
				zap.Time("fetched_at", f.fetchedAt))
			return f.entries, nil
		}
		return nil, err
	}

	f.entries = entries
	f.fetchedAt = f.now()
	f.logger.Debug("OpenPhish feed refreshed", zap.Int("entries", len(entries)))
	return entries, nil
}

func (f *OpenPhishFeed) fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return parseFeed(bytes.NewReader(body))
}

// parseFeed reads one entry per line, skipping blanks and # comments
func parseFeed(r io.Reader) ([]string, error) {
	entries := []string{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	return entries, nil
}
