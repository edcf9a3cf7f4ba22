package httpfetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// RenderedFetcher loads pages in headless Chrome so script-built login forms are visible
type RenderedFetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	settle      time.Duration
	logger      *zap.Logger
}

// NewRenderedFetcher starts a browser allocator; an empty chromePath uses the default lookup
func NewRenderedFetcher(cfg Config, chromePath string, logger *zap.Logger) *RenderedFetcher {
	cfg.defaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
		logger.Info("Using Chrome binary", zap.String("path", chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &RenderedFetcher{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     cfg.Timeout,
		settle:      time.Second,
		logger:      logger,
	}
}

// Get renders url in a fresh tab and returns the resulting document
func (f *RenderedFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	tabCtx, tabCancel := chromedp.NewContext(f.allocCtx, chromedp.WithLogf(f.logger.Sugar().Debugf))
	defer tabCancel()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	runCtx, cancel := context.WithTimeout(tabCtx, f.timeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("render %s: %w", url, ctx.Err())
		}
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	return []byte(html), nil
}

// Stop shuts the browser down
func (f *RenderedFetcher) Stop() {
	f.allocCancel()
}
