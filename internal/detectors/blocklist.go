package detectors

import (
	"context"

	"github.com/mikey/phishing-detector/internal/core"
)

// Blocklist checks the URL against a phishing feed
type Blocklist struct {
	feed core.BlocklistFeed
}

// NewBlocklist creates a blocklist detector backed by feed
func NewBlocklist(feed core.BlocklistFeed) *Blocklist {
	return &Blocklist{feed: feed}
}

func (d *Blocklist) Kind() core.DetectorKind { return core.KindBlocklist }

func (d *Blocklist) Detect(ctx context.Context, target *core.Target) core.DetectorResult {
	listed, err := d.feed.Contains(ctx, target.URL)
	if err != nil {
		return core.FallbackResult(core.KindBlocklist, err)
	}
	return &core.BlocklistResult{
		InBlocklist:  listed,
		IsSuspicious: listed,
		Outcome:      core.Succeeded(),
	}
}
