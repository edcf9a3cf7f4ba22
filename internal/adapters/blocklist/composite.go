package blocklist

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
)

// NamedFeed is a blocklist feed that can identify itself
type NamedFeed interface {
	core.BlocklistFeed
	Name() string
}

// CompositeFeed consults several feeds in order
type CompositeFeed struct {
	feeds  []NamedFeed
	logger *zap.Logger
}

// NewCompositeFeed creates a feed that lists a URL when any of feeds does
func NewCompositeFeed(logger *zap.Logger, feeds ...NamedFeed) *CompositeFeed {
	return &CompositeFeed{feeds: feeds, logger: logger}
}

// Contains reports true on the first feed listing url.
// It fails only when every feed failed.
func (c *CompositeFeed) Contains(ctx context.Context, url string) (bool, error) {
	if len(c.feeds) == 0 {
		return false, nil
	}

	var errs []error
	for _, feed := range c.feeds {
		listed, err := feed.Contains(ctx, url)
		if err != nil {
			c.logger.Debug("Blocklist feed failed", zap.String("feed", feed.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", feed.Name(), err))
			continue
		}
		if listed {
			return true, nil
		}
	}
	if len(errs) == len(c.feeds) {
		return false, errors.Join(errs...)
	}
	return false, nil
}
