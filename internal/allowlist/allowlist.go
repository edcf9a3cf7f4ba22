package allowlist

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Checker provides functionality to check if URL hosts are allowlisted
type Checker struct {
	entries []string
	logger  *zap.Logger
}

// NewChecker creates a new allowlist checker
func NewChecker(entries []string, logger *zap.Logger) *Checker {
	// Normalize entries (case folded, blanks dropped)
	normalized := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry = cases.Fold().String(strings.TrimSpace(entry)); entry != "" {
			normalized = append(normalized, entry)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized allowlist checker", zap.Strings("entries", normalized))
	}

	return &Checker{
		entries: normalized,
		logger:  logger,
	}
}

// IsAllowlisted reports whether host contains any allowlist entry
func (c *Checker) IsAllowlisted(host string) bool {
	if len(c.entries) == 0 || host == "" {
		return false
	}

	folded := cases.Fold().String(host)
	for _, entry := range c.entries {
		if strings.Contains(folded, entry) {
			if c.logger != nil {
				c.logger.Debug("Host is allowlisted",
					zap.String("host", host),
					zap.String("entry", entry))
			}
			return true
		}
	}

	return false
}
