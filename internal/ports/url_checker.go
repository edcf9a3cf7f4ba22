package ports

import (
	"context"

	"github.com/mikey/phishing-detector/internal/core"
)

// URLChecker defines the interface for the transports exposing URL assessment
type URLChecker interface {
	// CheckURL assesses a URL and returns its verdict
	CheckURL(ctx context.Context, url string) (*core.Verdict, error)

	// Start starts the transport
	Start() error

	// Stop stops the transport
	Stop() error
}

// Assessor is the slice of the assessment service the transports depend on
type Assessor interface {
	Assess(ctx context.Context, url string) (*core.Verdict, error)
}
