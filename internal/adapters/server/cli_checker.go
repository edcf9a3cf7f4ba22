package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/ports"
)

// CLIChecker assesses a single URL and prints the verdict
type CLIChecker struct {
	assessor   ports.Assessor
	logger     *zap.Logger
	out        io.Writer
	jsonOutput bool
}

// NewCLIChecker creates a new CLI checker writing to out
func NewCLIChecker(assessor ports.Assessor, logger *zap.Logger, out io.Writer, jsonOutput bool) *CLIChecker {
	return &CLIChecker{
		assessor:   assessor,
		logger:     logger,
		out:        out,
		jsonOutput: jsonOutput,
	}
}

// CheckURL assesses url and displays the results
func (c *CLIChecker) CheckURL(ctx context.Context, url string) (*core.Verdict, error) {
	c.logger.Debug("Checking URL", zap.String("url", url))

	start := time.Now()
	verdict, err := c.assessor.Assess(ctx, url)
	if err != nil {
		c.logger.Error("Failed to assess URL", zap.Error(err))
		return nil, err
	}

	if c.jsonOutput {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return verdict, enc.Encode(verdict)
	}
	return verdict, c.printSummary(verdict, time.Since(start))
}

func (c *CLIChecker) printSummary(v *core.Verdict, elapsed time.Duration) error {
	fmt.Fprintf(c.out, "\n=== URL Summary ===\n")
	fmt.Fprintf(c.out, "URL: %s\n", v.URL)
	fmt.Fprintf(c.out, "Host: %s\n", v.Domain.Host)
	fmt.Fprintf(c.out, "Registrable domain: %s\n", v.Domain.RegistrableDomain)

	fmt.Fprintf(c.out, "\n=== Detectors ===\n")
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DETECTOR\tSTATUS\tSUSPICIOUS\tWEIGHT\tNOTE")
	for _, kind := range core.AllKinds() {
		result, ok := v.Result(kind)
		if !ok {
			continue
		}
		status, note := "ok", ""
		if result.Failed() {
			category, reason := result.Failure()
			status, note = string(category), reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%s\n", kind, status, result.Suspicious(), v.Risk.Breakdown[kind], note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n=== Verdict ===\n")
	fmt.Fprintf(c.out, "Score: %d\n", v.Risk.Score)
	fmt.Fprintf(c.out, "Level: %s\n", v.Risk.Level)
	fmt.Fprintf(c.out, "Suspicious: %s\n", joinKinds(v.SuspiciousKinds()))
	fmt.Fprintf(c.out, "Reason: %s\n", v.Risk.Reason)
	_, err := fmt.Fprintf(c.out, "Processing time: %v\n", elapsed.Round(time.Millisecond))
	return err
}

func joinKinds(kinds []core.DetectorKind) string {
	if len(kinds) == 0 {
		return "none"
	}
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = string(kind)
	}
	return strings.Join(names, ", ")
}

// Start is a no-op for the CLI checker
func (c *CLIChecker) Start() error {
	return nil
}

// Stop is a no-op for the CLI checker
func (c *CLIChecker) Stop() error {
	return nil
}
