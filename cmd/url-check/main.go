package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/di"
	"github.com/mikey/phishing-detector/internal/factory"
	"github.com/mikey/phishing-detector/internal/ports"
)

func main() {
	_ = godotenv.Load()

	flags := di.ParseFlags()
	if flags.URL == "" && flags.ImportBlocklist == "" {
		fmt.Fprintln(os.Stderr, "usage: url-check -url <url> [-json] [-config file]")
		fmt.Fprintln(os.Stderr, "       url-check -import-blocklist <file> [-import-source name] [-config file]")
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if flags.ImportBlocklist != "" {
		err = container.Invoke(importBlocklist)
	} else {
		err = container.Invoke(check)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func check(logger *zap.Logger, flags *di.CLIFlags, checker ports.URLChecker, detectors *factory.DetectorFactory) error {
	defer logger.Sync()
	defer detectors.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err := checker.CheckURL(ctx, flags.URL)
	return err
}

func importBlocklist(logger *zap.Logger, flags *di.CLIFlags, detectors *factory.DetectorFactory) error {
	defer logger.Sync()
	defer detectors.Stop()

	file, err := os.Open(flags.ImportBlocklist)
	if err != nil {
		return fmt.Errorf("failed to open blocklist file: %w", err)
	}
	defer file.Close()

	feed, err := detectors.CreateSQLFeed()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	added, err := feed.Import(ctx, file, flags.ImportSource)
	if err != nil {
		return err
	}
	total, err := feed.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d entries from %s (%d in blocklist)\n", added, flags.ImportBlocklist, total)
	return nil
}
