package di

import (
	"flag"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/adapters/server"
	"github.com/mikey/phishing-detector/internal/config"
	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/logging"
	"github.com/mikey/phishing-detector/internal/ports"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	URL             string
	ConfigFile      string
	Verbose         bool
	JSONLog         bool
	JSON            bool
	ImportBlocklist string
	ImportSource    string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.URL, "url", "", "URL to assess")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.BoolVar(&flags.JSON, "json", false, "Print the verdict as JSON")
	flag.StringVar(&flags.ImportBlocklist, "import-blocklist", "", "Import a newline separated URL list into the SQL blocklist and exit")
	flag.StringVar(&flags.ImportSource, "import-source", "manual", "Source recorded for imported blocklist entries")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		return loadCLIConfig(flags, logger)
	}); err != nil {
		return nil, err
	}

	// No metrics endpoint for one-shot runs
	if err := container.Provide(func() core.Metrics { return nil }); err != nil {
		return nil, err
	}

	if err := provideAssessment(container); err != nil {
		return nil, err
	}

	// Register checker
	if err := container.Provide(func(
		service *core.AssessmentService,
		logger *zap.Logger,
		flags *CLIFlags,
	) ports.URLChecker {
		return server.NewCLIChecker(service, logger, os.Stdout, flags.JSON)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// loadCLIConfig reads the config file when one is given and disables the
// verdict cache, which a single run never hits
func loadCLIConfig(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
	cfg := config.NewFromViper(config.NewEmptyViper())
	if flags.ConfigFile != "" {
		var err error
		cfg, err = config.NewFromFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	}

	cfg.Set("server.transport", "cli")
	cfg.Set("cache.enabled", false)
	cfg.Set("metrics.enabled", false)
	return cfg, nil
}
