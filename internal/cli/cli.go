package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/capitalone/Stratum-Observability/internal/app"
	"github.com/capitalone/Stratum-Observability/internal/pipeline"
	"github.com/spf13/pflag"
)

// Environment variables consulted when the matching flag is not set.
const (
	EnvProductName    = "STRATUM_PRODUCT_NAME"
	EnvProductVersion = "STRATUM_PRODUCT_VERSION"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := pflag.NewFlagSet("stratum", pflag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Stratum - declarative telemetry catalogs published to pluggable destinations.

Usage:
  stratum [options] [CATALOG_PATH...]

Arguments:
  CATALOG_PATH
    Catalog file or directory (.hcl, .yaml, .yml, .json, .jsonc).

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.StringP("config", "c", "", "Path to the HCL application file or directory.")
	catalogFlag := flagSet.StringArray("catalog", nil, "Catalog file or directory. Repeatable.")
	publishFlag := flagSet.StringArray("publish", nil, "Tag key to publish, optionally as CATALOG_ID#KEY. Repeatable.")
	productNameFlag := flagSet.String("product-name", "", "Product name. Defaults to $"+EnvProductName+".")
	productVersionFlag := flagSet.String("product-version", "", "Product version. Defaults to $"+EnvProductVersion+".")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	policyFlag := flagSet.String("policy", pipeline.AnyDelivered.String(), "Publish success policy. Options: 'any', 'all', 'attempted'.")
	timeoutFlag := flagSet.Duration("publisher-timeout", 0, "Upper bound for a single publisher call. 0 is unbounded.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	catalogs := append(append([]string(nil), *catalogFlag...), flagSet.Args()...)
	if *configFlag == "" && len(catalogs) == 0 {
		slog.Debug("No configuration provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	policy, err := pipeline.ParsePolicy(*policyFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath:       *configFlag,
		CatalogPaths:     catalogs,
		PublishKeys:      *publishFlag,
		ProductName:      valueOrEnv(*productNameFlag, EnvProductName),
		ProductVersion:   valueOrEnv(*productVersionFlag, EnvProductVersion),
		LogFormat:        logFormat,
		LogLevel:         logLevel,
		Policy:           policy,
		PublisherTimeout: *timeoutFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func valueOrEnv(value, env string) string {
	if value != "" {
		return value
	}
	return os.Getenv(env)
}
