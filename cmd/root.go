package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configFile string
	Logger     *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "harsize",
		Short: "Measure page weight and load times from HAR captures",
		Long: `harsize loads web pages in a browser, records every request as a HAR
document and reports how much each page weighs, broken down by mimetype,
along with load, finish and DOMContentLoaded times. Results are appended to
CSV files named after the site's domain.`,
		Example: `  harsize crawl --sitemap https://example.com/sitemap.xml
  harsize crawl https://example.com/ https://example.com/about/ --print
  harsize analyze capture.har --domain example.com
  harsize view captures/*.har`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), RenderBanner())
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML file with run settings, flags override its values")

	// will be reconfigured in PersistentPreRun based on flags
	setupLogger()
}

// setupLogger configures the global slog logger based on the verbose flag
func setupLogger() {
	var opts *slog.HandlerOptions

	if verbose {
		opts = &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}
	} else {
		opts = &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	Logger = slog.New(handler)
	slog.SetDefault(Logger)

	if verbose {
		Logger.Debug("verbose logging enabled",
			"level", slog.LevelDebug.String(),
			"pid", os.Getpid())
	}
}

// GetLogger returns the global logger instance
func GetLogger() *slog.Logger {
	if Logger == nil {
		setupLogger()
	}
	return Logger
}

// ValidateHARFile checks if the provided HAR file exists and is accessible
// check if the file exists, and it is not a directory.
func ValidateHARFile(harFile string) error {
	if harFile == "" {
		return fmt.Errorf("HAR file path is required")
	}

	info, err := os.Stat(harFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("HAR file does not exist: %s", harFile)
		}
		return fmt.Errorf("error accessing HAR file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("provided path is a directory, not a file: %s", harFile)
	}

	return nil
}
