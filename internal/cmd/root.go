// Package cmd implements the hubdig CLI commands using Cobra.
// It provides commands for searching Docker Hub tag listings,
// resolving registry digests, and checking local images for drift.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hubdig/hubdig/internal/config"
	"github.com/hubdig/hubdig/internal/slogger"
)

// appConfig holds the loaded application configuration.
var appConfig *config.Config

// configLoader is used for reading and writing configuration keys.
var configLoader *config.Loader

// verbosity is the count of -v flags.
var verbosity int

var rootCmd = &cobra.Command{
	Use:   "hubdig",
	Short: "Dig image digests out of Docker Hub",
	Long: `hubdig locates the digest and size of a Docker Hub image for a
specific tag, operating system, and CPU architecture.

It walks the Hub tags listing page by page and picks the first platform
variant matching the request. It can also resolve digests straight from
the registry protocol and compare them against locally pulled images.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := slogger.New(slogger.Config{Verbosity: verbosity})

		ctx := cmd.Context()
		ctx = slogger.WithLogger(ctx, logger)
		ctx = WithConfig(ctx, appConfig)
		ctx = WithLoader(ctx, configLoader)
		cmd.SetContext(ctx)

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug)")
}

func initConfig() {
	loader, err := config.NewLoader()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
		return
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config validation failed: %v\n", err)
	}

	appConfig = cfg
	configLoader = loader
}
