package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hubdig/hubdig/internal/daemon"
	"github.com/hubdig/hubdig/internal/ref"
	"github.com/hubdig/hubdig/internal/registry"
	"github.com/hubdig/hubdig/internal/slogger"
)

var checkCmd = &cobra.Command{
	Use:   "check IMAGE",
	Short: "Check a locally pulled image for upstream drift",
	Long: `Compare the repo digest of a locally pulled image against the digest
the registry currently serves for the same reference.

Exits non-zero when the local image is stale, which makes the command
usable as a freshness gate in scripts.`,
	Example: `  # Is my local alpine:3.19 still current?
  hubdig check alpine:3.19

  hubdig check grafana/loki:2.9.4`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	reference, err := ref.Parse(args[0])
	if err != nil {
		return err
	}

	inspector, err := daemon.NewInspector()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := slogger.L(ctx)

	localDigest, err := inspector.ImageDigest(ctx, reference)
	if err != nil {
		return err
	}
	logger.Info("local digest", "image", reference.String(), "digest", localDigest)

	resolver := registry.NewClient(registry.ClientConfig{})
	remoteDigest, err := resolver.Digest(ctx, reference.String())
	if err != nil {
		return fmt.Errorf("resolve remote digest: %w", err)
	}
	logger.Info("remote digest", "image", reference.String(), "digest", remoteDigest)

	out := cmd.OutOrStdout()
	if strings.EqualFold(localDigest, remoteDigest) {
		fmt.Fprintf(out, "%s is up to date (%s)\n", reference, localDigest)
		return nil
	}

	fmt.Fprintf(out, "%s is stale\n  local:  %s\n  remote: %s\n", reference, localDigest, remoteDigest)
	return fmt.Errorf("newer image available for %s", reference)
}
