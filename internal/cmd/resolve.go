package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hubdig/hubdig/internal/config"
	"github.com/hubdig/hubdig/internal/ref"
	"github.com/hubdig/hubdig/internal/registry"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve IMAGE",
	Short: "Resolve a digest over the registry protocol",
	Long: `Resolve the digest of an image directly over the OCI distribution
protocol instead of the Hub tags API.

Unlike search, this follows the registry's own platform resolution of
multi-arch indexes. Useful as a cross-check when the Hub listing and
the registry disagree.`,
	Example: `  # Digest of the linux/amd64 build of alpine:3.19
  hubdig resolve alpine:3.19

  # Another platform
  hubdig resolve alpine:3.19 --os linux --arch arm64`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().String("os", "", "operating system to resolve for (default from config, linux)")
	resolveCmd.Flags().String("arch", "", "CPU architecture to resolve for, e.g. amd64 or arm/v7 (default from config, amd64)")
	resolveCmd.Flags().StringP("output", "o", "", "output format: text or json (default from config, text)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	reference, err := ref.Parse(args[0])
	if err != nil {
		return err
	}

	osName, err := resolveOS(cmd)
	if err != nil {
		return err
	}

	arch, err := resolveArch(cmd)
	if err != nil {
		return err
	}

	format, err := resolveFormat(cmd)
	if err != nil {
		return err
	}

	resolver := registry.NewClient(registry.ClientConfig{})
	desc, err := resolver.Resolve(cmd.Context(), reference.String(), registry.Platform{
		OS:           osName,
		Architecture: arch,
	})
	if err != nil {
		return fmt.Errorf("resolve %s: %w", reference, err)
	}

	return renderDescriptor(cmd.OutOrStdout(), desc, format)
}

func renderDescriptor(out io.Writer, desc *registry.Descriptor, format string) error {
	if format == config.FormatJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(desc)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "DIGEST\t%s\n", desc.Digest)
	fmt.Fprintf(w, "SIZE\t%d\n", desc.Size)
	fmt.Fprintf(w, "OS\t%s\n", desc.OS)
	fmt.Fprintf(w, "ARCH\t%s\n", desc.Architecture)
	return w.Flush()
}
