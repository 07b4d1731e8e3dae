package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hubdig/hubdig/internal/config"
	"github.com/hubdig/hubdig/internal/hub"
	"github.com/hubdig/hubdig/internal/ref"
	"github.com/hubdig/hubdig/internal/search"
	"github.com/hubdig/hubdig/internal/slogger"
	"github.com/hubdig/hubdig/internal/spinner"
)

var searchCmd = &cobra.Command{
	Use:   "search IMAGE",
	Short: "Find a tag's digest for an OS and architecture",
	Long: `Search the Docker Hub tags listing of an image for the variant
matching the requested operating system and CPU architecture, and print
its digest and size.

IMAGE is a Hub reference like "alpine", "python:slim-buster", or
"grafana/loki:2.9.4". The namespace defaults to "library" (official
images) and the tag to "latest".

Pages are fetched in order until a match is found, the listing ends, or
the page limit is reached.`,
	Example: `  # Digest of the linux/amd64 build of python:slim-buster
  hubdig search python:slim-buster

  # An arm build with a variant qualifier
  hubdig search alpine:3.19 --arch arm/v7

  # Full tag and image metadata as JSON
  hubdig search grafana/loki:2.9.4 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("os", "", "operating system to match (default from config, linux)")
	searchCmd.Flags().String("arch", "", "CPU architecture to match, e.g. amd64 or arm/v7 (default from config, amd64)")
	searchCmd.Flags().Int("page-limit", 0, "maximum number of tag pages to fetch (default from config, 50)")
	searchCmd.Flags().StringP("output", "o", "", "output format: text or json (default from config, text)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(cmd, args[0])
	if err != nil {
		return err
	}

	format, err := resolveFormat(cmd)
	if err != nil {
		return err
	}

	searcher := search.New(hub.NewClient(hub.ClientConfig{}))
	result, err := runWithProgress(cmd.Context(), searcher, req)
	if err != nil {
		return err
	}

	return renderResult(cmd.OutOrStdout(), result, format)
}

// buildRequest assembles the search request from the argument, flags,
// and configured defaults.
func buildRequest(cmd *cobra.Command, image string) (search.Request, error) {
	reference, err := ref.Parse(image)
	if err != nil {
		return search.Request{}, err
	}

	osName, err := resolveOS(cmd)
	if err != nil {
		return search.Request{}, err
	}

	arch, err := resolveArch(cmd)
	if err != nil {
		return search.Request{}, err
	}

	pageLimit, err := resolvePageLimit(cmd)
	if err != nil {
		return search.Request{}, err
	}

	return search.Request{
		Ref:          reference,
		OS:           osName,
		Architecture: arch,
		PageLimit:    pageLimit,
	}, nil
}

// runWithProgress runs the search, piping its per-page log lines into a
// spinner when stderr is an interactive terminal and verbose logging is
// off.
func runWithProgress(ctx context.Context, searcher *search.Searcher, req search.Request) (*search.Result, error) {
	if verbosity > 0 || !term.IsTerminal(int(os.Stderr.Fd())) {
		return searcher.Search(ctx, req)
	}

	sp := spinner.New(os.Stderr)
	logger := slogger.New(slogger.Config{Verbosity: 1, Output: sp.Writer()})
	ctx = slogger.WithLogger(ctx, logger)

	spinnerDone := make(chan struct{})
	go func() {
		defer close(spinnerDone)
		// Render errors only degrade the progress display.
		_ = sp.Start()
	}()

	result, err := searcher.Search(ctx, req)

	sp.Stop()
	<-spinnerDone

	return result, err
}

// renderResult prints the matched variant. Text output is a summary;
// JSON carries the full tag and image metadata.
func renderResult(out io.Writer, result *search.Result, format string) error {
	if format == config.FormatJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(searchOutput{
			Digest:             result.Digest,
			Size:               result.Size,
			TagMetadata:        result.Tag,
			FinalImageMetadata: result.Image,
		})
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "DIGEST\t%s\n", result.Digest)
	fmt.Fprintf(w, "SIZE\t%d\n", result.Size)
	fmt.Fprintf(w, "TAG\t%s\n", result.Tag.Name)
	fmt.Fprintf(w, "OS\t%s\n", result.Image.OS)
	fmt.Fprintf(w, "ARCH\t%s\n", result.Image.Platform())
	return w.Flush()
}

// searchOutput is the JSON shape of a successful search.
type searchOutput struct {
	Digest             string           `json:"digest"`
	Size               int64            `json:"size"`
	TagMetadata        hub.TagRecord    `json:"tagMetadata"`
	FinalImageMetadata hub.ImageVariant `json:"finalImageMetadata"`
}
