// Package search implements the paginated tag search: it walks a
// repository's tags listing page by page and selects the first image
// variant matching a requested OS and architecture.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/hubdig/hubdig/internal/hub"
	"github.com/hubdig/hubdig/internal/ref"
	"github.com/hubdig/hubdig/internal/slogger"
)

// Sentinel errors for search outcomes.
var (
	// ErrNotFound is returned when every available page was scanned
	// (or the page ceiling was reached) without a matching variant.
	ErrNotFound = errors.New("no matching image found")

	// ErrPageLimit is returned when the request carries a non-positive
	// page limit. It is a configuration error, caught before any
	// network call.
	ErrPageLimit = errors.New("page limit must be positive")

	// ErrBadPayload is returned when a tags page cannot be decoded.
	ErrBadPayload = errors.New("malformed tags page")
)

// Request describes one search invocation. It is built once from caller
// input and read-only thereafter.
type Request struct {
	// Ref is the parsed image reference to search for.
	Ref ref.Reference

	// OS is the requested operating system, e.g. "linux".
	OS string

	// Architecture is the requested CPU architecture, either plain
	// ("amd64") or with a variant qualifier ("arm/v7").
	Architecture string

	// PageLimit caps how many pages are fetched before giving up.
	PageLimit int
}

// Result is the matched variant together with its surrounding tag
// record.
type Result struct {
	// Digest is the matched variant's content-addressed identifier.
	Digest string

	// Size is the matched variant's size in bytes.
	Size int64

	// Tag is the full tag record the variant was found under.
	Tag hub.TagRecord

	// Image is the full matched variant record.
	Image hub.ImageVariant
}

// step is the per-page scan outcome: a match, permission to advance, or
// exhaustion of the listing.
type step int

const (
	stepFound step = iota
	stepNextPage
	stepExhausted
)

// Searcher drives a PageSource across pages until a match is found or
// pages run out.
type Searcher struct {
	source hub.PageSource
}

// New creates a Searcher over the given page source.
func New(source hub.PageSource) *Searcher {
	return &Searcher{source: source}
}

// Search scans the repository's tags listing in page order and returns
// the first variant whose OS and composed architecture match the
// request. It returns ErrNotFound when the listing is exhausted or the
// page limit is reached, and fails immediately on any transport or
// decode error.
func (s *Searcher) Search(ctx context.Context, req Request) (*Result, error) {
	if req.PageLimit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrPageLimit, req.PageLimit)
	}

	logger := slogger.L(ctx)

	for page := 1; ; page++ {
		payload, err := s.source.FetchPage(ctx, req.Ref, page)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}

		tagsPage, err := hub.DecodePage(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrBadPayload, page, err)
		}

		result, next := scanPage(tagsPage, req)
		switch next {
		case stepFound:
			logger.Info("match found",
				"page", page,
				"tag", result.Tag.Name,
				"digest", result.Digest,
			)
			return result, nil

		case stepExhausted:
			logger.Debug("tags listing exhausted", "pages", page)
			return nil, fmt.Errorf("%w: %s for %s/%s", ErrNotFound, req.Ref, req.OS, req.Architecture)

		case stepNextPage:
			// Ceiling is checked before fetching the next page, never
			// after: a match on the final allowed page still wins.
			if page+1 > req.PageLimit {
				logger.Debug("page limit reached", "limit", req.PageLimit)
				return nil, fmt.Errorf("%w: %s for %s/%s (stopped after %d pages)",
					ErrNotFound, req.Ref, req.OS, req.Architecture, page)
			}
		}
	}
}

// scanPage looks for a matching variant on one page. Records that don't
// carry the requested tag name are skipped; within a matching record the
// images are scanned in array order and the first OS/architecture hit
// wins.
func scanPage(page *hub.TagsPage, req Request) (*Result, step) {
	for _, record := range page.Results {
		if record.Name != req.Ref.Tag {
			continue
		}
		for _, image := range record.Images {
			if image.OS == req.OS && image.Platform() == req.Architecture {
				return &Result{
					Digest: image.Digest,
					Size:   image.Size,
					Tag:    record,
					Image:  image,
				}, stepFound
			}
		}
	}

	if page.HasNext() {
		return nil, stepNextPage
	}
	return nil, stepExhausted
}
