// Package hub provides access to the Docker Hub repository API, in
// particular the paginated tags listing for a repository.
package hub

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hubdig/hubdig/internal/ref"
)

// BaseURL is the Docker Hub repository API endpoint.
const BaseURL = "https://registry.hub.docker.com/v2"

// Sentinel errors for Hub API operations.
var (
	// ErrTransport is returned on connection failures or non-200
	// responses from the tags endpoint.
	ErrTransport = errors.New("hub request failed")
)

// PageSource fetches one page of tag results for a repository. It is an
// interface so the search loop can be driven from canned fixtures in
// tests without a network dependency.
type PageSource interface {
	// FetchPage returns the raw JSON payload of the given 1-based page
	// of the repository's tags listing, filtered by the reference's tag
	// name.
	FetchPage(ctx context.Context, reference ref.Reference, page int) ([]byte, error)
}

// TagsPage is one page of a repository's tags listing.
type TagsPage struct {
	// Count is the total number of matching tags across all pages.
	Count int `json:"count"`

	// Next is the URL of the following page, null or empty on the last
	// page.
	Next *string `json:"next"`

	// Results holds the tag records on this page.
	Results []TagRecord `json:"results"`
}

// HasNext reports whether the Hub advertises a further page.
func (p *TagsPage) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// TagRecord is one tag entry from a results page, covering every
// platform variant published under that tag name.
type TagRecord struct {
	Name        string         `json:"name"`
	FullSize    int64          `json:"full_size,omitempty"`
	LastUpdated string         `json:"last_updated,omitempty"`
	Digest      string         `json:"digest,omitempty"`
	Images      []ImageVariant `json:"images"`
}

// ImageVariant is one OS/architecture-specific build published under a
// tag.
type ImageVariant struct {
	OS           string `json:"os"`
	OSVersion    string `json:"os_version,omitempty"`
	Architecture string `json:"architecture"`
	Variant      string `json:"variant,omitempty"`
	Digest       string `json:"digest"`
	Size         int64  `json:"size"`
	Status       string `json:"status,omitempty"`
	LastPushed   string `json:"last_pushed,omitempty"`
}

// Platform composes the matchable architecture string: the architecture
// alone, or architecture/variant when a variant qualifier is present
// (e.g. "arm/v7").
func (v ImageVariant) Platform() string {
	if v.Variant == "" {
		return v.Architecture
	}
	return v.Architecture + "/" + v.Variant
}

// DecodePage parses a raw tags listing payload.
func DecodePage(payload []byte) (*TagsPage, error) {
	var page TagsPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
