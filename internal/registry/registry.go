// Package registry resolves image digests directly over the OCI
// distribution protocol, as a complement to the Docker Hub tags API.
package registry

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors for registry operations.
var (
	// ErrImageNotFound is returned when the requested image does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrUnauthorized is returned when authentication fails.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidRef is returned when the image reference is malformed.
	ErrInvalidRef = errors.New("invalid image reference")
)

// Platform selects one OS/architecture build of a multi-arch image.
type Platform struct {
	// OS is the operating system, e.g. "linux".
	OS string

	// Architecture is either plain ("amd64") or carries a variant
	// qualifier ("arm/v7").
	Architecture string
}

// Split separates the architecture from its optional variant qualifier.
func (p Platform) Split() (arch, variant string) {
	arch, variant, _ = strings.Cut(p.Architecture, "/")
	return arch, variant
}

// Descriptor is the resolved identity of one platform-specific image.
type Descriptor struct {
	// Digest is the image's content-addressable digest ("sha256:...").
	Digest string `json:"digest"`

	// Size is the compressed size of the image's layers in bytes.
	Size int64 `json:"size"`

	// OS and Architecture are taken from the resolved image config.
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

// Resolver resolves image references to platform-specific descriptors.
//
//go:generate go run github.com/matryer/moq@latest -pkg mocks -out mocks/resolver.go . Resolver
type Resolver interface {
	// Resolve fetches the digest and size of the image the reference
	// points at for the given platform. The reference can be a tag
	// ("alpine:3.19") or a digest ("alpine@sha256:...").
	Resolve(ctx context.Context, reference string, platform Platform) (*Descriptor, error)

	// Digest fetches the manifest digest the reference points at,
	// without descending into a multi-arch index. This is the digest
	// the local daemon records in RepoDigests after a pull.
	Digest(ctx context.Context, reference string) (string, error)
}
