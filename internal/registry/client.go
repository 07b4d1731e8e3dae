package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
)

// ClientConfig configures the registry resolver.
type ClientConfig struct {
	// Insecure allows HTTP (non-TLS) connections to registries.
	Insecure bool
}

// client implements Resolver using go-containerregistry.
type client struct {
	config ClientConfig
}

// NewClient creates a new registry resolver with the given configuration.
func NewClient(cfg ClientConfig) Resolver {
	return &client{config: cfg}
}

// Resolve fetches the platform-specific image the reference points at
// and returns its digest and size.
func (c *client) Resolve(ctx context.Context, reference string, platform Platform) (*Descriptor, error) {
	var nameOpts []name.Option
	if c.config.Insecure {
		nameOpts = append(nameOpts, name.Insecure)
	}

	parsedRef, err := name.ParseReference(reference, nameOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRef, err)
	}

	arch, variant := platform.Split()
	opts := []remote.Option{
		remote.WithAuthFromKeychain(authn.DefaultKeychain),
		remote.WithContext(ctx),
		// Selects the right child of a multi-arch index.
		remote.WithPlatform(v1.Platform{
			OS:           platform.OS,
			Architecture: arch,
			Variant:      variant,
		}),
	}

	img, err := remote.Image(parsedRef, opts...)
	if err != nil {
		return nil, c.mapError(err)
	}

	digest, err := img.Digest()
	if err != nil {
		return nil, fmt.Errorf("get image digest: %w", err)
	}

	manifest, err := img.Manifest()
	if err != nil {
		return nil, fmt.Errorf("get image manifest: %w", err)
	}

	configFile, err := img.ConfigFile()
	if err != nil {
		return nil, fmt.Errorf("get image config: %w", err)
	}

	// Hub reports the sum of the compressed layer sizes, so mirror that
	// here rather than the manifest's own size.
	var size int64
	for _, layer := range manifest.Layers {
		size += layer.Size
	}

	return &Descriptor{
		Digest:       digest.String(),
		Size:         size,
		OS:           configFile.OS,
		Architecture: configFile.Architecture,
	}, nil
}

// Digest fetches the top-level manifest digest via a HEAD request,
// without downloading the manifest body.
func (c *client) Digest(ctx context.Context, reference string) (string, error) {
	var nameOpts []name.Option
	if c.config.Insecure {
		nameOpts = append(nameOpts, name.Insecure)
	}

	parsedRef, err := name.ParseReference(reference, nameOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidRef, err)
	}

	desc, err := remote.Head(parsedRef,
		remote.WithAuthFromKeychain(authn.DefaultKeychain),
		remote.WithContext(ctx),
	)
	if err != nil {
		return "", c.mapError(err)
	}

	return desc.Digest.String(), nil
}

// mapError converts go-containerregistry errors to sentinel errors.
func (c *client) mapError(err error) error {
	var transportErr *transport.Error
	if errors.As(err, &transportErr) {
		for _, diagnostic := range transportErr.Errors {
			switch diagnostic.Code {
			case transport.UnauthorizedErrorCode:
				return fmt.Errorf("%w: %s", ErrUnauthorized, err)
			case transport.ManifestUnknownErrorCode, transport.NameUnknownErrorCode:
				return fmt.Errorf("%w: %s", ErrImageNotFound, err)
			}
		}
		switch transportErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrUnauthorized, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrImageNotFound, err)
		}
	}

	return fmt.Errorf("registry error: %w", err)
}
