// Package daemon inspects images in the local Docker daemon, exposing
// the repo digest recorded when an image was pulled.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/hubdig/hubdig/internal/ref"
)

// Sentinel errors for daemon operations.
var (
	// ErrNotPulled is returned when the image is not present locally.
	ErrNotPulled = errors.New("image not present in local daemon")

	// ErrNoDigest is returned when the local image carries no repo
	// digest, which happens for locally built images.
	ErrNoDigest = errors.New("local image has no repo digest")
)

// imageAPI is the slice of the Docker client the inspector needs.
type imageAPI interface {
	ImageInspectWithRaw(ctx context.Context, imageID string) (image.InspectResponse, []byte, error)
}

// Inspector reads image metadata from the local Docker daemon.
type Inspector struct {
	api imageAPI
}

// NewInspector connects to the local daemon using the standard
// environment (DOCKER_HOST etc.) with API version negotiation.
func NewInspector() (*Inspector, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connect to docker daemon: %w", err)
	}
	return &Inspector{api: cli}, nil
}

// newInspectorWithAPI is used by tests to substitute a fake client.
func newInspectorWithAPI(api imageAPI) *Inspector {
	return &Inspector{api: api}
}

// ImageDigest returns the repo digest of the locally pulled image for
// the given reference. The daemon stores official images without the
// "library/" prefix, so both spellings are checked.
func (i *Inspector) ImageDigest(ctx context.Context, reference ref.Reference) (string, error) {
	inspect, _, err := i.api.ImageInspectWithRaw(ctx, localName(reference))
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrNotPulled, reference)
		}
		return "", fmt.Errorf("inspect image %s: %w", reference, err)
	}

	for _, repoDigest := range inspect.RepoDigests {
		repo, digest, ok := strings.Cut(repoDigest, "@")
		if !ok {
			continue
		}
		if repo == reference.Path() || (reference.Namespace == ref.DefaultNamespace && repo == reference.Repository) {
			return digest, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNoDigest, reference)
}

// localName is the reference as the daemon knows it: official images
// drop the library namespace.
func localName(reference ref.Reference) string {
	if reference.Namespace == ref.DefaultNamespace {
		return reference.Repository + ":" + reference.Tag
	}
	return reference.Path() + ":" + reference.Tag
}
