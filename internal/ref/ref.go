// Package ref parses Docker Hub image references of the form
// "namespace/repository:tag" into their components.
package ref

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultNamespace is the Docker Hub namespace for official images.
const DefaultNamespace = "library"

// DefaultTag is assumed when a reference carries no tag.
const DefaultTag = "latest"

// ErrInvalidFormat is returned when the image reference is malformed.
var ErrInvalidFormat = errors.New("invalid image reference")

// Reference is a parsed Docker Hub image reference.
type Reference struct {
	// Namespace is the publishing account, e.g. "grafana". Official
	// images live under "library".
	Namespace string

	// Repository is the image name within the namespace, e.g. "loki".
	Repository string

	// Tag is the named pointer within the repository, e.g. "slim-buster".
	Tag string
}

// String renders the reference back to namespace/repository:tag form.
func (r Reference) String() string {
	return r.Namespace + "/" + r.Repository + ":" + r.Tag
}

// Path returns the namespace/repository portion used in Hub API URLs.
func (r Reference) Path() string {
	return r.Namespace + "/" + r.Repository
}

// Parse splits an image reference into namespace, repository, and tag.
// A reference without a namespace resolves to "library" (official
// images), and one without a tag resolves to "latest". References with
// more than one "/" are rejected: Hub repositories are at most two
// segments deep.
func Parse(input string) (Reference, error) {
	if input == "" {
		return Reference{}, fmt.Errorf("%w: empty string", ErrInvalidFormat)
	}

	ref := Reference{Namespace: DefaultNamespace, Tag: DefaultTag}

	segments := strings.Split(input, "/")
	switch len(segments) {
	case 1:
		ref.Repository = segments[0]
	case 2:
		ref.Namespace = segments[0]
		ref.Repository = segments[1]
	default:
		return Reference{}, fmt.Errorf("%w: %q has too many path segments", ErrInvalidFormat, input)
	}

	// Only an exact name:tag split overrides the default tag. Anything
	// else leaves the repository untouched.
	if parts := strings.Split(ref.Repository, ":"); len(parts) == 2 {
		ref.Repository = parts[0]
		ref.Tag = parts[1]
	}

	return ref, nil
}
