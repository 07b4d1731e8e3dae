package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubdig/hubdig/internal/hub"
	"github.com/hubdig/hubdig/internal/ref"
)

// fakeSource serves canned page payloads keyed by page number and
// records every fetch it sees.
type fakeSource struct {
	pages   map[int][]byte
	fetched []int
	err     error
}

func (f *fakeSource) FetchPage(_ context.Context, _ ref.Reference, page int) ([]byte, error) {
	f.fetched = append(f.fetched, page)
	if f.err != nil {
		return nil, f.err
	}
	payload, ok := f.pages[page]
	if !ok {
		return nil, fmt.Errorf("%w: no fixture for page %d", hub.ErrTransport, page)
	}
	return payload, nil
}

func testRequest(pageLimit int) Request {
	return Request{
		Ref:          ref.Reference{Namespace: "library", Repository: "python", Tag: "slim-buster"},
		OS:           "linux",
		Architecture: "amd64",
		PageLimit:    pageLimit,
	}
}

const matchPage = `{
	"count": 1,
	"next": null,
	"results": [
		{
			"name": "slim-buster",
			"images": [
				{"os": "windows", "architecture": "amd64", "digest": "sha256:win", "size": 1},
				{"os": "linux", "architecture": "amd64", "digest": "sha256:match", "size": 52428800}
			]
		}
	]
}`

const missPageWithNext = `{
	"count": 2,
	"next": "https://registry.hub.docker.com/v2/repositories/library/python/tags?page=2&name=slim-buster",
	"results": [
		{
			"name": "slim-buster",
			"images": [
				{"os": "linux", "architecture": "arm64", "digest": "sha256:arm", "size": 2}
			]
		}
	]
}`

const missPageNoNext = `{
	"count": 1,
	"next": null,
	"results": [
		{
			"name": "slim-buster",
			"images": [
				{"os": "linux", "architecture": "s390x", "digest": "sha256:s390x", "size": 3}
			]
		}
	]
}`

func TestSearcher_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("finds match on first page", func(t *testing.T) {
		source := &fakeSource{pages: map[int][]byte{1: []byte(matchPage)}}

		result, err := New(source).Search(ctx, testRequest(50))
		require.NoError(t, err)

		assert.Equal(t, "sha256:match", result.Digest)
		assert.Equal(t, int64(52428800), result.Size)
		assert.Equal(t, "slim-buster", result.Tag.Name)
		assert.Equal(t, "linux", result.Image.OS)
		assert.Equal(t, []int{1}, source.fetched)
	})

	t.Run("follows next to a later page", func(t *testing.T) {
		source := &fakeSource{pages: map[int][]byte{
			1: []byte(missPageWithNext),
			2: []byte(matchPage),
		}}

		result, err := New(source).Search(ctx, testRequest(2))
		require.NoError(t, err)

		assert.Equal(t, "sha256:match", result.Digest)
		assert.Equal(t, []int{1, 2}, source.fetched)
	})

	t.Run("page limit stops before fetching the next page", func(t *testing.T) {
		source := &fakeSource{pages: map[int][]byte{
			1: []byte(missPageWithNext),
			2: []byte(matchPage),
		}}

		_, err := New(source).Search(ctx, testRequest(1))

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, []int{1}, source.fetched)
	})

	t.Run("missing next ends the search regardless of limit", func(t *testing.T) {
		source := &fakeSource{pages: map[int][]byte{1: []byte(missPageNoNext)}}

		_, err := New(source).Search(ctx, testRequest(50))

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, []int{1}, source.fetched)
	})

	t.Run("transport error is fatal without page advance", func(t *testing.T) {
		source := &fakeSource{err: fmt.Errorf("%w: HTTP 500", hub.ErrTransport)}

		_, err := New(source).Search(ctx, testRequest(50))

		assert.ErrorIs(t, err, hub.ErrTransport)
		assert.Equal(t, []int{1}, source.fetched)
	})

	t.Run("malformed payload is fatal", func(t *testing.T) {
		source := &fakeSource{pages: map[int][]byte{1: []byte(`<html>`)}}

		_, err := New(source).Search(ctx, testRequest(50))

		assert.ErrorIs(t, err, ErrBadPayload)
	})

	t.Run("non-positive page limit rejected before any fetch", func(t *testing.T) {
		source := &fakeSource{pages: map[int][]byte{1: []byte(matchPage)}}

		_, err := New(source).Search(ctx, testRequest(0))
		assert.ErrorIs(t, err, ErrPageLimit)

		_, err = New(source).Search(ctx, testRequest(-3))
		assert.ErrorIs(t, err, ErrPageLimit)

		assert.Empty(t, source.fetched)
	})

	t.Run("empty results with next keeps paging", func(t *testing.T) {
		source := &fakeSource{pages: map[int][]byte{
			1: []byte(`{"count": 1, "next": "page2", "results": []}`),
			2: []byte(matchPage),
		}}

		result, err := New(source).Search(ctx, testRequest(5))
		require.NoError(t, err)

		assert.Equal(t, "sha256:match", result.Digest)
	})

	t.Run("absent results field is zero records", func(t *testing.T) {
		source := &fakeSource{pages: map[int][]byte{1: []byte(`{"count": 0, "next": null}`)}}

		_, err := New(source).Search(ctx, testRequest(5))

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("records with other tag names are skipped", func(t *testing.T) {
		page := `{
			"count": 2,
			"next": null,
			"results": [
				{
					"name": "slim-bullseye",
					"images": [{"os": "linux", "architecture": "amd64", "digest": "sha256:wrong", "size": 1}]
				},
				{
					"name": "slim-buster",
					"images": [{"os": "linux", "architecture": "amd64", "digest": "sha256:right", "size": 2}]
				}
			]
		}`
		source := &fakeSource{pages: map[int][]byte{1: []byte(page)}}

		result, err := New(source).Search(ctx, testRequest(5))
		require.NoError(t, err)

		assert.Equal(t, "sha256:right", result.Digest)
	})

	t.Run("variant qualifier must match exactly", func(t *testing.T) {
		page := `{
			"count": 1,
			"next": null,
			"results": [
				{
					"name": "slim-buster",
					"images": [
						{"os": "linux", "architecture": "arm", "variant": "v6", "digest": "sha256:v6", "size": 1},
						{"os": "linux", "architecture": "arm", "variant": "v7", "digest": "sha256:v7", "size": 2},
						{"os": "linux", "architecture": "arm", "digest": "sha256:bare", "size": 3}
					]
				}
			]
		}`
		source := &fakeSource{pages: map[int][]byte{1: []byte(page)}}

		req := testRequest(5)
		req.Architecture = "arm/v7"

		result, err := New(source).Search(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "sha256:v7", result.Digest)

		req.Architecture = "arm"
		result, err = New(source).Search(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "sha256:bare", result.Digest)
	})

	t.Run("repeat searches over the same fixtures agree", func(t *testing.T) {
		source := &fakeSource{pages: map[int][]byte{
			1: []byte(missPageWithNext),
			2: []byte(matchPage),
		}}

		first, err := New(source).Search(ctx, testRequest(10))
		require.NoError(t, err)

		second, err := New(source).Search(ctx, testRequest(10))
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}
