package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubdig/hubdig/internal/ref"
)

func TestClient_FetchPage(t *testing.T) {
	ctx := context.Background()
	reference := ref.Reference{Namespace: "library", Repository: "alpine", Tag: "3.19"}

	t.Run("requests the tags endpoint with page and name", func(t *testing.T) {
		var gotPath, gotPage, gotName string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotPage = r.URL.Query().Get("page")
			gotName = r.URL.Query().Get("name")
			w.Write([]byte(`{"count": 0, "next": null, "results": []}`))
		}))
		defer server.Close()

		source := NewClient(ClientConfig{BaseURL: server.URL})
		body, err := source.FetchPage(ctx, reference, 3)
		require.NoError(t, err)

		assert.Equal(t, "/repositories/library/alpine/tags", gotPath)
		assert.Equal(t, "3", gotPage)
		assert.Equal(t, "3.19", gotName)
		assert.JSONEq(t, `{"count": 0, "next": null, "results": []}`, string(body))
	})

	t.Run("non-200 status is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))
		defer server.Close()

		source := NewClient(ClientConfig{BaseURL: server.URL})
		_, err := source.FetchPage(ctx, reference, 1)

		assert.ErrorIs(t, err, ErrTransport)
		assert.Contains(t, err.Error(), "HTTP 404")
	})

	t.Run("connection failure is a transport error", func(t *testing.T) {
		// Grab a URL that refuses connections by closing the server first.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		source := NewClient(ClientConfig{BaseURL: server.URL})
		_, err := source.FetchPage(ctx, reference, 1)

		assert.ErrorIs(t, err, ErrTransport)
	})
}

func TestDecodePage(t *testing.T) {
	t.Run("decodes results and next", func(t *testing.T) {
		payload := []byte(`{
			"count": 2,
			"next": "https://registry.hub.docker.com/v2/repositories/library/alpine/tags?page=2&name=3.19",
			"results": [
				{
					"name": "3.19",
					"images": [
						{"os": "linux", "architecture": "arm", "variant": "v7", "digest": "sha256:aaa", "size": 123}
					]
				}
			]
		}`)

		page, err := DecodePage(payload)
		require.NoError(t, err)

		assert.True(t, page.HasNext())
		require.Len(t, page.Results, 1)
		require.Len(t, page.Results[0].Images, 1)
		assert.Equal(t, "arm/v7", page.Results[0].Images[0].Platform())
	})

	t.Run("null next means last page", func(t *testing.T) {
		page, err := DecodePage([]byte(`{"count": 0, "next": null, "results": []}`))
		require.NoError(t, err)

		assert.False(t, page.HasNext())
	})

	t.Run("empty string next means last page", func(t *testing.T) {
		page, err := DecodePage([]byte(`{"count": 0, "next": "", "results": []}`))
		require.NoError(t, err)

		assert.False(t, page.HasNext())
	})

	t.Run("malformed payload fails", func(t *testing.T) {
		_, err := DecodePage([]byte(`<html>rate limited</html>`))

		assert.Error(t, err)
	})
}

func TestImageVariant_Platform(t *testing.T) {
	assert.Equal(t, "amd64", ImageVariant{Architecture: "amd64"}.Platform())
	assert.Equal(t, "arm/v7", ImageVariant{Architecture: "arm", Variant: "v7"}.Platform())
}
