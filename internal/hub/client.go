package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hubdig/hubdig/internal/ref"
	"github.com/hubdig/hubdig/internal/slogger"
)

// defaultTimeout bounds a single page request.
const defaultTimeout = 30 * time.Second

// ClientConfig configures the Hub API client.
type ClientConfig struct {
	// BaseURL overrides the Docker Hub endpoint, mainly for tests.
	BaseURL string

	// HTTPClient overrides the underlying HTTP client. Defaults to a
	// client with a 30s timeout.
	HTTPClient *http.Client
}

// client implements PageSource against the live Docker Hub API.
type client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a PageSource backed by the Docker Hub API.
func NewClient(cfg ClientConfig) PageSource {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &client{baseURL: baseURL, http: httpClient}
}

// FetchPage issues one GET against the tags listing endpoint and returns
// the raw body. Any non-200 status or connection failure is ErrTransport;
// there are no retries.
func (c *client) FetchPage(ctx context.Context, reference ref.Reference, page int) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/repositories/%s/%s/tags", c.baseURL, reference.Namespace, reference.Repository)

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("name", reference.Tag)
	endpoint += "?" + query.Encode()

	logger := slogger.L(ctx)
	logger.Info("fetching tags page", "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrTransport, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	logger.Debug("tags page response", "status", resp.StatusCode, "body", string(body))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: HTTP %d", ErrTransport, endpoint, resp.StatusCode)
	}

	return body, nil
}
