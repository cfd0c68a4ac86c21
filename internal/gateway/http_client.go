package gateway

import (
	"context"
	"io"
	"net/http"
	"time"
)

// DefaultClientTimeout bounds every exchange round trip
const DefaultClientTimeout = 30 * time.Second

// HTTPClient sends requests to the exchange and returns the raw body with its status code
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient creates a client with the default timeout
func NewHTTPClient() *HTTPClient {
	return NewHTTPClientWithTimeout(DefaultClientTimeout)
}

// NewHTTPClientWithTimeout creates a client with a custom timeout
func NewHTTPClientWithTimeout(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Do sends a request with the given method and headers
func (c *HTTPClient) Do(ctx context.Context, method, url string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, 0, err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
