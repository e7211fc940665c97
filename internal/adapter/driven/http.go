package driven

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 5 * time.Second

// DefaultHeaders are sent on every upstream request unless overridden.
var DefaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0",
	"Referer":    "https://jiotv.com/",
}

// newHTTPClient returns client, or a client with the default timeout if nil.
func newHTTPClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultTimeout}
}

// newGetRequest builds a GET request carrying the given headers.
// A nil headers map sends DefaultHeaders.
func newGetRequest(ctx context.Context, url string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	if headers == nil {
		headers = DefaultHeaders
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}
