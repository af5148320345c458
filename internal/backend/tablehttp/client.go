// Package tablehttp implements one generic destination adapter for
// REST table backends (Teable, Grist, NocoDB). Backend differences are
// confined to a Dialect: endpoints, batch size and column encodings.
package tablehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal JSON-over-HTTP client for one backend instance.
// Connection state (base URL, auth headers) is set once at construction
// and treated as immutable afterwards.
type Client struct {
	BaseURL    string
	Headers    map[string]string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient creates a client with sane defaults.
func NewClient(baseURL string, headers map[string]string) *Client {
	return &Client{
		BaseURL: baseURL,
		Headers: headers,
		Timeout: 30 * time.Second,
	}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Do issues one request and decodes the JSON response into out.
func (c *Client) Do(ctx context.Context, method, endpoint string, query url.Values, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	u := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
