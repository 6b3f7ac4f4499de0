package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultUserAgent = "coinwatch/1.0"

// httpClient is the shared GET-and-decode helper behind the REST adapters.
type httpClient struct {
	client    *http.Client
	userAgent string
}

func newHTTPClient(timeout time.Duration, userAgent string) *httpClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	return &httpClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// getJSON issues a GET request and decodes the JSON body into out. HTTP 429
// and 404 are surfaced as ErrRateLimited and ErrNotFound so callers can record
// distinguishable reasons.
func (c *httpClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w (http 429)", ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w (http 404)", ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return httpError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func httpError(status int, body []byte) error {
	excerpt := strings.TrimSpace(string(body))
	if len(excerpt) > 200 {
		excerpt = excerpt[:200]
	}
	if excerpt != "" {
		return fmt.Errorf("http status %d: %s", status, excerpt)
	}
	return fmt.Errorf("http status %d", status)
}
