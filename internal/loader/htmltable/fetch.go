package htmltable

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crashprep/internal/config"
	"crashprep/internal/metrics"
)

// Loader fetches HTML pages with a consistent timeout policy.
type Loader struct {
	client  *http.Client
	timeout time.Duration
}

// NewLoader creates a Loader. If client is nil, http.DefaultClient is used.
func NewLoader(client *http.Client, timeout time.Duration) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader{client: client, timeout: timeout}
}

// Fetch performs an HTTP GET for url and returns the body.
//
// On non-2xx responses, Fetch returns an error that includes the status code
// and up to 4KB of the response body for debugging.
func (l *Loader) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("htmltable: new request: %w", err)
	}
	req.Header.Set("User-Agent", "crashprep/1.0")

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		metrics.RecordHTTP(0, err, time.Since(start), -1)
		return "", fmt.Errorf("htmltable: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("htmltable: http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		metrics.RecordHTTP(resp.StatusCode, err, time.Since(start), -1)
		return "", err
	}

	b, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordHTTP(resp.StatusCode, err, elapsed, -1)
		return "", fmt.Errorf("htmltable: read body: %w", err)
	}
	metrics.RecordHTTP(resp.StatusCode, nil, elapsed, int64(len(b)))
	return string(b), nil
}

func timeoutOption(opt config.Options) time.Duration {
	return time.Duration(opt.Int("timeout_seconds", 30)) * time.Second
}
