package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/common"
)

const (
	defaultUserAgent   = "intel-sieve/1.0 (+https://github.com/Veraticus/intel-sieve)"
	defaultHTTPTimeout = 30 * time.Second
	maxBodyBytes       = 16 << 20
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// get fetches url and returns the body. Transport failures, 429 and 5xx
// responses are retryable; other statuses are not.
func get(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err), Retryable: false}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &common.RetryableError{Err: ctx.Err(), Retryable: false}
		}
		return nil, &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrSourceUnavailable, err), Retryable: true}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := fmt.Errorf("%w: %d - %s", common.ErrUpstreamStatus, resp.StatusCode, string(snippet))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, &common.RetryableError{
				Err:       fmt.Errorf("%w: %w", common.ErrRateLimit, statusErr),
				After:     retryAfter(resp.Header.Get("Retry-After")),
				Retryable: true,
			}
		case resp.StatusCode >= http.StatusInternalServerError:
			return nil, &common.RetryableError{Err: statusErr, Retryable: true}
		default:
			return nil, &common.RetryableError{Err: statusErr, Retryable: false}
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to read response: %w", err), Retryable: true}
	}
	return body, nil
}

// retryAfter reads a Retry-After header given in seconds. Dates and
// malformed values yield zero.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
