// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP and backoff helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

const defaultMaxRetries = 3

// Backoff returns the exponential delay for a zero-based attempt number:
// RetryBaseDelay, 2x, 4x, 8x, ...
func Backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
}

// Sleep waits for the backoff delay of attempt or until the context is
// cancelled, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(Backoff(attempt)):
		return nil
	}
}

// retryable reports whether an HTTP status warrants another attempt:
// 429 (rate limited) or any 5xx.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// DoWithRetry executes an HTTP request and retries rate-limited and server
// error responses with exponential backoff. When maxRetries is 0 the
// default (3) is used. Requests with a body are replayed via GetBody;
// a request whose body cannot be replayed is not retried. On each
// retryable response the body is drained and closed before sleeping. If
// the context is cancelled during a backoff wait the function returns
// ctx.Err(). After exhausting retries the last response is returned so
// the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		clone := req.Clone(ctx)
		if attempt > 0 && req.Body != nil {
			if req.GetBody == nil {
				return nil, fmt.Errorf("request body is not replayable, cannot retry %s %s", req.Method, req.URL)
			}
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("replaying request body: %w", err)
			}
			clone.Body = body
		}

		resp, err := client.Do(clone)
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := Sleep(ctx, attempt); err != nil {
			return nil, err
		}
	}
}
