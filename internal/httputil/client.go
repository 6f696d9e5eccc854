// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/http"

	"github.com/pdiddy/theme-engine/pkg/types"
)

// retryTransport applies the User-Agent header and routes every request
// through DoWithRetry, so 429 and 5xx responses are retried with backoff
// before the caller ever sees them.
type retryTransport struct {
	base       http.RoundTripper
	userAgent  string
	maxRetries int
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	inner := &http.Client{Transport: t.base}
	return DoWithRetry(req.Context(), inner, req, t.maxRetries)
}

// NewClient builds an http.Client from cfg: request timeout, User-Agent,
// and retry on rate-limited and server-error responses. The timeout spans
// all attempts of one logical request, backoff waits included.
func NewClient(cfg types.HTTPConfig, maxRetries int) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &retryTransport{
			base:       http.DefaultTransport,
			userAgent:  cfg.UserAgent,
			maxRetries: maxRetries,
		},
	}
}
