// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/theme-engine/pkg/types"
)

func TestNewClientAppliesConfig(t *testing.T) {
	client := NewClient(types.HTTPConfig{Timeout: 42 * time.Second, UserAgent: "x"}, 3)
	assert.Equal(t, 42*time.Second, client.Timeout)
	require.IsType(t, &retryTransport{}, client.Transport)
}

func TestNewClientSetsUserAgent(t *testing.T) {
	var gotUA atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(types.HTTPConfig{UserAgent: "theme-engine/test"}, 3)
	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "theme-engine/test", gotUA.Load())
}

func TestNewClientRetriesServerErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(types.HTTPConfig{}, 5)
	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNewClientReplaysBodyAcrossRetries(t *testing.T) {
	var calls int32
	bodies := make(chan string, 4)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies <- string(data)
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(types.HTTPConfig{}, 3)
	resp, err := client.Post(ts.URL, "application/json", strings.NewReader(`{"input":"text"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
	// Both attempts must carry the full payload.
	assert.Equal(t, `{"input":"text"}`, <-bodies)
	assert.Equal(t, `{"input":"text"}`, <-bodies)
}
