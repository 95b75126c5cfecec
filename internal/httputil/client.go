// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"net/http"
	"time"

	"github.com/pdiddy/bookdigest/pkg/types"
)

// defaultTimeout bounds a single completion request. There is no retry
// layer on top; the pipeline makes exactly one attempt per call.
const defaultTimeout = 120 * time.Second

// NewClient builds an *http.Client from shared HTTP settings. A zero
// timeout uses the default; a non-empty UserAgent is attached to every
// request that does not already set one.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.RoundTripper(http.DefaultTransport)
	if cfg.UserAgent != "" {
		transport = &uaTransport{base: http.DefaultTransport, userAgent: cfg.UserAgent}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// uaTransport injects a User-Agent header on requests that lack one.
type uaTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}
