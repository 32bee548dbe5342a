// Package httputil builds the pooled HTTP client used for upstream calls.
package httputil

import (
	"net"
	"net/http"
	"time"
)

const DefaultTimeout = 60 * time.Second

// NewClient returns a client with connection pooling and the given overall
// request timeout. The timeout bounds the whole round trip so a hung
// upstream cannot pin request goroutines indefinitely.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
