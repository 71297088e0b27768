// Package httptransport provides custom http transport implementations.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

// LoggedTransport adds request slog logging.
//
// Responses with status code below 400 are logged with DEBUG level.
// Responses with status code of 400 or higher are logged with WARNING level.
type LoggedTransport struct {
	// Next is the wrapped transport. http.DefaultTransport when nil.
	Next http.RoundTripper
}

func (t LoggedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	level := slog.LevelDebug
	if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "HTTP response", "method", req.Method, "url", req.URL, "status", resp.StatusCode)
	return resp, err
}

// RateLimitedTransport throttles outgoing requests with a token bucket.
type RateLimitedTransport struct {
	Limiter *rate.Limiter
	// Next is the wrapped transport. http.DefaultTransport when nil.
	Next http.RoundTripper
}

func (t RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(req)
}
