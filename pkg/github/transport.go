package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// maxResponseSize bounds how much of a response body is buffered
const maxResponseSize = 10 * 1024 * 1024

// responseCapture records what the GraphQL client itself discards: the
// HTTP status and the typed entries of the "errors" array.
type responseCapture struct {
	StatusCode int
	Body       []byte
	Errors     GraphQLErrors
}

type captureKey struct{}

// withCapture attaches a fresh responseCapture to ctx
func withCapture(ctx context.Context) (context.Context, *responseCapture) {
	capture := &responseCapture{}
	return context.WithValue(ctx, captureKey{}, capture), capture
}

func captureFrom(ctx context.Context) *responseCapture {
	capture, _ := ctx.Value(captureKey{}).(*responseCapture)
	return capture
}

// classify replaces the client's flattened error with the captured detail
func (c *responseCapture) classify(err error) error {
	if c == nil {
		return err
	}
	if c.StatusCode != 0 && c.StatusCode != http.StatusOK {
		return &HTTPStatusError{StatusCode: c.StatusCode, Body: string(c.Body)}
	}
	if len(c.Errors) > 0 {
		return c.Errors
	}
	return err
}

// graphQLTransport throttles requests, sets headers and records GraphQL
// errors into the request's responseCapture
type graphQLTransport struct {
	base      http.RoundTripper
	limiter   *RateLimiter
	userAgent string
}

// newHTTPClient builds the HTTP client used for GraphQL requests
func newHTTPClient(token string, limiter *RateLimiter, base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	if token != "" {
		base = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   base,
		}
	}

	return &http.Client{
		Transport: &graphQLTransport{
			base:      base,
			limiter:   limiter,
			userAgent: "ghsync",
		},
	}
}

// RoundTrip implements http.RoundTripper
func (t *graphQLTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if t.limiter != nil {
		t.limiter.Observe(resp.Header)
	}

	capture := captureFrom(req.Context())
	if capture == nil || resp.Body == nil {
		return resp, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("response size exceeded limit of %d bytes", maxResponseSize)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	capture.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		capture.Body = body
		return resp, nil
	}

	var envelope struct {
		Errors GraphQLErrors `json:"errors"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		capture.Errors = envelope.Errors
	}

	return resp, nil
}
