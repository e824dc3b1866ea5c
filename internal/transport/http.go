// Package transport opens the long-lived observe read over HTTP. The
// server answers a POST with an unbounded protobuf stream; everything
// above this package only sees the resulting byte reader.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrStatus reports a non-2xx response to the stream request.
	ErrStatus = errors.New("transport: unexpected response status")
	// ErrReadTimeout reports a stream read that stalled past the
	// configured deadline.
	ErrReadTimeout = errors.New("transport: read timed out")
)

// StreamRequest describes one observe subscription: where to post, what
// headers to send, and the serialized observe request body.
type StreamRequest struct {
	URL     string
	Headers http.Header
	Body    []byte
}

// ObserveHeaders builds the header set the observe endpoint expects.
// token is the pre-encoded basic credential.
func ObserveHeaders(token, userAgent string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Basic "+token)
	h.Set("Content-Type", "application/x-protobuf")
	h.Set("Accept", "application/x-protobuf")
	h.Set("X-Accept-Content-Transfer-Encoding", "binary")
	h.Set("X-Accept-Response-Streaming", "true")
	if userAgent != "" {
		h.Set("User-Agent", userAgent)
	}
	return h
}

// Client opens observe streams. It satisfies the session's transport
// contract: one Open call per connect attempt.
type Client struct {
	httpClient  *http.Client
	req         StreamRequest
	readTimeout time.Duration
}

// NewClient returns a stream client. httpClient may be nil, in which
// case a default client with no overall request timeout is used (the
// stream is unbounded; only per-read stalls are policed, via
// readTimeout). A zero readTimeout disables stall detection.
func NewClient(httpClient *http.Client, req StreamRequest, readTimeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, req: req, readTimeout: readTimeout}
}

// Open posts the observe request and hands back the streaming response
// body. The caller owns the reader and must close it.
func (c *Client) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.req.URL, bytes.NewReader(c.req.Body))
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	for k, vs := range c.req.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	log.Debug().Str("url", c.req.URL).Str("status", resp.Status).Msg("stream opened")

	if c.readTimeout <= 0 {
		return resp.Body, nil
	}
	return &timeoutReader{rc: resp.Body, timeout: c.readTimeout}, nil
}

// timeoutReader closes the underlying body if a single Read stalls past
// timeout, and maps the resulting error to ErrReadTimeout.
type timeoutReader struct {
	rc       io.ReadCloser
	timeout  time.Duration
	timedOut atomic.Bool
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	timer := time.AfterFunc(r.timeout, func() {
		r.timedOut.Store(true)
		r.rc.Close()
	})
	defer timer.Stop()

	n, err := r.rc.Read(p)
	if err != nil && r.timedOut.Load() {
		return n, fmt.Errorf("%w after %s", ErrReadTimeout, r.timeout)
	}
	return n, err
}

func (r *timeoutReader) Close() error {
	return r.rc.Close()
}
