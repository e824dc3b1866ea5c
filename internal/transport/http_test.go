package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krozgrov/nestwire/internal/testutil/testlog"
)

func TestOpenStreamsResponseBody(t *testing.T) {
	testlog.Start(t)
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		if string(body) != "observe-request" {
			t.Errorf("request body = %q", body)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("chunk-1"))
		w.(http.Flusher).Flush()
		w.Write([]byte("chunk-2"))
	}))
	defer srv.Close()

	c := NewClient(nil, StreamRequest{
		URL:     srv.URL,
		Headers: ObserveHeaders("dG9rZW4=", "nestwire/1.0"),
		Body:    []byte("observe-request"),
	}, 0)

	rc, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()

	all, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(all) != "chunk-1chunk-2" {
		t.Fatalf("stream bytes = %q", all)
	}

	if got := gotHeaders.Get("Authorization"); got != "Basic dG9rZW4=" {
		t.Fatalf("authorization = %q", got)
	}
	if got := gotHeaders.Get("X-Accept-Response-Streaming"); got != "true" {
		t.Fatalf("streaming header = %q", got)
	}
	if got := gotHeaders.Get("Content-Type"); got != "application/x-protobuf" {
		t.Fatalf("content type = %q", got)
	}
}

func TestOpenRejectsBadStatus(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(nil, StreamRequest{URL: srv.URL}, 0)
	if _, err := c.Open(context.Background()); !errors.Is(err, ErrStatus) {
		t.Fatalf("err = %v", err)
	}
}

func TestStalledReadTimesOut(t *testing.T) {
	testlog.Start(t)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("early"))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(nil, StreamRequest{URL: srv.URL}, 50*time.Millisecond)
	rc, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()

	buf := make([]byte, 16)
	n, err := rc.Read(buf)
	if string(buf[:n]) != "early" || err != nil {
		t.Fatalf("first read: n=%d err=%v", n, err)
	}

	if _, err = rc.Read(buf); !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("stalled read err = %v", err)
	}
}

func TestOpenHonorsContext(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(nil, StreamRequest{URL: "http://127.0.0.1:0"}, 0)
	if _, err := c.Open(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}
