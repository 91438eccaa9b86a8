package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testOptions() Options {
	return Options{
		UserAgent: "factcomb-test/1.0",
		Timeout:   5 * time.Second,
		Retry:     RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	}
}

func TestClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "factcomb-test/1.0" {
			t.Errorf("Expected configured User-Agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>hola</body></html>"))
	}))
	defer server.Close()

	client := NewClient(testOptions())
	resp, err := client.Get(context.Background(), server.URL+"/nota")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "<html><body>hola</body></html>" {
		t.Errorf("Unexpected body %q", resp.Body)
	}
	if !resp.IsHTML() {
		t.Error("Expected response to be HTML")
	}
}

func TestClientRetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(testOptions())
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("Expected body 'ok', got %q", resp.Body)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestClientFallsBackToAlternate(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("User-Agent") == "factcomb-test/1.0" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("browser"))
	}))
	defer server.Close()

	client := NewClient(testOptions())
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected alternate client to succeed, got %v", err)
	}
	if string(resp.Body) != "browser" {
		t.Errorf("Expected body from alternate client, got %q", resp.Body)
	}
	if atomic.LoadInt32(&calls) != 4 {
		t.Errorf("Expected 3 primary attempts plus 1 alternate, got %d", calls)
	}
}

func TestClientPermanentStatusNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testOptions())
	_, err := client.Get(context.Background(), server.URL)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("Expected ErrStatus, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected a single call for 404, got %d", calls)
	}
}

func TestClientForbiddenFallsBackToAlternate(t *testing.T) {
	var primaryCalls, alternateCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "factcomb-test/1.0" {
			atomic.AddInt32(&primaryCalls, 1)
			w.WriteHeader(http.StatusForbidden)
			return
		}
		atomic.AddInt32(&alternateCalls, 1)
		w.Write([]byte("browser"))
	}))
	defer server.Close()

	client := NewClient(testOptions())
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected alternate client to succeed after 403, got %v", err)
	}
	if string(resp.Body) != "browser" {
		t.Errorf("Expected body from alternate client, got %q", resp.Body)
	}
	if atomic.LoadInt32(&primaryCalls) != 1 {
		t.Errorf("Expected a single primary call for 403, got %d", primaryCalls)
	}
	if atomic.LoadInt32(&alternateCalls) != 1 {
		t.Errorf("Expected 1 alternate call, got %d", alternateCalls)
	}
}

func TestClientEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	opts := testOptions()
	opts.Retry = RetryPolicy{MaxAttempts: 1}
	client := NewClient(opts)

	_, err := client.For(true).Get(context.Background(), server.URL)
	if !errors.Is(err, ErrEmptyBody) {
		t.Errorf("Expected ErrEmptyBody, got %v", err)
	}
}

func TestClientRespectsRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /privado/\n"))
			return
		}
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	opts := testOptions()
	opts.RespectRobots = true
	client := NewClient(opts)

	if _, err := client.Get(context.Background(), server.URL+"/privado/nota"); !errors.Is(err, ErrDisallowed) {
		t.Errorf("Expected ErrDisallowed, got %v", err)
	}
	if _, err := client.Get(context.Background(), server.URL+"/publico/nota"); err != nil {
		t.Errorf("Expected allowed path to succeed, got %v", err)
	}
}

func TestClientHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD, got %s", r.Method)
		}
		w.Header().Set("Last-Modified", "Fri, 05 Jan 2024 10:00:00 GMT")
	}))
	defer server.Close()

	client := NewClient(testOptions())
	header, err := client.Head(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if header.Get("Last-Modified") != "Fri, 05 Jan 2024 10:00:00 GMT" {
		t.Errorf("Unexpected Last-Modified %q", header.Get("Last-Modified"))
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 30 * time.Second}

	tests := []struct {
		n        int
		expected time.Duration
	}{
		{0, 0},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := p.Delay(tt.n); got != tt.expected {
			t.Errorf("Delay(%d): expected %v, got %v", tt.n, tt.expected, got)
		}
	}

	if NewRetryPolicy(2).Attempts() != 3 {
		t.Errorf("Expected 2 retries to mean 3 attempts")
	}
}

func TestResponseIsHTML(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		expected    bool
	}{
		{"declared html", "text/html; charset=utf-8", "x", true},
		{"pdf", "application/pdf", "%PDF-1.4", false},
		{"sniffed html", "", "<!DOCTYPE html><html><body></body></html>", true},
		{"sniffed pdf", "", "%PDF-1.4 binary", false},
	}

	for _, tt := range tests {
		resp := &Response{Header: http.Header{}, Body: []byte(tt.body)}
		if tt.contentType != "" {
			resp.Header.Set("Content-Type", tt.contentType)
		}
		if got := resp.IsHTML(); got != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, got)
		}
	}
}

func TestResponseRequireHTML(t *testing.T) {
	page := &Response{Header: http.Header{"Content-Type": {"text/html"}}, Body: []byte("<html></html>")}
	if err := page.RequireHTML(); err != nil {
		t.Errorf("Expected no error for HTML, got %v", err)
	}

	pdf := &Response{Header: http.Header{"Content-Type": {"application/pdf"}}, Body: []byte("%PDF-1.4")}
	err := pdf.RequireHTML()
	if !errors.Is(err, ErrNotHTML) {
		t.Errorf("Expected ErrNotHTML, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "application/pdf") {
		t.Errorf("Expected content type in error, got %q", err.Error())
	}
}
