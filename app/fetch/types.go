package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrStatus     = errors.New("unexpected HTTP status")
	ErrEmptyBody  = errors.New("empty response body")
	ErrNotHTML    = errors.New("content is not HTML")
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// Fetcher is the network capability used by discovery and extraction.
type Fetcher interface {
	Get(ctx context.Context, url string) (*Response, error)
	Head(ctx context.Context, url string) (http.Header, error)
}

// Provider hands out the fetcher to use for a source.
type Provider interface {
	For(alternate bool) Fetcher
}

type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsHTML checks the declared content type, then sniffs the body.
func (r *Response) IsHTML() bool {
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(contentType, "html") {
		return true
	}
	if contentType != "" && !strings.HasPrefix(contentType, "text/plain") && !strings.HasPrefix(contentType, "application/octet-stream") {
		return false
	}
	return mimetype.Detect(r.Body).Is("text/html")
}

// RequireHTML returns ErrNotHTML, with the declared content type, when the
// response is not an HTML page.
func (r *Response) RequireHTML() error {
	if r.IsHTML() {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrNotHTML, r.Header.Get("Content-Type"))
}

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// Permanent reports statuses that a retry with the same client cannot fix.
func (e *StatusError) Permanent() bool {
	switch e.Code {
	case http.StatusNotFound, http.StatusGone, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

// Rejected reports statuses a site uses to turn away a client, which a
// different client may get past.
func (e *StatusError) Rejected() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}
