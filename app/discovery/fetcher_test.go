package discovery

import (
	"context"
	"net/http"
	"sync"

	"github.com/lysyi3m/factcomb/app/fetch"
)

type fakeFetcher struct {
	mu        sync.Mutex
	pages     map[string]string
	requested []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages}
}

func (f *fakeFetcher) For(alternate bool) fetch.Fetcher {
	return f
}

func (f *fakeFetcher) Get(ctx context.Context, url string) (*fetch.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, url)

	body, ok := f.pages[url]
	if !ok {
		return nil, &fetch.StatusError{Code: http.StatusNotFound}
	}
	header := http.Header{}
	header.Set("Content-Type", "text/html; charset=utf-8")
	return &fetch.Response{URL: url, StatusCode: http.StatusOK, Header: header, Body: []byte(body)}, nil
}

func (f *fakeFetcher) Head(ctx context.Context, url string) (http.Header, error) {
	return http.Header{}, nil
}
