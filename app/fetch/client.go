package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

const (
	maxBodySize       = 10 << 20
	browserUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultAcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

type Options struct {
	UserAgent     string
	Timeout       time.Duration
	Retry         RetryPolicy
	HostInterval  time.Duration
	RespectRobots bool
}

type Client struct {
	primary   *http.Client
	alternate *http.Client
	opts      Options

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter

	robotsMu sync.Mutex
	robots   map[string]*robotstxt.RobotsData
}

var _ Provider = (*Client)(nil)

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 35 * time.Second
	}

	alternateTransport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DialContext:       (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		DisableKeepAlives: true,
	}
	// An empty non-nil map disables HTTP/2 on this transport.
	alternateTransport.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)

	return &Client{
		primary: &http.Client{
			Timeout: opts.Timeout,
		},
		alternate: &http.Client{
			Timeout:   opts.Timeout,
			Transport: alternateTransport,
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
		robots:   make(map[string]*robotstxt.RobotsData),
	}
}

func (c *Client) For(alternate bool) Fetcher {
	if alternate {
		return &view{client: c, alternateFirst: true}
	}
	return &view{client: c}
}

func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.For(false).Get(ctx, rawURL)
}

func (c *Client) Head(ctx context.Context, rawURL string) (http.Header, error) {
	return c.For(false).Head(ctx, rawURL)
}

type view struct {
	client         *Client
	alternateFirst bool
}

// Get runs the retry policy on the preferred client. When the primary client
// exhausts its attempts, the alternate client gets one last try.
func (v *view) Get(ctx context.Context, rawURL string) (*Response, error) {
	c := v.client

	if c.opts.RespectRobots && !c.allowed(ctx, rawURL) {
		return nil, ErrDisallowed
	}

	preferred := c.primary
	if v.alternateFirst {
		preferred = c.alternate
	}

	resp, err := c.getWithRetry(ctx, preferred, rawURL, !v.alternateFirst)
	if err == nil || v.alternateFirst || ctx.Err() != nil || (isPermanent(err) && !isRejected(err)) {
		return resp, err
	}

	slog.Debug("Primary client failed, trying alternate", "url", rawURL, "error", err)
	if altResp, altErr := c.do(ctx, c.alternate, http.MethodGet, rawURL, true); altErr == nil {
		return altResp, nil
	}
	return nil, err
}

func (v *view) Head(ctx context.Context, rawURL string) (http.Header, error) {
	hc := v.client.primary
	if v.alternateFirst {
		hc = v.client.alternate
	}

	resp, err := v.client.do(ctx, hc, http.MethodHead, rawURL, v.alternateFirst)
	if err != nil {
		return nil, err
	}
	return resp.Header, nil
}

func (c *Client) getWithRetry(ctx context.Context, hc *http.Client, rawURL string, primary bool) (*Response, error) {
	var lastErr error
	attempts := c.opts.Retry.Attempts()

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.do(ctx, hc, http.MethodGet, rawURL, !primary)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if isPermanent(err) || attempt == attempts {
			break
		}

		delay := c.opts.Retry.Delay(attempt)
		slog.Debug("Fetch retry scheduled", "url", rawURL, "attempt", attempt, "max_attempts", attempts, "delay", delay.String(), "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, rawURL string, browserLike bool) (*Response, error) {
	if err := c.wait(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	userAgent := c.opts.UserAgent
	if browserLike || userAgent == "" {
		userAgent = browserUserAgent
		req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", defaultAcceptHTML)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	result := &Response{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}

	if method == http.MethodHead {
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	result.Body = body

	return result, nil
}

// wait paces requests to the same host.
func (c *Client) wait(ctx context.Context, rawURL string) error {
	if c.opts.HostInterval <= 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	host := strings.ToLower(u.Host)

	c.limitersMu.Lock()
	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(c.opts.HostInterval), 1)
		c.limiters[host] = limiter
	}
	c.limitersMu.Unlock()

	return limiter.Wait(ctx)
}

func (c *Client) allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	origin := u.Scheme + "://" + u.Host

	c.robotsMu.Lock()
	data, cached := c.robots[origin]
	c.robotsMu.Unlock()

	if !cached {
		data = c.loadRobots(ctx, origin)
		c.robotsMu.Lock()
		c.robots[origin] = data
		c.robotsMu.Unlock()
	}

	if data == nil {
		return true
	}

	agent := c.opts.UserAgent
	if agent == "" {
		agent = browserUserAgent
	}
	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, agent)
}

func (c *Client) loadRobots(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.primary.Do(req)
	if err != nil {
		slog.Debug("robots.txt unavailable", "origin", origin, "error", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		slog.Debug("robots.txt unparseable", "origin", origin, "error", err)
		return nil
	}
	return data
}

func isRejected(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Rejected()
}

func isPermanent(err error) bool {
	if errors.Is(err, ErrDisallowed) {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Permanent()
}
