package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxRedirects = 5
	DefaultMaxBodyBytes = 10 << 20
	DefaultUserAgent    = "companyapi/1.0"
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	UserAgent    string
}

// Client fetches XML documents named by an identifier from a fixed base URL.
type Client struct {
	baseURL      string
	timeout      time.Duration
	maxRedirects int
	maxBodyBytes int64
	userAgent    string
	httpClient   *http.Client
}

func New(opts Options) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		timeout:      opts.Timeout,
		maxRedirects: opts.MaxRedirects,
		maxBodyBytes: opts.MaxBodyBytes,
		userAgent:    opts.UserAgent,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.maxRedirects <= 0 {
		c.maxRedirects = DefaultMaxRedirects
	}
	if c.maxBodyBytes <= 0 {
		c.maxBodyBytes = DefaultMaxBodyBytes
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	c.httpClient = &http.Client{
		// Redirects are followed by Fetch so each hop gets its own deadline.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return c
}

// BaseURL returns the upstream location documents are fetched from.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URLFor returns the document URL for id. The identifier is used verbatim.
func (c *Client) URLFor(id string) string {
	return c.baseURL + "/" + id + ".xml"
}

// Fetch returns the body of {base}/{id}.xml, following up to the configured
// number of redirects. No request is retried.
func (c *Client) Fetch(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}

	target := c.URLFor(id)
	for redirects := 0; ; redirects++ {
		body, next, err := c.hop(ctx, target)
		if err != nil {
			return nil, err
		}
		if next == "" {
			return body, nil
		}
		if redirects >= c.maxRedirects {
			return nil, fmt.Errorf("%w: stopped after %d hops at %s", ErrRedirectLoop, redirects, next)
		}
		target = next
	}
}

// hop performs one GET. It returns either the body or the location to follow.
func (c *Client) hop(ctx context.Context, target string) ([]byte, string, error) {
	hopCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(hopCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", &TransportError{URL: target, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/xml, text/xml;q=0.9, */*;q=0.1")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", c.classify(ctx, hopCtx, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 && resp.Header.Get("Location") != "" {
		loc, err := resp.Location()
		if err != nil {
			return nil, "", &TransportError{URL: target, Err: fmt.Errorf("redirect location: %w", err)}
		}
		// Drain a little so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, loc.String(), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &UpstreamError{StatusCode: resp.StatusCode, URL: target}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, "", c.classify(ctx, hopCtx, target, err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, "", fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, c.maxBodyBytes, target)
	}
	return body, "", nil
}

// classify separates an expired hop deadline from other transport failures.
// Cancellation of the caller's own context is reported as a transport error.
func (c *Client) classify(parent, hopCtx context.Context, target string, err error) error {
	if parent.Err() == nil && errors.Is(hopCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s (URL: %s)", ErrTimeout, c.timeout, target)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return &TransportError{URL: target, Err: err}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
