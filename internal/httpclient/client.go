// Package httpclient is the shared HTTP client for remote collaborators:
// worksheet exports, exsicata image downloads and the identification
// service. Requests without a deadline get a default timeout, and hooks let
// the metrics layer observe every round trip, including those made by SDKs
// through StandardClient.
package httpclient

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/huam/biocurate/internal/errors"
)

// DefaultTimeout applies to requests whose context has no deadline
const DefaultTimeout = 30 * time.Second

const defaultUserAgent = "BioCurate"

// ErrBodyTooLarge is returned by ReadAll when a body exceeds its limit
var ErrBodyTooLarge = errors.NewStd("response body exceeds size limit")

// Config tunes the pooled transport. Zero fields take DefaultConfig values.
type Config struct {
	DefaultTimeout time.Duration
	UserAgent      string

	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	// Transport replaces the pooled transport; tests inject httpmock here
	Transport http.RoundTripper
}

// DefaultConfig favors few hosts with many sequential requests: one
// spreadsheet host, one drive host and the identification endpoint.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:        DefaultTimeout,
		UserAgent:             defaultUserAgent,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	c.DefaultTimeout = cmp.Or(c.DefaultTimeout, d.DefaultTimeout)
	c.UserAgent = cmp.Or(c.UserAgent, d.UserAgent)
	c.MaxIdleConns = cmp.Or(c.MaxIdleConns, d.MaxIdleConns)
	c.MaxIdleConnsPerHost = cmp.Or(c.MaxIdleConnsPerHost, d.MaxIdleConnsPerHost)
	c.IdleConnTimeout = cmp.Or(c.IdleConnTimeout, d.IdleConnTimeout)
	c.TLSHandshakeTimeout = cmp.Or(c.TLSHandshakeTimeout, d.TLSHandshakeTimeout)
	c.ResponseHeaderTimeout = cmp.Or(c.ResponseHeaderTimeout, d.ResponseHeaderTimeout)
	return c
}

func (c Config) transport() http.RoundTripper {
	if c.Transport != nil {
		return c.Transport
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          c.MaxIdleConns,
		MaxIdleConnsPerHost:   c.MaxIdleConnsPerHost,
		IdleConnTimeout:       c.IdleConnTimeout,
		TLSHandshakeTimeout:   c.TLSHandshakeTimeout,
		ResponseHeaderTimeout: c.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
	}
}

// Client is safe for concurrent use
type Client struct {
	client         *http.Client
	defaultTimeout time.Duration
	userAgent      string

	hookMu        sync.RWMutex
	beforeRequest func(*http.Request)
	afterResponse func(*http.Request, *http.Response, error)
}

// New builds a Client; cfg may be nil and is not modified
func New(cfg *Config) *Client {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	c = c.withDefaults()

	client := &Client{defaultTimeout: c.DefaultTimeout, userAgent: c.UserAgent}
	// deadlines come from request contexts, not from http.Client.Timeout
	client.client = &http.Client{Transport: &hookTransport{base: c.transport(), owner: client}}
	return client
}

// Do sends req under ctx. Without a deadline on ctx the default timeout
// applies until the body is closed. The caller closes the body when err is nil.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok && c.defaultTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.defaultTimeout)
	}
	req = req.WithContext(ctx)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, url, "", nil)
}

// Post sends body with the given content type; a nil body sends none
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, url, contentType, body)
}

func (c *Client) send(ctx context.Context, method, url, contentType string, body io.Reader) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.Do(ctx, req)
}

// ReadAll reads at most limit bytes from r, returning ErrBodyTooLarge when
// more remain
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// StandardClient exposes the pooled client to SDKs that take an
// *http.Client. Hooks fire; the default timeout does not apply.
func (c *Client) StandardClient() *http.Client {
	return c.client
}

func (c *Client) SetBeforeRequestHook(fn func(*http.Request)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.beforeRequest = fn
}

func (c *Client) SetAfterResponseHook(fn func(*http.Request, *http.Response, error)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.afterResponse = fn
}

// Close drops idle pooled connections
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

type hookTransport struct {
	base  http.RoundTripper
	owner *Client
}

func (t *hookTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.owner.hookMu.RLock()
	before, after := t.owner.beforeRequest, t.owner.afterResponse
	t.owner.hookMu.RUnlock()

	if before != nil {
		before(req)
	}
	resp, err := t.base.RoundTrip(req)
	if after != nil {
		after(req, resp, err)
	}
	return resp, err
}

func (t *hookTransport) CloseIdleConnections() {
	if ci, ok := t.base.(interface{ CloseIdleConnections() }); ok {
		ci.CloseIdleConnections()
	}
}

// cancelOnClose releases the default timeout once the body is closed
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
