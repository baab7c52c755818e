// Copyright © 2018 One Concern

// Package httpstore implements a read-only storage.Store over a plain HTTP origin,
// such as a CDN serving asset bundles.
package httpstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oneconcern/assetsync/pkg/storage"
	"github.com/oneconcern/assetsync/pkg/storage/status"
	"go.uber.org/zap"
)

// Option is a functor to pass optional parameters to the http store
type Option func(*httpStore)

// Logger specifies a logger for this store
func Logger(logger *zap.Logger) Option {
	return func(h *httpStore) {
		if logger != nil {
			h.l = logger
		}
	}
}

// Timeout bounds every request made by the store
func Timeout(d time.Duration) Option {
	return func(h *httpStore) {
		h.client.Timeout = d
	}
}

// Client specifies the http client to use
func Client(c *http.Client) Option {
	return func(h *httpStore) {
		if c != nil {
			h.client = c
		}
	}
}

// Header adds a header to every request, e.g. an authorization token
func Header(key, value string) Option {
	return func(h *httpStore) {
		h.headers.Add(key, value)
	}
}

type httpStore struct {
	base    *url.URL
	client  *http.Client
	headers http.Header
	l       *zap.Logger
}

// New builds a store resolving keys relative to some base URL
func New(baseURL string, opts ...Option) (storage.Store, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, status.ErrInvalidResource.Wrap(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, status.ErrInvalidResource.WrapMessage("unsupported scheme %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	h := &httpStore{
		base:    u,
		client:  &http.Client{},
		headers: make(http.Header),
		l:       zap.NewNop(),
	}
	for _, apply := range opts {
		apply(h)
	}
	return h, nil
}

func (h *httpStore) String() string {
	return h.base.String()
}

func (h *httpStore) resolve(key string) string {
	return h.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(key, "/")}).String()
}

func (h *httpStore) do(ctx context.Context, method, key string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.resolve(key), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range h.headers {
		req.Header[k] = v
	}
	h.l.Debug("http request", zap.String("method", method), zap.String("url", req.URL.String()))
	return h.client.Do(req)
}

func (h *httpStore) Has(ctx context.Context, key string) (bool, error) {
	resp, err := h.do(ctx, http.MethodHead, key)
	if err != nil {
		return false, err
	}
	_ = resp.Body.Close()
	if err = toSentinelErrors(resp, key); err != nil {
		if status.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (h *httpStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := h.do(ctx, http.MethodGet, key)
	if err != nil {
		return nil, err
	}
	if err = toSentinelErrors(resp, key); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (h *httpStore) Put(context.Context, string, io.Reader, bool) error {
	return status.ErrNotSupported.WrapMessage("put on %s", h)
}

func (h *httpStore) Delete(context.Context, string) error {
	return status.ErrNotSupported.WrapMessage("delete on %s", h)
}

func (h *httpStore) Keys(context.Context) ([]string, error) {
	return nil, status.ErrNotSupported.WrapMessage("listing keys on %s", h)
}

func (h *httpStore) Clear(context.Context) error {
	return status.ErrNotSupported.WrapMessage("clear on %s", h)
}

func toSentinelErrors(resp *http.Response, key string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return status.FromHTTPStatus(resp.StatusCode, fmt.Errorf("%s: %s", key, resp.Status))
}
