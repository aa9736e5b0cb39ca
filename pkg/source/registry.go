// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// defaultTimeout bounds each registry request so one hung fetch cannot
	// stall resolution of the whole dependency graph.
	defaultTimeout = 10 * time.Second

	// defaultMaxRetries bounds the exponential-backoff retry loop for
	// retryable failures (network errors, 5xx).
	defaultMaxRetries = 3

	// maxBodySize caps a registry response; a PromptScript document larger
	// than this is rejected rather than buffered.
	maxBodySize = 4 << 20 // 4 MiB
)

type (
	// RegistryOptions configures a Registry source.
	RegistryOptions struct {
		// Token sets a bearer Authorization header when non-empty. It takes
		// precedence over Username/Password.
		Token string

		// Username and Password set a basic-auth Authorization header when
		// Username is non-empty and no Token is configured.
		Username string
		Password string

		// Timeout bounds each HTTP request, defaultTimeout when zero.
		Timeout time.Duration

		// MaxRetries bounds retry attempts after the first request,
		// defaultMaxRetries when zero. Client errors (4xx) and context
		// cancellation are never retried.
		MaxRetries uint64

		// CacheTTL enables an in-memory response cache bounding entry age.
		// Zero disables response caching.
		CacheTTL time.Duration

		// Transport overrides the HTTP transport (tests). nil uses
		// http.DefaultTransport.
		Transport http.RoundTripper
	}

	// Registry fetches documents over HTTP from a PromptScript registry.
	Registry struct {
		opts   RegistryOptions
		client *http.Client

		mu    sync.Mutex
		cache map[string]cachedResponse

		now func() time.Time // test seam
	}

	// StatusError reports a non-2xx registry response.
	StatusError struct {
		Location string
		Status   int
	}

	cachedResponse struct {
		body    string
		fetched time.Time
	}
)

var _ ContentSource = (*Registry)(nil)

// NewRegistry builds a Registry source from options.
func NewRegistry(opts RegistryOptions) *Registry {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Registry{
		opts:   opts,
		client: &http.Client{Timeout: timeout, Transport: opts.Transport},
		cache:  make(map[string]cachedResponse),
		now:    time.Now,
	}
}

// Fetch retrieves the document at the given URL. Retryable failures back off
// exponentially up to MaxRetries; 4xx responses and context cancellation
// abort immediately. 404 maps to NotFoundError.
func (r *Registry) Fetch(ctx context.Context, location string) (string, error) {
	if !isRemote(location) {
		return "", &NotFoundError{Location: location}
	}
	if body, ok := r.cached(location); ok {
		return body, nil
	}

	retries := r.opts.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(newExponential(), retries), ctx)

	var body string
	err := backoff.Retry(func() error {
		var attemptErr error
		body, attemptErr = r.fetchOnce(ctx, location)
		return attemptErr
	}, policy)
	if err != nil {
		return "", err
	}

	r.store(location, body)
	return body, nil
}

// Exists probes the location with a single HEAD request (no retry); any 2xx
// counts. A cached body also counts without touching the network.
func (r *Registry) Exists(ctx context.Context, location string) bool {
	if !isRemote(location) {
		return false
	}
	if _, ok := r.cached(location); ok {
		return true
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, location, nil)
	if err != nil {
		return false
	}
	r.authorize(req)
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close() //nolint:errcheck // body is empty for HEAD
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ClearCache drops every cached response.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]cachedResponse)
}

func (r *Registry) fetchOnce(ctx context.Context, location string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("build request for %s: %w", location, err))
	}
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", err // network error: retryable
	}
	defer resp.Body.Close() //nolint:errcheck // read below consumes the body

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", backoff.Permanent(&NotFoundError{Location: location})
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", backoff.Permanent(&StatusError{Location: location, Status: resp.StatusCode})
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", &StatusError{Location: location, Status: resp.StatusCode} // retryable
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxBodySize {
		return "", backoff.Permanent(fmt.Errorf("response for %s exceeds %d bytes", location, maxBodySize))
	}
	return string(data), nil
}

func (r *Registry) authorize(req *http.Request) {
	switch {
	case r.opts.Token != "":
		req.Header.Set("Authorization", "Bearer "+r.opts.Token)
	case r.opts.Username != "":
		req.SetBasicAuth(r.opts.Username, r.opts.Password)
	}
	req.Header.Set("Accept", "text/plain")
}

func (r *Registry) cached(location string) (string, bool) {
	if r.opts.CacheTTL <= 0 {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[location]
	if !ok || r.now().Sub(entry.fetched) > r.opts.CacheTTL {
		delete(r.cache, location)
		return "", false
	}
	return entry.body, true
}

func (r *Registry) store(location, body string) {
	if r.opts.CacheTTL <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[location] = cachedResponse{body: body, fetched: r.now()}
}

func newExponential() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}

// Error implements the error interface for StatusError.
func (e *StatusError) Error() string {
	return fmt.Sprintf("registry returned %d for %s", e.Status, e.Location)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool { return e.Status >= 500 }

// IsNotFound reports whether err means the document does not exist, as
// opposed to a transport or server failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
