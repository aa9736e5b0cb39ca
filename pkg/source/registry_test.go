// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegistryFetch(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/@acme/base.prs" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("@identity { \"base\" }"))
	}))
	t.Cleanup(srv.Close)

	reg := NewRegistry(RegistryOptions{})
	body, err := reg.Fetch(context.Background(), srv.URL+"/@acme/base.prs")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if body != "@identity { \"base\" }" {
		t.Errorf("Fetch() = %q", body)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
}

func TestRegistryFetchNotFoundIsPermanent(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	reg := NewRegistry(RegistryOptions{MaxRetries: 5})
	_, err := reg.Fetch(context.Background(), srv.URL+"/missing.prs")
	if !IsNotFound(err) {
		t.Fatalf("Fetch() error = %v, want ErrNotFound", err)
	}
	if hits.Load() != 1 {
		t.Errorf("404 was retried: %d hits, want 1", hits.Load())
	}
}

func TestRegistryFetchDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	reg := NewRegistry(RegistryOptions{MaxRetries: 5})
	_, err := reg.Fetch(context.Background(), srv.URL+"/@acme/base.prs")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Fetch() error = %v, want StatusError", err)
	}
	if statusErr.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", statusErr.Status)
	}
	if statusErr.Retryable() {
		t.Error("403 reported as retryable")
	}
	if hits.Load() != 1 {
		t.Errorf("403 was retried: %d hits, want 1", hits.Load())
	}
}

func TestRegistryFetchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	reg := NewRegistry(RegistryOptions{MaxRetries: 4})
	body, err := reg.Fetch(context.Background(), srv.URL+"/@acme/base.prs")
	if err != nil {
		t.Fatalf("Fetch() error after retries: %v", err)
	}
	if body != "ok" {
		t.Errorf("Fetch() = %q, want ok", body)
	}
	if hits.Load() != 3 {
		t.Errorf("server hit %d times, want 3", hits.Load())
	}
}

func TestRegistryFetchStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reg := NewRegistry(RegistryOptions{MaxRetries: 10})
	_, err := reg.Fetch(ctx, srv.URL+"/@acme/base.prs")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch() error = %v, want context.Canceled", err)
	}
}

func TestRegistryAuthorizationHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts RegistryOptions
		want string
	}{
		{name: "bearer token", opts: RegistryOptions{Token: "s3cret"}, want: "Bearer s3cret"},
		{name: "basic auth", opts: RegistryOptions{Username: "ci", Password: "hunter2"}, want: "Basic Y2k6aHVudGVyMg=="},
		{name: "token wins over basic auth", opts: RegistryOptions{Token: "s3cret", Username: "ci"}, want: "Bearer s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got atomic.Value
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got.Store(r.Header.Get("Authorization"))
				_, _ = w.Write([]byte("ok"))
			}))
			t.Cleanup(srv.Close)

			reg := NewRegistry(tt.opts)
			if _, err := reg.Fetch(context.Background(), srv.URL+"/x.prs"); err != nil {
				t.Fatalf("Fetch() error: %v", err)
			}
			if got.Load() != tt.want {
				t.Errorf("Authorization = %q, want %q", got.Load(), tt.want)
			}
		})
	}
}

func TestRegistryTTLCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("cached"))
	}))
	t.Cleanup(srv.Close)

	reg := NewRegistry(RegistryOptions{CacheTTL: time.Minute})
	clock := time.Now()
	reg.now = func() time.Time { return clock }

	url := srv.URL + "/@acme/base.prs"
	for range 3 {
		if _, err := reg.Fetch(context.Background(), url); err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("server hit %d times within TTL, want 1", hits.Load())
	}

	// Advance past the TTL; the next fetch goes back to the network.
	clock = clock.Add(2 * time.Minute)
	if _, err := reg.Fetch(context.Background(), url); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times after TTL expiry, want 2", hits.Load())
	}
}

func TestRegistryExists(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Exists probed with %s, want HEAD", r.Method)
		}
		if r.URL.Path == "/there.prs" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	reg := NewRegistry(RegistryOptions{})
	if !reg.Exists(context.Background(), srv.URL+"/there.prs") {
		t.Error("Exists() = false for a present document")
	}
	if reg.Exists(context.Background(), srv.URL+"/absent.prs") {
		t.Error("Exists() = true for an absent document")
	}
}

func TestFSSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "base.prs")
	if err := os.WriteFile(path, []byte("@identity { \"hi\" }"), 0o600); err != nil {
		t.Fatal(err)
	}

	fsSrc := &FS{}
	body, err := fsSrc.Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if body != "@identity { \"hi\" }" {
		t.Errorf("Fetch() = %q", body)
	}
	if !fsSrc.Exists(context.Background(), path) {
		t.Error("Exists() = false for a present file")
	}

	_, err = fsSrc.Fetch(context.Background(), filepath.Join(dir, "missing.prs"))
	if !IsNotFound(err) {
		t.Errorf("Fetch(missing) error = %v, want ErrNotFound", err)
	}
	if fsSrc.Exists(context.Background(), filepath.Join(dir, "missing.prs")) {
		t.Error("Exists() = true for a missing file")
	}
	if fsSrc.Exists(context.Background(), dir) {
		t.Error("Exists() = true for a directory")
	}
}

func TestCompositeFallsThrough(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	local := filepath.Join(dir, "doc.prs")
	if err := os.WriteFile(local, []byte("local"), 0o600); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	t.Cleanup(srv.Close)

	comp := NewComposite(&FS{}, NewRegistry(RegistryOptions{}))

	t.Run("first backend wins", func(t *testing.T) {
		body, err := comp.Fetch(context.Background(), local)
		if err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
		if body != "local" {
			t.Errorf("Fetch() = %q, want local", body)
		}
	})

	t.Run("falls back to later backend", func(t *testing.T) {
		body, err := comp.Fetch(context.Background(), srv.URL+"/doc.prs")
		if err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
		if body != "remote" {
			t.Errorf("Fetch() = %q, want remote", body)
		}
	})

	t.Run("joins all failures", func(t *testing.T) {
		_, err := comp.Fetch(context.Background(), filepath.Join(dir, "nope.prs"))
		if err == nil {
			t.Fatal("Fetch() succeeded, want error")
		}
		if !IsNotFound(err) {
			t.Errorf("joined error should satisfy ErrNotFound, got %v", err)
		}
	})
}
