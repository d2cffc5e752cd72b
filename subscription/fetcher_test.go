package subscription

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"webshield/config"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	return NewFetcher(&config.FilterListsConfig{
		CacheDir:            t.TempDir(),
		FetchTimeoutSeconds: 2,
	})
}

func TestFetchBodyAtSizeLimitAccepted(t *testing.T) {
	f := newTestFetcher(t)
	f.maxBytes = 64

	body := bytes.Repeat([]byte("a"), 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	// 恰好等于上限的响应体必须被接受
	res, err := f.Fetch(context.Background(), srv.URL, "limit.txt", "", "")
	if err != nil {
		t.Fatalf("Fetch rejected a body of exactly the limit: %v", err)
	}
	got, err := os.ReadFile(res.CachePath)
	if err != nil {
		t.Fatalf("Failed to read cached body: %v", err)
	}
	if len(got) != 64 {
		t.Errorf("Expected 64 cached bytes, got %d", len(got))
	}
}

func TestFetchBodyOverSizeLimitRejected(t *testing.T) {
	f := newTestFetcher(t)
	f.maxBytes = 64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("a"), 65))
	}))
	defer srv.Close()

	_, err := f.Fetch(context.Background(), srv.URL, "limit.txt", "", "")
	if err == nil {
		t.Fatal("Expected over-limit body to be rejected")
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("Unexpected error: %v", err)
	}
}
