package subscription

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"webshield/config"
)

const maxListBytes = 50 * 1024 * 1024

// FetchResult describes the outcome of one successful source fetch.
type FetchResult struct {
	CachePath    string
	NotModified  bool
	ETag         string
	LastModified string
}

// Fetcher downloads subscription bodies into the cache directory.
// Remote sources are validated-against-cache with ETag/If-Modified-Since;
// local file sources (the custom rules list) are read in place.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	maxBytes int64
}

func NewFetcher(cfg *config.FilterListsConfig) *Fetcher {
	timeout := time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		cacheDir: cfg.CacheDir,
		maxBytes: maxListBytes,
	}
}

// Fetch retrieves one source and returns where its body now lives.
// The bounded client timeout guarantees one unreachable source cannot
// stall a whole refresh round.
func (f *Fetcher) Fetch(ctx context.Context, url, cacheFile, etag, lastModified string) (*FetchResult, error) {
	if strings.HasPrefix(url, "file://") || !strings.HasPrefix(url, "http") {
		path := strings.TrimPrefix(url, "file://")
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		return &FetchResult{CachePath: path}, nil
	}
	return f.download(ctx, url, cacheFile, etag, lastModified)
}

func (f *Fetcher) download(ctx context.Context, url, cacheFile, etag, lastModified string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	cachePath := filepath.Join(f.cacheDir, cacheFile)

	if resp.StatusCode == http.StatusNotModified {
		return &FetchResult{
			CachePath:    cachePath,
			NotModified:  true,
			ETag:         etag,
			LastModified: lastModified,
		}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	// 先写临时文件，成功后再替换，下载中断不会破坏旧缓存
	tmp, err := os.CreateTemp(f.cacheDir, cacheFile+".tmp-*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	// 多读一个字节区分“恰好达到上限”和“被截断”
	limited := &io.LimitedReader{R: resp.Body, N: f.maxBytes + 1}
	if _, err := io.Copy(tmp, limited); err != nil {
		tmp.Close()
		return nil, err
	}
	if limited.N == 0 {
		tmp.Close()
		return nil, fmt.Errorf("list body exceeds %d byte limit", f.maxBytes)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		return nil, err
	}

	return &FetchResult{
		CachePath:    cachePath,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}
