package m3u8

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Fetcher retrieves a whole playlist document
type Fetcher interface {
	Fetch(ctx context.Context, url string, header http.Header) ([]byte, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface
type FetcherFunc func(ctx context.Context, url string, header http.Header) ([]byte, error)

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, url string, header http.Header) ([]byte, error) {
	return f(ctx, url, header)
}

// HTTPFetcher fetches playlists over HTTP(S)
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher creates an HTTPFetcher whose client gives up after timeout.
// A zero timeout leaves deadlines to the caller's context.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

// Fetch performs a GET request and returns the response body. Any status
// outside 2xx is a failure.
func (h *HTTPFetcher) Fetch(ctx context.Context, target string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fetchError(err, target)
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	if h.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fetchError(err, target)
	}

	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchError(errors.Errorf("unexpected status %s", resp.Status), target)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetchError(errors.Wrap(err, "reading response body"), target)
	}
	return body, nil
}

// FileFetcher reads playlists from the local filesystem. It accepts both
// file:// URLs and plain paths; headers are ignored.
type FileFetcher struct{}

// Fetch reads the whole file named by target
func (FileFetcher) Fetch(ctx context.Context, target string, _ http.Header) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchError(err, target)
	}

	path := target
	if strings.HasPrefix(target, "file:") {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fetchError(err, target)
		}
		path = u.Path
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fetchError(err, target)
	}
	return body, nil
}

// MultiFetcher picks a Fetcher by URL scheme. Targets without a scheme are
// treated as local paths.
type MultiFetcher struct {
	HTTP Fetcher
	File Fetcher
}

// NewMultiFetcher combines an HTTP fetcher with local file access
func NewMultiFetcher(timeout time.Duration) *MultiFetcher {
	return &MultiFetcher{HTTP: NewHTTPFetcher(timeout), File: FileFetcher{}}
}

// Fetch dispatches target to the fetcher for its scheme
func (m *MultiFetcher) Fetch(ctx context.Context, target string, header http.Header) ([]byte, error) {
	switch scheme(target) {
	case "http", "https":
		if m.HTTP == nil {
			return nil, fetchError(errors.New("no http fetcher configured"), target)
		}
		return m.HTTP.Fetch(ctx, target, header)
	case "file", "":
		if m.File == nil {
			return nil, fetchError(errors.New("no file fetcher configured"), target)
		}
		return m.File.Fetch(ctx, target, header)
	default:
		return nil, fetchError(errors.Errorf("unsupported scheme %q", scheme(target)), target)
	}
}

// scheme returns the lower-cased URL scheme of target, or "" if it has none
func scheme(target string) string {
	i := strings.Index(target, ":")
	if i <= 0 {
		return ""
	}

	for j, c := range target[:i] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return ""
		}
	}
	return strings.ToLower(target[:i])
}

// IsAbsolute reports whether path carries a scheme the resolver fetches
// directly instead of resolving it against the master URL
func IsAbsolute(path string) bool {
	switch scheme(path) {
	case "http", "https", "file":
		return true
	}
	return false
}

// ResolveURL resolves path against the URL of the master playlist that
// referenced it. Absolute paths are returned untouched; relative ones
// replace the master's last path segment.
func ResolveURL(master, path string) (string, error) {
	if IsAbsolute(path) {
		return path, nil
	}

	base, err := url.Parse(master)
	if err != nil {
		return "", errors.Wrapf(err, "parsing master url %q", master)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", errors.Wrapf(err, "parsing playlist path %q", path)
	}
	return base.ResolveReference(ref).String(), nil
}
