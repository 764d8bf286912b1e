package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
)

// Default fetch limits.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxBytes  = 64 << 20
	DefaultUserAgent = "sitesearch"
)

// Response is a fetched resource.
type Response struct {
	// Location is what was requested.
	Location string
	// URL is the final URL for http(s) locations, after redirects.
	URL         *url.URL
	ContentType string
	Body        []byte
}

// Fetcher retrieves a resource by location. Implementations never retry.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (*Response, error)
}

// HTTPFetcher fetches http(s):// URLs, file:// URLs and bare filesystem paths.
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// FetchOption configures an HTTPFetcher.
type FetchOption func(*HTTPFetcher)

// WithTimeout sets the overall request timeout.
func WithTimeout(d time.Duration) FetchOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithMaxBytes caps the size of a fetched resource.
func WithMaxBytes(n int64) FetchOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetchOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying client. The timeout option still applies.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			clone := *c
			f.client = &clone
		}
	}
}

// NewHTTPFetcher creates a fetcher with the given options.
func NewHTTPFetcher(opts ...FetchOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		maxBytes:  DefaultMaxBytes,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) (*Response, error) {
	u, err := url.Parse(location)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return f.fetchHTTP(ctx, location)
		case "file":
			return f.fetchFile(location, u.Path)
		}
	}
	return f.fetchFile(location, location)
}

func (f *HTTPFetcher) fetchHTTP(ctx context.Context, location string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, sserrors.New(sserrors.ErrCodeInvalidPath, "invalid location "+location, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, sserrors.New(sserrors.ErrCodeNetworkTimeout, "timed out fetching "+location, err).
				WithDetail("location", location)
		}
		return nil, sserrors.UnavailableError("failed to fetch "+location, err).
			WithDetail("location", location)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, sserrors.UnavailableError(
			fmt.Sprintf("fetching %s returned %s", location, resp.Status), nil).
			WithDetail("location", location).
			WithDetail("status", fmt.Sprint(resp.StatusCode))
	}

	body, err := f.readLimited(location, resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		Location:    location,
		URL:         resp.Request.URL,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (f *HTTPFetcher) fetchFile(location, path string) (*Response, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, sserrors.UnavailableError("failed to open "+path, err).
			WithDetail("location", location)
	}
	defer func() { _ = file.Close() }()

	body, err := f.readLimited(location, file)
	if err != nil {
		return nil, err
	}
	return &Response{Location: location, Body: body}, nil
}

func (f *HTTPFetcher) readLimited(location string, r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return nil, sserrors.New(sserrors.ErrCodeNetworkTimeout, "timed out reading "+location, err)
		}
		return nil, sserrors.UnavailableError("failed to read "+location, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, sserrors.New(sserrors.ErrCodeArtifactTooLarge,
			fmt.Sprintf("%s exceeds %d bytes", location, f.maxBytes), nil).
			WithSuggestion("raise fetch.max_bytes if the index is expected to be this large")
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Verify interface implementation
var _ Fetcher = (*HTTPFetcher)(nil)
