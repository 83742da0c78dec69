package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const maxBodySize = 10 << 20

var ErrTooManyRedirects = errors.New("too many redirects")

// FetchError reports that a URL is currently unavailable. StatusCode is set
// when the terminal response was not a success.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Response struct {
	StatusCode int
	Body       []byte
	FinalURL   string
}

// Getter is the single-GET contract shared by feed and page fetching.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*Response, error)
}

type FetcherConfig struct {
	UserAgent      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxRedirects   int
	RequestsPerSec float64 // 0 = unlimited
}

type Fetcher struct {
	client       *http.Client
	limiter      *rate.Limiter
	userAgent    string
	maxRedirects int
}

var _ Getter = (*Fetcher)(nil)

func NewFetcher(config FetcherConfig) *Fetcher {
	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   config.ConnectTimeout,
		ResponseHeaderTimeout: config.ReadTimeout,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       30 * time.Second,
	}

	limit := rate.Inf
	if config.RequestsPerSec > 0 {
		limit = rate.Limit(config.RequestsPerSec)
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.ConnectTimeout + config.ReadTimeout,
			// Redirects are followed by hand so each hop is bounded and logged.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter:      rate.NewLimiter(limit, 1),
		userAgent:    config.UserAgent,
		maxRedirects: config.MaxRedirects,
	}
}

// Get performs one logical GET, following up to maxRedirects 3xx hops.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	for hop := 0; ; hop++ {
		resp, err := f.do(ctx, current)
		if err != nil {
			return nil, &FetchError{URL: current.String(), Err: err}
		}

		if isRedirect(resp.StatusCode) {
			location := resp.Header.Get("Location")
			drain(resp)

			if hop >= f.maxRedirects {
				return nil, &FetchError{URL: rawURL, Err: ErrTooManyRedirects}
			}
			if location == "" {
				return nil, &FetchError{URL: current.String(), StatusCode: resp.StatusCode, Err: errors.New("redirect without Location header")}
			}

			next, err := current.Parse(location)
			if err != nil {
				return nil, &FetchError{URL: current.String(), Err: fmt.Errorf("invalid redirect location %q: %w", location, err)}
			}

			slog.Debug("Following redirect", "from", current.String(), "to", next.String(), "hop", hop+1)
			current = next
			continue
		}

		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &FetchError{URL: current.String(), StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP error: %s", resp.Status)}
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, &FetchError{URL: current.String(), Err: fmt.Errorf("failed to read response body: %w", err)}
		}

		return &Response{
			StatusCode: resp.StatusCode,
			Body:       data,
			FinalURL:   current.String(),
		}, nil
	}
}

func (f *Fetcher) do(ctx context.Context, target *url.URL) (*http.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")

	return f.client.Do(req)
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
