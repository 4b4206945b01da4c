package ticketmaster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"ticketwatch/internal/model"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/111.0.0.0 Safari/537.36"
	DefaultTimeout   = 30 * time.Second
)

var ErrUnexpectedStatus = errors.New("unexpected status")

// Fetcher downloads source pages. Every request is bounded by timeout, so a
// stalled connection fails the source instead of hanging the cycle.
type Fetcher struct {
	client  *resty.Client
	timeout time.Duration
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "el-GR,el;q=0.9,en;q=0.8")

	return &Fetcher{client: client, timeout: timeout}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (model.Page, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.R().SetContext(reqCtx).Get(url)
	if err != nil {
		return model.Page{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return model.Page{}, fmt.Errorf("fetch %s: %w: %d", url, ErrUnexpectedStatus, resp.StatusCode())
	}

	resolved := url
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		resolved = raw.Request.URL.String()
	}

	return model.Page{URL: url, ResolvedURL: resolved, HTML: resp.String()}, nil
}
