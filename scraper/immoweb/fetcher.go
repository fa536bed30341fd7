package immoweb

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"immoweb-scraper/config"
	"immoweb-scraper/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Pace is the random pre-request delay range of one call site.
type Pace struct {
	Min time.Duration
	Max time.Duration
}

// PageSource returns the content of a page or an error matching ErrBlocked,
// ErrNetworkFailure or ErrHTTPStatus.
type PageSource interface {
	Fetch(ctx context.Context, url string, pace Pace) ([]byte, error)
}

// Fetcher is the plain HTTP page source. It keeps one session (connection
// pool and cookie jar) for the whole run so the site sees a returning browser.
type Fetcher struct {
	client  *http.Client
	logger  *utils.Logger
	retry   *utils.RetryConfig
	limiter *rate.Limiter

	blockedBackoff time.Duration
	networkBackoff time.Duration
}

// NewFetcher creates a Fetcher from the retry, backoff and timeout settings of cfg.
func NewFetcher(cfg *config.Config, logger *utils.Logger) *Fetcher {
	jar, _ := cookiejar.New(nil)

	f := &Fetcher{
		client: &http.Client{
			Jar:     jar,
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			MaxJitter:   cfg.BackoffJitter,
			Logger:      logger,
		},
		blockedBackoff: cfg.BlockedBackoff,
		networkBackoff: cfg.NetworkBackoff,
	}
	if cfg.RequestRPS > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RequestRPS), 1)
	}
	return f
}

// Fetch sleeps a random duration within pace, then GETs url with bounded
// retries on blocked responses and network failures.
func (f *Fetcher) Fetch(ctx context.Context, url string, pace Pace) ([]byte, error) {
	if err := utils.RandomDelay(ctx, pace.Min, pace.Max); err != nil {
		return nil, eris.Wrapf(ErrNetworkFailure, "GET %s: %v", url, err)
	}

	var body []byte
	err := f.retry.Do(ctx, "GET "+url, func() error {
		b, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(ErrNetworkFailure, "GET %s: rate limiter: %v", url, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrapf(ErrNetworkFailure, "GET %s: build request: %v", url, err)
	}
	setBrowserHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, utils.Retryable(eris.Wrapf(ErrNetworkFailure, "GET %s: %v", url, err), f.networkBackoff)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, utils.Retryable(eris.Wrapf(ErrBlocked, "GET %s: status %d", url, resp.StatusCode), f.blockedBackoff)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, eris.Wrapf(ErrHTTPStatus, "GET %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.Retryable(eris.Wrapf(ErrNetworkFailure, "GET %s: read body: %v", url, err), f.networkBackoff)
	}
	f.logger.Debug("[fetcher] GET %s: %d bytes", url, len(body))
	return body, nil
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,fr;q=0.8,nl;q=0.7")
	req.Header.Set("Referer", Origin+"/")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
