package immoweb

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"

	"immoweb-scraper/config"
	"immoweb-scraper/utils"
)

// BrowserFetcher renders pages in headless Chrome. It shares one browser for
// the whole run and opens a tab per request.
type BrowserFetcher struct {
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc

	logger        *utils.Logger
	retry         *utils.RetryConfig
	timeout       time.Duration
	blockedTitles []string

	blockedBackoff time.Duration
	networkBackoff time.Duration
}

// NewBrowserFetcher starts the browser. Call Close when done.
func NewBrowserFetcher(cfg *config.Config, sel Selectors, logger *utils.Logger) (*BrowserFetcher, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[browser] Using browser binary: %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// An empty Run launches the browser so start-up errors surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, eris.Wrap(err, "start browser")
	}

	return &BrowserFetcher{
		browserCtx:    browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
		logger:        logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			MaxJitter:   cfg.BackoffJitter,
			Logger:      logger,
		},
		timeout:        cfg.RequestTimeout,
		blockedTitles:  sel.BlockedTitles,
		blockedBackoff: cfg.BlockedBackoff,
		networkBackoff: cfg.NetworkBackoff,
	}, nil
}

// Fetch navigates a fresh tab to url and returns the rendered document.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string, pace Pace) ([]byte, error) {
	if err := utils.RandomDelay(ctx, pace.Min, pace.Max); err != nil {
		return nil, eris.Wrapf(ErrNetworkFailure, "render %s: %v", url, err)
	}

	var body []byte
	err := b.retry.Do(ctx, "render "+url, func() error {
		if err := ctx.Err(); err != nil {
			return eris.Wrapf(ErrNetworkFailure, "render %s: %v", url, err)
		}

		tabCtx, cancel := chromedp.NewContext(b.browserCtx)
		defer cancel()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
		defer cancelTimeout()

		var title, html string
		err := chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Title(&title),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			return utils.Retryable(eris.Wrapf(ErrNetworkFailure, "render %s: %v", url, err), b.networkBackoff)
		}
		if isBlockedTitle(title, b.blockedTitles) {
			return utils.Retryable(eris.Wrapf(ErrBlocked, "render %s: title %q", url, title), b.blockedBackoff)
		}

		body = []byte(html)
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.logger.Debug("[browser] Rendered %s: %d bytes", url, len(body))
	return body, nil
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() {
	b.cancelBrowser()
	b.cancelAlloc()
}

func isBlockedTitle(title string, patterns []string) bool {
	t := strings.ToLower(title)
	for _, p := range patterns {
		if p != "" && strings.Contains(t, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// findChromeBinary locates Chrome/Chromium, preferring the configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	for _, p := range []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
