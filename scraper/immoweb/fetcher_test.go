package immoweb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"immoweb-scraper/config"
	"immoweb-scraper/utils"
)

func quietLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard) }

func testConfig() *config.Config {
	return &config.Config{
		PagesToScrape:      1,
		MaxConcurrency:     1,
		MaxRetries:         3,
		RequestTimeout:     5 * time.Second,
		BlockedBackoff:     100 * time.Millisecond,
		NetworkBackoff:     10 * time.Millisecond,
		MissingPriceAsZero: true,
		FetchMode:          config.FetchModeHTTP,
	}
}

// newCountingFetcher returns a Fetcher whose backoff sleeps are recorded
// instead of slept.
func newCountingFetcher() (*Fetcher, *[]time.Duration) {
	f := NewFetcher(testConfig(), quietLogger())
	var sleeps []time.Duration
	f.retry.Sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return f, &sleeps
}

// blockingServer answers the first k requests with status, then 200.
func blockingServer(k int32, status int) (*httptest.Server, *int32) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= k {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	return srv, &calls
}

func TestFetchBackoffSleepsPerBlockedResponse(t *testing.T) {
	tests := []struct {
		blocked    int32
		wantSleeps int
		wantCalls  int32
		wantErr    bool
	}{
		{0, 0, 1, false},
		{1, 1, 2, false},
		{2, 2, 3, false},
		{3, 2, 3, true},
		{5, 2, 3, true},
	}

	for _, tt := range tests {
		srv, calls := blockingServer(tt.blocked, http.StatusTooManyRequests)
		f, sleeps := newCountingFetcher()

		body, err := f.Fetch(context.Background(), srv.URL, Pace{})
		srv.Close()

		if len(*sleeps) != tt.wantSleeps {
			t.Errorf("k=%d: backoff sleeps = %d; want %d", tt.blocked, len(*sleeps), tt.wantSleeps)
		}
		if *calls != tt.wantCalls {
			t.Errorf("k=%d: requests = %d; want %d", tt.blocked, *calls, tt.wantCalls)
		}
		if tt.wantErr {
			if !errors.Is(err, ErrBlocked) {
				t.Errorf("k=%d: err = %v; want ErrBlocked", tt.blocked, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("k=%d: unexpected error %v", tt.blocked, err)
		}
		if string(body) != "<html>ok</html>" {
			t.Errorf("k=%d: body = %q", tt.blocked, body)
		}
	}
}

func TestFetchBackoffGrowsWithAttempt(t *testing.T) {
	srv, _ := blockingServer(2, http.StatusForbidden)
	defer srv.Close()
	f, sleeps := newCountingFetcher()

	if _, err := f.Fetch(context.Background(), srv.URL, Pace{}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Errorf("sleep[%d] = %v; want %v", i, (*sleeps)[i], d)
		}
	}
}

func TestFetchOtherStatusIsNotRetried(t *testing.T) {
	srv, calls := blockingServer(10, http.StatusInternalServerError)
	defer srv.Close()
	f, sleeps := newCountingFetcher()

	_, err := f.Fetch(context.Background(), srv.URL, Pace{})
	if !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("err = %v; want ErrHTTPStatus", err)
	}
	if errors.Is(err, ErrBlocked) {
		t.Error("a 500 must not be reported as blocked")
	}
	if *calls != 1 || len(*sleeps) != 0 {
		t.Errorf("requests=%d sleeps=%d; want 1 and 0", *calls, len(*sleeps))
	}
}

func TestFetchNetworkFailureRetriedThenReported(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f, sleeps := newCountingFetcher()
	_, err := f.Fetch(context.Background(), url, Pace{})
	if !errors.Is(err, ErrNetworkFailure) {
		t.Errorf("err = %v; want ErrNetworkFailure", err)
	}
	if len(*sleeps) != 2 {
		t.Errorf("sleeps = %d; want 2", len(*sleeps))
	}
	for _, d := range *sleeps {
		if d >= 100*time.Millisecond {
			t.Errorf("network backoff %v should use the shorter base", d)
		}
	}
}

func TestFetchKeepsSessionAndHeaders(t *testing.T) {
	var sawCookie, sawUA, sawReferer atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil && c.Value == "abc" {
			sawCookie.Store(true)
		}
		if r.UserAgent() == userAgent {
			sawUA.Store(true)
		}
		if r.Referer() == Origin+"/" {
			sawReferer.Store(true)
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f, _ := newCountingFetcher()
	for i := 0; i < 2; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL+"/page", Pace{}); err != nil {
			t.Fatalf("Fetch #%d: %v", i, err)
		}
	}
	if !sawCookie.Load() {
		t.Error("second request should carry the cookie set by the first")
	}
	if !sawUA.Load() || !sawReferer.Load() {
		t.Error("browser headers missing")
	}
}

func TestFetchRespectsPace(t *testing.T) {
	srv, _ := blockingServer(0, http.StatusOK)
	defer srv.Close()
	f, _ := newCountingFetcher()

	start := time.Now()
	if _, err := f.Fetch(context.Background(), srv.URL, Pace{Min: 30 * time.Millisecond, Max: 40 * time.Millisecond}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Fetch returned after %v; want at least the pace minimum", elapsed)
	}
}

func TestIsBlockedTitle(t *testing.T) {
	patterns := DefaultSelectors().BlockedTitles
	tests := []struct {
		title string
		want  bool
	}{
		{"Access Denied", true},
		{"Just a moment...", true},
		{"Apartment for sale in Ixelles - Immoweb", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isBlockedTitle(tt.title, patterns); got != tt.want {
			t.Errorf("isBlockedTitle(%q) = %v; want %v", tt.title, got, tt.want)
		}
	}
}
