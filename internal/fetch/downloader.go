// Package fetch implements the Downloader (C2, spec.md §4.2): a bounded,
// redirect-following HTTP(S) fetcher used for the remote-URL ingestion path.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config mirrors spec.md §6 `http` plus an outbound rate cap repurposed from
// the teacher's per-IP limiter (internal/middleware/ratelimit.go) — there it
// throttled inbound requests by client IP; here it throttles this process's
// own outbound fetches so a burst of remote-URL ingests can't hammer
// whatever host they point at.
type Config struct {
	TimeoutSeconds     int
	MaxBytes           int64
	UserAgent          string
	MaxFetchesPerSecond float64 // 0 disables the limiter
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) maxBytes() int64 {
	if c.MaxBytes <= 0 {
		return 15_000_000
	}
	return c.MaxBytes
}

// DownloadFailed wraps a non-2xx status or transport-level failure.
type DownloadFailed struct {
	StatusCode int
	Cause      error
}

func (e *DownloadFailed) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("download failed: %v", e.Cause)
}

func (e *DownloadFailed) Unwrap() error { return e.Cause }

// DownloadTooLarge is returned when the transfer exceeds maxBytes.
type DownloadTooLarge struct{ MaxBytes int64 }

func (e *DownloadTooLarge) Error() string {
	return fmt.Sprintf("download exceeds maximum of %d bytes", e.MaxBytes)
}

const maxRedirects = 5

// Downloader fetches remote image bytes with a size cap and timeout.
// SSRF defense (host/scheme validation) is the caller's responsibility —
// see internal/ingest's validation contract, spec.md §4.7.u — the
// Downloader only refuses non-HTTP(S) schemes outright.
type Downloader struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

// New builds a Downloader. http.Client.CheckRedirect enforces both the
// redirect cap and the same non-HTTP(S)-scheme refusal applied to the
// initial request.
func New(cfg Config) *Downloader {
	d := &Downloader{cfg: cfg}
	d.client = &http.Client{
		Timeout: cfg.timeout(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return fmt.Errorf("redirect to unsupported scheme %q", req.URL.Scheme)
			}
			return nil
		},
	}
	if cfg.MaxFetchesPerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.MaxFetchesPerSecond), 1)
	}
	return d
}

// Result is the raw payload fetched from a remote URL.
type Result struct {
	Body        []byte
	ContentType string
}

// Download fetches rawURL, which must already have passed the caller's SSRF
// validation (spec.md §4.7.u). It refuses non-HTTP(S) schemes, aborts the
// instant cumulative bytes exceed cfg.MaxBytes, and treats any status
// outside [200,300) or an empty body as DownloadFailed.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*Result, error) {
	if rawURL == "" {
		return nil, &DownloadFailed{Cause: fmt.Errorf("empty url")}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, &DownloadFailed{Cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &DownloadFailed{Cause: err}
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return nil, &DownloadFailed{Cause: fmt.Errorf("unsupported scheme %q", req.URL.Scheme)}
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &DownloadFailed{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &DownloadFailed{StatusCode: resp.StatusCode, Cause: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	limit := d.cfg.maxBytes()
	limited := io.LimitReader(resp.Body, limit+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, &DownloadFailed{Cause: err}
	}
	if int64(len(body)) > limit {
		return nil, &DownloadTooLarge{MaxBytes: limit}
	}
	if len(body) == 0 {
		return nil, &DownloadFailed{Cause: fmt.Errorf("empty body")}
	}

	return &Result{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}
