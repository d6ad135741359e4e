package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hamed0406/healthmonitor/internal/domain"
)

type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker returns a checker whose per-request bound comes from the
// target timeout; the client itself carries no timeout.
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{Client: &http.Client{}}
}

func (h *HTTPChecker) Check(ctx context.Context, t Target) domain.ProbeResult {
	res := domain.ProbeResult{Category: t.Category}
	if !t.Configured() {
		res.Status = domain.StatusAbsent
		return res
	}

	endpoint, err := buildURL(t.URL, t.Path)
	if err != nil {
		res.Status = domain.StatusDown
		res.Error = err.Error()
		return res
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = BackendTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(cctx, http.MethodGet, endpoint, nil)
	if err != nil {
		res.Status = domain.StatusDown
		res.Error = "invalid url: " + err.Error()
		return res
	}
	if t.APIKey != "" {
		req.Header.Set("apikey", t.APIKey)
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		res.LatencyMS = time.Since(start).Milliseconds()
		res.Status = domain.StatusDown
		res.Error = ClassifyTransportError(err)
		return res
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	res.LatencyMS = time.Since(start).Milliseconds()

	// A 4xx still proves the service answered; only server faults count as down.
	if resp.StatusCode >= 500 {
		res.Status = domain.StatusDown
		res.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return res
	}
	if res.LatencyMS > t.DegradedAfter.Milliseconds() {
		res.Status = domain.StatusDegraded
	} else {
		res.Status = domain.StatusOK
	}
	return res
}

// buildURL validates raw as an absolute http(s) URL and joins path onto it.
func buildURL(raw, path string) (string, error) {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url: missing host")
	}
	if path != "" {
		u.Path = strings.TrimSuffix(u.Path, "/") + path
	}
	return u.String(), nil
}
