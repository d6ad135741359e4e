package probe

import (
	"context"
	"time"

	"github.com/hamed0406/healthmonitor/internal/domain"
)

// Target describes how one category is probed.
//
// A target with an empty URL, or with RequireKey set and no APIKey, is
// unconfigured and always reports domain.StatusAbsent.
type Target struct {
	Category      domain.Category
	URL           string
	APIKey        string
	RequireKey    bool
	Path          string // appended to URL, e.g. "/rest/v1/" for the datastore
	Timeout       time.Duration
	DegradedAfter time.Duration
}

func (t Target) Configured() bool {
	if t.URL == "" {
		return false
	}
	return !t.RequireKey || t.APIKey != ""
}

// Checker performs a single check for a given target. Implementations never
// return an error: every failure is folded into the result.
type Checker interface {
	Check(ctx context.Context, t Target) domain.ProbeResult
}

// Default per-category settings.
const (
	FrontendTimeout   = 5 * time.Second
	BackendTimeout    = 10 * time.Second
	DatastoreTimeout  = 10 * time.Second
	HTTPDegraded      = 2000 * time.Millisecond
	DatastoreDegraded = 1000 * time.Millisecond
	DatastorePath     = "/rest/v1/"
)

func FrontendTarget(url string) Target {
	return Target{Category: domain.Frontend, URL: url, Timeout: FrontendTimeout, DegradedAfter: HTTPDegraded}
}

func BackendTarget(url string) Target {
	return Target{Category: domain.Backend, URL: url, Timeout: BackendTimeout, DegradedAfter: HTTPDegraded}
}

func DatastoreTarget(url, key string) Target {
	return Target{
		Category:      domain.Datastore,
		URL:           url,
		APIKey:        key,
		RequireKey:    true,
		Path:          DatastorePath,
		Timeout:       DatastoreTimeout,
		DegradedAfter: DatastoreDegraded,
	}
}
