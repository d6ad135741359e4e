// cmd/preflight/main.go
package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hamed0406/healthmonitor/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.FromEnv()
	if err != nil {
		fail(err.Error())
	}

	if len(cfg.AdminAPIKeys) == 0 {
		warn("ADMIN_API_KEYS is empty; POST /health/check-now is open to anyone.")
	}
	if len(cfg.PublicAPIKeys) == 0 && len(cfg.AdminAPIKeys) == 0 {
		warn("no API keys configured; read routes are open.")
	}

	ok("API_ADDR=" + cfg.Addr)

	probes := 0
	for _, p := range []struct{ name, raw string }{
		{"FRONTEND_URL_HEALTH_CHECK", cfg.FrontendURL},
		{"BACKEND_URL_HEALTH_CHECK", cfg.BackendURL},
		{"DATASTORE_URL_HEALTH_CHECK", cfg.DatastoreURL},
	} {
		if p.raw == "" {
			warn(p.name + " empty; category will report absent.")
			continue
		}
		u, err := url.ParseRequestURI(p.raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fail(p.name + " is not an absolute http(s) URL: " + p.raw)
		}
		probes++
		ok(p.name + "=" + p.raw)
	}
	if cfg.DatastoreURL != "" && cfg.DatastoreKey == "" {
		warn("DATASTORE_KEY_HEALTH_CHECK empty; datastore will report absent.")
	}
	if probes == 0 {
		warn("no probe targets configured; every category will report absent and the overall status stays ok.")
	}

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty; API will use the in-memory store and lose history on restart.")
	} else {
		ok("DATABASE_URL present")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; browsers will be blocked by CORS for cross-origin requests.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	ok(fmt.Sprintf("interval=%s retention=%dd", cfg.CheckInterval, cfg.RetentionDays))
	ok("preflight passed")
}
