package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"
)

const usage = `usage: healthctl [flags] <command>

commands:
  status      current aggregated health (GET /health)
  check-now   trigger and persist a check (admin key)
  cron        scheduler status
  history     history for the last --days days
  stats       statistics for the last --days days

flags:
`

func main() {
	api := flag.String("api", envOr("API_BASE", "http://localhost:8080"), "API base URL")
	key := flag.String("key", os.Getenv("API_KEY"), "API key sent as X-API-Key")
	days := flag.IntP("days", "d", 1, "window size for history and stats")
	filter := flag.StringP("filter", "f", "", "limit output to one category (frontend, backend, datastore)")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	q := url.Values{}
	method, path := http.MethodGet, ""
	switch flag.Arg(0) {
	case "status":
		path = "/health"
		if *filter != "" {
			path += "/" + *filter
		}
	case "check-now":
		method, path = http.MethodPost, "/health/check-now"
	case "cron":
		path = "/health/cron-status"
	case "history", "stats":
		path = "/health/" + flag.Arg(0) + "/last-days"
		q.Set("days", strconv.Itoa(*days))
		if *filter != "" {
			q.Set("filter", *filter)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	u := *api + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	code, err := call(&http.Client{Timeout: *timeout}, method, u, *key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error contacting API:", err)
		os.Exit(1)
	}
	if code >= 400 {
		os.Exit(1)
	}
}

func call(c *http.Client, method, u, key string) (int, error) {
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return 0, err
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	var v any
	if json.Unmarshal(body, &v) == nil {
		out, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(out))
	} else {
		fmt.Println(string(body))
	}
	if resp.StatusCode >= 400 {
		fmt.Fprintln(os.Stderr, "API returned status:", resp.Status)
	}
	return resp.StatusCode, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
