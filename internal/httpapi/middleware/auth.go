package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/hamed0406/healthmonitor/internal/httpapi/respond"
)

// Level is the access a route needs. Admin keys satisfy every level.
type Level int

const (
	Public Level = iota
	Admin
)

type Keys struct {
	Public []string
	Admin  []string
}

// enforced reports whether any key could grant need. An unenforced level is
// open, which keeps local runs without keys usable.
func (k Keys) enforced(need Level) bool {
	if need == Admin {
		return len(k.Admin) > 0
	}
	return len(k.Public) > 0 || len(k.Admin) > 0
}

// grant returns the highest level the presented key holds.
func (k Keys) grant(given string) (Level, bool) {
	if given == "" {
		return Public, false
	}
	if matchAny(given, k.Admin) {
		return Admin, true
	}
	if matchAny(given, k.Public) {
		return Public, true
	}
	return Public, false
}

// matchAny compares against every key without returning early, so timing does
// not reveal which key (or how much of it) matched.
func matchAny(given string, set []string) bool {
	g := []byte(given)
	found := 0
	for _, k := range set {
		found |= subtle.ConstantTimeCompare(g, []byte(k))
	}
	return found == 1
}

func presentedKey(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// Require admits requests whose key grants at least need. A missing or
// unknown key gets 401; a valid key without enough access gets 403.
func Require(keys Keys, need Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !keys.enforced(need) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lvl, ok := keys.grant(presentedKey(r))
			switch {
			case !ok:
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
			case lvl < need:
				respond.Error(w, http.StatusForbidden, "forbidden")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
