package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testKeys = Keys{
	Public: []string{"pub_key"},
	Admin:  []string{"adm_key"},
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, header, value string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/health/check-now", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)
	return rec
}

func TestRequire_Admin(t *testing.T) {
	mw := Require(testKeys, Admin)
	cases := []struct {
		name, header, value string
		want                int
	}{
		{"admin key", "X-API-Key", "adm_key", http.StatusOK},
		{"admin bearer", "Authorization", "Bearer adm_key", http.StatusOK},
		{"lowercase bearer", "Authorization", "bearer adm_key", http.StatusOK},
		{"public key", "X-API-Key", "pub_key", http.StatusForbidden},
		{"unknown key", "X-API-Key", "nope", http.StatusUnauthorized},
		{"prefix of admin key", "X-API-Key", "adm_", http.StatusUnauthorized},
		{"missing key", "", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, mw, tc.header, tc.value)
			if rec.Code != tc.want {
				t.Fatalf("want %d got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRequire_Public(t *testing.T) {
	mw := Require(testKeys, Public)
	for key, want := range map[string]int{
		"pub_key": http.StatusOK,
		"adm_key": http.StatusOK,
		"nope":    http.StatusUnauthorized,
		"":        http.StatusUnauthorized,
	} {
		if rec := serve(t, mw, "X-API-Key", key); rec.Code != want {
			t.Fatalf("key %q: want %d got %d", key, want, rec.Code)
		}
	}
}

func TestRequire_DeniedBodyIsJSONEnvelope(t *testing.T) {
	rec := serve(t, Require(testKeys, Admin), "X-API-Key", "pub_key")
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"success":false`) || !strings.Contains(body, `"error":"forbidden"`) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestRequire_OpenWhenNoKeysConfigured(t *testing.T) {
	for name, mw := range map[string]func(http.Handler) http.Handler{
		"public": Require(Keys{}, Public),
		"admin":  Require(Keys{}, Admin),
		// public keys alone do not lock admin routes
		"admin with public keys only": Require(Keys{Public: []string{"pub_key"}}, Admin),
	} {
		if rec := serve(t, mw, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: want 200, got %d", name, rec.Code)
		}
	}
}
