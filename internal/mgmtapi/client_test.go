package mgmtapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bsmartlabs/supa/internal/envvar"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", "sbp_token", WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	c, err := New("", "tok")
	if err != nil || c.baseURL != DefaultBaseURL {
		t.Fatalf("expected default base url, got %+v err=%v", c, err)
	}
	if _, err := New("ftp://x", "tok"); err == nil {
		t.Fatalf("expected scheme error")
	}
	if _, err := New("https://x", " "); err == nil {
		t.Fatalf("expected token error")
	}
	if _, err := New("http://[::1", "tok"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestGetAuthConfig(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/projects/abc/config/auth" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sbp_token" {
			t.Errorf("missing bearer token")
		}
		if r.Header.Get(requestIDHeader) == "" {
			t.Errorf("missing request id")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"external_github_enabled":true,"site_url":"http://localhost"}`)
	})
	cfg, err := c.GetAuthConfig(context.Background(), "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg["external_github_enabled"] != true {
		t.Fatalf("unexpected config: %#v", cfg)
	}
}

func TestUpdateAuthConfig(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("missing content type")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(body)
	})
	out, err := c.UpdateAuthConfig(context.Background(), "abc", map[string]any{"external_google_enabled": false})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out["external_google_enabled"] != false {
		t.Fatalf("unexpected echo: %#v", out)
	}
}

func TestGetPostgrestConfig(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/projects/abc/postgrest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"db_schema":"public"}`)
	})
	out, err := c.GetPostgrestConfig(context.Background(), "abc")
	if err != nil || out["db_schema"] != "public" {
		t.Fatalf("unexpected result %#v err=%v", out, err)
	}
}

func TestAPIError(t *testing.T) {
	cases := []struct {
		status   int
		body     string
		wantMsg  string
		wantAuth bool
	}{
		{http.StatusUnauthorized, `{"message":"Unauthorized"}`, "Unauthorized", true},
		{http.StatusForbidden, `{"error":"forbidden"}`, "forbidden", true},
		{http.StatusNotFound, `not here`, "not here", false},
		{http.StatusInternalServerError, ``, "", false},
		{http.StatusBadRequest, `{"other":1}`, `{"other":1}`, false},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, tc.body)
		})
		_, err := c.GetAuthConfig(context.Background(), "abc")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != tc.status || apiErr.Message != tc.wantMsg || apiErr.Unauthorized() != tc.wantAuth {
			t.Fatalf("unexpected error: %+v", apiErr)
		}
		if apiErr.RequestID == "" {
			t.Fatalf("expected request id on error")
		}
		if tc.wantMsg == "" && !strings.Contains(err.Error(), "status 500") {
			t.Fatalf("unexpected message: %v", err)
		}
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	c, err := New(url, "tok")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := c.GetAuthConfig(context.Background(), "abc"); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestNetworkError_KeepsCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetAuthConfig(ctx, "abc")
	if !errors.Is(err, ErrNetwork) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected ErrNetwork wrapping context.Canceled, got %v", err)
	}
}

func TestDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[`)
	})
	if _, err := c.GetAuthConfig(context.Background(), "abc"); err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestGetProjectAPIKeys(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `[{"name":"anon","type":"legacy","api_key":"eyJ"},{"name":"default","type":"publishable","api_key":"sb_publishable_x"}]`)
	})
	keys, err := c.GetProjectAPIKeys(context.Background(), "abc", true)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if gotQuery != "reveal=true" || len(keys) != 2 || keys[1].Type != KeyTypePublishable {
		t.Fatalf("unexpected keys %#v query %q", keys, gotQuery)
	}
	if _, err := c.GetProjectAPIKeys(context.Background(), "abc", false); err != nil || gotQuery != "" {
		t.Fatalf("expected no reveal query, got %q err=%v", gotQuery, err)
	}
}

func TestMaskAPIKey(t *testing.T) {
	long := "sb_secret_0123456789abcdefghijWXYZ"
	if got := MaskAPIKey(long, false); got != "sb_secret_0123456789...WXYZ" {
		t.Fatalf("unexpected mask: %s", got)
	}
	if MaskAPIKey(long, true) != long {
		t.Fatalf("reveal must show full key")
	}
	if MaskAPIKey("short", false) != "short" || MaskAPIKey("", false) != "-" {
		t.Fatalf("unexpected short-key handling")
	}
}

func TestDecodeLegacyKey(t *testing.T) {
	exp := time.Date(2035, 1, 2, 3, 4, 5, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "anon",
		"ref":  "abc",
		"exp":  exp.Unix(),
	}).SignedString([]byte("not-the-real-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, ok := DecodeLegacyKey(token)
	if !ok {
		t.Fatalf("expected JWT to decode")
	}
	if claims.Role != "anon" || claims.Ref != "abc" || claims.ExpiresAt == nil || !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, ok := DecodeLegacyKey("sb_publishable_abc"); ok {
		t.Fatalf("expected non-JWT to fail")
	}
}

func TestEnvironmentEndpointsUnavailable(t *testing.T) {
	c, _ := New("", "tok")
	ctx := context.Background()
	_, err1 := c.ListEnvironments(ctx, "abc")
	_, err2 := c.CreateEnvironment(ctx, "abc", "staging", "")
	err3 := c.DeleteEnvironment(ctx, "abc", "staging")
	err4 := c.SeedEnvironment(ctx, "abc", "staging", "development", nil)
	_, err5 := c.ListEnvVariables(ctx, "abc", "development", ListVariablesOptions{})
	err6 := c.BulkUpsertEnvVariables(ctx, "abc", "development", nil, false)
	err7 := c.SetEnvVariable(ctx, "abc", "development", "", envvar.Variable{Key: "A"})
	err8 := c.DeleteEnvVariable(ctx, "abc", "development", "", "A")
	for i, err := range []error{err1, err2, err3, err4, err5, err6, err7, err8} {
		if !errors.Is(err, ErrEnvironmentAPIUnavailable) {
			t.Fatalf("endpoint %d: expected ErrEnvironmentAPIUnavailable, got %v", i, err)
		}
	}
}
