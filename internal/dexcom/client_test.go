package dexcom_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bigMackD/Glyloop-sub002/internal/dexcom"
	"github.com/bigMackD/Glyloop-sub002/internal/domain"
)

func newClient(baseURL string) *dexcom.HTTPClient {
	return dexcom.NewHTTPClient(dexcom.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://glyloop.example/cgm/callback",
		BaseURL:      baseURL,
	})
}

func TestExchangeCode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/oauth2/token" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("code") != "auth-code-1" {
			t.Errorf("code = %q", r.PostForm.Get("code"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"access123","refresh_token":"refresh456","expires_in":7200,"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	r := newClient(srv.URL).ExchangeCode(context.Background(), "auth-code-1")
	if r.IsFailure() {
		t.Fatalf("exchange failed: %v", r.Err())
	}
	grant := r.Value()
	if grant.AccessToken != "access123" || grant.RefreshToken != "refresh456" || grant.ExpiresIn != 7200 {
		t.Errorf("grant = %+v", grant)
	}
}

func TestRefresh_SendsRefreshGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("refresh_token") != "refresh456" {
			t.Errorf("refresh_token = %q", r.PostForm.Get("refresh_token"))
		}
		w.Write([]byte(`{"access_token":"access789","refresh_token":"refresh999","expires_in":7200}`))
	}))
	defer srv.Close()

	r := newClient(srv.URL).Refresh(context.Background(), "refresh456")
	if r.IsFailure() {
		t.Fatalf("refresh failed: %v", r.Err())
	}
	if r.Value().AccessToken != "access789" {
		t.Errorf("access token = %q", r.Value().AccessToken)
	}
}

func TestExchangeCode_ProviderErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"authorization code expired"}`))
	}))
	defer srv.Close()

	r := newClient(srv.URL).ExchangeCode(context.Background(), "stale-code")
	if r.IsSuccess() {
		t.Fatal("expired code must fail")
	}
	if r.Err().Code != domain.CodeExternal {
		t.Errorf("code = %q, want external", r.Err().Code)
	}
}

func TestExchangeCode_NetworkFailureIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	r := newClient(srv.URL).ExchangeCode(context.Background(), "code")
	if r.IsSuccess() || r.Err().Code != domain.CodeExternal {
		t.Error("network failure must surface as a typed external error")
	}
}

func TestExchangeCode_IncompleteGrantRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"only-access","expires_in":7200}`))
	}))
	defer srv.Close()

	if newClient(srv.URL).ExchangeCode(context.Background(), "code").IsSuccess() {
		t.Error("a grant without a refresh token must be rejected")
	}
}
