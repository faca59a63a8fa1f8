// Package dexcom talks to the Dexcom OAuth token endpoint. Provider errors
// and network failures surface as typed domain errors, never panics.
package dexcom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
)

const defaultBaseURL = "https://sandbox-api.dexcom.com"

// TokenGrant is the provider's answer to a code exchange or refresh.
// ExpiresIn is the access token lifetime in seconds; the caller derives the
// absolute expiry from its own clock.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Client is the OAuth capability the use cases consume.
type Client interface {
	ExchangeCode(ctx context.Context, code string) domain.Result[TokenGrant]
	Refresh(ctx context.Context, refreshToken string) domain.Result[TokenGrant]
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// BaseURL is overridable for tests; empty means the sandbox.
	BaseURL string
}

// HTTPClient implements Client against the real token endpoint.
type HTTPClient struct {
	config Config
	http   *http.Client
}

func NewHTTPClient(config Config) *HTTPClient {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	return &HTTPClient{
		config: config,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *HTTPClient) ExchangeCode(ctx context.Context, code string) domain.Result[TokenGrant] {
	return c.requestToken(ctx, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"redirect_uri":  {c.config.RedirectURL},
	})
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) domain.Result[TokenGrant] {
	return c.requestToken(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"redirect_uri":  {c.config.RedirectURL},
	})
}

func (c *HTTPClient) requestToken(ctx context.Context, form url.Values) domain.Result[TokenGrant] {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v2/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Failure[TokenGrant](domain.ExternalError(fmt.Sprintf("build token request: %v", err)))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Failure[TokenGrant](domain.ExternalError(fmt.Sprintf("token request: %v", err)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Failure[TokenGrant](domain.ExternalError(fmt.Sprintf("read token response: %v", err)))
	}

	if resp.StatusCode != http.StatusOK {
		var provider errorResponse
		// Body may not be JSON on gateway errors; the status alone is enough.
		_ = json.Unmarshal(body, &provider)
		if provider.Error != "" {
			return domain.Failure[TokenGrant](domain.ExternalError(fmt.Sprintf("provider rejected grant: %s (%s)", provider.Error, provider.ErrorDescription)))
		}
		return domain.Failure[TokenGrant](domain.ExternalError(fmt.Sprintf("token endpoint returned status %d", resp.StatusCode)))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return domain.Failure[TokenGrant](domain.ExternalError(fmt.Sprintf("parse token response: %v", err)))
	}
	if token.AccessToken == "" || token.RefreshToken == "" || token.ExpiresIn <= 0 {
		return domain.Failure[TokenGrant](domain.ExternalError("token response is missing access token, refresh token or expiry"))
	}

	return domain.Success(TokenGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
	})
}

var _ Client = (*HTTPClient)(nil)
