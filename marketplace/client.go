package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-marketplace-auth/core"
)

const (
	defaultTokenRequestTimeout = 45 * time.Second
	maxTokenResponseBodyBytes  = 1 << 20 // 1 MiB
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	TokenURL            string
	TokenRequestTimeout time.Duration
	Now                 func() time.Time
	HTTPClient          HTTPDoer
}

// Client talks to the marketplace token endpoint. Credentials are supplied
// per call, never held in the client: the same instance serves every account
// of every tenant.
type Client struct {
	cfg        ClientConfig
	httpClient HTTPDoer
}

type tokenEndpointPayload struct {
	AccessToken      string
	TokenType        string
	RefreshToken     string
	Scope            string
	ExpiresIn        int64
	ErrorCode        string
	ErrorDescription string
}

func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("%w: marketplace token url is required", core.ErrConfig)
	}
	if cfg.TokenRequestTimeout <= 0 {
		cfg.TokenRequestTimeout = defaultTokenRequestTimeout
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time {
			return time.Now().UTC()
		}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.TokenRequestTimeout}
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
	}, nil
}

// NewClientFromConfig builds the client from the resolved marketplace section.
func NewClientFromConfig(cfg core.MarketplaceConfig) (*Client, error) {
	return NewClient(ClientConfig{
		TokenURL:            cfg.TokenURL,
		TokenRequestTimeout: cfg.TokenRequestTimeout,
	})
}

func (c *Client) ExchangeCode(ctx context.Context, creds core.ClientCredentials, code string, verifier string, redirectURI string) (core.TokenSet, error) {
	if c == nil {
		return core.TokenSet{}, fmt.Errorf("marketplace: client is nil")
	}
	code = strings.TrimSpace(code)
	verifier = strings.TrimSpace(verifier)
	redirectURI = strings.TrimSpace(redirectURI)
	if missing := missingExchangeInputs(creds, code, verifier, redirectURI); len(missing) > 0 {
		return core.TokenSet{}, fmt.Errorf("%w: code exchange missing %s",
			core.ErrConfig, strings.Join(missing, ", "))
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("code_verifier", verifier)
	form.Set("redirect_uri", redirectURI)

	payload, err := c.fetchToken(ctx, creds, form)
	if err != nil {
		return core.TokenSet{}, err
	}
	return c.toTokenSet(payload), nil
}

func (c *Client) Refresh(ctx context.Context, creds core.ClientCredentials, refreshToken string) (core.TokenSet, error) {
	if c == nil {
		return core.TokenSet{}, fmt.Errorf("marketplace: client is nil")
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return core.TokenSet{}, fmt.Errorf("marketplace: refresh token is required")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	payload, err := c.fetchToken(ctx, creds, form)
	if err != nil {
		return core.TokenSet{}, err
	}
	return c.toTokenSet(payload), nil
}

// ValidateCredentials probes the token endpoint with a client-credentials
// grant. A 401 or 403 means the pair is wrong, which is an outcome rather
// than an error; a 404 means the endpoint itself is misconfigured.
func (c *Client) ValidateCredentials(ctx context.Context, creds core.ClientCredentials) (core.CredentialValidation, error) {
	if c == nil {
		return core.CredentialValidation{}, fmt.Errorf("marketplace: client is nil")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	payload, err := c.fetchToken(ctx, creds, form)
	if err != nil {
		var xerr *core.ExchangeError
		if errors.As(err, &xerr) {
			switch xerr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				message := strings.TrimSpace(xerr.Description)
				if message == "" {
					message = "Invalid API credentials"
				}
				return core.CredentialValidation{Valid: false, Message: message}, nil
			case http.StatusNotFound:
				return core.CredentialValidation{}, fmt.Errorf(
					"%w: token endpoint returned 404, check marketplace.token_url", core.ErrConfig)
			}
		}
		return core.CredentialValidation{}, err
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return core.CredentialValidation{Valid: false, Message: "token endpoint accepted the request but returned no token"}, nil
	}
	return core.CredentialValidation{Valid: true}, nil
}

func (c *Client) fetchToken(ctx context.Context, creds core.ClientCredentials, form url.Values) (tokenEndpointPayload, error) {
	if c.httpClient == nil {
		return tokenEndpointPayload{}, fmt.Errorf("marketplace: http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	clientID := strings.TrimSpace(creds.ClientID)
	if clientID == "" {
		return tokenEndpointPayload{}, fmt.Errorf("marketplace: client id is required")
	}
	clientSecret := strings.TrimSpace(creds.ClientSecret)
	if clientSecret == "" {
		return tokenEndpointPayload{}, fmt.Errorf("marketplace: client secret is required")
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.cfg.TokenRequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(
		requestCtx,
		http.MethodPost,
		c.cfg.TokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return tokenEndpointPayload{}, fmt.Errorf("marketplace: build token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(clientID, clientSecret)

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return tokenEndpointPayload{}, &core.ExchangeError{Cause: err}
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxTokenResponseBodyBytes+1))
	if readErr != nil {
		return tokenEndpointPayload{}, &core.ExchangeError{StatusCode: response.StatusCode, Cause: readErr}
	}
	if int64(len(body)) > maxTokenResponseBodyBytes {
		return tokenEndpointPayload{}, &core.ExchangeError{
			StatusCode: response.StatusCode,
			Cause:      fmt.Errorf("marketplace: token response exceeds %d bytes", maxTokenResponseBodyBytes),
		}
	}

	payload, parseErr := parseTokenPayload(body, response.Header.Get("Content-Type"))
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return tokenEndpointPayload{}, &core.ExchangeError{
			StatusCode:  response.StatusCode,
			ErrorCode:   payload.ErrorCode,
			Description: payload.ErrorDescription,
			Cause:       parseErr,
		}
	}
	if parseErr != nil {
		return tokenEndpointPayload{}, &core.ExchangeError{StatusCode: response.StatusCode, Cause: parseErr}
	}
	if payload.ErrorCode != "" {
		return tokenEndpointPayload{}, &core.ExchangeError{
			StatusCode:  response.StatusCode,
			ErrorCode:   payload.ErrorCode,
			Description: payload.ErrorDescription,
		}
	}
	if strings.TrimSpace(payload.AccessToken) == "" && form.Get("grant_type") != "client_credentials" {
		return tokenEndpointPayload{}, &core.ExchangeError{
			StatusCode: response.StatusCode,
			Cause:      fmt.Errorf("marketplace: token endpoint response missing access token"),
		}
	}
	return payload, nil
}

func (c *Client) toTokenSet(payload tokenEndpointPayload) core.TokenSet {
	now := c.cfg.Now().UTC()
	return core.TokenSet{
		AccessToken:  strings.TrimSpace(payload.AccessToken),
		RefreshToken: strings.TrimSpace(payload.RefreshToken),
		TokenType:    normalizeTokenType(payload.TokenType),
		ExpiresAt:    resolveExpiresAt(now, payload.ExpiresIn),
		Scopes:       strings.Join(parseScopeList(payload.Scope), " "),
	}
}

// missingExchangeInputs names every absent code-exchange input so the caller
// learns the full list in one pass instead of one field per attempt.
func missingExchangeInputs(creds core.ClientCredentials, code string, verifier string, redirectURI string) []string {
	var missing []string
	if code == "" {
		missing = append(missing, "code")
	}
	if verifier == "" {
		missing = append(missing, "code_verifier")
	}
	if redirectURI == "" {
		missing = append(missing, "redirect_uri")
	}
	if strings.TrimSpace(creds.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(creds.ClientSecret) == "" {
		missing = append(missing, "client_secret")
	}
	return missing
}

// resolveExpiresAt keeps the invariant that a token set with an access token
// carries an expiry. A response without expires_in maps to "expired now",
// which reads as needs-refresh rather than never-expires.
func resolveExpiresAt(now time.Time, expiresIn int64) *time.Time {
	expiresAt := now
	if expiresIn > 0 {
		expiresAt = now.Add(time.Duration(expiresIn) * time.Second)
	}
	return &expiresAt
}

func normalizeTokenType(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "bearer"
	}
	return normalized
}

func parseScopeList(value string) []string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return []string{}
	}
	return strings.Fields(strings.ReplaceAll(trimmed, ",", " "))
}

// parseTokenPayload handles JSON and form-encoded token responses, trying
// JSON first when the content type is ambiguous.
func parseTokenPayload(body []byte, contentType string) (tokenEndpointPayload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if strings.Contains(contentType, "json") {
		return parseTokenPayloadJSON(body)
	}
	if strings.Contains(contentType, "x-www-form-urlencoded") || strings.Contains(contentType, "text/plain") {
		return parseTokenPayloadForm(body)
	}
	if payload, err := parseTokenPayloadJSON(body); err == nil {
		return payload, nil
	}
	return parseTokenPayloadForm(body)
}

func parseTokenPayloadJSON(body []byte) (tokenEndpointPayload, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return tokenEndpointPayload{}, fmt.Errorf("empty payload")
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return tokenEndpointPayload{}, err
	}
	return tokenEndpointPayload{
		AccessToken:      readAnyString(decoded["access_token"]),
		TokenType:        readAnyString(decoded["token_type"]),
		RefreshToken:     readAnyString(decoded["refresh_token"]),
		Scope:            readAnyString(decoded["scope"]),
		ExpiresIn:        readAnyInt64(decoded["expires_in"]),
		ErrorCode:        readAnyString(decoded["error"]),
		ErrorDescription: readAnyString(decoded["error_description"]),
	}, nil
}

func parseTokenPayloadForm(body []byte) (tokenEndpointPayload, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return tokenEndpointPayload{}, fmt.Errorf("empty payload")
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	expiresIn, _ := strconv.ParseInt(strings.TrimSpace(values.Get("expires_in")), 10, 64)
	return tokenEndpointPayload{
		AccessToken:      strings.TrimSpace(values.Get("access_token")),
		TokenType:        strings.TrimSpace(values.Get("token_type")),
		RefreshToken:     strings.TrimSpace(values.Get("refresh_token")),
		Scope:            strings.TrimSpace(values.Get("scope")),
		ExpiresIn:        expiresIn,
		ErrorCode:        strings.TrimSpace(values.Get("error")),
		ErrorDescription: strings.TrimSpace(values.Get("error_description")),
	}, nil
}

func readAnyString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	default:
		if value == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func readAnyInt64(value any) int64 {
	switch typed := value.(type) {
	case int:
		return int64(typed)
	case int64:
		return typed
	case float64:
		return int64(typed)
	case json.Number:
		if parsed, err := typed.Int64(); err == nil {
			return parsed
		}
	case string:
		if parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}

var _ core.TokenExchanger = (*Client)(nil)
