package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrAccountNotFound = errors.New("core: account not found")
	ErrTenantNotFound  = errors.New("core: tenant not found")
	ErrDuplicateName   = errors.New("core: account name already in use for tenant")
)

// AuthState is the derived authorization state of an account. It is never
// stored; it is computed from which credential fields are present.
type AuthState string

const (
	AuthStateUnconfigured AuthState = "unconfigured"
	AuthStateConfigured   AuthState = "configured"
	AuthStatePending      AuthState = "pending"
	AuthStateAuthorized   AuthState = "authorized"
)

// Account is a tenant-scoped named credential set representing one connection
// to the upstream marketplace. Secret-bearing fields hold ciphertext in the
// hex(iv):hex(payload) shape produced by the cipher; they are only ever
// decrypted on demand.
type Account struct {
	ID       string
	TenantID string
	Name     string

	ClientID               string
	ClientSecretCiphertext string

	AccessTokenCiphertext  string
	RefreshTokenCiphertext string
	TokenExpiresAt         *time.Time
	TokenScopes            string

	OAuthState             string
	CodeVerifierCiphertext string
	SessionInitiatedAt     *time.Time

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// State derives the lifecycle position from field presence. A revoked account
// is indistinguishable from a configured one, which is intentional: revoke
// returns the account to the configured-equivalent state.
func (a Account) State() AuthState {
	switch {
	case strings.TrimSpace(a.ClientID) == "":
		return AuthStateUnconfigured
	case strings.TrimSpace(a.AccessTokenCiphertext) != "":
		return AuthStateAuthorized
	case strings.TrimSpace(a.OAuthState) != "":
		return AuthStatePending
	default:
		return AuthStateConfigured
	}
}

// HasPendingSession reports whether an authorization attempt is awaiting its
// callback.
func (a Account) HasPendingSession() bool {
	return strings.TrimSpace(a.OAuthState) != ""
}

type CreateAccountInput struct {
	TenantID     string
	Name         string
	ClientID     string
	ClientSecret string
}

type UpdateAccountInput struct {
	TenantID     string
	AccountID    string
	Name         string
	ClientID     string
	ClientSecret string
}

// TokenSet is the parsed token endpoint response: access token, optional
// refresh token, absolute expiry, and granted scopes.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    *time.Time
	Scopes       string
}

// SaveTokenSetInput carries the already encrypted token material for a single
// atomic write. Writing a token set always ends the pending session.
type SaveTokenSetInput struct {
	AccessTokenCiphertext  string
	RefreshTokenCiphertext string
	ExpiresAt              *time.Time
	Scopes                 string
}

// ClientCredentials is the decrypted client id/secret pair used to
// authenticate against the marketplace token endpoint.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// PKCEPair is a generated verifier/challenge pair. The verifier is stored
// encrypted until the callback; the challenge travels in the authorize URL.
type PKCEPair struct {
	Verifier  string
	Challenge string
}

// InitiateResult is returned to the caller driving the browser redirect.
type InitiateResult struct {
	AuthorizeURL string
	State        string
}

// CompleteResult identifies which account a callback landed on.
type CompleteResult struct {
	AccountID string
	TenantID  string
	ExpiresAt *time.Time
	Scopes    string
}

// AuthorizationStatus reports authorization purely from stored fields. Expiry
// is informational; use-time refresh is the API client's concern.
type AuthorizationStatus struct {
	Authorized bool
	ExpiresAt  *time.Time
	Scopes     string
}

// CredentialValidation is the outcome of a client-credentials check. Invalid
// credentials are an outcome, not an error.
type CredentialValidation struct {
	Valid   bool
	Message string
}

// FieldResult is a per-field decryption outcome. It distinguishes "this
// account simply has no secret yet" (empty, no error) from "this account's
// secret is corrupt" (empty, Err set).
type FieldResult struct {
	Value string
	Err   error
}

// Ok reports whether the field decrypted cleanly (or was simply absent).
func (r FieldResult) Ok() bool {
	return r.Err == nil
}

// DecryptedCredentials exposes an account's secrets on demand. A decryption
// failure on one field never aborts the read of the others.
type DecryptedCredentials struct {
	ClientID     string
	ClientSecret FieldResult
	AccessToken  FieldResult
	RefreshToken FieldResult
	ExpiresAt    *time.Time
	Scopes       string
}

func cloneTimePointer(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := value.UTC()
	return &clone
}
