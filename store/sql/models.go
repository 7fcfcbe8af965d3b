package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type accountRecord struct {
	bun.BaseModel `bun:"table:marketplace_accounts,alias:ma"`

	ID       string `bun:"id,pk"`
	TenantID string `bun:"tenant_id,notnull"`
	Name     string `bun:"name,notnull"`

	ClientID               string `bun:"client_id"`
	ClientSecretCiphertext string `bun:"client_secret_ciphertext"`

	AccessTokenCiphertext  string     `bun:"access_token_ciphertext"`
	RefreshTokenCiphertext string     `bun:"refresh_token_ciphertext"`
	TokenExpiresAt         *time.Time `bun:"token_expires_at,nullzero"`
	TokenScopes            string     `bun:"token_scopes"`

	OAuthState             string     `bun:"oauth_state"`
	CodeVerifierCiphertext string     `bun:"code_verifier_ciphertext"`
	SessionInitiatedAt     *time.Time `bun:"session_initiated_at,nullzero"`

	IsActive  bool      `bun:"is_active,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type tenantSettingRecord struct {
	bun.BaseModel `bun:"table:tenant_settings,alias:ts"`

	TenantID        string    `bun:"tenant_id,pk"`
	ActiveAccountID *string   `bun:"active_account_id"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
