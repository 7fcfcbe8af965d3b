package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-marketplace-auth/core"
)

func newAccountRecord(in core.CreateAccountInput, now time.Time) *accountRecord {
	return &accountRecord{
		TenantID:               strings.TrimSpace(in.TenantID),
		Name:                   strings.TrimSpace(in.Name),
		ClientID:               strings.TrimSpace(in.ClientID),
		ClientSecretCiphertext: strings.TrimSpace(in.ClientSecret),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

func (r *accountRecord) toDomain() core.Account {
	if r == nil {
		return core.Account{}
	}
	return core.Account{
		ID:                     r.ID,
		TenantID:               r.TenantID,
		Name:                   r.Name,
		ClientID:               r.ClientID,
		ClientSecretCiphertext: r.ClientSecretCiphertext,
		AccessTokenCiphertext:  r.AccessTokenCiphertext,
		RefreshTokenCiphertext: r.RefreshTokenCiphertext,
		TokenExpiresAt:         cloneTime(r.TokenExpiresAt),
		TokenScopes:            r.TokenScopes,
		OAuthState:             r.OAuthState,
		CodeVerifierCiphertext: r.CodeVerifierCiphertext,
		SessionInitiatedAt:     cloneTime(r.SessionInitiatedAt),
		IsActive:               r.IsActive,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := value.UTC()
	return &clone
}
