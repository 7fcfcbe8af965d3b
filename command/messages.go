package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-marketplace-auth/core"
)

const (
	TypeInitiateAuthorization = "marketplace_auth.command.authorization.initiate"
	TypeCompleteAuthorization = "marketplace_auth.command.authorization.complete"
	TypeRevokeAuthorization   = "marketplace_auth.command.authorization.revoke"
	TypeRefreshToken          = "marketplace_auth.command.token.refresh"
	TypeValidateCredentials   = "marketplace_auth.command.credentials.validate"
	TypeCreateAccount         = "marketplace_auth.command.account.create"
	TypeUpdateAccount         = "marketplace_auth.command.account.update"
	TypeDeleteAccount         = "marketplace_auth.command.account.delete"
	TypeSetActiveAccount      = "marketplace_auth.command.account.set_active"
	TypeSweepExpiredSessions  = "marketplace_auth.command.sessions.sweep"
)

// InitiateAuthorizationMessage starts the authorization flow for an account.
type InitiateAuthorizationMessage struct {
	AccountID string `json:"account_id"`
}

func (m InitiateAuthorizationMessage) Type() string { return TypeInitiateAuthorization }

func (m InitiateAuthorizationMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	return nil
}

// CompleteAuthorizationMessage finishes the flow with the callback payload.
type CompleteAuthorizationMessage struct {
	State string `json:"state"`
	Code  string `json:"code"`
}

func (m CompleteAuthorizationMessage) Type() string { return TypeCompleteAuthorization }

func (m CompleteAuthorizationMessage) Validate() error {
	if strings.TrimSpace(m.State) == "" {
		return fmt.Errorf("command: state is required")
	}
	if strings.TrimSpace(m.Code) == "" {
		return fmt.Errorf("command: authorization code is required")
	}
	return nil
}

// RevokeAuthorizationMessage discards an account's stored token set.
type RevokeAuthorizationMessage struct {
	AccountID string `json:"account_id"`
}

func (m RevokeAuthorizationMessage) Type() string { return TypeRevokeAuthorization }

func (m RevokeAuthorizationMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	return nil
}

// RefreshTokenMessage rotates an account's token set using its refresh token.
type RefreshTokenMessage struct {
	AccountID string `json:"account_id"`
}

func (m RefreshTokenMessage) Type() string { return TypeRefreshToken }

func (m RefreshTokenMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	return nil
}

// ValidateCredentialsMessage probes the marketplace with raw credentials.
type ValidateCredentialsMessage struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (m ValidateCredentialsMessage) Type() string { return TypeValidateCredentials }

func (m ValidateCredentialsMessage) Validate() error {
	if strings.TrimSpace(m.ClientID) == "" {
		return fmt.Errorf("command: client id is required")
	}
	if strings.TrimSpace(m.ClientSecret) == "" {
		return fmt.Errorf("command: client secret is required")
	}
	return nil
}

// CreateAccountMessage registers a marketplace account for a tenant.
type CreateAccountMessage struct {
	Input core.CreateAccountInput `json:"input"`
}

func (m CreateAccountMessage) Type() string { return TypeCreateAccount }

func (m CreateAccountMessage) Validate() error {
	if strings.TrimSpace(m.Input.TenantID) == "" {
		return fmt.Errorf("command: tenant id is required")
	}
	if strings.TrimSpace(m.Input.Name) == "" {
		return fmt.Errorf("command: account name is required")
	}
	return nil
}

// UpdateAccountMessage changes an existing account's metadata or credentials.
type UpdateAccountMessage struct {
	Input core.UpdateAccountInput `json:"input"`
}

func (m UpdateAccountMessage) Type() string { return TypeUpdateAccount }

func (m UpdateAccountMessage) Validate() error {
	if strings.TrimSpace(m.Input.TenantID) == "" {
		return fmt.Errorf("command: tenant id is required")
	}
	if strings.TrimSpace(m.Input.AccountID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	return nil
}

// DeleteAccountMessage removes an account and its stored secrets.
type DeleteAccountMessage struct {
	TenantID  string `json:"tenant_id"`
	AccountID string `json:"account_id"`
}

func (m DeleteAccountMessage) Type() string { return TypeDeleteAccount }

func (m DeleteAccountMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return fmt.Errorf("command: tenant id is required")
	}
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	return nil
}

// SetActiveAccountMessage switches the tenant's active account.
type SetActiveAccountMessage struct {
	TenantID  string `json:"tenant_id"`
	AccountID string `json:"account_id"`
}

func (m SetActiveAccountMessage) Type() string { return TypeSetActiveAccount }

func (m SetActiveAccountMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return fmt.Errorf("command: tenant id is required")
	}
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	return nil
}

// SweepExpiredSessionsMessage clears pending sessions older than the TTL.
type SweepExpiredSessionsMessage struct{}

func (m SweepExpiredSessionsMessage) Type() string { return TypeSweepExpiredSessions }

func (m SweepExpiredSessionsMessage) Validate() error { return nil }
