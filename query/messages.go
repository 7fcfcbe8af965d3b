package query

import (
	"fmt"
	"strings"
)

const (
	TypeGetAuthorizationStatus  = "marketplace_auth.query.authorization.status"
	TypeGetAccount              = "marketplace_auth.query.account.get"
	TypeListAccounts            = "marketplace_auth.query.account.list"
	TypeGetActiveAccount        = "marketplace_auth.query.account.active"
	TypeGetDecryptedCredentials = "marketplace_auth.query.credentials.get"
)

type GetAuthorizationStatusMessage struct {
	AccountID string
}

func (GetAuthorizationStatusMessage) Type() string { return TypeGetAuthorizationStatus }

func (m GetAuthorizationStatusMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("query: account id is required")
	}
	return nil
}

type GetAccountMessage struct {
	TenantID  string
	AccountID string
}

func (GetAccountMessage) Type() string { return TypeGetAccount }

func (m GetAccountMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return fmt.Errorf("query: tenant id is required")
	}
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("query: account id is required")
	}
	return nil
}

type ListAccountsMessage struct {
	TenantID string
}

func (ListAccountsMessage) Type() string { return TypeListAccounts }

func (m ListAccountsMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return fmt.Errorf("query: tenant id is required")
	}
	return nil
}

type GetActiveAccountMessage struct {
	TenantID string
}

func (GetActiveAccountMessage) Type() string { return TypeGetActiveAccount }

func (m GetActiveAccountMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return fmt.Errorf("query: tenant id is required")
	}
	return nil
}

type GetDecryptedCredentialsMessage struct {
	AccountID string
}

func (GetDecryptedCredentialsMessage) Type() string { return TypeGetDecryptedCredentials }

func (m GetDecryptedCredentialsMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("query: account id is required")
	}
	return nil
}
