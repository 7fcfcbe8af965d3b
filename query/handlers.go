package query

import (
	"context"

	"github.com/goliatone/go-marketplace-auth/core"
)

type StatusReader interface {
	Status(ctx context.Context, accountID string) (core.AuthorizationStatus, error)
}

type AccountReader interface {
	GetAccount(ctx context.Context, tenantID string, accountID string) (core.Account, error)
	ListAccounts(ctx context.Context, tenantID string) ([]core.Account, error)
	ActiveAccount(ctx context.Context, tenantID string) (core.Account, error)
}

type CredentialReader interface {
	GetDecryptedCredentials(ctx context.Context, accountID string) (core.DecryptedCredentials, error)
}

type GetAuthorizationStatusQuery struct {
	reader StatusReader
}

func NewGetAuthorizationStatusQuery(reader StatusReader) *GetAuthorizationStatusQuery {
	return &GetAuthorizationStatusQuery{reader: reader}
}

func (q *GetAuthorizationStatusQuery) Query(
	ctx context.Context,
	msg GetAuthorizationStatusMessage,
) (core.AuthorizationStatus, error) {
	if q == nil || q.reader == nil {
		return core.AuthorizationStatus{}, queryDependencyError("query: status reader is required")
	}
	return q.reader.Status(ctx, msg.AccountID)
}

type GetAccountQuery struct {
	reader AccountReader
}

func NewGetAccountQuery(reader AccountReader) *GetAccountQuery {
	return &GetAccountQuery{reader: reader}
}

func (q *GetAccountQuery) Query(ctx context.Context, msg GetAccountMessage) (core.Account, error) {
	if q == nil || q.reader == nil {
		return core.Account{}, queryDependencyError("query: account reader is required")
	}
	return q.reader.GetAccount(ctx, msg.TenantID, msg.AccountID)
}

type ListAccountsQuery struct {
	reader AccountReader
}

func NewListAccountsQuery(reader AccountReader) *ListAccountsQuery {
	return &ListAccountsQuery{reader: reader}
}

func (q *ListAccountsQuery) Query(ctx context.Context, msg ListAccountsMessage) ([]core.Account, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: account reader is required")
	}
	return q.reader.ListAccounts(ctx, msg.TenantID)
}

type GetActiveAccountQuery struct {
	reader AccountReader
}

func NewGetActiveAccountQuery(reader AccountReader) *GetActiveAccountQuery {
	return &GetActiveAccountQuery{reader: reader}
}

func (q *GetActiveAccountQuery) Query(ctx context.Context, msg GetActiveAccountMessage) (core.Account, error) {
	if q == nil || q.reader == nil {
		return core.Account{}, queryDependencyError("query: account reader is required")
	}
	return q.reader.ActiveAccount(ctx, msg.TenantID)
}

type GetDecryptedCredentialsQuery struct {
	reader CredentialReader
}

func NewGetDecryptedCredentialsQuery(reader CredentialReader) *GetDecryptedCredentialsQuery {
	return &GetDecryptedCredentialsQuery{reader: reader}
}

func (q *GetDecryptedCredentialsQuery) Query(
	ctx context.Context,
	msg GetDecryptedCredentialsMessage,
) (core.DecryptedCredentials, error) {
	if q == nil || q.reader == nil {
		return core.DecryptedCredentials{}, queryDependencyError("query: credential reader is required")
	}
	return q.reader.GetDecryptedCredentials(ctx, msg.AccountID)
}
