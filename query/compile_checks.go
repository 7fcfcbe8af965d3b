package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-marketplace-auth/core"
)

var (
	_ gocmd.Querier[GetAuthorizationStatusMessage, core.AuthorizationStatus]   = (*GetAuthorizationStatusQuery)(nil)
	_ gocmd.Querier[GetAccountMessage, core.Account]                           = (*GetAccountQuery)(nil)
	_ gocmd.Querier[ListAccountsMessage, []core.Account]                       = (*ListAccountsQuery)(nil)
	_ gocmd.Querier[GetActiveAccountMessage, core.Account]                     = (*GetActiveAccountQuery)(nil)
	_ gocmd.Querier[GetDecryptedCredentialsMessage, core.DecryptedCredentials] = (*GetDecryptedCredentialsQuery)(nil)
)
