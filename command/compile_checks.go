package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[InitiateAuthorizationMessage] = (*InitiateAuthorizationCommand)(nil)
	_ gocmd.Commander[CompleteAuthorizationMessage] = (*CompleteAuthorizationCommand)(nil)
	_ gocmd.Commander[RevokeAuthorizationMessage]   = (*RevokeAuthorizationCommand)(nil)
	_ gocmd.Commander[RefreshTokenMessage]          = (*RefreshTokenCommand)(nil)
	_ gocmd.Commander[ValidateCredentialsMessage]   = (*ValidateCredentialsCommand)(nil)
	_ gocmd.Commander[CreateAccountMessage]         = (*CreateAccountCommand)(nil)
	_ gocmd.Commander[UpdateAccountMessage]         = (*UpdateAccountCommand)(nil)
	_ gocmd.Commander[DeleteAccountMessage]         = (*DeleteAccountCommand)(nil)
	_ gocmd.Commander[SetActiveAccountMessage]      = (*SetActiveAccountCommand)(nil)
	_ gocmd.Commander[SweepExpiredSessionsMessage]  = (*SweepExpiredSessionsCommand)(nil)
)
