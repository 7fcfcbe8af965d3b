package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-marketplace-auth/core"
)

type MutatingService interface {
	Initiate(ctx context.Context, accountID string) (core.InitiateResult, error)
	Complete(ctx context.Context, code string, state string) (core.CompleteResult, error)
	Revoke(ctx context.Context, accountID string) error
	RefreshToken(ctx context.Context, accountID string) error
	ValidateCredentials(ctx context.Context, clientID string, clientSecret string) (core.CredentialValidation, error)
	CreateAccount(ctx context.Context, in core.CreateAccountInput) (core.Account, error)
	UpdateAccount(ctx context.Context, in core.UpdateAccountInput) (core.Account, error)
	DeleteAccount(ctx context.Context, tenantID string, accountID string) error
	SetActiveAccount(ctx context.Context, tenantID string, accountID string) error
	SweepExpiredSessions(ctx context.Context) (int, error)
}

type InitiateAuthorizationCommand struct {
	service MutatingService
}

func NewInitiateAuthorizationCommand(service MutatingService) *InitiateAuthorizationCommand {
	return &InitiateAuthorizationCommand{service: service}
}

func (c *InitiateAuthorizationCommand) Execute(ctx context.Context, msg InitiateAuthorizationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: authorization service is required")
	}
	out, err := c.service.Initiate(ctx, msg.AccountID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteAuthorizationCommand struct {
	service MutatingService
}

func NewCompleteAuthorizationCommand(service MutatingService) *CompleteAuthorizationCommand {
	return &CompleteAuthorizationCommand{service: service}
}

func (c *CompleteAuthorizationCommand) Execute(ctx context.Context, msg CompleteAuthorizationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: authorization service is required")
	}
	out, err := c.service.Complete(ctx, msg.Code, msg.State)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RevokeAuthorizationCommand struct {
	service MutatingService
}

func NewRevokeAuthorizationCommand(service MutatingService) *RevokeAuthorizationCommand {
	return &RevokeAuthorizationCommand{service: service}
}

func (c *RevokeAuthorizationCommand) Execute(ctx context.Context, msg RevokeAuthorizationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: revoke service is required")
	}
	return c.service.Revoke(ctx, msg.AccountID)
}

type RefreshTokenCommand struct {
	service MutatingService
}

func NewRefreshTokenCommand(service MutatingService) *RefreshTokenCommand {
	return &RefreshTokenCommand{service: service}
}

func (c *RefreshTokenCommand) Execute(ctx context.Context, msg RefreshTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh service is required")
	}
	return c.service.RefreshToken(ctx, msg.AccountID)
}

type ValidateCredentialsCommand struct {
	service MutatingService
}

func NewValidateCredentialsCommand(service MutatingService) *ValidateCredentialsCommand {
	return &ValidateCredentialsCommand{service: service}
}

func (c *ValidateCredentialsCommand) Execute(ctx context.Context, msg ValidateCredentialsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: credential service is required")
	}
	out, err := c.service.ValidateCredentials(ctx, msg.ClientID, msg.ClientSecret)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateAccountCommand struct {
	service MutatingService
}

func NewCreateAccountCommand(service MutatingService) *CreateAccountCommand {
	return &CreateAccountCommand{service: service}
}

func (c *CreateAccountCommand) Execute(ctx context.Context, msg CreateAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account service is required")
	}
	out, err := c.service.CreateAccount(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateAccountCommand struct {
	service MutatingService
}

func NewUpdateAccountCommand(service MutatingService) *UpdateAccountCommand {
	return &UpdateAccountCommand{service: service}
}

func (c *UpdateAccountCommand) Execute(ctx context.Context, msg UpdateAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account service is required")
	}
	out, err := c.service.UpdateAccount(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteAccountCommand struct {
	service MutatingService
}

func NewDeleteAccountCommand(service MutatingService) *DeleteAccountCommand {
	return &DeleteAccountCommand{service: service}
}

func (c *DeleteAccountCommand) Execute(ctx context.Context, msg DeleteAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account service is required")
	}
	return c.service.DeleteAccount(ctx, msg.TenantID, msg.AccountID)
}

type SetActiveAccountCommand struct {
	service MutatingService
}

func NewSetActiveAccountCommand(service MutatingService) *SetActiveAccountCommand {
	return &SetActiveAccountCommand{service: service}
}

func (c *SetActiveAccountCommand) Execute(ctx context.Context, msg SetActiveAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account service is required")
	}
	return c.service.SetActiveAccount(ctx, msg.TenantID, msg.AccountID)
}

type SweepExpiredSessionsCommand struct {
	service MutatingService
}

func NewSweepExpiredSessionsCommand(service MutatingService) *SweepExpiredSessionsCommand {
	return &SweepExpiredSessionsCommand{service: service}
}

func (c *SweepExpiredSessionsCommand) Execute(ctx context.Context, msg SweepExpiredSessionsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: session sweep service is required")
	}
	out, err := c.service.SweepExpiredSessions(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
