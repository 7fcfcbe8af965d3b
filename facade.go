package marketplaceauth

import (
	"fmt"

	authcommand "github.com/goliatone/go-marketplace-auth/command"
	"github.com/goliatone/go-marketplace-auth/core"
	authquery "github.com/goliatone/go-marketplace-auth/query"
)

type CommandQueryService interface {
	authcommand.MutatingService
	authquery.StatusReader
	authquery.AccountReader
	authquery.CredentialReader
}

type Commands struct {
	InitiateAuthorization *authcommand.InitiateAuthorizationCommand
	CompleteAuthorization *authcommand.CompleteAuthorizationCommand
	RevokeAuthorization   *authcommand.RevokeAuthorizationCommand
	RefreshToken          *authcommand.RefreshTokenCommand
	ValidateCredentials   *authcommand.ValidateCredentialsCommand
	CreateAccount         *authcommand.CreateAccountCommand
	UpdateAccount         *authcommand.UpdateAccountCommand
	DeleteAccount         *authcommand.DeleteAccountCommand
	SetActiveAccount      *authcommand.SetActiveAccountCommand
	SweepExpiredSessions  *authcommand.SweepExpiredSessionsCommand
}

type Queries struct {
	GetAuthorizationStatus  *authquery.GetAuthorizationStatusQuery
	GetAccount              *authquery.GetAccountQuery
	ListAccounts            *authquery.ListAccountsQuery
	GetActiveAccount        *authquery.GetActiveAccountQuery
	GetDecryptedCredentials *authquery.GetDecryptedCredentialsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("marketplaceauth: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		InitiateAuthorization: authcommand.NewInitiateAuthorizationCommand(service),
		CompleteAuthorization: authcommand.NewCompleteAuthorizationCommand(service),
		RevokeAuthorization:   authcommand.NewRevokeAuthorizationCommand(service),
		RefreshToken:          authcommand.NewRefreshTokenCommand(service),
		ValidateCredentials:   authcommand.NewValidateCredentialsCommand(service),
		CreateAccount:         authcommand.NewCreateAccountCommand(service),
		UpdateAccount:         authcommand.NewUpdateAccountCommand(service),
		DeleteAccount:         authcommand.NewDeleteAccountCommand(service),
		SetActiveAccount:      authcommand.NewSetActiveAccountCommand(service),
		SweepExpiredSessions:  authcommand.NewSweepExpiredSessionsCommand(service),
	}
	facade.queries = Queries{
		GetAuthorizationStatus:  authquery.NewGetAuthorizationStatusQuery(service),
		GetAccount:              authquery.NewGetAccountQuery(service),
		ListAccounts:            authquery.NewListAccountsQuery(service),
		GetActiveAccount:        authquery.NewGetActiveAccountQuery(service),
		GetDecryptedCredentials: authquery.NewGetDecryptedCredentialsQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ CommandQueryService = (*core.Service)(nil)
