package marketplaceauth

import "github.com/goliatone/go-marketplace-auth/core"

type Config = core.Config

type MarketplaceConfig = core.MarketplaceConfig

type CipherConfig = core.CipherConfig

type SessionConfig = core.SessionConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type AccountStore = core.AccountStore
type TenantSettingsStore = core.TenantSettingsStore
type Cipher = core.Cipher
type TokenExchanger = core.TokenExchanger
type MetricsRecorder = core.MetricsRecorder

type Account = core.Account
type AuthState = core.AuthState
type CreateAccountInput = core.CreateAccountInput
type UpdateAccountInput = core.UpdateAccountInput

type InitiateResult = core.InitiateResult
type CompleteResult = core.CompleteResult
type AuthorizationStatus = core.AuthorizationStatus
type CredentialValidation = core.CredentialValidation
type DecryptedCredentials = core.DecryptedCredentials
type TokenSet = core.TokenSet

var (
	WithLogger              = core.WithLogger
	WithLoggerProvider      = core.WithLoggerProvider
	WithMetricsRecorder     = core.WithMetricsRecorder
	WithErrorFactory        = core.WithErrorFactory
	WithErrorMapper         = core.WithErrorMapper
	WithCipher              = core.WithCipher
	WithTokenExchanger      = core.WithTokenExchanger
	WithPersistenceClient   = core.WithPersistenceClient
	WithRepositoryFactory   = core.WithRepositoryFactory
	WithConfigProvider      = core.WithConfigProvider
	WithOptionsResolver     = core.WithOptionsResolver
	WithAccountStore        = core.WithAccountStore
	WithTenantSettingsStore = core.WithTenantSettingsStore
	WithClock               = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
