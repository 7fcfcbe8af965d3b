package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service orchestrates the authorization flow for marketplace accounts:
// initiate, complete, status, revoke, credential validation, and on-demand
// token refresh. All side effects are persistence writes through the account
// store; there is no background scheduling here.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	cipher            Cipher
	exchanger         TokenExchanger
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	accountStore      AccountStore
	tenantStore       TenantSettingsStore
	now               func() time.Time
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	Cipher            Cipher
	TokenExchanger    TokenExchanger
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	AccountStore      AccountStore
	TenantStore       TenantSettingsStore
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("marketplace-auth", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("marketplace-auth"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	if err := finalConfig.ValidateEndpoints(); err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.cipher == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("%w: cipher is required", ErrConfig))
	}
	if builder.exchanger == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("%w: token exchanger is required", ErrConfig))
	}

	if (builder.accountStore == nil || builder.tenantStore == nil) && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				if builder.accountStore == nil {
					builder.accountStore = storeProvider.AccountStore()
				}
				if builder.tenantStore == nil {
					builder.tenantStore = storeProvider.TenantSettingsStore()
				}
			}
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			if builder.accountStore == nil {
				builder.accountStore = storeProvider.AccountStore()
			}
			if builder.tenantStore == nil {
				builder.tenantStore = storeProvider.TenantSettingsStore()
			}
		}
	}
	if builder.accountStore == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("%w: account store is required", ErrConfig))
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		cipher:            builder.cipher,
		exchanger:         builder.exchanger,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		accountStore:      builder.accountStore,
		tenantStore:       builder.tenantStore,
		now:               builder.now,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		Cipher:            s.cipher,
		TokenExchanger:    s.exchanger,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		AccountStore:      s.accountStore,
		TenantStore:       s.tenantStore,
	}
}

// Initiate starts a new authorization attempt for an account. Any pending
// session is overwritten: a second initiate always wins and the earlier state
// becomes permanently invalid.
func (s *Service) Initiate(ctx context.Context, accountID string) (result InitiateResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"account_id": accountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "initiate", err, fields)
	}()

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return InitiateResult{}, err
	}
	fields["tenant_id"] = account.TenantID

	if strings.TrimSpace(account.ClientID) == "" {
		err = s.mapError(fmt.Errorf("%w: account %q", ErrCredentialsRequired, account.ID))
		return InitiateResult{}, err
	}
	redirectURI := NormalizeRedirectURI(s.config.Marketplace.RedirectURI)
	if redirectURI == "" {
		err = s.mapError(fmt.Errorf("%w: marketplace.redirect_uri is not configured", ErrConfig))
		return InitiateResult{}, err
	}

	state, err := NewState()
	if err != nil {
		err = s.mapError(err)
		return InitiateResult{}, err
	}
	pkce, err := NewPKCE()
	if err != nil {
		err = s.mapError(err)
		return InitiateResult{}, err
	}
	verifierCiphertext, err := s.cipher.Encrypt(pkce.Verifier)
	if err != nil {
		err = s.mapError(err)
		return InitiateResult{}, err
	}

	if err = s.accountStore.SavePendingSession(ctx, account.ID, state, verifierCiphertext); err != nil {
		err = s.mapError(err)
		return InitiateResult{}, err
	}

	values := url.Values{}
	values.Set("response_type", "code")
	values.Set("client_id", account.ClientID)
	values.Set("redirect_uri", redirectURI)
	values.Set("state", state)
	values.Set("code_challenge", pkce.Challenge)
	values.Set("code_challenge_method", "S256")
	if scopes := strings.TrimSpace(s.config.Marketplace.Scopes); scopes != "" {
		values.Set("scope", scopes)
	}

	authorizeURL := strings.TrimSpace(s.config.Marketplace.AuthorizeURL)
	if strings.Contains(authorizeURL, "?") {
		authorizeURL += "&" + values.Encode()
	} else {
		authorizeURL += "?" + values.Encode()
	}

	return InitiateResult{
		AuthorizeURL: authorizeURL,
		State:        state,
	}, nil
}

// Complete consumes the callback delivered by the marketplace redirect. A
// decryption failure on the stored verifier or client secret clears the
// pending session before surfacing, so the remedy is always a fresh initiate.
// An upstream rejection (expired or reused code) clears the session too;
// transport failures leave it intact because the code is still exchangeable.
func (s *Service) Complete(ctx context.Context, code string, state string) (result CompleteResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "complete", err, fields)
	}()

	if s == nil || s.accountStore == nil {
		return CompleteResult{}, fmt.Errorf("core: service is not configured")
	}

	state = strings.TrimSpace(state)
	if state == "" {
		err = s.mapError(fmt.Errorf("%w: empty state", ErrInvalidState))
		return CompleteResult{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		err = s.mapError(fmt.Errorf("core: authorization code is required"))
		return CompleteResult{}, err
	}

	account, findErr := s.accountStore.FindByState(ctx, state)
	if findErr != nil {
		if errors.Is(findErr, ErrAccountNotFound) {
			err = s.mapError(fmt.Errorf("%w: %s", ErrInvalidState, DescribeSecret(state)))
			return CompleteResult{}, err
		}
		err = s.mapError(findErr)
		return CompleteResult{}, err
	}
	fields["account_id"] = account.ID
	fields["tenant_id"] = account.TenantID

	if strings.TrimSpace(account.OAuthState) != state {
		err = s.mapError(ErrStateMismatch)
		return CompleteResult{}, err
	}

	verifier, decryptErr := s.cipher.Decrypt(account.CodeVerifierCiphertext)
	if decryptErr != nil {
		s.clearSessionAfterFailure(ctx, account.ID, "verifier", decryptErr)
		err = s.mapError(fmt.Errorf("%w: pending code verifier", ErrDecryptionFailed))
		return CompleteResult{}, err
	}
	clientSecret, decryptErr := s.cipher.Decrypt(account.ClientSecretCiphertext)
	if decryptErr != nil {
		s.clearSessionAfterFailure(ctx, account.ID, "client_secret", decryptErr)
		err = s.mapError(fmt.Errorf("%w: client secret", ErrDecryptionFailed))
		return CompleteResult{}, err
	}

	redirectURI := NormalizeRedirectURI(s.config.Marketplace.RedirectURI)
	creds := ClientCredentials{ClientID: account.ClientID, ClientSecret: clientSecret}
	tokenSet, exchangeErr := s.exchanger.ExchangeCode(ctx, creds, code, verifier, redirectURI)
	if exchangeErr != nil {
		var xerr *ExchangeError
		if errors.As(exchangeErr, &xerr) && xerr.Rejected() {
			// the code is spent; only a new initiate can recover
			s.clearSessionAfterFailure(ctx, account.ID, "exchange_rejected", exchangeErr)
		}
		err = s.mapError(exchangeErr)
		return CompleteResult{}, err
	}

	saveInput, encodeErr := s.encryptTokenSet(tokenSet)
	if encodeErr != nil {
		err = s.mapError(encodeErr)
		return CompleteResult{}, err
	}
	if err = s.accountStore.SaveTokenSet(ctx, account.ID, saveInput); err != nil {
		err = s.mapError(err)
		return CompleteResult{}, err
	}

	return CompleteResult{
		AccountID: account.ID,
		TenantID:  account.TenantID,
		ExpiresAt: cloneTimePointer(saveInput.ExpiresAt),
		Scopes:    saveInput.Scopes,
	}, nil
}

// Status reports authorization from stored fields only. It never contacts the
// upstream API and never compares expiry against now; expiry is informational
// at this layer.
func (s *Service) Status(ctx context.Context, accountID string) (AuthorizationStatus, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return AuthorizationStatus{}, err
	}
	if strings.TrimSpace(account.AccessTokenCiphertext) == "" {
		return AuthorizationStatus{}, nil
	}
	return AuthorizationStatus{
		Authorized: true,
		ExpiresAt:  cloneTimePointer(account.TokenExpiresAt),
		Scopes:     account.TokenScopes,
	}, nil
}

// Revoke clears the account's token set and any pending session. It is
// idempotent: revoking an already-unauthorized account succeeds.
func (s *Service) Revoke(ctx context.Context, accountID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"account_id": accountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "revoke", err, fields)
	}()

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if err = s.accountStore.Revoke(ctx, account.ID); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

// ValidateCredentials checks a client id/secret pair against the marketplace
// with a client-credentials grant. Invalid credentials are a result, not an
// error; a missing endpoint is a configuration error.
func (s *Service) ValidateCredentials(ctx context.Context, clientID string, clientSecret string) (result CredentialValidation, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "validate_credentials", err, map[string]any{})
	}()

	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	if clientID == "" {
		err = s.mapError(fmt.Errorf("core: client id is required"))
		return CredentialValidation{}, err
	}
	if clientSecret == "" {
		err = s.mapError(fmt.Errorf("core: client secret is required"))
		return CredentialValidation{}, err
	}

	result, validateErr := s.exchanger.ValidateCredentials(ctx, ClientCredentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
	if validateErr != nil {
		err = s.mapError(validateErr)
		return CredentialValidation{}, err
	}
	return result, nil
}

// RefreshToken exchanges the stored refresh token for a fresh token set. A
// refresh token that no longer decrypts clears the whole token set, since a
// half-usable credential is worse than an explicit reauthorization.
func (s *Service) RefreshToken(ctx context.Context, accountID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"account_id": accountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "refresh_token", err, fields)
	}()

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return err
	}
	fields["tenant_id"] = account.TenantID
	if strings.TrimSpace(account.RefreshTokenCiphertext) == "" {
		err = s.mapError(fmt.Errorf("core: account %q has no refresh token", account.ID))
		return err
	}

	refreshToken, decryptErr := s.cipher.Decrypt(account.RefreshTokenCiphertext)
	if decryptErr != nil {
		if revokeErr := s.accountStore.Revoke(ctx, account.ID); revokeErr != nil {
			s.logError(ctx, "clear token set after refresh token decryption failure", map[string]any{
				"account_id": account.ID,
				"error":      revokeErr.Error(),
			})
		}
		err = s.mapError(fmt.Errorf("%w: refresh token", ErrDecryptionFailed))
		return err
	}
	clientSecret, decryptErr := s.cipher.Decrypt(account.ClientSecretCiphertext)
	if decryptErr != nil {
		err = s.mapError(fmt.Errorf("%w: client secret", ErrDecryptionFailed))
		return err
	}

	creds := ClientCredentials{ClientID: account.ClientID, ClientSecret: clientSecret}
	tokenSet, refreshErr := s.exchanger.Refresh(ctx, creds, refreshToken)
	if refreshErr != nil {
		err = s.mapError(refreshErr)
		return err
	}
	if strings.TrimSpace(tokenSet.RefreshToken) == "" {
		tokenSet.RefreshToken = refreshToken
	}

	saveInput, encodeErr := s.encryptTokenSet(tokenSet)
	if encodeErr != nil {
		err = s.mapError(encodeErr)
		return err
	}
	if err = s.accountStore.SaveTokenSet(ctx, account.ID, saveInput); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

// GetDecryptedCredentials decrypts each secret field independently. One
// corrupt field never blocks the read of the others; the caller sees which
// fields failed and why.
func (s *Service) GetDecryptedCredentials(ctx context.Context, accountID string) (DecryptedCredentials, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return DecryptedCredentials{}, err
	}

	out := DecryptedCredentials{
		ClientID:  account.ClientID,
		ExpiresAt: cloneTimePointer(account.TokenExpiresAt),
		Scopes:    account.TokenScopes,
	}
	out.ClientSecret = s.decryptField(account.ClientSecretCiphertext)
	out.AccessToken = s.decryptField(account.AccessTokenCiphertext)
	out.RefreshToken = s.decryptField(account.RefreshTokenCiphertext)
	return out, nil
}

// SweepExpiredSessions clears pending sessions older than the configured TTL.
// Called from maintenance jobs, never from the request path.
func (s *Service) SweepExpiredSessions(ctx context.Context) (cleared int, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		fields["cleared"] = cleared
		s.observeOperation(ctx, startedAt, "sweep_expired_sessions", err, fields)
	}()

	ttl := s.config.Session.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingSessionTTL
	}
	cutoff := s.now().Add(-ttl)
	cleared, err = s.accountStore.ClearExpiredSessions(ctx, cutoff)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}
	return cleared, nil
}

func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (account Account, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"tenant_id": in.TenantID}
	defer func() {
		s.observeOperation(ctx, startedAt, "create_account", err, fields)
	}()

	in.TenantID = strings.TrimSpace(in.TenantID)
	in.Name = strings.TrimSpace(in.Name)
	if in.TenantID == "" {
		err = s.mapError(fmt.Errorf("core: tenant id is required"))
		return Account{}, err
	}
	if in.Name == "" {
		err = s.mapError(fmt.Errorf("core: account name is required"))
		return Account{}, err
	}
	if secret := strings.TrimSpace(in.ClientSecret); secret != "" {
		encrypted, encryptErr := s.cipher.Encrypt(secret)
		if encryptErr != nil {
			err = s.mapError(encryptErr)
			return Account{}, err
		}
		in.ClientSecret = encrypted
	}

	account, err = s.accountStore.Create(ctx, in)
	if err != nil {
		err = s.mapError(err)
		return Account{}, err
	}
	fields["account_id"] = account.ID
	return account, nil
}

func (s *Service) UpdateAccount(ctx context.Context, in UpdateAccountInput) (account Account, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"tenant_id": in.TenantID, "account_id": in.AccountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "update_account", err, fields)
	}()

	if secret := strings.TrimSpace(in.ClientSecret); secret != "" {
		encrypted, encryptErr := s.cipher.Encrypt(secret)
		if encryptErr != nil {
			err = s.mapError(encryptErr)
			return Account{}, err
		}
		in.ClientSecret = encrypted
	}
	account, err = s.accountStore.Update(ctx, in)
	if err != nil {
		err = s.mapError(err)
		return Account{}, err
	}
	return account, nil
}

// DeleteAccount removes the account and, when it was the tenant's active
// account, clears the tenant's preference pointer too.
func (s *Service) DeleteAccount(ctx context.Context, tenantID string, accountID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"tenant_id": tenantID, "account_id": accountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "delete_account", err, fields)
	}()

	account, err := s.getAccountForTenant(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if err = s.accountStore.Delete(ctx, account.ID); err != nil {
		err = s.mapError(err)
		return err
	}
	if s.tenantStore != nil {
		if clearErr := s.tenantStore.ClearActiveAccountID(ctx, account.TenantID, account.ID); clearErr != nil {
			err = s.mapError(clearErr)
			return err
		}
	}
	return nil
}

func (s *Service) ListAccounts(ctx context.Context, tenantID string) ([]Account, error) {
	if s == nil || s.accountStore == nil {
		return nil, fmt.Errorf("core: service is not configured")
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, s.mapError(fmt.Errorf("core: tenant id is required"))
	}
	accounts, err := s.accountStore.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return accounts, nil
}

// SetActiveAccount makes the target the tenant's single active account. The
// store performs the deactivate-all/activate-one swap and the preference
// pointer update in one transaction.
func (s *Service) SetActiveAccount(ctx context.Context, tenantID string, accountID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"tenant_id": tenantID, "account_id": accountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "set_active_account", err, fields)
	}()

	if err = s.accountStore.SetActive(ctx, strings.TrimSpace(tenantID), strings.TrimSpace(accountID)); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

// GetAccount loads a tenant-scoped account. Accounts belonging to other
// tenants surface as not found.
func (s *Service) GetAccount(ctx context.Context, tenantID string, accountID string) (Account, error) {
	if s == nil || s.accountStore == nil {
		return Account{}, fmt.Errorf("core: service is not configured")
	}
	account, err := s.getAccountForTenant(ctx, tenantID, accountID)
	if err != nil {
		return Account{}, s.mapError(err)
	}
	return account, nil
}

// ActiveAccount resolves the tenant's current active account, preferring the
// preference pointer and falling back to the active flag on the rows.
func (s *Service) ActiveAccount(ctx context.Context, tenantID string) (Account, error) {
	if s == nil || s.accountStore == nil {
		return Account{}, fmt.Errorf("core: service is not configured")
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return Account{}, s.mapError(fmt.Errorf("core: tenant id is required"))
	}
	if s.tenantStore != nil {
		pointer, err := s.tenantStore.ActiveAccountID(ctx, tenantID)
		if err != nil {
			return Account{}, s.mapError(err)
		}
		if pointer != "" {
			account, err := s.accountStore.GetForTenant(ctx, tenantID, pointer)
			if err == nil {
				return account, nil
			}
			if !errors.Is(err, ErrAccountNotFound) {
				return Account{}, s.mapError(err)
			}
			// dangling pointer; fall through to the flag scan
		}
	}
	accounts, err := s.accountStore.ListByTenant(ctx, tenantID)
	if err != nil {
		return Account{}, s.mapError(err)
	}
	for _, account := range accounts {
		if account.IsActive {
			return account, nil
		}
	}
	return Account{}, s.mapError(fmt.Errorf("%w: tenant %q has no active account", ErrAccountNotFound, tenantID))
}

func (s *Service) getAccount(ctx context.Context, accountID string) (Account, error) {
	if s == nil || s.accountStore == nil {
		return Account{}, fmt.Errorf("core: service is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return Account{}, s.mapError(fmt.Errorf("core: account id is required"))
	}
	account, err := s.accountStore.Get(ctx, accountID)
	if err != nil {
		return Account{}, s.mapError(err)
	}
	return account, nil
}

func (s *Service) getAccountForTenant(ctx context.Context, tenantID string, accountID string) (Account, error) {
	if s == nil || s.accountStore == nil {
		return Account{}, fmt.Errorf("core: service is not configured")
	}
	tenantID = strings.TrimSpace(tenantID)
	accountID = strings.TrimSpace(accountID)
	if tenantID == "" || accountID == "" {
		return Account{}, s.mapError(fmt.Errorf("core: tenant id and account id are required"))
	}
	account, err := s.accountStore.GetForTenant(ctx, tenantID, accountID)
	if err != nil {
		return Account{}, s.mapError(err)
	}
	return account, nil
}

func (s *Service) decryptField(ciphertext string) FieldResult {
	if strings.TrimSpace(ciphertext) == "" {
		return FieldResult{}
	}
	plaintext, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		return FieldResult{Err: fmt.Errorf("%w: %s", ErrDecryptionFailed, DescribeSecret(ciphertext))}
	}
	return FieldResult{Value: plaintext}
}

func (s *Service) encryptTokenSet(tokenSet TokenSet) (SaveTokenSetInput, error) {
	accessCiphertext, err := s.cipher.Encrypt(strings.TrimSpace(tokenSet.AccessToken))
	if err != nil {
		return SaveTokenSetInput{}, err
	}
	refreshCiphertext := ""
	if refresh := strings.TrimSpace(tokenSet.RefreshToken); refresh != "" {
		refreshCiphertext, err = s.cipher.Encrypt(refresh)
		if err != nil {
			return SaveTokenSetInput{}, err
		}
	}
	return SaveTokenSetInput{
		AccessTokenCiphertext:  accessCiphertext,
		RefreshTokenCiphertext: refreshCiphertext,
		ExpiresAt:              cloneTimePointer(tokenSet.ExpiresAt),
		Scopes:                 strings.TrimSpace(tokenSet.Scopes),
	}, nil
}

func (s *Service) clearSessionAfterFailure(ctx context.Context, accountID string, reason string, cause error) {
	if s == nil || s.accountStore == nil {
		return
	}
	if err := s.accountStore.ClearPendingSession(ctx, accountID); err != nil {
		s.logError(ctx, "clear pending session", map[string]any{
			"account_id": accountID,
			"reason":     reason,
			"error":      err.Error(),
		})
		return
	}
	fields := map[string]any{
		"account_id": accountID,
		"reason":     reason,
	}
	if cause != nil {
		fields["cause"] = cause.Error()
	}
	s.logInfo(ctx, "pending session cleared", RedactSensitiveMap(fields))
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
