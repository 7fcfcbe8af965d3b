package marketplaceauth

import (
	"fmt"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-marketplace-auth/core"
	"github.com/goliatone/go-marketplace-auth/marketplace"
	"github.com/goliatone/go-marketplace-auth/security"
	sqlstore "github.com/goliatone/go-marketplace-auth/store/sql"
)

// NewDefaultService assembles the full production stack: AES-GCM cipher from
// the configured key, HTTP token exchanger against the marketplace endpoints,
// and bun-backed stores built from the supplied persistence client. Options
// are applied after the defaults so callers can still override any piece.
func NewDefaultService(cfg Config, persistenceClient any, opts ...Option) (*Service, error) {
	return newDefaultService(cfg, persistenceClient, nil, opts...)
}

// NewDefaultServiceWithCache is NewDefaultService with the account read path
// layered behind a go-repository-cache service. Only single-account reads are
// cached; session and listing lookups always hit the database.
func NewDefaultServiceWithCache(cfg Config, persistenceClient any, cacheService repositorycache.CacheService, opts ...Option) (*Service, error) {
	if cacheService == nil {
		return nil, fmt.Errorf("marketplaceauth: cache service is required")
	}
	return newDefaultService(cfg, persistenceClient, cacheService, opts...)
}

func newDefaultService(cfg Config, persistenceClient any, cacheService repositorycache.CacheService, opts ...Option) (*Service, error) {
	cipher, err := security.NewCipherFromConfig(cfg.Cipher, nil)
	if err != nil {
		return nil, fmt.Errorf("marketplaceauth: resolve cipher: %w", err)
	}
	exchanger, err := marketplace.NewClientFromConfig(cfg.Marketplace)
	if err != nil {
		return nil, fmt.Errorf("marketplaceauth: build token exchanger: %w", err)
	}

	combined := make([]Option, 0, len(opts)+4)
	combined = append(combined,
		core.WithCipher(cipher),
		core.WithTokenExchanger(exchanger),
	)

	if cacheService != nil {
		stores, err := sqlstore.NewRepositoryFactory().BuildStores(persistenceClient)
		if err != nil {
			return nil, fmt.Errorf("marketplaceauth: build stores: %w", err)
		}
		cached, err := sqlstore.NewCachedAccountStore(stores.AccountStore(), cacheService)
		if err != nil {
			return nil, fmt.Errorf("marketplaceauth: layer account cache: %w", err)
		}
		combined = append(combined,
			core.WithAccountStore(cached),
			core.WithTenantSettingsStore(stores.TenantSettingsStore()),
		)
	} else {
		combined = append(combined,
			core.WithRepositoryFactory(sqlstore.NewRepositoryFactory()),
			core.WithPersistenceClient(persistenceClient),
		)
	}
	combined = append(combined, opts...)

	return core.NewService(cfg, combined...)
}

// NewDefaultFacade builds the default service and exposes it behind the
// command/query facade.
func NewDefaultFacade(cfg Config, persistenceClient any, opts ...Option) (*Facade, error) {
	service, err := NewDefaultService(cfg, persistenceClient, opts...)
	if err != nil {
		return nil, err
	}
	return NewFacade(service)
}
