package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-marketplace-auth/core"
)

const accountCacheKeyPrefix = "go-marketplace-auth::account::v1"

// CachedAccountStore layers a read cache over an account store. Only Get is
// cached: state lookups and tenant listings change with every authorization
// attempt, so caching them would serve stale session material. Every write
// path invalidates the account's entry before delegating.
type CachedAccountStore struct {
	base  core.AccountStore
	cache repositorycache.CacheService
}

func NewCachedAccountStore(base core.AccountStore, cacheService repositorycache.CacheService) (*CachedAccountStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base account store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: account cache service is required")
	}
	return &CachedAccountStore{base: base, cache: cacheService}, nil
}

// AccountCacheKey returns the deterministic cache key for an account read:
// go-marketplace-auth::account::v1::<id> with the id URL-path escaped.
func AccountCacheKey(accountID string) (string, error) {
	trimmed := strings.TrimSpace(accountID)
	if trimmed == "" {
		return "", fmt.Errorf("sqlstore: account id is required")
	}
	return accountCacheKeyPrefix + "::" + url.PathEscape(trimmed), nil
}

func (s *CachedAccountStore) Get(ctx context.Context, id string) (core.Account, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Account{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	cacheKey, err := AccountCacheKey(id)
	if err != nil {
		return core.Account{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Account, error) {
		return s.base.Get(ctx, id)
	})
}

func (s *CachedAccountStore) GetForTenant(ctx context.Context, tenantID string, id string) (core.Account, error) {
	if s == nil || s.base == nil {
		return core.Account{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	return s.base.GetForTenant(ctx, tenantID, id)
}

func (s *CachedAccountStore) ListByTenant(ctx context.Context, tenantID string) ([]core.Account, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	return s.base.ListByTenant(ctx, tenantID)
}

func (s *CachedAccountStore) FindByState(ctx context.Context, state string) (core.Account, error) {
	if s == nil || s.base == nil {
		return core.Account{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	return s.base.FindByState(ctx, state)
}

func (s *CachedAccountStore) Create(ctx context.Context, in core.CreateAccountInput) (core.Account, error) {
	if s == nil || s.base == nil {
		return core.Account{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	return s.base.Create(ctx, in)
}

func (s *CachedAccountStore) Update(ctx context.Context, in core.UpdateAccountInput) (core.Account, error) {
	if s == nil || s.base == nil {
		return core.Account{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	if err := s.invalidate(ctx, in.AccountID); err != nil {
		return core.Account{}, err
	}
	return s.base.Update(ctx, in)
}

func (s *CachedAccountStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached account store is not configured")
	}
	if err := s.invalidate(ctx, id); err != nil {
		return err
	}
	return s.base.Delete(ctx, id)
}

func (s *CachedAccountStore) SavePendingSession(ctx context.Context, accountID string, state string, verifierCiphertext string) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached account store is not configured")
	}
	if err := s.invalidate(ctx, accountID); err != nil {
		return err
	}
	return s.base.SavePendingSession(ctx, accountID, state, verifierCiphertext)
}

func (s *CachedAccountStore) ClearPendingSession(ctx context.Context, accountID string) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached account store is not configured")
	}
	if err := s.invalidate(ctx, accountID); err != nil {
		return err
	}
	return s.base.ClearPendingSession(ctx, accountID)
}

func (s *CachedAccountStore) SaveTokenSet(ctx context.Context, accountID string, in core.SaveTokenSetInput) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached account store is not configured")
	}
	if err := s.invalidate(ctx, accountID); err != nil {
		return err
	}
	return s.base.SaveTokenSet(ctx, accountID, in)
}

func (s *CachedAccountStore) Revoke(ctx context.Context, accountID string) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached account store is not configured")
	}
	if err := s.invalidate(ctx, accountID); err != nil {
		return err
	}
	return s.base.Revoke(ctx, accountID)
}

func (s *CachedAccountStore) SetActive(ctx context.Context, tenantID string, accountID string) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached account store is not configured")
	}
	// the deactivate-all sweep can touch any sibling, so flush siblings too
	siblings, err := s.base.ListByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, sibling := range siblings {
		if invErr := s.invalidate(ctx, sibling.ID); invErr != nil {
			return invErr
		}
	}
	return s.base.SetActive(ctx, tenantID, accountID)
}

func (s *CachedAccountStore) ClearExpiredSessions(ctx context.Context, before time.Time) (int, error) {
	if s == nil || s.base == nil {
		return 0, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	// the bulk sweep bypasses per-id invalidation; pending session reads go
	// through FindByState which is never cached
	return s.base.ClearExpiredSessions(ctx, before)
}

func (s *CachedAccountStore) invalidate(ctx context.Context, accountID string) error {
	cacheKey, err := AccountCacheKey(accountID)
	if err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		return fmt.Errorf("sqlstore: invalidate account cache: %w", err)
	}
	return nil
}

var _ core.AccountStore = (*CachedAccountStore)(nil)
