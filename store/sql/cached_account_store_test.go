package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-marketplace-auth/core"
)

type stubAccountStore struct {
	mu          sync.Mutex
	account     core.Account
	getCalls  int
	saveCalls int
	getErr    error
}

func (s *stubAccountStore) Get(_ context.Context, _ string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getErr != nil {
		return core.Account{}, s.getErr
	}
	return s.account, nil
}

func (s *stubAccountStore) Update(_ context.Context, in core.UpdateAccountInput) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name := in.Name; name != "" {
		s.account.Name = name
	}
	return s.account, nil
}

func (s *stubAccountStore) SaveTokenSet(_ context.Context, _ string, in core.SaveTokenSetInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	s.account.AccessTokenCiphertext = in.AccessTokenCiphertext
	s.account.RefreshTokenCiphertext = in.RefreshTokenCiphertext
	return nil
}

func (s *stubAccountStore) Create(_ context.Context, _ core.CreateAccountInput) (core.Account, error) {
	return core.Account{}, errors.New("stub: create not supported")
}

func (s *stubAccountStore) GetForTenant(_ context.Context, _ string, _ string) (core.Account, error) {
	return core.Account{}, errors.New("stub: get for tenant not supported")
}

func (s *stubAccountStore) ListByTenant(_ context.Context, _ string) ([]core.Account, error) {
	return nil, nil
}

func (s *stubAccountStore) Delete(_ context.Context, _ string) error {
	return errors.New("stub: delete not supported")
}

func (s *stubAccountStore) FindByState(_ context.Context, _ string) (core.Account, error) {
	return core.Account{}, core.ErrAccountNotFound
}

func (s *stubAccountStore) SavePendingSession(_ context.Context, _ string, _ string, _ string) error {
	return errors.New("stub: save pending session not supported")
}

func (s *stubAccountStore) ClearPendingSession(_ context.Context, _ string) error {
	return errors.New("stub: clear pending session not supported")
}

func (s *stubAccountStore) Revoke(_ context.Context, _ string) error {
	return errors.New("stub: revoke not supported")
}

func (s *stubAccountStore) SetActive(_ context.Context, _ string, _ string) error {
	return errors.New("stub: set active not supported")
}

func (s *stubAccountStore) ClearExpiredSessions(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

var _ core.AccountStore = (*stubAccountStore)(nil)

func newTestAccountCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func TestCachedAccountStore_Get_MissFetchThenHit(t *testing.T) {
	cacheService := newTestAccountCacheService(t)
	base := &stubAccountStore{account: core.Account{
		ID:       "acct-cache-1",
		TenantID: "tenant-1",
		Name:     "eu-storefront",
		ClientID: "client-abc",
	}}

	store, err := NewCachedAccountStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached account store: %v", err)
	}

	if _, err := store.Get(context.Background(), "acct-cache-1"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected first get to fetch base store once, got %d", base.getCalls)
	}

	account, err := store.Get(context.Background(), "acct-cache-1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected second get to be cache hit, base get calls=%d", base.getCalls)
	}
	if account.Name != "eu-storefront" {
		t.Fatalf("cached account = %+v", account)
	}
}

func TestCachedAccountStore_WritesInvalidateCachedAccount(t *testing.T) {
	cacheService := newTestAccountCacheService(t)
	base := &stubAccountStore{account: core.Account{
		ID:       "acct-cache-2",
		TenantID: "tenant-1",
		Name:     "eu-storefront",
	}}

	store, err := NewCachedAccountStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached account store: %v", err)
	}

	if _, err := store.Get(context.Background(), "acct-cache-2"); err != nil {
		t.Fatalf("prime cache with get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected one base read after cache prime, got %d", base.getCalls)
	}

	if err := store.SaveTokenSet(context.Background(), "acct-cache-2", core.SaveTokenSetInput{
		AccessTokenCiphertext: "11:22",
	}); err != nil {
		t.Fatalf("save token set through cached store: %v", err)
	}
	if base.saveCalls != 1 {
		t.Fatalf("expected base save call count=1, got %d", base.saveCalls)
	}

	account, err := store.Get(context.Background(), "acct-cache-2")
	if err != nil {
		t.Fatalf("get after invalidation: %v", err)
	}
	if base.getCalls != 2 {
		t.Fatalf("expected invalidated key to force second base read, got %d", base.getCalls)
	}
	if account.AccessTokenCiphertext != "11:22" {
		t.Fatalf("expected refreshed account, got %+v", account)
	}
}

func TestAccountCacheKey_Contract(t *testing.T) {
	key, err := AccountCacheKey("  acct/alpha one  ")
	if err != nil {
		t.Fatalf("build cache key: %v", err)
	}

	const expected = "go-marketplace-auth::account::v1::acct%2Falpha%20one"
	if key != expected {
		t.Fatalf("unexpected cache key contract: got %q want %q", key, expected)
	}

	if _, err := AccountCacheKey("   "); err == nil {
		t.Fatal("expected empty account id to be rejected")
	}
}

func TestCachedAccountStore_PropagatesBaseErrors(t *testing.T) {
	cacheService := newTestAccountCacheService(t)
	base := &stubAccountStore{getErr: core.ErrAccountNotFound}

	store, err := NewCachedAccountStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached account store: %v", err)
	}

	if _, err := store.Get(context.Background(), "acct-missing"); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("base error = %v, want not found", err)
	}
}
