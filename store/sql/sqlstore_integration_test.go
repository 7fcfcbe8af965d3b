package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-marketplace-auth/core"
	authmigrations "github.com/goliatone/go-marketplace-auth/migrations"
	sqlstore "github.com/goliatone/go-marketplace-auth/store/sql"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-marketplace-auth-tests"
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:marketplace-auth-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = authmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != authmigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, authmigrations.WithValidationTargets(authmigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}

func newTestFactory(t *testing.T) (*sqlstore.RepositoryFactory, func()) {
	t.Helper()
	client, cleanup := newSQLiteClient(t)
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		cleanup()
		t.Fatalf("build repository factory: %v", err)
	}
	return factory, cleanup
}

func mustCreateAccount(t *testing.T, store core.AccountStore, tenantID string, name string) core.Account {
	t.Helper()
	account, err := store.Create(context.Background(), core.CreateAccountInput{
		TenantID:     tenantID,
		Name:         name,
		ClientID:     "client-" + name,
		ClientSecret: "deadbeef:cafe",
	})
	if err != nil {
		t.Fatalf("create account %s/%s: %v", tenantID, name, err)
	}
	return account
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	for _, table := range []string{"marketplace_accounts", "tenant_settings"} {
		var tableName string
		if err := client.DB().NewRaw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(context.Background(), &tableName); err != nil {
			t.Fatalf("query sqlite master: %v", err)
		}
		if tableName != table {
			t.Fatalf("expected %s table, got %q", table, tableName)
		}
	}
}

func TestAccountStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	store := factory.AccountStore()

	created := mustCreateAccount(t, store, "tenant-1", "eu-storefront")
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.State() != core.AuthStateConfigured {
		t.Fatalf("state = %q, want configured", created.State())
	}

	fetched, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Name != "eu-storefront" || fetched.TenantID != "tenant-1" {
		t.Fatalf("fetched = %+v", fetched)
	}
	if fetched.ClientSecretCiphertext != "deadbeef:cafe" {
		t.Fatalf("secret ciphertext = %q", fetched.ClientSecretCiphertext)
	}

	if _, err := store.Get(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("missing account = %v, want not found", err)
	}
	if _, err := store.GetForTenant(ctx, "tenant-2", created.ID); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("cross-tenant read = %v, want not found", err)
	}
}

func TestAccountStoreDuplicateNamePerTenant(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	store := factory.AccountStore()

	mustCreateAccount(t, store, "tenant-1", "eu-storefront")

	_, err := store.Create(ctx, core.CreateAccountInput{TenantID: "tenant-1", Name: "eu-storefront"})
	if !errors.Is(err, core.ErrDuplicateName) {
		t.Fatalf("duplicate in tenant = %v, want duplicate name", err)
	}

	// same name in another tenant is fine
	mustCreateAccount(t, store, "tenant-2", "eu-storefront")
}

func TestAccountStorePendingSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	store := factory.AccountStore()

	account := mustCreateAccount(t, store, "tenant-1", "eu-storefront")
	if err := store.SavePendingSession(ctx, account.ID, "state-1", "aa:bb"); err != nil {
		t.Fatalf("SavePendingSession: %v", err)
	}

	found, err := store.FindByState(ctx, "state-1")
	if err != nil {
		t.Fatalf("FindByState: %v", err)
	}
	if found.ID != account.ID || found.CodeVerifierCiphertext != "aa:bb" {
		t.Fatalf("found = %+v", found)
	}
	if found.SessionInitiatedAt == nil {
		t.Fatal("expected session timestamp")
	}
	if found.State() != core.AuthStatePending {
		t.Fatalf("state = %q, want pending", found.State())
	}

	// overwrite wins: the old state stops resolving
	if err := store.SavePendingSession(ctx, account.ID, "state-2", "cc:dd"); err != nil {
		t.Fatalf("second SavePendingSession: %v", err)
	}
	if _, err := store.FindByState(ctx, "state-1"); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("stale state = %v, want not found", err)
	}
	if _, err := store.FindByState(ctx, "state-2"); err != nil {
		t.Fatalf("current state: %v", err)
	}

	if err := store.ClearPendingSession(ctx, account.ID); err != nil {
		t.Fatalf("ClearPendingSession: %v", err)
	}
	reloaded, _ := store.Get(ctx, account.ID)
	if reloaded.HasPendingSession() || reloaded.SessionInitiatedAt != nil {
		t.Fatalf("session not cleared: %+v", reloaded)
	}
}

func TestAccountStoreSaveTokenSetClearsSession(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	store := factory.AccountStore()

	account := mustCreateAccount(t, store, "tenant-1", "eu-storefront")
	if err := store.SavePendingSession(ctx, account.ID, "state-1", "aa:bb"); err != nil {
		t.Fatalf("SavePendingSession: %v", err)
	}

	expiresAt := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	err := store.SaveTokenSet(ctx, account.ID, core.SaveTokenSetInput{
		AccessTokenCiphertext:  "11:22",
		RefreshTokenCiphertext: "33:44",
		ExpiresAt:              &expiresAt,
		Scopes:                 "listings.read",
	})
	if err != nil {
		t.Fatalf("SaveTokenSet: %v", err)
	}

	reloaded, _ := store.Get(ctx, account.ID)
	if reloaded.State() != core.AuthStateAuthorized {
		t.Fatalf("state = %q, want authorized", reloaded.State())
	}
	if reloaded.AccessTokenCiphertext != "11:22" || reloaded.RefreshTokenCiphertext != "33:44" {
		t.Fatalf("token ciphertexts = %+v", reloaded)
	}
	if reloaded.HasPendingSession() {
		t.Fatal("token write must clear the pending session")
	}
	if reloaded.TokenExpiresAt == nil || !reloaded.TokenExpiresAt.Equal(expiresAt) {
		t.Fatalf("expires_at = %v, want %v", reloaded.TokenExpiresAt, expiresAt)
	}
}

func TestAccountStoreRevokeKeepsCredentials(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	store := factory.AccountStore()

	account := mustCreateAccount(t, store, "tenant-1", "eu-storefront")
	expiresAt := time.Now().UTC().Add(time.Hour)
	if err := store.SaveTokenSet(ctx, account.ID, core.SaveTokenSetInput{
		AccessTokenCiphertext:  "11:22",
		RefreshTokenCiphertext: "33:44",
		ExpiresAt:              &expiresAt,
		Scopes:                 "listings.read",
	}); err != nil {
		t.Fatalf("SaveTokenSet: %v", err)
	}

	if err := store.Revoke(ctx, account.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	reloaded, _ := store.Get(ctx, account.ID)
	if reloaded.AccessTokenCiphertext != "" || reloaded.RefreshTokenCiphertext != "" {
		t.Fatal("tokens not cleared")
	}
	if reloaded.TokenExpiresAt != nil || reloaded.TokenScopes != "" {
		t.Fatal("expiry and scopes not cleared")
	}
	if reloaded.ClientID == "" || reloaded.ClientSecretCiphertext == "" {
		t.Fatal("revoke must keep client credentials")
	}

	// already revoked: still succeeds
	if err := store.Revoke(ctx, account.ID); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
}

func TestAccountStoreSetActiveExclusivity(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	store := factory.AccountStore()
	tenants := factory.TenantSettingsStore()

	first := mustCreateAccount(t, store, "tenant-1", "first")
	second := mustCreateAccount(t, store, "tenant-1", "second")
	other := mustCreateAccount(t, store, "tenant-2", "other")

	if err := store.SetActive(ctx, "tenant-1", first.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := store.SetActive(ctx, "tenant-2", other.ID); err != nil {
		t.Fatalf("SetActive other tenant: %v", err)
	}
	if err := store.SetActive(ctx, "tenant-1", second.ID); err != nil {
		t.Fatalf("SetActive swap: %v", err)
	}

	accounts, err := store.ListByTenant(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("ListByTenant: %v", err)
	}
	activeCount := 0
	for _, account := range accounts {
		if account.IsActive {
			activeCount++
			if account.ID != second.ID {
				t.Fatalf("active = %s, want %s", account.ID, second.ID)
			}
		}
	}
	if activeCount != 1 {
		t.Fatalf("active count = %d, want exactly 1", activeCount)
	}

	pointer, err := tenants.ActiveAccountID(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("ActiveAccountID: %v", err)
	}
	if pointer != second.ID {
		t.Fatalf("tenant pointer = %q, want %q", pointer, second.ID)
	}

	otherReloaded, _ := store.Get(ctx, other.ID)
	if !otherReloaded.IsActive {
		t.Fatal("tenant-2 active flag must be untouched")
	}

	// cross-tenant activation is rejected and leaves state alone
	if err := store.SetActive(ctx, "tenant-1", other.ID); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("cross-tenant SetActive = %v, want not found", err)
	}
}

func TestAccountStoreClearExpiredSessions(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	store := factory.AccountStore()

	stale := mustCreateAccount(t, store, "tenant-1", "stale")
	fresh := mustCreateAccount(t, store, "tenant-1", "fresh")

	if err := store.SavePendingSession(ctx, stale.ID, "state-stale", "aa:bb"); err != nil {
		t.Fatalf("SavePendingSession stale: %v", err)
	}
	if err := store.SavePendingSession(ctx, fresh.ID, "state-fresh", "cc:dd"); err != nil {
		t.Fatalf("SavePendingSession fresh: %v", err)
	}

	// push only the stale session into the past
	past := time.Now().UTC().Add(-time.Hour)
	if _, err := factory.DB().NewUpdate().
		Table("marketplace_accounts").
		Set("session_initiated_at = ?", past).
		Where("id = ?", stale.ID).
		Exec(ctx); err != nil {
		t.Fatalf("age session: %v", err)
	}

	cleared, err := store.ClearExpiredSessions(ctx, time.Now().UTC().Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("ClearExpiredSessions: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("cleared = %d, want 1", cleared)
	}

	if _, err := store.FindByState(ctx, "state-stale"); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("stale state = %v, want not found", err)
	}
	if _, err := store.FindByState(ctx, "state-fresh"); err != nil {
		t.Fatalf("fresh state: %v", err)
	}
}

func TestAccountStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	store := factory.AccountStore()

	account := mustCreateAccount(t, store, "tenant-1", "eu-storefront")
	mustCreateAccount(t, store, "tenant-1", "us-storefront")

	updated, err := store.Update(ctx, core.UpdateAccountInput{
		TenantID:     "tenant-1",
		AccountID:    account.ID,
		Name:         "eu-main",
		ClientID:     "client-rotated",
		ClientSecret: "ee:ff",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "eu-main" || updated.ClientID != "client-rotated" || updated.ClientSecretCiphertext != "ee:ff" {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := store.Update(ctx, core.UpdateAccountInput{
		TenantID:  "tenant-1",
		AccountID: account.ID,
		Name:      "us-storefront",
	}); !errors.Is(err, core.ErrDuplicateName) {
		t.Fatalf("rename onto sibling = %v, want duplicate name", err)
	}

	if err := store.Delete(ctx, account.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, account.ID); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("deleted account = %v, want not found", err)
	}
	if err := store.Delete(ctx, account.ID); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("double delete = %v, want not found", err)
	}
}

func TestTenantSettingsStorePointerLifecycle(t *testing.T) {
	ctx := context.Background()
	factory, cleanup := newTestFactory(t)
	defer cleanup()
	tenants := factory.TenantSettingsStore()

	// unknown tenant reads as empty, not as an error
	pointer, err := tenants.ActiveAccountID(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("ActiveAccountID: %v", err)
	}
	if pointer != "" {
		t.Fatalf("pointer = %q, want empty", pointer)
	}

	if err := tenants.SetActiveAccountID(ctx, "tenant-1", "account-1"); err != nil {
		t.Fatalf("SetActiveAccountID: %v", err)
	}
	if err := tenants.SetActiveAccountID(ctx, "tenant-1", "account-2"); err != nil {
		t.Fatalf("SetActiveAccountID upsert: %v", err)
	}
	pointer, _ = tenants.ActiveAccountID(ctx, "tenant-1")
	if pointer != "account-2" {
		t.Fatalf("pointer = %q, want account-2", pointer)
	}

	// clearing a stale reference is a no-op
	if err := tenants.ClearActiveAccountID(ctx, "tenant-1", "account-1"); err != nil {
		t.Fatalf("ClearActiveAccountID stale: %v", err)
	}
	pointer, _ = tenants.ActiveAccountID(ctx, "tenant-1")
	if pointer != "account-2" {
		t.Fatalf("pointer = %q, stale clear must not apply", pointer)
	}

	if err := tenants.ClearActiveAccountID(ctx, "tenant-1", "account-2"); err != nil {
		t.Fatalf("ClearActiveAccountID: %v", err)
	}
	pointer, _ = tenants.ActiveAccountID(ctx, "tenant-1")
	if pointer != "" {
		t.Fatalf("pointer = %q, want cleared", pointer)
	}
}
