package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-marketplace-auth/core"
)

// TenantSettingsStore tracks the per-tenant active-account pointer. Reads on
// a tenant with no row return an empty pointer rather than an error.
type TenantSettingsStore struct {
	db *bun.DB
}

func NewTenantSettingsStore(db *bun.DB) (*TenantSettingsStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &TenantSettingsStore{db: db}, nil
}

func (s *TenantSettingsStore) ActiveAccountID(ctx context.Context, tenantID string) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("sqlstore: tenant settings store is not configured")
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return "", fmt.Errorf("%w: empty tenant id", core.ErrTenantNotFound)
	}
	record := &tenantSettingRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.tenant_id = ?", tenantID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	if record.ActiveAccountID == nil {
		return "", nil
	}
	return *record.ActiveAccountID, nil
}

func (s *TenantSettingsStore) SetActiveAccountID(ctx context.Context, tenantID string, accountID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: tenant settings store is not configured")
	}
	tenantID = strings.TrimSpace(tenantID)
	accountID = strings.TrimSpace(accountID)
	if tenantID == "" || accountID == "" {
		return fmt.Errorf("sqlstore: tenant id and account id are required")
	}
	now := time.Now().UTC()
	record := &tenantSettingRecord{
		TenantID:        tenantID,
		ActiveAccountID: &accountID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (tenant_id) DO UPDATE").
		Set("active_account_id = EXCLUDED.active_account_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ClearActiveAccountID drops the pointer only when it still references the
// supplied account, so clearing after a delete never races a newer swap.
func (s *TenantSettingsStore) ClearActiveAccountID(ctx context.Context, tenantID string, accountID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: tenant settings store is not configured")
	}
	now := time.Now().UTC()
	_, err := s.db.NewUpdate().
		Model((*tenantSettingRecord)(nil)).
		Set("active_account_id = NULL").
		Set("updated_at = ?", now).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("active_account_id = ?", strings.TrimSpace(accountID)).
		Exec(ctx)
	return err
}

var _ core.TenantSettingsStore = (*TenantSettingsStore)(nil)
