package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-marketplace-auth/core"
)

// AccountStore persists marketplace accounts in bun. Session, token, and
// revocation writes each touch a single row; SetActive is the only multi-row
// operation and runs in a transaction.
type AccountStore struct {
	db   *bun.DB
	repo repository.Repository[*accountRecord]
}

func (s *AccountStore) Create(ctx context.Context, in core.CreateAccountInput) (core.Account, error) {
	if s == nil || s.repo == nil {
		return core.Account{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	tenantID := strings.TrimSpace(in.TenantID)
	name := strings.TrimSpace(in.Name)
	if tenantID == "" {
		return core.Account{}, fmt.Errorf("sqlstore: tenant id is required")
	}
	if name == "" {
		return core.Account{}, fmt.Errorf("sqlstore: account name is required")
	}

	exists, err := s.db.NewSelect().
		Model((*accountRecord)(nil)).
		Where("?TableAlias.tenant_id = ?", tenantID).
		Where("?TableAlias.name = ?", name).
		Exists(ctx)
	if err != nil {
		return core.Account{}, err
	}
	if exists {
		return core.Account{}, fmt.Errorf("%w: %q", core.ErrDuplicateName, name)
	}

	record := newAccountRecord(in, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Account{}, err
	}
	return created.toDomain(), nil
}

func (s *AccountStore) Get(ctx context.Context, id string) (core.Account, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	return record.toDomain(), nil
}

func (s *AccountStore) GetForTenant(ctx context.Context, tenantID string, id string) (core.Account, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	if record.TenantID != strings.TrimSpace(tenantID) {
		return core.Account{}, fmt.Errorf("%w: id %q", core.ErrAccountNotFound, strings.TrimSpace(id))
	}
	return record.toDomain(), nil
}

func (s *AccountStore) ListByTenant(ctx context.Context, tenantID string) ([]core.Account, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: account store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("tenant_id", "=", strings.TrimSpace(tenantID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Account, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *AccountStore) Update(ctx context.Context, in core.UpdateAccountInput) (core.Account, error) {
	if s == nil || s.repo == nil {
		return core.Account{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	record, err := s.getRecord(ctx, in.AccountID)
	if err != nil {
		return core.Account{}, err
	}
	if record.TenantID != strings.TrimSpace(in.TenantID) {
		return core.Account{}, fmt.Errorf("%w: id %q", core.ErrAccountNotFound, strings.TrimSpace(in.AccountID))
	}

	if name := strings.TrimSpace(in.Name); name != "" && name != record.Name {
		taken, existsErr := s.db.NewSelect().
			Model((*accountRecord)(nil)).
			Where("?TableAlias.tenant_id = ?", record.TenantID).
			Where("?TableAlias.name = ?", name).
			Where("?TableAlias.id != ?", record.ID).
			Exists(ctx)
		if existsErr != nil {
			return core.Account{}, existsErr
		}
		if taken {
			return core.Account{}, fmt.Errorf("%w: %q", core.ErrDuplicateName, name)
		}
		record.Name = name
	}
	if clientID := strings.TrimSpace(in.ClientID); clientID != "" {
		record.ClientID = clientID
	}
	if in.ClientSecret != "" {
		record.ClientSecretCiphertext = strings.TrimSpace(in.ClientSecret)
	}
	record.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, record, repository.UpdateByID(record.ID))
	if err != nil {
		return core.Account{}, err
	}
	return updated.toDomain(), nil
}

func (s *AccountStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: account store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: account id is required")
	}
	result, err := s.db.NewDelete().
		Model((*accountRecord)(nil)).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %q", core.ErrAccountNotFound, trimmedID)
	}
	return nil
}

func (s *AccountStore) FindByState(ctx context.Context, state string) (core.Account, error) {
	if s == nil || s.db == nil {
		return core.Account{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	state = strings.TrimSpace(state)
	if state == "" {
		return core.Account{}, fmt.Errorf("%w: empty state", core.ErrAccountNotFound)
	}
	record := &accountRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.oauth_state = ?", state).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Account{}, fmt.Errorf("%w: state %s", core.ErrAccountNotFound, core.DescribeSecret(state))
		}
		return core.Account{}, err
	}
	return record.toDomain(), nil
}

func (s *AccountStore) SavePendingSession(ctx context.Context, accountID string, state string, verifierCiphertext string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: account store is not configured")
	}
	now := time.Now().UTC()
	return s.updateOne(ctx, accountID, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("oauth_state = ?", strings.TrimSpace(state)).
			Set("code_verifier_ciphertext = ?", strings.TrimSpace(verifierCiphertext)).
			Set("session_initiated_at = ?", now).
			Set("updated_at = ?", now)
	})
}

func (s *AccountStore) ClearPendingSession(ctx context.Context, accountID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: account store is not configured")
	}
	now := time.Now().UTC()
	return s.updateOne(ctx, accountID, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("oauth_state = ?", "").
			Set("code_verifier_ciphertext = ?", "").
			Set("session_initiated_at = NULL").
			Set("updated_at = ?", now)
	})
}

func (s *AccountStore) SaveTokenSet(ctx context.Context, accountID string, in core.SaveTokenSetInput) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: account store is not configured")
	}
	now := time.Now().UTC()
	return s.updateOne(ctx, accountID, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		q = q.
			Set("access_token_ciphertext = ?", strings.TrimSpace(in.AccessTokenCiphertext)).
			Set("refresh_token_ciphertext = ?", strings.TrimSpace(in.RefreshTokenCiphertext)).
			Set("token_scopes = ?", strings.TrimSpace(in.Scopes)).
			Set("oauth_state = ?", "").
			Set("code_verifier_ciphertext = ?", "").
			Set("session_initiated_at = NULL").
			Set("updated_at = ?", now)
		if in.ExpiresAt != nil {
			return q.Set("token_expires_at = ?", in.ExpiresAt.UTC())
		}
		return q.Set("token_expires_at = NULL")
	})
}

func (s *AccountStore) Revoke(ctx context.Context, accountID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: account store is not configured")
	}
	now := time.Now().UTC()
	return s.updateOne(ctx, accountID, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("access_token_ciphertext = ?", "").
			Set("refresh_token_ciphertext = ?", "").
			Set("token_expires_at = NULL").
			Set("token_scopes = ?", "").
			Set("oauth_state = ?", "").
			Set("code_verifier_ciphertext = ?", "").
			Set("session_initiated_at = NULL").
			Set("updated_at = ?", now)
	})
}

// SetActive flips the single-active invariant for a tenant: every sibling is
// deactivated, the target activated, and the tenant's preference pointer
// updated, all in one transaction.
func (s *AccountStore) SetActive(ctx context.Context, tenantID string, accountID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: account store is not configured")
	}
	tenantID = strings.TrimSpace(tenantID)
	accountID = strings.TrimSpace(accountID)
	if tenantID == "" || accountID == "" {
		return fmt.Errorf("sqlstore: tenant id and account id are required")
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*accountRecord)(nil)).
			Where("?TableAlias.id = ?", accountID).
			Where("?TableAlias.tenant_id = ?", tenantID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: id %q", core.ErrAccountNotFound, accountID)
		}

		now := time.Now().UTC()
		if _, err := tx.NewUpdate().
			Model((*accountRecord)(nil)).
			Set("is_active = ?", false).
			Set("updated_at = ?", now).
			Where("tenant_id = ?", tenantID).
			Where("id != ?", accountID).
			Where("is_active = ?", true).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().
			Model((*accountRecord)(nil)).
			Set("is_active = ?", true).
			Set("updated_at = ?", now).
			Where("id = ?", accountID).
			Exec(ctx); err != nil {
			return err
		}

		setting := &tenantSettingRecord{
			TenantID:        tenantID,
			ActiveAccountID: &accountID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		_, err = tx.NewInsert().
			Model(setting).
			On("CONFLICT (tenant_id) DO UPDATE").
			Set("active_account_id = EXCLUDED.active_account_id").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

func (s *AccountStore) ClearExpiredSessions(ctx context.Context, before time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: account store is not configured")
	}
	now := time.Now().UTC()
	result, err := s.db.NewUpdate().
		Model((*accountRecord)(nil)).
		Set("oauth_state = ?", "").
		Set("code_verifier_ciphertext = ?", "").
		Set("session_initiated_at = NULL").
		Set("updated_at = ?", now).
		Where("oauth_state != ?", "").
		Where("session_initiated_at < ?", before.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *AccountStore) getRecord(ctx context.Context, id string) (*accountRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: account store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return nil, fmt.Errorf("sqlstore: account id is required")
	}
	record := &accountRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", trimmedID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: id %q", core.ErrAccountNotFound, trimmedID)
		}
		return nil, err
	}
	return record, nil
}

func (s *AccountStore) updateOne(ctx context.Context, accountID string, apply func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	trimmedID := strings.TrimSpace(accountID)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: account id is required")
	}
	query := s.db.NewUpdate().
		Model((*accountRecord)(nil)).
		Where("id = ?", trimmedID)
	result, err := apply(query).Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %q", core.ErrAccountNotFound, trimmedID)
	}
	return nil
}
