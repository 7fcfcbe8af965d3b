package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// Cipher performs symmetric encryption of opaque secret strings using the
// process-wide key. Output is hex(iv):hex(payload); Decrypt of anything else
// fails with a malformed-ciphertext error.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// AccountStore persists Account records. Implementations must offer
// read-your-writes consistency on a single account row: an Initiate followed
// by Complete for the same account observes the session Initiate wrote.
type AccountStore interface {
	Create(ctx context.Context, in CreateAccountInput) (Account, error)
	Get(ctx context.Context, id string) (Account, error)
	GetForTenant(ctx context.Context, tenantID string, id string) (Account, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Account, error)
	Update(ctx context.Context, in UpdateAccountInput) (Account, error)
	Delete(ctx context.Context, id string) error

	// FindByState looks up the account whose pending oauth state equals the
	// supplied value. Pending states are unique system-wide.
	FindByState(ctx context.Context, state string) (Account, error)

	// SavePendingSession overwrites any existing pending session. A second
	// initiate always wins; the earlier state becomes permanently invalid.
	SavePendingSession(ctx context.Context, accountID string, state string, verifierCiphertext string) error
	ClearPendingSession(ctx context.Context, accountID string) error

	// SaveTokenSet replaces the token set and clears the pending session in
	// the same write.
	SaveTokenSet(ctx context.Context, accountID string, in SaveTokenSetInput) error

	// Revoke clears tokens, scopes, expiry, and any pending session in one
	// write. Client credentials survive.
	Revoke(ctx context.Context, accountID string) error

	// SetActive deactivates every other account of the tenant and activates
	// the target within a single transaction.
	SetActive(ctx context.Context, tenantID string, accountID string) error

	// ClearExpiredSessions clears pending sessions initiated before the
	// cutoff. Used by maintenance sweeps, never by the request path.
	ClearExpiredSessions(ctx context.Context, before time.Time) (int, error)
}

// TenantSettingsStore tracks the per-tenant active-account preference pointer.
type TenantSettingsStore interface {
	ActiveAccountID(ctx context.Context, tenantID string) (string, error)
	SetActiveAccountID(ctx context.Context, tenantID string, accountID string) error
	ClearActiveAccountID(ctx context.Context, tenantID string, accountID string) error
}

// TokenExchanger talks to the marketplace token endpoint. All operations
// authenticate with HTTP Basic auth using the supplied client credentials and
// honor context cancellation mid-flight.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, creds ClientCredentials, code string, verifier string, redirectURI string) (TokenSet, error)
	Refresh(ctx context.Context, creds ClientCredentials, refreshToken string) (TokenSet, error)
	ValidateCredentials(ctx context.Context, creds ClientCredentials) (CredentialValidation, error)
}

// ExchangeError is a failed token endpoint call. ErrorCode and Description
// carry the upstream OAuth error body when one was returned.
type ExchangeError struct {
	StatusCode  int
	ErrorCode   string
	Description string
	Cause       error
}

func (e *ExchangeError) Error() string {
	if e == nil {
		return "core: token exchange failed"
	}
	description := strings.TrimSpace(e.Description)
	if description == "" {
		description = strings.TrimSpace(e.ErrorCode)
	}
	if description == "" && e.Cause != nil {
		description = e.Cause.Error()
	}
	if description == "" {
		description = "unknown error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("core: token endpoint error (%d): %s", e.StatusCode, description)
	}
	return fmt.Sprintf("core: token endpoint error: %s", description)
}

func (e *ExchangeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Rejected reports whether the upstream explicitly refused the request. A
// rejected authorization code can never succeed on retry; transport failures
// and 5xx responses can.
func (e *ExchangeError) Rejected() bool {
	if e == nil {
		return false
	}
	if strings.TrimSpace(e.ErrorCode) != "" {
		return true
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// MetricsRecorder receives operation counters and latency histograms.
type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// StoreProvider hands out the persistence-backed stores built by a repository
// factory.
type StoreProvider interface {
	AccountStore() AccountStore
	TenantSettingsStore() TenantSettingsStore
}

// RepositoryStoreFactory builds stores from a persistence client (typically a
// go-persistence-bun client or a *bun.DB).
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// JobExecutionMessage is the queue contract for maintenance jobs (session
// sweeps). Adapted by adapters/gojob.
type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}
