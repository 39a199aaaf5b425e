/*
journal.go - Collaborator interfaces and write-side validation

PURPOSE:
  The calculators are pure functions over slices; these interfaces are the
  surrounding system's read/write surface. The engine itself never writes
  to the journal - transactions are created, edited and deleted directly
  by the user, and every read is a fresh fold over the full history.

INVARIANTS ENFORCED AT WRITE TIME:
  - Amounts are strictly positive (kind carries the direction).
  - kind=grant is valid only for EducationGrant accounts.
  - At most one snapshot per (person, accountType, taxYear): upserts.

IMPLEMENTATIONS:
  - store/sqlite: production store
  - engine/store: in-memory store for tests and development
*/
package engine

import (
	"context"
	"sort"
	"time"
)

// =============================================================================
// JOURNAL - Per-account transaction history
// =============================================================================

type Journal interface {
	// ListTransactions returns all transactions for an account ordered by
	// date ascending, insertion order preserved on ties.
	ListTransactions(ctx context.Context, accountID string) ([]Transaction, error)

	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	CreateTransaction(ctx context.Context, tx Transaction) error
	UpdateTransaction(ctx context.Context, tx Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

// =============================================================================
// SNAPSHOT STORE - Authoritative yearly figures
// =============================================================================

type SnapshotStore interface {
	// GetSnapshot returns nil when no snapshot exists for the key.
	GetSnapshot(ctx context.Context, person string, t AccountType, taxYear int) (*Snapshot, error)

	// ListSnapshots returns all snapshots for a person and account type,
	// ordered by tax year ascending.
	ListSnapshots(ctx context.Context, person string, t AccountType) ([]Snapshot, error)

	// UpsertSnapshot replaces any existing snapshot for the same
	// (person, accountType, taxYear).
	UpsertSnapshot(ctx context.Context, snap Snapshot) error
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

type AccountStore interface {
	ListAccounts(ctx context.Context) ([]Account, error)

	// GetAccount returns nil when the account does not exist.
	GetAccount(ctx context.Context, id string) (*Account, error)

	CreateAccount(ctx context.Context, acct Account) error

	// UpdateAccount persists administrative fields only (name, notes,
	// room-start-year, beneficiary, visibility). Type, owner and
	// contributor are immutable.
	UpdateAccount(ctx context.Context, acct Account) error
}

// =============================================================================
// ALERT STORE - Persisted over-contribution alerts
// =============================================================================

// Alert records that an account carried a month-end excess. Alerts are
// facts about a past month, not cached balances; the room math is still
// recomputed on every read.
type Alert struct {
	ID        string
	AccountID string
	Year      int
	Month     time.Month
	Excess    Money
	Penalty   Money
	CreatedAt time.Time
}

type AlertStore interface {
	// SaveAlert is idempotent per (accountID, year, month).
	SaveAlert(ctx context.Context, alert Alert) error

	// ListAlerts returns alerts for one account, or all accounts when
	// accountID is empty, newest first.
	ListAlerts(ctx context.Context, accountID string) ([]Alert, error)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateTransaction enforces the journal's write-side rules. The
// calculators apply the same checks defensively on read.
func ValidateTransaction(acctType AccountType, tx Transaction) error {
	if !acctType.Valid() {
		return ErrUnknownAccountType
	}
	if !tx.Amount.IsPositive() {
		return &InvalidAmountError{TransactionID: tx.ID, Amount: tx.Amount}
	}
	switch tx.Kind {
	case TxContribution, TxWithdrawal:
	case TxGrant:
		if acctType != EducationGrant {
			return &KindNotAllowedError{Kind: tx.Kind, AccountType: acctType}
		}
	default:
		return &KindNotAllowedError{Kind: tx.Kind, AccountType: acctType}
	}
	return nil
}

// sortTransactions returns a copy sorted by date ascending. The sort is
// stable so same-day entries keep their insertion order.
func sortTransactions(txs []Transaction) []Transaction {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}
