/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements all persistence interfaces (engine.Journal,
  engine.SnapshotStore, engine.AccountStore, engine.AlertStore) using
  SQLite. A household's journal is small; the same patterns apply to
  PostgreSQL with only dialect differences.

KEY TABLES:
  accounts:     Registered accounts, one row per account
  transactions: The journal - every contribution, withdrawal and grant
  snapshots:    Authoritative yearly figures, UNIQUE per (person, type, year)
  alerts:       Persisted over-contribution alerts, UNIQUE per (account, year, month)

WHAT IS DELIBERATELY ABSENT:
  No table holds a computed balance. Room, excess and penalties are
  re-derived from transactions + snapshots on every read.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/rooms.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/journal.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cpenarrieta/room-engine/engine"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ engine.Journal       = (*Store)(nil)
	_ engine.SnapshotStore = (*Store)(nil)
	_ engine.AccountStore  = (*Store)(nil)
	_ engine.AlertStore    = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Accounts
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		account_type TEXT NOT NULL,
		name TEXT NOT NULL,
		owner TEXT NOT NULL,
		contributor TEXT NOT NULL DEFAULT '',
		room_start_year INTEGER DEFAULT 0,
		beneficiary TEXT NOT NULL DEFAULT '',
		beneficiary_birth_year INTEGER DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		hidden BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_owner_type
		ON accounts(owner, account_type);

	-- Transactions (the journal)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		tx_date TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Replay order (hot path): every balance read walks one account's
	-- history date-ascending.
	CREATE INDEX IF NOT EXISTS idx_transactions_account_date
		ON transactions(account_id, tx_date, created_at);

	-- Snapshots (authoritative yearly figures)
	CREATE TABLE IF NOT EXISTS snapshots (
		person TEXT NOT NULL,
		account_type TEXT NOT NULL,
		tax_year INTEGER NOT NULL,
		earned_income TEXT,
		deduction_limit TEXT,
		room_as_of_jan1 TEXT,
		source_doc_id TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (person, account_type, tax_year)
	);

	-- Alerts (facts about past months, not cached balances)
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		excess TEXT NOT NULL,
		penalty TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(account_id, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_account
		ON alerts(account_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// JOURNAL (engine.Journal interface)
// =============================================================================

// ListTransactions returns an account's full history, date ascending.
func (s *Store) ListTransactions(ctx context.Context, accountID string) ([]engine.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, account_id, kind, amount, tx_date, notes, created_at
		FROM transactions
		WHERE account_id = ?
		ORDER BY tx_date ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []engine.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// GetTransaction returns nil when the transaction does not exist.
func (s *Store) GetTransaction(ctx context.Context, id string) (*engine.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getTransaction(ctx, id)
}

func (s *Store) getTransaction(ctx context.Context, id string) (*engine.Transaction, error) {
	var (
		tx        engine.Transaction
		amount    string
		txDate    string
		createdAt string
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT id, account_id, kind, amount, tx_date, notes, created_at FROM transactions WHERE id = ?",
		id,
	).Scan(&tx.ID, &tx.AccountID, &tx.Kind, &amount, &txDate, &tx.Notes, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tx.Amount = engine.MustParseMoney(amount)
	tx.Date, _ = engine.ParseDate(txDate)
	tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &tx, nil
}

// CreateTransaction validates the entry against its account's type and
// inserts it.
func (s *Store) CreateTransaction(ctx context.Context, tx engine.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.getAccount(ctx, tx.AccountID)
	if err != nil {
		return err
	}
	if acct == nil {
		return engine.ErrNotFound
	}
	if err := engine.ValidateTransaction(acct.Type, tx); err != nil {
		return err
	}

	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, kind, amount, tx_date, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		tx.ID, tx.AccountID, tx.Kind, tx.Amount.String(),
		tx.Date.String(), tx.Notes,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// UpdateTransaction edits an existing entry. AccountID and CreatedAt are
// preserved from the stored row.
func (s *Store) UpdateTransaction(ctx context.Context, tx engine.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getTransaction(ctx, tx.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return engine.ErrNotFound
	}

	acct, err := s.getAccount(ctx, existing.AccountID)
	if err != nil {
		return err
	}
	if acct == nil {
		return engine.ErrNotFound
	}
	if err := engine.ValidateTransaction(acct.Type, tx); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE transactions SET kind = ?, amount = ?, tx_date = ?, notes = ? WHERE id = ?",
		tx.Kind, tx.Amount.String(), tx.Date.String(), tx.Notes, tx.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// DeleteTransaction removes an entry from the journal.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func scanTransaction(rows *sql.Rows) (engine.Transaction, error) {
	var (
		tx        engine.Transaction
		amount    string
		txDate    string
		createdAt string
	)

	err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Kind, &amount, &txDate, &tx.Notes, &createdAt)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Amount = engine.MustParseMoney(amount)
	tx.Date, _ = engine.ParseDate(txDate)
	tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return tx, nil
}

// =============================================================================
// SNAPSHOT STORE (engine.SnapshotStore interface)
// =============================================================================

// GetSnapshot returns nil when no snapshot exists for the key.
func (s *Store) GetSnapshot(ctx context.Context, person string, t engine.AccountType, taxYear int) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT person, account_type, tax_year, earned_income, deduction_limit, room_as_of_jan1, source_doc_id, notes
		FROM snapshots
		WHERE person = ? AND account_type = ? AND tax_year = ?
	`, person, t, taxYear)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshots returns all snapshots for a person and account type,
// tax year ascending.
func (s *Store) ListSnapshots(ctx context.Context, person string, t engine.AccountType) ([]engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT person, account_type, tax_year, earned_income, deduction_limit, room_as_of_jan1, source_doc_id, notes
		FROM snapshots
		WHERE person = ? AND account_type = ?
		ORDER BY tax_year ASC
	`, person, t)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []engine.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// UpsertSnapshot replaces any existing snapshot for the same
// (person, accountType, taxYear).
func (s *Store) UpsertSnapshot(ctx context.Context, snap engine.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (person, account_type, tax_year, earned_income, deduction_limit, room_as_of_jan1, source_doc_id, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(person, account_type, tax_year) DO UPDATE SET
			earned_income = excluded.earned_income,
			deduction_limit = excluded.deduction_limit,
			room_as_of_jan1 = excluded.room_as_of_jan1,
			source_doc_id = excluded.source_doc_id,
			notes = excluded.notes
	`,
		snap.Person, snap.AccountType, snap.TaxYear,
		nullMoney(snap.EarnedIncome), nullMoney(snap.DeductionLimit), nullMoney(snap.RoomAsOfJan1),
		snap.SourceDocID, snap.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (engine.Snapshot, error) {
	var (
		snap           engine.Snapshot
		earnedIncome   sql.NullString
		deductionLimit sql.NullString
		roomAsOfJan1   sql.NullString
	)

	err := row.Scan(&snap.Person, &snap.AccountType, &snap.TaxYear,
		&earnedIncome, &deductionLimit, &roomAsOfJan1,
		&snap.SourceDocID, &snap.Notes)
	if err != nil {
		return snap, err
	}

	snap.EarnedIncome = moneyPtr(earnedIncome)
	snap.DeductionLimit = moneyPtr(deductionLimit)
	snap.RoomAsOfJan1 = moneyPtr(roomAsOfJan1)
	return snap, nil
}

// =============================================================================
// ACCOUNT STORE (engine.AccountStore interface)
// =============================================================================

// ListAccounts returns all accounts ordered by name.
func (s *Store) ListAccounts(ctx context.Context) ([]engine.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_type, name, owner, contributor, room_start_year,
		       beneficiary, beneficiary_birth_year, notes, hidden, created_at
		FROM accounts
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []engine.Account
	for rows.Next() {
		var (
			acct      engine.Account
			createdAt string
		)
		if err := rows.Scan(&acct.ID, &acct.Type, &acct.Name, &acct.Owner, &acct.Contributor,
			&acct.RoomStartYear, &acct.Beneficiary, &acct.BeneficiaryBirthYear,
			&acct.Notes, &acct.Hidden, &createdAt); err != nil {
			return nil, err
		}
		acct.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

// GetAccount returns nil when the account does not exist.
func (s *Store) GetAccount(ctx context.Context, id string) (*engine.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getAccount(ctx, id)
}

func (s *Store) getAccount(ctx context.Context, id string) (*engine.Account, error) {
	var (
		acct      engine.Account
		createdAt string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_type, name, owner, contributor, room_start_year,
		       beneficiary, beneficiary_birth_year, notes, hidden, created_at
		FROM accounts WHERE id = ?
	`, id).Scan(&acct.ID, &acct.Type, &acct.Name, &acct.Owner, &acct.Contributor,
		&acct.RoomStartYear, &acct.Beneficiary, &acct.BeneficiaryBirthYear,
		&acct.Notes, &acct.Hidden, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	acct.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &acct, nil
}

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, acct engine.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !acct.Type.Valid() {
		return engine.ErrUnknownAccountType
	}

	createdAt := acct.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, account_type, name, owner, contributor, room_start_year,
		                      beneficiary, beneficiary_birth_year, notes, hidden, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		acct.ID, acct.Type, acct.Name, acct.Owner, acct.Contributor, acct.RoomStartYear,
		acct.Beneficiary, acct.BeneficiaryBirthYear, acct.Notes, acct.Hidden,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// UpdateAccount persists administrative fields. Type, owner and
// contributor are immutable.
func (s *Store) UpdateAccount(ctx context.Context, acct engine.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getAccount(ctx, acct.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return engine.ErrNotFound
	}
	if acct.Type != existing.Type || acct.Owner != existing.Owner || acct.Contributor != existing.Contributor {
		return engine.ErrImmutableField
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, room_start_year = ?, beneficiary = ?,
		                    beneficiary_birth_year = ?, notes = ?, hidden = ?
		WHERE id = ?
	`,
		acct.Name, acct.RoomStartYear, acct.Beneficiary,
		acct.BeneficiaryBirthYear, acct.Notes, acct.Hidden, acct.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// =============================================================================
// ALERT STORE (engine.AlertStore interface)
// =============================================================================

// SaveAlert is idempotent per (accountID, year, month); re-saving the
// same month is a no-op.
func (s *Store) SaveAlert(ctx context.Context, alert engine.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := alert.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, account_id, year, month, excess, penalty, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, year, month) DO NOTHING
	`,
		alert.ID, alert.AccountID, alert.Year, int(alert.Month),
		alert.Excess.String(), alert.Penalty.String(),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// ListAlerts returns alerts for one account, or all accounts when
// accountID is empty, newest first.
func (s *Store) ListAlerts(ctx context.Context, accountID string) ([]engine.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, account_id, year, month, excess, penalty, created_at
		FROM alerts
	`
	args := []any{}
	if accountID != "" {
		query += " WHERE account_id = ?"
		args = append(args, accountID)
	}
	query += " ORDER BY year DESC, month DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []engine.Alert
	for rows.Next() {
		var (
			alert     engine.Alert
			month     int
			excess    string
			penalty   string
			createdAt string
		)
		if err := rows.Scan(&alert.ID, &alert.AccountID, &alert.Year, &month, &excess, &penalty, &createdAt); err != nil {
			return nil, err
		}
		alert.Month = time.Month(month)
		alert.Excess = engine.MustParseMoney(excess)
		alert.Penalty = engine.MustParseMoney(penalty)
		alert.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// Reset clears all data. Test helper.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"transactions", "snapshots", "alerts", "accounts"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullMoney(m *engine.Money) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: m.String(), Valid: true}
}

func moneyPtr(ns sql.NullString) *engine.Money {
	if !ns.Valid {
		return nil
	}
	m := engine.MustParseMoney(ns.String)
	return &m
}
