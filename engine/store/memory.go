// Package store provides an in-memory implementation of the engine's
// collaborator interfaces, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cpenarrieta/room-engine/engine"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	accounts     map[string]engine.Account
	transactions map[string]engine.Transaction // by transaction ID
	snapshots    map[snapKey]engine.Snapshot
	alerts       map[alertKey]engine.Alert
	seq          int64
}

type snapKey struct {
	Person string
	Type   engine.AccountType
	Year   int
}

type alertKey struct {
	AccountID string
	Year      int
	Month     time.Month
}

func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[string]engine.Account),
		transactions: make(map[string]engine.Transaction),
		snapshots:    make(map[snapKey]engine.Snapshot),
		alerts:       make(map[alertKey]engine.Alert),
	}
}

var (
	_ engine.Journal       = (*Memory)(nil)
	_ engine.SnapshotStore = (*Memory)(nil)
	_ engine.AccountStore  = (*Memory)(nil)
	_ engine.AlertStore    = (*Memory)(nil)
)

// =============================================================================
// JOURNAL
// =============================================================================

func (m *Memory) ListTransactions(_ context.Context, accountID string) ([]engine.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var txs []engine.Transaction
	for _, tx := range m.transactions {
		if tx.AccountID == accountID {
			txs = append(txs, tx)
		}
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
	return txs, nil
}

func (m *Memory) GetTransaction(_ context.Context, id string) (*engine.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[id]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (m *Memory) CreateTransaction(_ context.Context, tx engine.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[tx.AccountID]
	if !ok {
		return engine.ErrNotFound
	}
	if err := engine.ValidateTransaction(acct.Type, tx); err != nil {
		return err
	}
	if tx.CreatedAt.IsZero() {
		m.seq++
		tx.CreatedAt = time.Unix(0, m.seq)
	}
	m.transactions[tx.ID] = tx
	return nil
}

func (m *Memory) UpdateTransaction(_ context.Context, tx engine.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.transactions[tx.ID]
	if !ok {
		return engine.ErrNotFound
	}
	acct, ok := m.accounts[existing.AccountID]
	if !ok {
		return engine.ErrNotFound
	}
	tx.AccountID = existing.AccountID
	tx.CreatedAt = existing.CreatedAt
	if err := engine.ValidateTransaction(acct.Type, tx); err != nil {
		return err
	}
	m.transactions[tx.ID] = tx
	return nil
}

func (m *Memory) DeleteTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

// =============================================================================
// SNAPSHOT STORE
// =============================================================================

func (m *Memory) GetSnapshot(_ context.Context, person string, t engine.AccountType, taxYear int) (*engine.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[snapKey{Person: person, Type: t, Year: taxYear}]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *Memory) ListSnapshots(_ context.Context, person string, t engine.AccountType) ([]engine.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var snaps []engine.Snapshot
	for k, s := range m.snapshots {
		if k.Person == person && k.Type == t {
			snaps = append(snaps, s)
		}
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].TaxYear < snaps[j].TaxYear })
	return snaps, nil
}

func (m *Memory) UpsertSnapshot(_ context.Context, snap engine.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[snapKey{Person: snap.Person, Type: snap.AccountType, Year: snap.TaxYear}] = snap
	return nil
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

func (m *Memory) ListAccounts(_ context.Context) ([]engine.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accts := make([]engine.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		accts = append(accts, a)
	}
	sort.Slice(accts, func(i, j int) bool { return accts[i].ID < accts[j].ID })
	return accts, nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (*engine.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return &acct, nil
}

func (m *Memory) CreateAccount(_ context.Context, acct engine.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !acct.Type.Valid() {
		return engine.ErrUnknownAccountType
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now().UTC()
	}
	m.accounts[acct.ID] = acct
	return nil
}

func (m *Memory) UpdateAccount(_ context.Context, acct engine.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.accounts[acct.ID]
	if !ok {
		return engine.ErrNotFound
	}
	if acct.Type != existing.Type || acct.Owner != existing.Owner || acct.Contributor != existing.Contributor {
		return engine.ErrImmutableField
	}
	acct.CreatedAt = existing.CreatedAt
	m.accounts[acct.ID] = acct
	return nil
}

// =============================================================================
// ALERT STORE
// =============================================================================

func (m *Memory) SaveAlert(_ context.Context, alert engine.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := alertKey{AccountID: alert.AccountID, Year: alert.Year, Month: alert.Month}
	if _, exists := m.alerts[k]; exists {
		return nil
	}
	m.alerts[k] = alert
	return nil
}

func (m *Memory) ListAlerts(_ context.Context, accountID string) ([]engine.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var alerts []engine.Alert
	for _, a := range m.alerts {
		if accountID == "" || a.AccountID == accountID {
			alerts = append(alerts, a)
		}
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Year != alerts[j].Year {
			return alerts[i].Year > alerts[j].Year
		}
		return alerts[i].Month > alerts[j].Month
	})
	return alerts, nil
}
