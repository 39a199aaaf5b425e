/*
Package engine is the contribution-room ledger and penalty-reconstruction
core for registered savings accounts.

PURPOSE:
  Three account kinds are tracked — a deduction-limit type (RRSP-like), a
  lifetime-room type (TFSA-like) and an education-savings type with
  government grant matching (RESP-like). The engine derives, from an
  append-only transaction journal plus periodic authoritative snapshots
  ("NOA" figures), how much contribution room remains, whether the holder
  is over-contributed, the month-by-month penalty accrued on any excess,
  and the grant entitlement for education accounts.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: a dollar amount backed by decimal.Decimal
  - Account: one registered account with its type-specific metadata
  - Transaction: a dated journal entry (contribution/withdrawal/grant)
  - Snapshot: one year's authoritative figures for one person/account type
  - RoomState, MonthlyPenalty, CESGSummary: derived outputs, never persisted

DESIGN PRINCIPLES:
  1. Derived state: room and penalties are pure functions over the journal.
     There are no stored running balances to drift out of sync.
  2. Precision: decimal.Decimal everywhere, no floating-point money.
  3. Closed variants: account type is a tagged value dispatched via a
     single switch per calculator, keeping the three rule sets side by side.
  4. Missing data is data: an unknown deduction limit yields RoomKnown=false,
     not a fabricated zero.

SEE ALSO:
  - room.go: room calculation per account type
  - penalty.go: month-by-month excess reconstruction
  - cesg.go: grant matching with annual and lifetime caps
  - discrepancy.go: calculated-vs-NOA comparison
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Dollar amount with decimal precision
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func MoneyFromInt(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money              { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money              { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money    { return Money{Value: m.Value.Mul(s)} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) Abs() Money                     { return Money{Value: m.Value.Abs()} }
func (m Money) Round(places int32) Money       { return Money{Value: m.Value.Round(places)} }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) Equal(o Money) bool             { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool       { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool          { return m.Value.LessThan(o.Value) }
func (m Money) Min(o Money) Money              { if m.LessThan(o) { return m }; return o }
func (m Money) Max(o Money) Money              { if m.GreaterThan(o) { return m }; return o }
func (m Money) Float64() float64               { f, _ := m.Value.Float64(); return f }
func (m Money) String() string                 { return m.Value.StringFixed(2) }

// =============================================================================
// ACCOUNT - One registered account
// =============================================================================

type AccountType string

const (
	// DeductionLimit accounts (RRSP-like): room comes from an authoritative
	// yearly deduction limit, withdrawals never restore it.
	DeductionLimit AccountType = "deduction_limit"

	// LifetimeRoom accounts (TFSA-like): room accrues as a fixed annual
	// increment, withdrawals restore room the following January 1.
	LifetimeRoom AccountType = "lifetime_room"

	// EducationGrant accounts (RESP-like): a lifetime contribution limit
	// with government grant matching on contributions.
	EducationGrant AccountType = "education_grant"
)

func (t AccountType) Valid() bool {
	switch t {
	case DeductionLimit, LifetimeRoom, EducationGrant:
		return true
	}
	return false
}

// Account is immutable once created except for administrative fields
// (Name, Notes, RoomStartYear, Beneficiary, Hidden).
type Account struct {
	ID          string
	Type        AccountType
	Name        string
	Owner       string // household member holding the account
	Contributor string // household member funding it

	// LifetimeRoom only: first calendar year the holder was eligible.
	RoomStartYear int

	// EducationGrant only.
	Beneficiary          string
	BeneficiaryBirthYear int // 0 = unknown

	Notes     string
	Hidden    bool
	CreatedAt time.Time
}

// =============================================================================
// TRANSACTION - Dated journal entry
// =============================================================================

type TxKind string

const (
	TxContribution TxKind = "contribution"
	TxWithdrawal   TxKind = "withdrawal"
	TxGrant        TxKind = "grant" // EducationGrant accounts only
)

type Transaction struct {
	ID        string
	AccountID string
	Kind      TxKind
	Amount    Money // always positive; kind carries the direction
	Date      Date
	Notes     string

	// CreatedAt breaks ties between same-day entries. Same-day ordering
	// never changes month-level results, so a stable sort suffices.
	CreatedAt time.Time
}

// TaxYear is the calendar year of the transaction date.
func (t Transaction) TaxYear() int { return t.Date.Year() }

// =============================================================================
// SNAPSHOT - One year's authoritative figures ("NOA")
// =============================================================================

// Snapshot holds authoritative figures for one (person, accountType,
// taxYear). At most one exists per key; writes are upserts. Fields are
// independently optional because statements arrive partially populated.
type Snapshot struct {
	Person      string
	AccountType AccountType
	TaxYear     int

	// DeductionLimit accounts.
	EarnedIncome   *Money
	DeductionLimit *Money

	// LifetimeRoom accounts.
	RoomAsOfJan1 *Money

	SourceDocID string
	Notes       string
}

// =============================================================================
// ROOM STATE - Derived, never persisted
// =============================================================================

// RoomState is recomputed from journal + snapshots on every read.
// Same inputs always yield the same output; nothing is cached.
type RoomState struct {
	AccountID string
	Type      AccountType
	AsOf      Date

	TotalContributions Money
	TotalWithdrawals   Money
	RemainingRoom      Money
	OverContribution   Money

	// RoomKnown is false for DeductionLimit accounts with no snapshot at
	// all: RemainingRoom is then reported unknown, never a guessed zero.
	RoomKnown bool

	// max(0, RemainingRoom): the figure that carries forward to future
	// years. Zero whenever the account sits at or over its limit.
	UnusedRoom Money

	// LifetimeRoom only.
	RestoredWithdrawals    Money // withdrawals from prior years, room restored
	CurrentYearWithdrawals Money // not yet counted toward restoration
	WithinBuffer           bool  // excess exists but sits inside the buffer

	// EducationGrant only.
	TotalGrants Money
	CESG        *CESGSummary
}

// =============================================================================
// MONTHLY PENALTY - Derived penalty schedule entry
// =============================================================================

// MonthlyPenalty is emitted only for months whose month-END excess is
// positive. Mid-month payoffs that clear the excess before month end
// yield no penalty for that month.
type MonthlyPenalty struct {
	Year    int
	Month   time.Month
	Excess  Money // excess balance at month end
	Penalty Money // Excess x monthly rate, not compounded
}

// PenaltySchedule is the full reconstruction for one account.
type PenaltySchedule struct {
	AccountID string
	Penalties []MonthlyPenalty

	// Years skipped because no deduction limit was known for them.
	// Flagged rather than assuming zero room.
	UnknownLimitYears []int
}

// =============================================================================
// CESG SUMMARY - Grant entitlement per beneficiary
// =============================================================================

type CESGSummary struct {
	Beneficiary       string
	TotalReceived     Money
	LifetimeMax       Money
	RemainingLifetime Money
	CurrentYearGrant  Money
	CurrentYearMax    Money // effective cap this year after carry-forward
	CarryForwardRoom  Money // unused grant room rolling into next year
	Eligible          bool
}

// =============================================================================
// DISCREPANCY RESULT - Calculated room vs authoritative figure
// =============================================================================

type DiscrepancyResult struct {
	Person         string
	AccountType    AccountType
	TaxYear        int
	CalculatedRoom Money
	OfficialRoom   Money
	Difference     Money // |calculated - official|
	HasDiscrepancy bool
}
