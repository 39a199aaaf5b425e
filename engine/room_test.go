package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpenarrieta/room-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(v float64) engine.Money { return engine.NewMoney(v) }

func date(y int, m time.Month, d int) engine.Date { return engine.NewDate(y, m, d) }

var txSeq int64

func tx(kind engine.TxKind, amount float64, d engine.Date) engine.Transaction {
	txSeq++
	return engine.Transaction{
		ID:        "tx-" + d.String(),
		AccountID: "acct-1",
		Kind:      kind,
		Amount:    money(amount),
		Date:      d,
		CreatedAt: time.Unix(0, txSeq),
	}
}

func contribution(amount float64, d engine.Date) engine.Transaction {
	return tx(engine.TxContribution, amount, d)
}

func withdrawal(amount float64, d engine.Date) engine.Transaction {
	return tx(engine.TxWithdrawal, amount, d)
}

func grant(amount float64, d engine.Date) engine.Transaction {
	return tx(engine.TxGrant, amount, d)
}

func lifetimeAccount(roomStartYear int) engine.Account {
	return engine.Account{ID: "acct-1", Type: engine.LifetimeRoom, Owner: "alex", RoomStartYear: roomStartYear}
}

func deductionAccount() engine.Account {
	return engine.Account{ID: "acct-1", Type: engine.DeductionLimit, Owner: "alex"}
}

func educationAccount() engine.Account {
	return engine.Account{ID: "acct-1", Type: engine.EducationGrant, Owner: "alex", Beneficiary: "kid-1"}
}

func deductionSnapshot(year int, limit float64) engine.Snapshot {
	l := money(limit)
	return engine.Snapshot{Person: "alex", AccountType: engine.DeductionLimit, TaxYear: year, DeductionLimit: &l}
}

func assertMoneyEqual(t *testing.T, expected float64, actual engine.Money) {
	t.Helper()
	assert.True(t, actual.Equal(money(expected)), "expected %v, got %s", expected, actual)
}

// =============================================================================
// LIFETIME-ROOM ACCOUNTS
// =============================================================================

func TestComputeRoom_LifetimeRoom_AnnualIncrementAccrues(t *testing.T) {
	// GIVEN: Eligible since 2022, increment 7000/year, no transactions
	// WHEN: Computing room in 2025
	// THEN: Four years of room have accrued (2022..2025)

	limits := engine.DefaultLimits()
	state, err := engine.ComputeRoom(lifetimeAccount(2022), nil, nil, limits, date(2025, time.June, 1))

	require.NoError(t, err)
	assertMoneyEqual(t, 28000, state.RemainingRoom)
	assert.True(t, state.RoomKnown)
	assert.False(t, state.OverContribution.IsPositive())
}

func TestComputeRoom_LifetimeRoom_ContributionReducesRoomImmediately(t *testing.T) {
	// GIVEN: 28000 of accrued room
	// WHEN: Contributing 5000
	// THEN: Remaining room drops by exactly 5000 in the same year

	limits := engine.DefaultLimits()
	acct := lifetimeAccount(2022)
	asOf := date(2025, time.June, 1)

	before, err := engine.ComputeRoom(acct, nil, nil, limits, asOf)
	require.NoError(t, err)

	after, err := engine.ComputeRoom(acct, []engine.Transaction{
		contribution(5000, date(2025, time.March, 3)),
	}, nil, limits, asOf)
	require.NoError(t, err)

	assertMoneyEqual(t, 5000, before.RemainingRoom.Sub(after.RemainingRoom))
	assertMoneyEqual(t, 5000, after.TotalContributions)
}

func TestComputeRoom_LifetimeRoom_WithdrawalRestoresNextYearOnly(t *testing.T) {
	// GIVEN: A withdrawal of 4000 made in 2024
	// WHEN: Computing room as of 2024 vs as of 2025
	// THEN: The withdrawal counts as restored only from 2025 onward

	limits := engine.DefaultLimits()
	acct := lifetimeAccount(2022)
	txs := []engine.Transaction{
		contribution(10000, date(2023, time.February, 1)),
		withdrawal(4000, date(2024, time.July, 15)),
	}

	sameYear, err := engine.ComputeRoom(acct, txs, nil, limits, date(2024, time.December, 31))
	require.NoError(t, err)
	assertMoneyEqual(t, 0, sameYear.RestoredWithdrawals)
	assertMoneyEqual(t, 4000, sameYear.CurrentYearWithdrawals)
	// 3 years x 7000 - 10000, withdrawal not yet restored
	assertMoneyEqual(t, 11000, sameYear.RemainingRoom)

	nextYear, err := engine.ComputeRoom(acct, txs, nil, limits, date(2025, time.January, 2))
	require.NoError(t, err)
	assertMoneyEqual(t, 4000, nextYear.RestoredWithdrawals)
	assertMoneyEqual(t, 0, nextYear.CurrentYearWithdrawals)
	// 4 years x 7000 - 10000 + 4000
	assertMoneyEqual(t, 22000, nextYear.RemainingRoom)
}

func TestComputeRoom_LifetimeRoom_RoomIdentityHolds(t *testing.T) {
	// The defining identity: remaining = accrued - contributions + restored.

	limits := engine.DefaultLimits()
	acct := lifetimeAccount(2020)
	txs := []engine.Transaction{
		contribution(9000, date(2021, time.March, 1)),
		withdrawal(2000, date(2021, time.October, 1)),
		contribution(12000, date(2023, time.January, 15)),
		withdrawal(1000, date(2024, time.May, 5)),
	}

	state, err := engine.ComputeRoom(acct, txs, nil, limits, date(2024, time.November, 30))
	require.NoError(t, err)

	accrued := money(5 * 7000) // 2020..2024
	expected := accrued.Sub(state.TotalContributions).Add(state.RestoredWithdrawals)
	assert.True(t, state.RemainingRoom.Equal(expected),
		"remaining %s != accrued - contributions + restored = %s", state.RemainingRoom, expected)
}

func TestComputeRoom_LifetimeRoom_ExcessWithinBuffer(t *testing.T) {
	// GIVEN: Room of 7000 and a contribution of 8500 (excess 1500, buffer 2000)
	// WHEN: Computing room
	// THEN: The excess is reported, flagged as within buffer, not suppressed

	limits := engine.DefaultLimits()
	state, err := engine.ComputeRoom(lifetimeAccount(2025), []engine.Transaction{
		contribution(8500, date(2025, time.April, 1)),
	}, nil, limits, date(2025, time.May, 1))

	require.NoError(t, err)
	assertMoneyEqual(t, 1500, state.OverContribution)
	assert.True(t, state.WithinBuffer)
}

func TestComputeRoom_LifetimeRoom_ExcessBeyondBuffer(t *testing.T) {
	limits := engine.DefaultLimits()
	state, err := engine.ComputeRoom(lifetimeAccount(2025), []engine.Transaction{
		contribution(12000, date(2025, time.April, 1)),
	}, nil, limits, date(2025, time.May, 1))

	require.NoError(t, err)
	assertMoneyEqual(t, 5000, state.OverContribution)
	assert.False(t, state.WithinBuffer)
}

func TestComputeRoom_LifetimeRoom_MissingRoomStartYear(t *testing.T) {
	acct := engine.Account{ID: "acct-1", Type: engine.LifetimeRoom}
	_, err := engine.ComputeRoom(acct, nil, nil, engine.DefaultLimits(), date(2025, time.May, 1))
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

// =============================================================================
// DEDUCTION-LIMIT ACCOUNTS
// =============================================================================

func TestComputeRoom_DeductionLimit_NoSnapshotMeansUnknown(t *testing.T) {
	// GIVEN: Contributions recorded but no authoritative snapshot at all
	// WHEN: Computing room
	// THEN: Room is reported unknown, never a numeric zero

	state, err := engine.ComputeRoom(deductionAccount(), []engine.Transaction{
		contribution(6000, date(2025, time.February, 10)),
	}, nil, engine.DefaultLimits(), date(2025, time.June, 1))

	require.NoError(t, err)
	assert.False(t, state.RoomKnown)
	assert.True(t, state.RemainingRoom.IsZero())
	assertMoneyEqual(t, 6000, state.TotalContributions)
}

func TestComputeRoom_DeductionLimit_CurrentYearSnapshotWins(t *testing.T) {
	// GIVEN: Snapshots for 2024 (10000) and 2025 (15000)
	// WHEN: Computing 2025 room after a 4000 contribution in 2025
	// THEN: The 2025 figure applies, only 2025 contributions count

	snaps := []engine.Snapshot{deductionSnapshot(2024, 10000), deductionSnapshot(2025, 15000)}
	txs := []engine.Transaction{
		contribution(9999, date(2024, time.March, 1)), // baked into the 2025 figure
		contribution(4000, date(2025, time.March, 1)),
	}

	state, err := engine.ComputeRoom(deductionAccount(), txs, snaps, engine.DefaultLimits(), date(2025, time.June, 1))
	require.NoError(t, err)

	assert.True(t, state.RoomKnown)
	assertMoneyEqual(t, 11000, state.RemainingRoom)
	assertMoneyEqual(t, 11000, state.UnusedRoom)
}

func TestComputeRoom_DeductionLimit_PriorYearLimitCarriesForward(t *testing.T) {
	// GIVEN: Only a 2023 snapshot (18000), contributions in 2023..2025
	// WHEN: Computing 2025 room
	// THEN: The 2023 figure carries forward and all three years count

	snaps := []engine.Snapshot{deductionSnapshot(2023, 18000)}
	txs := []engine.Transaction{
		contribution(5000, date(2023, time.June, 1)),
		contribution(5000, date(2024, time.June, 1)),
		contribution(5000, date(2025, time.June, 1)),
	}

	state, err := engine.ComputeRoom(deductionAccount(), txs, snaps, engine.DefaultLimits(), date(2025, time.July, 1))
	require.NoError(t, err)
	assertMoneyEqual(t, 3000, state.RemainingRoom)
}

func TestComputeRoom_DeductionLimit_OverContribution(t *testing.T) {
	snaps := []engine.Snapshot{deductionSnapshot(2025, 10000)}
	state, err := engine.ComputeRoom(deductionAccount(), []engine.Transaction{
		contribution(12500, date(2025, time.February, 1)),
	}, snaps, engine.DefaultLimits(), date(2025, time.March, 1))

	require.NoError(t, err)
	assertMoneyEqual(t, 2500, state.OverContribution)
	assertMoneyEqual(t, 0, state.UnusedRoom)
	assert.True(t, state.RemainingRoom.IsNegative())
}

// =============================================================================
// EDUCATION-GRANT ACCOUNTS
// =============================================================================

func TestComputeRoom_EducationGrant_LifetimeLimitAndGrants(t *testing.T) {
	// GIVEN: 30000 contributed, 3000 of grants received
	// WHEN: Computing room
	// THEN: Grants add cash value but never consume contribution room

	txs := []engine.Transaction{
		contribution(30000, date(2023, time.September, 1)),
		grant(3000, date(2023, time.October, 1)),
	}

	state, err := engine.ComputeRoom(educationAccount(), txs, nil, engine.DefaultLimits(), date(2025, time.January, 1))
	require.NoError(t, err)

	assertMoneyEqual(t, 20000, state.RemainingRoom)
	assertMoneyEqual(t, 3000, state.TotalGrants)
	assert.False(t, state.OverContribution.IsPositive())
}

func TestComputeRoom_EducationGrant_OverLifetimeLimit(t *testing.T) {
	state, err := engine.ComputeRoom(educationAccount(), []engine.Transaction{
		contribution(52000, date(2024, time.March, 1)),
	}, nil, engine.DefaultLimits(), date(2025, time.January, 1))

	require.NoError(t, err)
	assertMoneyEqual(t, 2000, state.OverContribution)
}

// =============================================================================
// SHARED BEHAVIOR
// =============================================================================

func TestComputeRoom_UnknownAccountType(t *testing.T) {
	acct := engine.Account{ID: "acct-1", Type: "margin"}
	_, err := engine.ComputeRoom(acct, nil, nil, engine.DefaultLimits(), date(2025, time.January, 1))
	assert.ErrorIs(t, err, engine.ErrUnknownAccountType)
}

func TestComputeRoom_RejectsNonPositiveAmount(t *testing.T) {
	bad := contribution(0, date(2025, time.January, 5))
	bad.Amount = money(-100)
	_, err := engine.ComputeRoom(lifetimeAccount(2025), []engine.Transaction{bad}, nil, engine.DefaultLimits(), date(2025, time.June, 1))
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

func TestComputeRoom_RejectsGrantOnNonEducationAccount(t *testing.T) {
	_, err := engine.ComputeRoom(lifetimeAccount(2025), []engine.Transaction{
		grant(500, date(2025, time.January, 5)),
	}, nil, engine.DefaultLimits(), date(2025, time.June, 1))

	var kindErr *engine.KindNotAllowedError
	assert.ErrorAs(t, err, &kindErr)
}

func TestComputeRoom_OrderIndependentAndDeterministic(t *testing.T) {
	// GIVEN: The same transactions in two different input orders
	// WHEN: Computing room twice for each order
	// THEN: All four results are identical

	limits := engine.DefaultLimits()
	acct := lifetimeAccount(2021)
	asOf := date(2025, time.August, 1)

	a := contribution(3000, date(2022, time.February, 1))
	b := withdrawal(1000, date(2023, time.July, 1))
	c := contribution(8000, date(2024, time.November, 1))

	first, err := engine.ComputeRoom(acct, []engine.Transaction{a, b, c}, nil, limits, asOf)
	require.NoError(t, err)
	second, err := engine.ComputeRoom(acct, []engine.Transaction{c, a, b}, nil, limits, asOf)
	require.NoError(t, err)
	third, err := engine.ComputeRoom(acct, []engine.Transaction{c, a, b}, nil, limits, asOf)
	require.NoError(t, err)

	assert.Equal(t, first.RemainingRoom.String(), second.RemainingRoom.String())
	assert.Equal(t, second, third)
}

func TestComputeRoom_TransactionsAfterAsOfIgnored(t *testing.T) {
	limits := engine.DefaultLimits()
	state, err := engine.ComputeRoom(lifetimeAccount(2025), []engine.Transaction{
		contribution(1000, date(2025, time.March, 1)),
		contribution(9999, date(2025, time.December, 1)),
	}, nil, limits, date(2025, time.June, 1))

	require.NoError(t, err)
	assertMoneyEqual(t, 1000, state.TotalContributions)
}

func TestMoney_RoundingAndArithmetic(t *testing.T) {
	m := money(2000).Mul(decimal.NewFromFloat(0.01)).Round(2)
	assert.Equal(t, "20.00", m.String())
}
