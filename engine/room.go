/*
room.go - Room calculation per account type

PURPOSE:
  ComputeRoom answers "how much can this account still take?" by folding
  the account's journal against type-specific accrual rules. Pure function:
  transactions may arrive in any order, results depend only on inputs.

RULES BY TYPE:
  DeductionLimit:
    Room is whatever the latest authoritative snapshot says, minus
    contributions recorded from that snapshot's tax year onward. With no
    snapshot at all the room is UNKNOWN (RoomKnown=false), never zero.

  LifetimeRoom:
    Room accrues as a fixed annual increment from the room-start year.
    Contributions consume room immediately; withdrawals restore it only
    on January 1 of the FOLLOWING year. That timing split is the subtle
    part: RestoredWithdrawals (prior years) vs CurrentYearWithdrawals.

  EducationGrant:
    A flat lifetime contribution limit. Grants are cash value only; they
    never consume contribution room.

SEE ALSO:
  - penalty.go: the same rules applied incrementally per month
  - limits.go: the named constants these rules consume
*/
package engine

// ComputeRoom derives the RoomState for one account as of a date.
// Transactions dated after asOf are ignored.
func ComputeRoom(acct Account, txs []Transaction, snaps []Snapshot, limits Limits, asOf Date) (RoomState, error) {
	if !acct.Type.Valid() {
		return RoomState{}, ErrUnknownAccountType
	}

	sorted := sortTransactions(txs)
	for _, tx := range sorted {
		if err := ValidateTransaction(acct.Type, tx); err != nil {
			return RoomState{}, err
		}
	}

	state := RoomState{
		AccountID: acct.ID,
		Type:      acct.Type,
		AsOf:      asOf,
		RoomKnown: true,
	}

	for _, tx := range sorted {
		if tx.Date.After(asOf) {
			continue
		}
		switch tx.Kind {
		case TxContribution:
			state.TotalContributions = state.TotalContributions.Add(tx.Amount)
		case TxWithdrawal:
			state.TotalWithdrawals = state.TotalWithdrawals.Add(tx.Amount)
		case TxGrant:
			state.TotalGrants = state.TotalGrants.Add(tx.Amount)
		}
	}

	switch acct.Type {
	case DeductionLimit:
		computeDeductionLimitRoom(&state, sorted, snaps, asOf)
	case LifetimeRoom:
		if err := computeLifetimeRoom(&state, acct, sorted, limits, asOf); err != nil {
			return RoomState{}, err
		}
	case EducationGrant:
		computeEducationRoom(&state, limits)
	}

	return state, nil
}

// =============================================================================
// DEDUCTION-LIMIT ACCOUNTS
// =============================================================================

func computeDeductionLimitRoom(state *RoomState, txs []Transaction, snaps []Snapshot, asOf Date) {
	limit, limitYear, ok := deductionLimitFor(snaps, asOf.Year())
	if !ok {
		// No authoritative figure at all. Report unknown rather than a
		// numeric zero that reads as "fully used".
		state.RoomKnown = false
		return
	}

	// Contributions count against the limit from the snapshot's tax year
	// onward; earlier contributions are already baked into the figure.
	var contributed Money
	for _, tx := range txs {
		if tx.Kind != TxContribution || tx.Date.After(asOf) {
			continue
		}
		if tx.TaxYear() >= limitYear {
			contributed = contributed.Add(tx.Amount)
		}
	}

	state.RemainingRoom = limit.Sub(contributed)
	state.UnusedRoom = state.RemainingRoom.Max(Money{})
	state.OverContribution = state.RemainingRoom.Neg().Max(Money{})
}

// deductionLimitFor picks the official limit in effect for a tax year: the
// snapshot for that year if present, else the most recent prior year's
// figure carried forward.
func deductionLimitFor(snaps []Snapshot, year int) (Money, int, bool) {
	var (
		best     Money
		bestYear int
		found    bool
	)
	for _, s := range snaps {
		if s.DeductionLimit == nil || s.TaxYear > year {
			continue
		}
		if !found || s.TaxYear > bestYear {
			best = *s.DeductionLimit
			bestYear = s.TaxYear
			found = true
		}
	}
	return best, bestYear, found
}

// =============================================================================
// LIFETIME-ROOM ACCOUNTS
// =============================================================================

func computeLifetimeRoom(state *RoomState, acct Account, txs []Transaction, limits Limits, asOf Date) error {
	if acct.RoomStartYear <= 0 {
		return ErrInvalidInput
	}

	totalRoom := lifetimeRoomAccrued(acct.RoomStartYear, asOf.Year(), limits)

	for _, tx := range txs {
		if tx.Kind != TxWithdrawal || tx.Date.After(asOf) {
			continue
		}
		// Withdrawn room comes back at the start of the NEXT calendar
		// year, never within the year of the withdrawal.
		if tx.TaxYear() < asOf.Year() {
			state.RestoredWithdrawals = state.RestoredWithdrawals.Add(tx.Amount)
		} else {
			state.CurrentYearWithdrawals = state.CurrentYearWithdrawals.Add(tx.Amount)
		}
	}

	state.RemainingRoom = totalRoom.Sub(state.TotalContributions).Add(state.RestoredWithdrawals)
	state.UnusedRoom = state.RemainingRoom.Max(Money{})
	state.OverContribution = state.RemainingRoom.Neg().Max(Money{})
	state.WithinBuffer = state.OverContribution.IsPositive() &&
		!state.OverContribution.GreaterThan(limits.RoomBuffer)
	return nil
}

// lifetimeRoomAccrued sums the annual increment for every calendar year in
// [startYear, throughYear].
func lifetimeRoomAccrued(startYear, throughYear int, limits Limits) Money {
	if throughYear < startYear {
		return Money{}
	}
	years := int64(throughYear - startYear + 1)
	return limits.AnnualRoomIncrement.Mul(MoneyFromInt(years).Value)
}

// =============================================================================
// EDUCATION-GRANT ACCOUNTS
// =============================================================================

func computeEducationRoom(state *RoomState, limits Limits) {
	// Grants add cash value but never consume contribution room.
	state.RemainingRoom = limits.EducationLifetimeLimit.Sub(state.TotalContributions)
	state.OverContribution = state.RemainingRoom.Neg().Max(Money{})
}
