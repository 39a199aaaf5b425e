/*
penalty.go - Month-by-month excess reconstruction

PURPOSE:
  ComputePenalties replays the account's history one calendar month at a
  time and emits a penalty row for every month whose month-END excess is
  positive. Only the month-end balance matters: an excess cleared before
  month end costs nothing for that month.

TIMING RULES:
  LifetimeRoom: the annual increment lands January 1 BEFORE that year's
  transactions apply, and prior-year withdrawal restoration also lands
  January 1. A withdrawal therefore never reduces the excess in the year
  it is made.

  DeductionLimit: the limit in effect for a month is the yearly figure
  (current-year snapshot, else most recent prior year carried forward).
  Years with no known limit are skipped and flagged in
  UnknownLimitYears - zero room is never assumed.

  The penalty is a fixed monthly rate on the month's own excess, not an
  accruing fine on unpaid fines.
*/
package engine

import "time"

// ComputePenalties reconstructs the penalty schedule for a DeductionLimit
// or LifetimeRoom account from its first recorded transaction through the
// asOf month. EducationGrant accounts have no over-contribution penalty.
func ComputePenalties(acct Account, txs []Transaction, snaps []Snapshot, limits Limits, asOf Date) (PenaltySchedule, error) {
	if !acct.Type.Valid() {
		return PenaltySchedule{}, ErrUnknownAccountType
	}
	if acct.Type == EducationGrant {
		return PenaltySchedule{}, ErrUnsupportedType
	}

	sorted := sortTransactions(txs)
	for _, tx := range sorted {
		if err := ValidateTransaction(acct.Type, tx); err != nil {
			return PenaltySchedule{}, err
		}
	}

	schedule := PenaltySchedule{AccountID: acct.ID}
	if len(sorted) == 0 || sorted[0].Date.After(asOf) {
		return schedule, nil
	}

	switch acct.Type {
	case LifetimeRoom:
		if acct.RoomStartYear <= 0 {
			return PenaltySchedule{}, ErrInvalidInput
		}
		schedule.Penalties = lifetimeRoomPenalties(acct, sorted, limits, asOf)
	case DeductionLimit:
		schedule.Penalties, schedule.UnknownLimitYears = deductionLimitPenalties(sorted, snaps, limits, asOf)
	}

	return schedule, nil
}

// =============================================================================
// LIFETIME-ROOM WALK
// =============================================================================

func lifetimeRoomPenalties(acct Account, sorted []Transaction, limits Limits, asOf Date) []MonthlyPenalty {
	var penalties []MonthlyPenalty

	year, month := sorted[0].Date.Year(), sorted[0].Date.Month()
	var (
		contributed Money // all contributions through the current month end
		restored    Money // withdrawals from years before the current one
		idx         int
	)
	withdrawnByYear := map[int]Money{}

	for {
		// Restoration of every prior year's withdrawals, applied Jan 1.
		if month == time.January {
			restored = Money{}
			for y, amt := range withdrawnByYear {
				if y < year {
					restored = restored.Add(amt)
				}
			}
		}

		end := EndOfMonth(year, month)
		for idx < len(sorted) && sorted[idx].Date.BeforeOrEqual(end) {
			tx := sorted[idx]
			switch tx.Kind {
			case TxContribution:
				contributed = contributed.Add(tx.Amount)
			case TxWithdrawal:
				withdrawnByYear[tx.TaxYear()] = withdrawnByYear[tx.TaxYear()].Add(tx.Amount)
			}
			idx++
		}

		// Increment through the current year is already in effect: it
		// lands January 1 before the year's transactions.
		totalRoom := lifetimeRoomAccrued(acct.RoomStartYear, year, limits)
		excess := contributed.Sub(totalRoom).Sub(restored)
		if excess.IsPositive() {
			penalties = append(penalties, MonthlyPenalty{
				Year:    year,
				Month:   month,
				Excess:  excess,
				Penalty: excess.Mul(limits.PenaltyRate).Round(2),
			})
		}

		if year == asOf.Year() && month == asOf.Month() {
			break
		}
		year, month = nextMonth(year, month)
	}

	return penalties
}

// =============================================================================
// DEDUCTION-LIMIT WALK
// =============================================================================

func deductionLimitPenalties(sorted []Transaction, snaps []Snapshot, limits Limits, asOf Date) ([]MonthlyPenalty, []int) {
	var (
		penalties    []MonthlyPenalty
		unknownYears []int
	)

	year, month := sorted[0].Date.Year(), sorted[0].Date.Month()

	for year < asOf.Year() || (year == asOf.Year() && month <= asOf.Month()) {
		limit, limitYear, ok := deductionLimitFor(snaps, year)
		if !ok {
			// No figure known for this year: flag it and move to January
			// of the next year rather than assuming zero room.
			unknownYears = append(unknownYears, year)
			year, month = year+1, time.January
			continue
		}

		end := EndOfMonth(year, month)
		var contributed Money
		for _, tx := range sorted {
			if tx.Kind != TxContribution || tx.Date.After(end) {
				continue
			}
			if tx.TaxYear() >= limitYear {
				contributed = contributed.Add(tx.Amount)
			}
		}

		excess := contributed.Sub(limit)
		if excess.IsPositive() {
			penalties = append(penalties, MonthlyPenalty{
				Year:    year,
				Month:   month,
				Excess:  excess,
				Penalty: excess.Mul(limits.PenaltyRate).Round(2),
			})
		}

		if year == asOf.Year() && month == asOf.Month() {
			break
		}
		year, month = nextMonth(year, month)
	}

	return penalties, unknownYears
}
