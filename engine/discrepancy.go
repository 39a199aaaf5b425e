/*
discrepancy.go - Calculated room vs the authoritative yearly statement

PURPOSE:
  When a yearly statement ("NOA") arrives, its official figure for a tax
  year is compared against what the engine reconstructs for the same year
  from the journal and EARLIER snapshots. A material difference means the
  self-reported journal and the tax authority disagree - usually a missed
  or duplicated transaction.

  No snapshot for the year means the check is skipped entirely: neither
  "matching" nor "discrepant".
*/
package engine

// CheckDiscrepancy compares a calculated room figure against the official
// figure in the snapshot for the same (person, accountType, taxYear).
// Returns nil when the snapshot is absent or carries no figure for the
// account type - the check is skipped, not reported.
func CheckDiscrepancy(person string, acctType AccountType, taxYear int, calculatedRoom Money, snap *Snapshot, tolerance Money) *DiscrepancyResult {
	if snap == nil {
		return nil
	}

	var official *Money
	switch acctType {
	case DeductionLimit:
		official = snap.DeductionLimit
	case LifetimeRoom:
		official = snap.RoomAsOfJan1
	default:
		return nil
	}
	if official == nil {
		return nil
	}

	diff := calculatedRoom.Sub(*official).Abs()
	return &DiscrepancyResult{
		Person:         person,
		AccountType:    acctType,
		TaxYear:        taxYear,
		CalculatedRoom: calculatedRoom,
		OfficialRoom:   *official,
		Difference:     diff,
		HasDiscrepancy: diff.GreaterThan(tolerance),
	}
}

// CalculatedRoomForYear reconstructs the engine's own room figure for a tax
// year, for comparison against that year's statement. The snapshot under
// verification is deliberately excluded: for DeductionLimit accounts only
// figures from EARLIER years feed the calculation.
//
// Returns ok=false when the figure cannot be reconstructed (no prior
// snapshot for a DeductionLimit account).
func CalculatedRoomForYear(acct Account, txs []Transaction, snaps []Snapshot, limits Limits, taxYear int) (Money, bool) {
	sorted := sortTransactions(txs)

	switch acct.Type {
	case DeductionLimit:
		// Prior year's limit carried forward, minus contributions made
		// between that snapshot's year and the end of taxYear-1. That is
		// the room the statement for taxYear reports as of its start.
		limit, limitYear, ok := deductionLimitFor(excludeYear(snaps, taxYear), taxYear-1)
		if !ok {
			return Money{}, false
		}
		var contributed Money
		for _, tx := range sorted {
			if tx.Kind != TxContribution {
				continue
			}
			if y := tx.TaxYear(); y >= limitYear && y < taxYear {
				contributed = contributed.Add(tx.Amount)
			}
		}
		return limit.Sub(contributed), true

	case LifetimeRoom:
		if acct.RoomStartYear <= 0 {
			return Money{}, false
		}
		// Room as of January 1 of taxYear: the year's increment has
		// landed, prior-year withdrawals have been restored, and only
		// contributions from earlier years have consumed room.
		total := lifetimeRoomAccrued(acct.RoomStartYear, taxYear, limits)
		var contributed, restored Money
		for _, tx := range sorted {
			if tx.TaxYear() >= taxYear {
				continue
			}
			switch tx.Kind {
			case TxContribution:
				contributed = contributed.Add(tx.Amount)
			case TxWithdrawal:
				restored = restored.Add(tx.Amount)
			}
		}
		return total.Sub(contributed).Add(restored), true
	}

	return Money{}, false
}

func excludeYear(snaps []Snapshot, year int) []Snapshot {
	filtered := make([]Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if s.TaxYear != year {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
