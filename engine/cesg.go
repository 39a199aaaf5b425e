/*
cesg.go - Grant matching with annual and lifetime caps

PURPOSE:
  ComputeCESG derives the grant entitlement for one beneficiary across all
  of their education accounts. Matching is a percentage of each year's
  CONTRIBUTIONS (never of grants), capped three ways: by the grant room
  accumulated so far (unused annual room carries forward), by a statutory
  ceiling on a single year's payout, and by the lifetime maximum.

  Years must be processed chronologically because each year's effective
  cap depends on the room rolled forward from all prior years.

  Entitlement is derived from contribution history; recorded grant
  transactions feed account cash totals, not this math.
*/
package engine

// ComputeCESG folds the beneficiary's contribution history (across all of
// their education accounts) into a grant summary as of a date.
// birthYear may be 0 when unknown; the age guard is then skipped.
func ComputeCESG(beneficiary string, birthYear int, txs []Transaction, limits Limits, asOf Date) CESGSummary {
	summary := CESGSummary{
		Beneficiary: beneficiary,
		LifetimeMax: limits.GrantLifetimeMax,
	}

	contribByYear := map[int]Money{}
	firstYear := asOf.Year()
	for _, tx := range txs {
		if tx.Kind != TxContribution || tx.Date.After(asOf) {
			continue
		}
		y := tx.TaxYear()
		contribByYear[y] = contribByYear[y].Add(tx.Amount)
		if y < firstYear {
			firstYear = y
		}
	}

	// Grant room accrues from the beneficiary's birth year when known,
	// else from the first contribution year.
	startYear := firstYear
	if birthYear > 0 && birthYear < startYear {
		startYear = birthYear
	}

	var (
		grantRoom Money // accumulated unused annual room
		total     Money // lifetime grants earned
	)

	for year := startYear; year <= asOf.Year(); year++ {
		agedOut := birthYear > 0 && year-birthYear > limits.GrantMaxAge
		if !agedOut {
			grantRoom = grantRoom.Add(limits.GrantAnnualRoom)
		}

		lifetimeLeft := limits.GrantLifetimeMax.Sub(total)
		yearCap := grantRoom.Min(limits.GrantAnnualPayoutCap).Min(lifetimeLeft).Max(Money{})

		var earned Money
		if !agedOut {
			matchable := contribByYear[year].Mul(limits.GrantMatchRate)
			earned = matchable.Min(yearCap)
		}

		total = total.Add(earned)
		grantRoom = grantRoom.Sub(earned)

		if year == asOf.Year() {
			summary.CurrentYearGrant = earned
			summary.CurrentYearMax = yearCap
		}
	}

	summary.TotalReceived = total
	summary.RemainingLifetime = limits.GrantLifetimeMax.Sub(total).Max(Money{})
	summary.CarryForwardRoom = grantRoom.Max(Money{})

	reachedMax := !summary.RemainingLifetime.IsPositive()
	agedOut := birthYear > 0 && asOf.Year()-birthYear > limits.GrantMaxAge
	summary.Eligible = !reachedMax && !agedOut

	return summary
}
