package engine

import "github.com/shopspring/decimal"

// =============================================================================
// LIMITS - Jurisdiction constants
// =============================================================================

// Limits carries every jurisdiction-specific figure the calculators need.
// They are named configuration, never literals inside the calculators: the
// authoritative body revises them, so deployments override via config.
type Limits struct {
	// LifetimeRoom accounts: the fixed annual room increment added each
	// January 1 from the holder's room-start year onward.
	AnnualRoomIncrement Money

	// LifetimeRoom accounts: an excess at or below this amount is reported
	// as "within buffer" - informational, not suppressed.
	RoomBuffer Money

	// Monthly penalty rate applied to the month-end excess. Each month's
	// penalty is computed independently off that month's own excess.
	PenaltyRate decimal.Decimal

	// EducationGrant accounts.
	EducationLifetimeLimit Money           // lifetime contribution limit
	GrantMatchRate         decimal.Decimal // matched share of contributions
	GrantAnnualRoom        Money           // grant room added per year
	GrantAnnualPayoutCap   Money           // ceiling on one year's payout incl. carry-forward
	GrantLifetimeMax       Money           // lifetime grant total
	GrantMaxAge            int             // beneficiary ages out after this age
}

// DefaultLimits returns the current published figures. Callers needing
// historical or revised values supply their own Limits via config.
func DefaultLimits() Limits {
	return Limits{
		AnnualRoomIncrement:    MoneyFromInt(7000),
		RoomBuffer:             MoneyFromInt(2000),
		PenaltyRate:            decimal.NewFromFloat(0.01),
		EducationLifetimeLimit: MoneyFromInt(50000),
		GrantMatchRate:         decimal.NewFromFloat(0.20),
		GrantAnnualRoom:        MoneyFromInt(500),
		GrantAnnualPayoutCap:   MoneyFromInt(1000),
		GrantLifetimeMax:       MoneyFromInt(7200),
		GrantMaxAge:            17,
	}
}
