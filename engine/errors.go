/*
errors.go - Centralized error types for the room engine

PURPOSE:
  All error types in one place. Validation errors surface immediately to
  the caller that attempted the write; calculators re-check defensively.
  Missing authoritative data is NOT an error - it surfaces as data
  (RoomState.RoomKnown=false, PenaltySchedule.UnknownLimitYears) so the
  caller can prompt for a snapshot instead of failing.

USAGE:
  if errors.Is(err, engine.ErrInvalidInput) { ... }

SEE ALSO:
  - journal.go: write-side validation producing these errors
  - api/handlers.go: maps error classes to HTTP status codes
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput covers non-positive amounts, transaction kinds not
	// permitted for the account type, and malformed account metadata.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownAccountType is returned for any type outside the closed
	// DeductionLimit | LifetimeRoom | EducationGrant variant.
	ErrUnknownAccountType = errors.New("unknown account type")

	// ErrUnsupportedType is returned when an operation does not apply to
	// the account type, e.g. penalties on an education account.
	ErrUnsupportedType = errors.New("operation not supported for account type")

	// ErrNotFound indicates a missing account, transaction or snapshot.
	// "No data yet" is a normal state for a new account.
	ErrNotFound = errors.New("not found")

	// ErrImmutableField is returned when an update touches a field that is
	// fixed after creation (account type, owner, contributor).
	ErrImmutableField = errors.New("field is immutable after creation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidAmountError reports a non-positive transaction amount.
type InvalidAmountError struct {
	TransactionID string
	Amount        Money
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("transaction %s: amount must be positive, got %s", e.TransactionID, e.Amount)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidInput }

// KindNotAllowedError reports a transaction kind that the account type
// does not permit (grants exist only on education accounts).
type KindNotAllowedError struct {
	Kind        TxKind
	AccountType AccountType
}

func (e *KindNotAllowedError) Error() string {
	return fmt.Sprintf("transaction kind %q not permitted for %s accounts", e.Kind, e.AccountType)
}

func (e *KindNotAllowedError) Unwrap() error { return ErrInvalidInput }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnknownAccountType) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrImmutableField)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
