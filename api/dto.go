/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts cross the wire as strings with two decimal places ("12500.00").
  Floats drift; strings don't.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/cpenarrieta/room-engine/engine"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Name                 string `json:"name"`
	Owner                string `json:"owner"`
	Contributor          string `json:"contributor,omitempty"`
	RoomStartYear        int    `json:"room_start_year,omitempty"`
	Beneficiary          string `json:"beneficiary,omitempty"`
	BeneficiaryBirthYear int    `json:"beneficiary_birth_year,omitempty"`
	Notes                string `json:"notes,omitempty"`
	Hidden               bool   `json:"hidden,omitempty"`
	CreatedAt            string `json:"created_at,omitempty"`
}

// CreateAccountRequest is the request to register an account.
type CreateAccountRequest struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Name                 string `json:"name"`
	Owner                string `json:"owner"`
	Contributor          string `json:"contributor"`
	RoomStartYear        int    `json:"room_start_year"`
	Beneficiary          string `json:"beneficiary"`
	BeneficiaryBirthYear int    `json:"beneficiary_birth_year"`
	Notes                string `json:"notes"`
}

// UpdateAccountRequest carries the administrative fields that may change
// after creation.
type UpdateAccountRequest struct {
	Name                 string `json:"name"`
	RoomStartYear        int    `json:"room_start_year"`
	Beneficiary          string `json:"beneficiary"`
	BeneficiaryBirthYear int    `json:"beneficiary_birth_year"`
	Notes                string `json:"notes"`
	Hidden               bool   `json:"hidden"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TransactionDTO represents a journal entry in API responses.
type TransactionDTO struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Kind      string `json:"kind"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateTransactionRequest is the request to record a journal entry.
type CreateTransactionRequest struct {
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
	Notes  string `json:"notes"`
}

// UpdateTransactionRequest edits an existing entry.
type UpdateTransactionRequest struct {
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
	Notes  string `json:"notes"`
}

// =============================================================================
// DERIVED STATE
// =============================================================================

// RoomStateDTO is the derived balance for one account.
type RoomStateDTO struct {
	AccountID string `json:"account_id"`
	Type      string `json:"type"`
	AsOf      string `json:"as_of"`

	TotalContributions string `json:"total_contributions"`
	TotalWithdrawals   string `json:"total_withdrawals"`
	RemainingRoom      string `json:"remaining_room"`
	OverContribution   string `json:"over_contribution"`
	RoomKnown          bool   `json:"room_known"`

	UnusedRoom             string `json:"unused_room,omitempty"`
	RestoredWithdrawals    string `json:"restored_withdrawals,omitempty"`
	CurrentYearWithdrawals string `json:"current_year_withdrawals,omitempty"`
	WithinBuffer           bool   `json:"within_buffer,omitempty"`
	TotalGrants            string `json:"total_grants,omitempty"`

	CESG *CESGSummaryDTO `json:"cesg,omitempty"`
}

// CESGSummaryDTO is the grant entitlement for one beneficiary.
type CESGSummaryDTO struct {
	Beneficiary       string `json:"beneficiary"`
	TotalReceived     string `json:"total_received"`
	LifetimeMax       string `json:"lifetime_max"`
	RemainingLifetime string `json:"remaining_lifetime"`
	CurrentYearGrant  string `json:"current_year_grant"`
	CurrentYearMax    string `json:"current_year_max"`
	CarryForwardRoom  string `json:"carry_forward_room"`
	Eligible          bool   `json:"eligible"`
}

// MonthlyPenaltyDTO is one penalized month.
type MonthlyPenaltyDTO struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Excess  string `json:"excess"`
	Penalty string `json:"penalty"`
}

// PenaltyScheduleDTO is the reconstructed penalty history for an account.
type PenaltyScheduleDTO struct {
	AccountID         string              `json:"account_id"`
	Penalties         []MonthlyPenaltyDTO `json:"penalties"`
	TotalPenalty      string              `json:"total_penalty"`
	UnknownLimitYears []int               `json:"unknown_limit_years,omitempty"`
}

// DiscrepancyDTO reports calculated vs official room for a tax year.
type DiscrepancyDTO struct {
	Person         string `json:"person"`
	AccountType    string `json:"account_type"`
	TaxYear        int    `json:"tax_year"`
	CalculatedRoom string `json:"calculated_room"`
	OfficialRoom   string `json:"official_room"`
	Difference     string `json:"difference"`
	HasDiscrepancy bool   `json:"has_discrepancy"`
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// SnapshotDTO represents one year's authoritative figures.
type SnapshotDTO struct {
	Person         string  `json:"person"`
	AccountType    string  `json:"account_type"`
	TaxYear        int     `json:"tax_year"`
	EarnedIncome   *string `json:"earned_income,omitempty"`
	DeductionLimit *string `json:"deduction_limit,omitempty"`
	RoomAsOfJan1   *string `json:"room_as_of_jan1,omitempty"`
	SourceDocID    string  `json:"source_doc_id,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}

// UpsertSnapshotRequest records or replaces a year's figures.
type UpsertSnapshotRequest struct {
	Person         string  `json:"person"`
	AccountType    string  `json:"account_type"`
	TaxYear        int     `json:"tax_year"`
	EarnedIncome   *string `json:"earned_income"`
	DeductionLimit *string `json:"deduction_limit"`
	RoomAsOfJan1   *string `json:"room_as_of_jan1"`
	SourceDocID    string  `json:"source_doc_id"`
	Notes          string  `json:"notes"`
}

// ExtractResponse is a PROPOSED snapshot pulled from a statement PDF.
// Nothing is persisted until the client reviews and upserts it.
type ExtractResponse struct {
	TaxYear        int     `json:"tax_year"`
	EarnedIncome   *string `json:"earned_income,omitempty"`
	DeductionLimit *string `json:"deduction_limit,omitempty"`
	RoomAsOfJan1   *string `json:"room_as_of_jan1,omitempty"`
	Confidence     float64 `json:"confidence"`
}

// =============================================================================
// ALERTS AND SUMMARY
// =============================================================================

// AlertDTO is a persisted over-contribution alert.
type AlertDTO struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Excess    string `json:"excess"`
	Penalty   string `json:"penalty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// AccountSummaryDTO pairs an account with its derived room.
type AccountSummaryDTO struct {
	Account AccountDTO    `json:"account"`
	Room    *RoomStateDTO `json:"room,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// HouseholdSummaryDTO is the one-page household view.
type HouseholdSummaryDTO struct {
	AsOf     string              `json:"as_of"`
	Accounts []AccountSummaryDTO `json:"accounts"`
	Grants   []CESGSummaryDTO    `json:"grants,omitempty"`
}

// AccountDetailResponse is an account with its room and full history.
type AccountDetailResponse struct {
	Account      AccountDTO       `json:"account"`
	Room         *RoomStateDTO    `json:"room,omitempty"`
	Transactions []TransactionDTO `json:"transactions"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toAccountDTO(a engine.Account) AccountDTO {
	dto := AccountDTO{
		ID:                   a.ID,
		Type:                 string(a.Type),
		Name:                 a.Name,
		Owner:                a.Owner,
		Contributor:          a.Contributor,
		RoomStartYear:        a.RoomStartYear,
		Beneficiary:          a.Beneficiary,
		BeneficiaryBirthYear: a.BeneficiaryBirthYear,
		Notes:                a.Notes,
		Hidden:               a.Hidden,
	}
	if !a.CreatedAt.IsZero() {
		dto.CreatedAt = a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return dto
}

func toTransactionDTO(tx engine.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:        tx.ID,
		AccountID: tx.AccountID,
		Kind:      string(tx.Kind),
		Amount:    tx.Amount.String(),
		Date:      tx.Date.String(),
		Notes:     tx.Notes,
	}
	if !tx.CreatedAt.IsZero() {
		dto.CreatedAt = tx.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return dto
}

func toRoomStateDTO(s engine.RoomState) *RoomStateDTO {
	dto := &RoomStateDTO{
		AccountID:          s.AccountID,
		Type:               string(s.Type),
		AsOf:               s.AsOf.String(),
		TotalContributions: s.TotalContributions.String(),
		TotalWithdrawals:   s.TotalWithdrawals.String(),
		RemainingRoom:      s.RemainingRoom.String(),
		OverContribution:   s.OverContribution.String(),
		RoomKnown:          s.RoomKnown,
		WithinBuffer:       s.WithinBuffer,
	}
	switch s.Type {
	case engine.DeductionLimit:
		dto.UnusedRoom = s.UnusedRoom.String()
	case engine.LifetimeRoom:
		dto.UnusedRoom = s.UnusedRoom.String()
		dto.RestoredWithdrawals = s.RestoredWithdrawals.String()
		dto.CurrentYearWithdrawals = s.CurrentYearWithdrawals.String()
	case engine.EducationGrant:
		dto.TotalGrants = s.TotalGrants.String()
	}
	if s.CESG != nil {
		dto.CESG = toCESGSummaryDTO(*s.CESG)
	}
	return dto
}

func toCESGSummaryDTO(s engine.CESGSummary) *CESGSummaryDTO {
	return &CESGSummaryDTO{
		Beneficiary:       s.Beneficiary,
		TotalReceived:     s.TotalReceived.String(),
		LifetimeMax:       s.LifetimeMax.String(),
		RemainingLifetime: s.RemainingLifetime.String(),
		CurrentYearGrant:  s.CurrentYearGrant.String(),
		CurrentYearMax:    s.CurrentYearMax.String(),
		CarryForwardRoom:  s.CarryForwardRoom.String(),
		Eligible:          s.Eligible,
	}
}

func toPenaltyScheduleDTO(sched engine.PenaltySchedule) PenaltyScheduleDTO {
	dto := PenaltyScheduleDTO{
		AccountID:         sched.AccountID,
		Penalties:         make([]MonthlyPenaltyDTO, len(sched.Penalties)),
		UnknownLimitYears: sched.UnknownLimitYears,
	}
	var total engine.Money
	for i, p := range sched.Penalties {
		dto.Penalties[i] = MonthlyPenaltyDTO{
			Year:    p.Year,
			Month:   int(p.Month),
			Excess:  p.Excess.String(),
			Penalty: p.Penalty.String(),
		}
		total = total.Add(p.Penalty)
	}
	dto.TotalPenalty = total.String()
	return dto
}

func toSnapshotDTO(s engine.Snapshot) SnapshotDTO {
	return SnapshotDTO{
		Person:         s.Person,
		AccountType:    string(s.AccountType),
		TaxYear:        s.TaxYear,
		EarnedIncome:   moneyString(s.EarnedIncome),
		DeductionLimit: moneyString(s.DeductionLimit),
		RoomAsOfJan1:   moneyString(s.RoomAsOfJan1),
		SourceDocID:    s.SourceDocID,
		Notes:          s.Notes,
	}
}

func toDiscrepancyDTO(d engine.DiscrepancyResult) DiscrepancyDTO {
	return DiscrepancyDTO{
		Person:         d.Person,
		AccountType:    string(d.AccountType),
		TaxYear:        d.TaxYear,
		CalculatedRoom: d.CalculatedRoom.String(),
		OfficialRoom:   d.OfficialRoom.String(),
		Difference:     d.Difference.String(),
		HasDiscrepancy: d.HasDiscrepancy,
	}
}

func toAlertDTO(a engine.Alert) AlertDTO {
	dto := AlertDTO{
		ID:        a.ID,
		AccountID: a.AccountID,
		Year:      a.Year,
		Month:     int(a.Month),
		Excess:    a.Excess.String(),
		Penalty:   a.Penalty.String(),
	}
	if !a.CreatedAt.IsZero() {
		dto.CreatedAt = a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return dto
}

func moneyString(m *engine.Money) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}
