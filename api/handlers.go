/*
handlers.go - HTTP API handlers for the room engine

PURPOSE:
  Exposes the room engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the calculators. No balance is
  ever read from storage: every response that shows room or penalties
  recomputes them from the journal and snapshots.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                    List accounts with derived room
    POST   /api/accounts                    Register an account
    GET    /api/accounts/{id}               Account + room + full history
    PUT    /api/accounts/{id}               Edit administrative fields
    GET    /api/accounts/{id}/penalties     Reconstructed penalty schedule
    POST   /api/accounts/{id}/transactions  Record a journal entry

  Transactions:
    PUT    /api/transactions/{id}           Edit an entry
    DELETE /api/transactions/{id}           Delete an entry

  Snapshots:
    GET    /api/snapshots                   List a person's yearly figures
    PUT    /api/snapshots                   Record/replace a year's figures
    POST   /api/snapshots/extract           Propose figures from a PDF

  Derived views:
    GET    /api/summary                     Household one-pager
    GET    /api/discrepancy                 Calculated vs official room
    GET    /api/alerts                      Persisted over-contribution alerts

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cpenarrieta/room-engine/engine"
	"github.com/cpenarrieta/room-engine/extract"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Accounts  engine.AccountStore
	Journal   engine.Journal
	Snapshots engine.SnapshotStore
	Alerts    engine.AlertStore

	Limits    engine.Limits
	Tolerance engine.Money

	// Extractor is optional; nil disables POST /api/snapshots/extract.
	Extractor extract.Extractor

	Log zerolog.Logger

	// now is injectable for tests; defaults to engine.Today.
	now func() engine.Date
}

// Stores bundles the four storage interfaces. The SQLite store satisfies
// all of them; tests pass the in-memory store.
type Stores interface {
	engine.AccountStore
	engine.Journal
	engine.SnapshotStore
	engine.AlertStore
}

// NewHandler creates a handler backed by the given store.
func NewHandler(s Stores, limits engine.Limits, tolerance engine.Money, ex extract.Extractor, log zerolog.Logger) *Handler {
	return &Handler{
		Accounts:  s,
		Journal:   s,
		Snapshots: s,
		Alerts:    s,
		Limits:    limits,
		Tolerance: tolerance,
		Extractor: ex,
		Log:       log,
		now:       engine.Today,
	}
}

func (h *Handler) asOf(r *http.Request) (engine.Date, error) {
	if v := r.URL.Query().Get("as_of"); v != "" {
		return engine.ParseDate(v)
	}
	return h.now(), nil
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts with their derived room.
// GET /api/accounts?include_hidden=true&as_of=YYYY-MM-DD
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
		return
	}

	accounts, err := h.Accounts.ListAccounts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	includeHidden := r.URL.Query().Get("include_hidden") == "true"

	summaries := []AccountSummaryDTO{}
	for _, acct := range accounts {
		if acct.Hidden && !includeHidden {
			continue
		}
		summaries = append(summaries, h.accountSummary(r, acct, asOf))
	}

	writeJSON(w, http.StatusOK, summaries)
}

// CreateAccount registers a new account.
// POST /api/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	acct := engine.Account{
		ID:                   req.ID,
		Type:                 engine.AccountType(req.Type),
		Name:                 req.Name,
		Owner:                req.Owner,
		Contributor:          req.Contributor,
		RoomStartYear:        req.RoomStartYear,
		Beneficiary:          req.Beneficiary,
		BeneficiaryBirthYear: req.BeneficiaryBirthYear,
		Notes:                req.Notes,
	}
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	if !acct.Type.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown account type", engine.ErrUnknownAccountType)
		return
	}
	if acct.Owner == "" {
		writeError(w, http.StatusBadRequest, "Owner is required", nil)
		return
	}
	if acct.Type == engine.LifetimeRoom && acct.RoomStartYear <= 0 {
		writeError(w, http.StatusBadRequest, "room_start_year is required for lifetime-room accounts", nil)
		return
	}

	if err := h.Accounts.CreateAccount(r.Context(), acct); err != nil {
		writeEngineError(w, "Failed to create account", err)
		return
	}

	h.Log.Info().Str("account_id", acct.ID).Str("type", string(acct.Type)).Msg("account created")
	writeJSON(w, http.StatusCreated, toAccountDTO(acct))
}

// GetAccount returns an account with its room and full history.
// GET /api/accounts/{id}?as_of=YYYY-MM-DD
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
		return
	}

	acct, err := h.Accounts.GetAccount(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get account", err)
		return
	}
	if acct == nil {
		writeError(w, http.StatusNotFound, "Account not found", nil)
		return
	}

	txs, err := h.Journal.ListTransactions(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	resp := AccountDetailResponse{
		Account:      toAccountDTO(*acct),
		Transactions: make([]TransactionDTO, len(txs)),
	}
	for i, tx := range txs {
		resp.Transactions[i] = toTransactionDTO(tx)
	}

	if state, err := h.computeRoom(r, *acct, txs, asOf); err == nil {
		resp.Room = toRoomStateDTO(state)
	} else {
		h.Log.Warn().Err(err).Str("account_id", id).Msg("room computation failed")
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateAccount edits administrative fields.
// PUT /api/accounts/{id}
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	existing, err := h.Accounts.GetAccount(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get account", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Account not found", nil)
		return
	}

	acct := *existing
	acct.Name = req.Name
	acct.RoomStartYear = req.RoomStartYear
	acct.Beneficiary = req.Beneficiary
	acct.BeneficiaryBirthYear = req.BeneficiaryBirthYear
	acct.Notes = req.Notes
	acct.Hidden = req.Hidden

	if err := h.Accounts.UpdateAccount(ctx, acct); err != nil {
		writeEngineError(w, "Failed to update account", err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountDTO(acct))
}

// GetPenalties returns the reconstructed penalty schedule.
// GET /api/accounts/{id}/penalties?as_of=YYYY-MM-DD
func (h *Handler) GetPenalties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
		return
	}

	acct, err := h.Accounts.GetAccount(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get account", err)
		return
	}
	if acct == nil {
		writeError(w, http.StatusNotFound, "Account not found", nil)
		return
	}

	txs, err := h.Journal.ListTransactions(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	snaps, err := h.Snapshots.ListSnapshots(ctx, acct.Owner, acct.Type)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots", err)
		return
	}

	sched, err := engine.ComputePenalties(*acct, txs, snaps, h.Limits, asOf)
	if err != nil {
		writeEngineError(w, "Failed to compute penalties", err)
		return
	}

	writeJSON(w, http.StatusOK, toPenaltyScheduleDTO(sched))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// CreateTransaction records a journal entry.
// POST /api/accounts/{id}/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := chi.URLParam(r, "id")

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tx, err := h.transactionFromRequest(accountID, req.Kind, req.Amount, req.Date, req.Notes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction", err)
		return
	}
	tx.ID = uuid.NewString()

	if err := h.Journal.CreateTransaction(ctx, tx); err != nil {
		writeEngineError(w, "Failed to record transaction", err)
		return
	}

	h.Log.Info().
		Str("account_id", accountID).
		Str("kind", string(tx.Kind)).
		Str("amount", tx.Amount.String()).
		Msg("transaction recorded")
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// UpdateTransaction edits an existing journal entry.
// PUT /api/transactions/{id}
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tx, err := h.transactionFromRequest("", req.Kind, req.Amount, req.Date, req.Notes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction", err)
		return
	}
	tx.ID = id

	if err := h.Journal.UpdateTransaction(ctx, tx); err != nil {
		writeEngineError(w, "Failed to update transaction", err)
		return
	}

	updated, err := h.Journal.GetTransaction(ctx, id)
	if err != nil || updated == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(*updated))
}

// DeleteTransaction removes a journal entry.
// DELETE /api/transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.Journal.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, "Failed to delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transactionFromRequest(accountID, kind, amount, dateStr, notes string) (engine.Transaction, error) {
	d, err := engine.ParseDate(dateStr)
	if err != nil {
		return engine.Transaction{}, err
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return engine.Transaction{}, err
	}
	return engine.Transaction{
		AccountID: accountID,
		Kind:      engine.TxKind(kind),
		Amount:    engine.Money{Value: value},
		Date:      d,
		Notes:     notes,
	}, nil
}

// =============================================================================
// SNAPSHOT HANDLERS
// =============================================================================

// ListSnapshots returns a person's yearly figures for an account type.
// GET /api/snapshots?person=alex&type=deduction_limit
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	person := r.URL.Query().Get("person")
	acctType := engine.AccountType(r.URL.Query().Get("type"))

	if person == "" || !acctType.Valid() {
		writeError(w, http.StatusBadRequest, "person and a valid type are required", nil)
		return
	}

	snaps, err := h.Snapshots.ListSnapshots(r.Context(), person, acctType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots", err)
		return
	}

	yearFilter := 0
	if v := r.URL.Query().Get("year"); v != "" {
		yearFilter, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
	}

	dtos := make([]SnapshotDTO, 0, len(snaps))
	for _, s := range snaps {
		if yearFilter != 0 && s.TaxYear != yearFilter {
			continue
		}
		dtos = append(dtos, toSnapshotDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpsertSnapshot records or replaces one year's authoritative figures.
// PUT /api/snapshots
func (h *Handler) UpsertSnapshot(w http.ResponseWriter, r *http.Request) {
	var req UpsertSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	acctType := engine.AccountType(req.AccountType)
	if req.Person == "" || !acctType.Valid() || req.TaxYear <= 0 {
		writeError(w, http.StatusBadRequest, "person, a valid account_type and tax_year are required", nil)
		return
	}

	snap := engine.Snapshot{
		Person:      req.Person,
		AccountType: acctType,
		TaxYear:     req.TaxYear,
		SourceDocID: req.SourceDocID,
		Notes:       req.Notes,
	}

	var err error
	if snap.EarnedIncome, err = parseMoneyPtr(req.EarnedIncome); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid earned_income", err)
		return
	}
	if snap.DeductionLimit, err = parseMoneyPtr(req.DeductionLimit); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid deduction_limit", err)
		return
	}
	if snap.RoomAsOfJan1, err = parseMoneyPtr(req.RoomAsOfJan1); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid room_as_of_jan1", err)
		return
	}

	if err := h.Snapshots.UpsertSnapshot(r.Context(), snap); err != nil {
		writeEngineError(w, "Failed to save snapshot", err)
		return
	}

	h.Log.Info().
		Str("person", snap.Person).
		Str("type", string(snap.AccountType)).
		Int("tax_year", snap.TaxYear).
		Msg("snapshot recorded")
	writeJSON(w, http.StatusOK, toSnapshotDTO(snap))
}

// ExtractSnapshot proposes snapshot figures from an uploaded statement PDF.
// The response is a proposal only; nothing is persisted.
// POST /api/snapshots/extract
func (h *Handler) ExtractSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.Extractor == nil {
		writeError(w, http.StatusNotImplemented, "Statement extraction is not configured", nil)
		return
	}

	pdf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 20<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload", err)
		return
	}
	if len(pdf) == 0 {
		writeError(w, http.StatusBadRequest, "Empty upload", nil)
		return
	}

	fields, err := h.Extractor.Extract(r.Context(), pdf)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Extraction failed", err)
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{
		TaxYear:        fields.TaxYear,
		EarnedIncome:   floatString(fields.EarnedIncome),
		DeductionLimit: floatString(fields.DeductionLimit),
		RoomAsOfJan1:   floatString(fields.RoomAsOfJan1),
		Confidence:     fields.Confidence,
	})
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// GetSummary returns the household one-pager: every visible account with
// its room, plus one grant summary per beneficiary.
// GET /api/summary?as_of=YYYY-MM-DD
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
		return
	}

	accounts, err := h.Accounts.ListAccounts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	// Group by account type, then name, so the one-pager reads in
	// stable sections.
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].Type != accounts[j].Type {
			return accounts[i].Type < accounts[j].Type
		}
		return accounts[i].Name < accounts[j].Name
	})

	summary := HouseholdSummaryDTO{AsOf: asOf.String(), Accounts: []AccountSummaryDTO{}}
	seen := map[string]bool{}

	for _, acct := range accounts {
		if acct.Hidden {
			continue
		}
		summary.Accounts = append(summary.Accounts, h.accountSummary(r, acct, asOf))

		if acct.Type == engine.EducationGrant && acct.Beneficiary != "" && !seen[acct.Beneficiary] {
			seen[acct.Beneficiary] = true
			cesg, err := h.computeCESG(r, accounts, acct.Beneficiary, acct.BeneficiaryBirthYear, asOf)
			if err != nil {
				h.Log.Warn().Err(err).Str("beneficiary", acct.Beneficiary).Msg("grant summary failed")
				continue
			}
			summary.Grants = append(summary.Grants, *toCESGSummaryDTO(cesg))
		}
	}

	writeJSON(w, http.StatusOK, summary)
}

// GetDiscrepancy compares the reconstructed room for a tax year against
// that year's official figure.
// GET /api/discrepancy?person=alex&type=deduction_limit&year=2025
func (h *Handler) GetDiscrepancy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	person := r.URL.Query().Get("person")
	acctType := engine.AccountType(r.URL.Query().Get("type"))
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))

	if person == "" || !acctType.Valid() || year <= 0 {
		writeError(w, http.StatusBadRequest, "person, a valid type and year are required", nil)
		return
	}

	snap, err := h.Snapshots.GetSnapshot(ctx, person, acctType, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot", err)
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "No snapshot recorded for that year; check skipped", nil)
		return
	}

	accounts, err := h.Accounts.ListAccounts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	// Room is per person, not per account: merge the journal across all of
	// the person's accounts of this type.
	var (
		owned []engine.Account
		txs   []engine.Transaction
	)
	for _, acct := range accounts {
		if acct.Owner != person || acct.Type != acctType {
			continue
		}
		owned = append(owned, acct)
		accountTxs, err := h.Journal.ListTransactions(ctx, acct.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
			return
		}
		txs = append(txs, accountTxs...)
	}
	if len(owned) == 0 {
		writeError(w, http.StatusNotFound, "No accounts of that type for that person", nil)
		return
	}

	snaps, err := h.Snapshots.ListSnapshots(ctx, person, acctType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots", err)
		return
	}

	calculated, ok := engine.CalculatedRoomForYear(owned[0], txs, snaps, h.Limits, year)
	if !ok {
		writeError(w, http.StatusConflict, "Cannot reconstruct room for that year; record an earlier snapshot first", nil)
		return
	}

	result := engine.CheckDiscrepancy(person, acctType, year, calculated, snap, h.Tolerance)
	if result == nil {
		writeError(w, http.StatusNotFound, "Snapshot carries no room figure for that account type; check skipped", nil)
		return
	}

	writeJSON(w, http.StatusOK, toDiscrepancyDTO(*result))
}

// ListAlerts returns persisted over-contribution alerts, newest first.
// GET /api/alerts?account_id=...
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Alerts.ListAlerts(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts", err)
		return
	}

	dtos := make([]AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = toAlertDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SHARED COMPUTATION
// =============================================================================

func (h *Handler) accountSummary(r *http.Request, acct engine.Account, asOf engine.Date) AccountSummaryDTO {
	summary := AccountSummaryDTO{Account: toAccountDTO(acct)}

	txs, err := h.Journal.ListTransactions(r.Context(), acct.ID)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	state, err := h.computeRoom(r, acct, txs, asOf)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	summary.Room = toRoomStateDTO(state)
	return summary
}

func (h *Handler) computeRoom(r *http.Request, acct engine.Account, txs []engine.Transaction, asOf engine.Date) (engine.RoomState, error) {
	ctx := r.Context()

	snaps, err := h.Snapshots.ListSnapshots(ctx, acct.Owner, acct.Type)
	if err != nil {
		return engine.RoomState{}, err
	}

	state, err := engine.ComputeRoom(acct, txs, snaps, h.Limits, asOf)
	if err != nil {
		return engine.RoomState{}, err
	}

	// Grant entitlement spans all of a beneficiary's education accounts.
	if acct.Type == engine.EducationGrant && acct.Beneficiary != "" {
		accounts, err := h.Accounts.ListAccounts(ctx)
		if err != nil {
			return engine.RoomState{}, err
		}
		cesg, err := h.computeCESG(r, accounts, acct.Beneficiary, acct.BeneficiaryBirthYear, asOf)
		if err != nil {
			return engine.RoomState{}, err
		}
		state.CESG = &cesg
	}

	return state, nil
}

func (h *Handler) computeCESG(r *http.Request, accounts []engine.Account, beneficiary string, birthYear int, asOf engine.Date) (engine.CESGSummary, error) {
	var txs []engine.Transaction
	for _, acct := range accounts {
		if acct.Type != engine.EducationGrant || acct.Beneficiary != beneficiary {
			continue
		}
		if birthYear == 0 {
			birthYear = acct.BeneficiaryBirthYear
		}
		accountTxs, err := h.Journal.ListTransactions(r.Context(), acct.ID)
		if err != nil {
			return engine.CESGSummary{}, err
		}
		txs = append(txs, accountTxs...)
	}
	return engine.ComputeCESG(beneficiary, birthYear, txs, h.Limits, asOf), nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine error classes to HTTP status codes.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func parseMoneyPtr(s *string) (*engine.Money, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	m := engine.Money{Value: value}
	return &m, nil
}

func floatString(f *float64) *string {
	if f == nil {
		return nil
	}
	s := engine.NewMoney(*f).String()
	return &s
}
