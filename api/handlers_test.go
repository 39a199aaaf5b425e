package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpenarrieta/room-engine/engine"
	"github.com/cpenarrieta/room-engine/engine/store"
	"github.com/cpenarrieta/room-engine/logger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestHandler(t *testing.T) (*Handler, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	h := NewHandler(mem, engine.DefaultLimits(), engine.NewMoney(1), nil, logger.NewWithWriter(testWriter{t}))
	h.now = func() engine.Date { return engine.NewDate(2025, time.June, 15) }
	return h, mem
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func doRequest(t *testing.T, h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func seedAccount(t *testing.T, mem *store.Memory, acct engine.Account) {
	t.Helper()
	require.NoError(t, mem.CreateAccount(context.Background(), acct))
}

func seedTransaction(t *testing.T, mem *store.Memory, tx engine.Transaction) {
	t.Helper()
	require.NoError(t, mem.CreateTransaction(context.Background(), tx))
}

func seedSnapshot(t *testing.T, mem *store.Memory, snap engine.Snapshot) {
	t.Helper()
	require.NoError(t, mem.UpsertSnapshot(context.Background(), snap))
}

func moneyRef(v float64) *engine.Money {
	m := engine.NewMoney(v)
	return &m
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestCreateAccount(t *testing.T) {
	// GIVEN: A valid lifetime-room account registration
	// WHEN: Posting it
	// THEN: 201 with a generated ID

	h, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/api/accounts", CreateAccountRequest{
		Type:          "lifetime_room",
		Name:          "Alex savings",
		Owner:         "alex",
		RoomStartYear: 2022,
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[AccountDTO](t, rec)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "lifetime_room", dto.Type)
}

func TestCreateAccount_RejectsUnknownType(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/api/accounts", CreateAccountRequest{
		Type: "margin", Owner: "alex",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAccount_LifetimeRoomNeedsStartYear(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/api/accounts", CreateAccountRequest{
		Type: "lifetime_room", Owner: "alex",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAccount_IncludesRoomAndHistory(t *testing.T) {
	// GIVEN: A lifetime-room account with one contribution
	// WHEN: Fetching the account detail
	// THEN: The derived room and the journal come back together

	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.LifetimeRoom, Owner: "alex", RoomStartYear: 2022})
	seedTransaction(t, mem, engine.Transaction{
		ID: "t1", AccountID: "a1", Kind: engine.TxContribution,
		Amount: engine.NewMoney(5000), Date: engine.NewDate(2025, time.March, 1),
	})

	rec := doRequest(t, h, http.MethodGet, "/api/accounts/a1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	detail := decode[AccountDetailResponse](t, rec)
	require.NotNil(t, detail.Room)
	// 4 years x 7000 - 5000
	assert.Equal(t, "23000.00", detail.Room.RemainingRoom)
	assert.True(t, detail.Room.RoomKnown)
	require.Len(t, detail.Transactions, 1)
	assert.Equal(t, "5000.00", detail.Transactions[0].Amount)
}

func TestGetAccount_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodGet, "/api/accounts/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAccount_AdministrativeFieldsOnly(t *testing.T) {
	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.LifetimeRoom, Owner: "alex", RoomStartYear: 2022, Name: "old"})

	rec := doRequest(t, h, http.MethodPut, "/api/accounts/a1", UpdateAccountRequest{
		Name: "renamed", RoomStartYear: 2022, Hidden: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[AccountDTO](t, rec)
	assert.Equal(t, "renamed", dto.Name)
	assert.True(t, dto.Hidden)
	assert.Equal(t, "alex", dto.Owner)
}

func TestListAccounts_HiddenExcludedByDefault(t *testing.T) {
	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.LifetimeRoom, Owner: "alex", RoomStartYear: 2022})
	seedAccount(t, mem, engine.Account{ID: "a2", Type: engine.LifetimeRoom, Owner: "alex", RoomStartYear: 2022, Hidden: true})

	rec := doRequest(t, h, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]AccountSummaryDTO](t, rec), 1)

	rec = doRequest(t, h, http.MethodGet, "/api/accounts?include_hidden=true", nil)
	assert.Len(t, decode[[]AccountSummaryDTO](t, rec), 2)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestCreateTransaction(t *testing.T) {
	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.DeductionLimit, Owner: "alex"})

	rec := doRequest(t, h, http.MethodPost, "/api/accounts/a1/transactions", CreateTransactionRequest{
		Kind: "contribution", Amount: "6000", Date: "2025-02-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	dto := decode[TransactionDTO](t, rec)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "6000.00", dto.Amount)
	assert.Equal(t, "2025-02-10", dto.Date)
}

func TestCreateTransaction_RejectsNonPositiveAmount(t *testing.T) {
	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.DeductionLimit, Owner: "alex"})

	rec := doRequest(t, h, http.MethodPost, "/api/accounts/a1/transactions", CreateTransactionRequest{
		Kind: "contribution", Amount: "-100", Date: "2025-02-10",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransaction_RejectsGrantOutsideEducationAccounts(t *testing.T) {
	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.LifetimeRoom, Owner: "alex", RoomStartYear: 2022})

	rec := doRequest(t, h, http.MethodPost, "/api/accounts/a1/transactions", CreateTransactionRequest{
		Kind: "grant", Amount: "500", Date: "2025-02-10",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTransaction_RewritesHistory(t *testing.T) {
	// GIVEN: A recorded contribution
	// WHEN: Editing its amount
	// THEN: The derived room reflects the edit on the next read

	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.LifetimeRoom, Owner: "alex", RoomStartYear: 2025})
	seedTransaction(t, mem, engine.Transaction{
		ID: "t1", AccountID: "a1", Kind: engine.TxContribution,
		Amount: engine.NewMoney(1000), Date: engine.NewDate(2025, time.March, 1),
	})

	rec := doRequest(t, h, http.MethodPut, "/api/transactions/t1", UpdateTransactionRequest{
		Kind: "contribution", Amount: "2500", Date: "2025-03-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	detail := decode[AccountDetailResponse](t, doRequest(t, h, http.MethodGet, "/api/accounts/a1", nil))
	require.NotNil(t, detail.Room)
	assert.Equal(t, "4500.00", detail.Room.RemainingRoom)
}

func TestDeleteTransaction(t *testing.T) {
	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.DeductionLimit, Owner: "alex"})
	seedTransaction(t, mem, engine.Transaction{
		ID: "t1", AccountID: "a1", Kind: engine.TxContribution,
		Amount: engine.NewMoney(1000), Date: engine.NewDate(2025, time.March, 1),
	})

	rec := doRequest(t, h, http.MethodDelete, "/api/transactions/t1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/api/transactions/t1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// PENALTIES
// =============================================================================

func TestGetPenalties(t *testing.T) {
	// GIVEN: A deduction-limit account 2000 over its 10000 limit since February
	// WHEN: Fetching penalties as of end of April
	// THEN: Three months at 20.00 each

	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.DeductionLimit, Owner: "alex"})
	seedSnapshot(t, mem, engine.Snapshot{
		Person: "alex", AccountType: engine.DeductionLimit, TaxYear: 2025,
		DeductionLimit: moneyRef(10000),
	})
	seedTransaction(t, mem, engine.Transaction{
		ID: "t1", AccountID: "a1", Kind: engine.TxContribution,
		Amount: engine.NewMoney(12000), Date: engine.NewDate(2025, time.February, 14),
	})

	rec := doRequest(t, h, http.MethodGet, "/api/accounts/a1/penalties?as_of=2025-04-30", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sched := decode[PenaltyScheduleDTO](t, rec)
	require.Len(t, sched.Penalties, 3)
	assert.Equal(t, "20.00", sched.Penalties[0].Penalty)
	assert.Equal(t, "60.00", sched.TotalPenalty)
}

func TestGetPenalties_EducationAccountRejected(t *testing.T) {
	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.EducationGrant, Owner: "alex", Beneficiary: "kid-1"})

	rec := doRequest(t, h, http.MethodGet, "/api/accounts/a1/penalties", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func TestUpsertSnapshot_ReplacesSameYear(t *testing.T) {
	h, _ := newTestHandler(t)

	first := UpsertSnapshotRequest{
		Person: "alex", AccountType: "deduction_limit", TaxYear: 2025,
		DeductionLimit: strRef("10000"),
	}
	rec := doRequest(t, h, http.MethodPut, "/api/snapshots", first)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	first.DeductionLimit = strRef("12500")
	rec = doRequest(t, h, http.MethodPut, "/api/snapshots", first)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/snapshots?person=alex&type=deduction_limit", nil)
	snaps := decode[[]SnapshotDTO](t, rec)
	require.Len(t, snaps, 1)
	require.NotNil(t, snaps[0].DeductionLimit)
	assert.Equal(t, "12500.00", *snaps[0].DeductionLimit)
}

func TestUpsertSnapshot_RejectsBadAmount(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPut, "/api/snapshots", UpsertSnapshotRequest{
		Person: "alex", AccountType: "deduction_limit", TaxYear: 2025,
		DeductionLimit: strRef("not-a-number"),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractSnapshot_NotConfigured(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/snapshots/extract", bytes.NewReader([]byte("%PDF-")))
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

func TestGetSummary_GrantsSpanBeneficiaryAccounts(t *testing.T) {
	// GIVEN: Two education accounts for the same beneficiary
	// WHEN: Fetching the household summary
	// THEN: One grant summary covering contributions from both accounts

	h, mem := newTestHandler(t)
	for i, contributor := range []string{"alex", "sam"} {
		id := fmt.Sprintf("resp-%d", i+1)
		seedAccount(t, mem, engine.Account{
			ID: id, Type: engine.EducationGrant, Owner: contributor,
			Beneficiary: "kid-1", BeneficiaryBirthYear: 2025,
		})
		seedTransaction(t, mem, engine.Transaction{
			ID: id + "-tx", AccountID: id, Kind: engine.TxContribution,
			Amount: engine.NewMoney(1000), Date: engine.NewDate(2025, time.February, 1),
		})
	}

	rec := doRequest(t, h, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := decode[HouseholdSummaryDTO](t, rec)
	assert.Len(t, summary.Accounts, 2)
	require.Len(t, summary.Grants, 1)
	// 20% of 2000 total, within the 500 first-year room
	assert.Equal(t, "400.00", summary.Grants[0].CurrentYearGrant)
}

func TestGetDiscrepancy(t *testing.T) {
	// GIVEN: A 2023 limit of 18000, 10500 contributed through 2024, and a
	//        2025 statement claiming 8000 of room
	// WHEN: Checking 2025
	// THEN: Calculated 7500 vs official 8000 - a 500 discrepancy

	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.DeductionLimit, Owner: "alex"})
	seedSnapshot(t, mem, engine.Snapshot{
		Person: "alex", AccountType: engine.DeductionLimit, TaxYear: 2023,
		DeductionLimit: moneyRef(18000),
	})
	seedSnapshot(t, mem, engine.Snapshot{
		Person: "alex", AccountType: engine.DeductionLimit, TaxYear: 2025,
		DeductionLimit: moneyRef(8000),
	})
	seedTransaction(t, mem, engine.Transaction{
		ID: "t1", AccountID: "a1", Kind: engine.TxContribution,
		Amount: engine.NewMoney(10500), Date: engine.NewDate(2024, time.June, 1),
	})

	rec := doRequest(t, h, http.MethodGet, "/api/discrepancy?person=alex&type=deduction_limit&year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[DiscrepancyDTO](t, rec)
	assert.True(t, dto.HasDiscrepancy)
	assert.Equal(t, "7500.00", dto.CalculatedRoom)
	assert.Equal(t, "8000.00", dto.OfficialRoom)
	assert.Equal(t, "500.00", dto.Difference)
}

func TestGetDiscrepancy_NoSnapshotForYear(t *testing.T) {
	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.DeductionLimit, Owner: "alex"})

	rec := doRequest(t, h, http.MethodGet, "/api/discrepancy?person=alex&type=deduction_limit&year=2025", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func strRef(s string) *string { return &s }
