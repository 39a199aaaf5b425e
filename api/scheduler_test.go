package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpenarrieta/room-engine/engine"
)

func TestRunSweep_PersistsOneAlertPerPenalizedMonth(t *testing.T) {
	// GIVEN: An account 2000 over its limit since February
	// WHEN: Running the sweep as of June 15
	// THEN: One alert per month February through June, visible via the API

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

	sweeper := NewSweeper(h, h.Log)
	require.NoError(t, sweeper.RunSweep(context.Background()))

	rec := doRequest(t, h, http.MethodGet, "/api/alerts?account_id=a1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	alerts := decode[[]AlertDTO](t, rec)
	require.Len(t, alerts, 5)
	// Newest first
	assert.Equal(t, int(time.June), alerts[0].Month)
	assert.Equal(t, "20.00", alerts[0].Penalty)
}

func TestRunSweep_Idempotent(t *testing.T) {
	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.LifetimeRoom, Owner: "alex", RoomStartYear: 2025})
	seedTransaction(t, mem, engine.Transaction{
		ID: "t1", AccountID: "a1", Kind: engine.TxContribution,
		Amount: engine.NewMoney(12000), Date: engine.NewDate(2025, time.May, 1),
	})

	sweeper := NewSweeper(h, h.Log)
	require.NoError(t, sweeper.RunSweep(context.Background()))
	require.NoError(t, sweeper.RunSweep(context.Background()))

	alerts, err := mem.ListAlerts(context.Background(), "a1")
	require.NoError(t, err)
	// May and June, once each
	assert.Len(t, alerts, 2)
}

func TestRunSweep_SkipsEducationAccounts(t *testing.T) {
	h, mem := newTestHandler(t)
	seedAccount(t, mem, engine.Account{ID: "a1", Type: engine.EducationGrant, Owner: "alex", Beneficiary: "kid-1"})
	seedTransaction(t, mem, engine.Transaction{
		ID: "t1", AccountID: "a1", Kind: engine.TxContribution,
		Amount: engine.NewMoney(60000), Date: engine.NewDate(2025, time.May, 1),
	})

	sweeper := NewSweeper(h, h.Log)
	require.NoError(t, sweeper.RunSweep(context.Background()))

	alerts, err := mem.ListAlerts(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
