/*
scheduler.go - Monthly over-contribution sweep

PURPOSE:
  Once a month, walk every account, recompute its penalty schedule, and
  persist an alert for any month-end excess that is not already on file.
  The alert table records facts about past months; the sweep never stores
  a balance, and a re-run over the same history writes nothing new.

SCHEDULING:
  Driven by robfig/cron with a spec from config (default: 06:00 on the
  first of the month). RunSweep is also callable directly, so a missed
  schedule costs nothing but delay.

SEE ALSO:
  - engine/penalty.go: The reconstruction the sweep relies on
  - handlers.go: ListAlerts endpoint
*/
package api

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/cpenarrieta/room-engine/engine"
)

// Sweeper runs the periodic over-contribution sweep.
type Sweeper struct {
	Handler *Handler
	Log     zerolog.Logger

	cron *cron.Cron
}

// NewSweeper creates a sweeper bound to the handler's stores and limits.
func NewSweeper(h *Handler, log zerolog.Logger) *Sweeper {
	return &Sweeper{Handler: h, Log: log}
}

// Start schedules the sweep with the given cron spec and runs one sweep
// immediately so a fresh deployment is never a month behind.
func (s *Sweeper) Start(spec string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.RunSweep(context.Background()); err != nil {
			s.Log.Error().Err(err).Msg("monthly sweep failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.Log.Info().Str("spec", spec).Msg("monthly sweep scheduled")

	go func() {
		if err := s.RunSweep(context.Background()); err != nil {
			s.Log.Error().Err(err).Msg("startup sweep failed")
		}
	}()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunSweep recomputes every account's penalty schedule and persists one
// alert per penalized month. Idempotent: months already on file are
// untouched.
func (s *Sweeper) RunSweep(ctx context.Context) error {
	h := s.Handler
	asOf := h.now()

	accounts, err := h.Accounts.ListAccounts(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	saved := 0
	for _, acct := range accounts {
		if acct.Type == engine.EducationGrant {
			continue
		}

		txs, err := h.Journal.ListTransactions(ctx, acct.ID)
		if err != nil {
			firstErr = firstOf(firstErr, err)
			continue
		}
		snaps, err := h.Snapshots.ListSnapshots(ctx, acct.Owner, acct.Type)
		if err != nil {
			firstErr = firstOf(firstErr, err)
			continue
		}

		sched, err := engine.ComputePenalties(acct, txs, snaps, h.Limits, asOf)
		if err != nil {
			// Broken account metadata should not stall the other accounts.
			if engine.IsClientError(err) {
				s.Log.Warn().Err(err).Str("account_id", acct.ID).Msg("sweep skipped account")
				continue
			}
			firstErr = firstOf(firstErr, err)
			continue
		}

		for _, p := range sched.Penalties {
			err := h.Alerts.SaveAlert(ctx, engine.Alert{
				ID:        uuid.NewString(),
				AccountID: acct.ID,
				Year:      p.Year,
				Month:     p.Month,
				Excess:    p.Excess,
				Penalty:   p.Penalty,
			})
			if err != nil {
				firstErr = firstOf(firstErr, err)
				continue
			}
			saved++
		}
	}

	s.Log.Info().Int("alerts", saved).Int("accounts", len(accounts)).Msg("sweep complete")
	if firstErr != nil {
		return errors.Join(errors.New("sweep finished with errors"), firstErr)
	}
	return nil
}

func firstOf(existing, candidate error) error {
	if existing != nil {
		return existing
	}
	return candidate
}
