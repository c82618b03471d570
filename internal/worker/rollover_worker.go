package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"time"

	"duoledger/internal/amqp"
	"duoledger/internal/core"
	"duoledger/internal/services"
)

// RolloverWorker consumes rollover requests and applies them through the
// ledger service.
type RolloverWorker struct {
	ledger *services.LedgerService
}

func NewRolloverWorker(ledger *services.LedgerService) *RolloverWorker {
	return &RolloverWorker{ledger: ledger}
}

// HandleRolloverRequest processes a single rollover request from AMQP.
// A rollover already in flight for the same period is treated as done:
// requeueing it would only replay work the other run is finishing.
func (w *RolloverWorker) HandleRolloverRequest(ctx context.Context, msg *amqp.RolloverRequestMessage) error {
	period, err := core.ParsePeriodKey(msg.PeriodKey)
	if err != nil {
		// A bad period key never becomes valid; requeueing would spin.
		slog.ErrorContext(ctx, "Dropping rollover request with bad period",
			"period", msg.PeriodKey, "error", err)
		return nil
	}

	plan, err := w.ledger.AdvancePeriod(ctx, period)
	if errors.Is(err, services.ErrRolloverInFlight) {
		slog.InfoContext(ctx, "Rollover already in flight, skipping",
			"period", msg.PeriodKey)
		return nil
	}
	if err != nil {
		return fmt.Errorf("advance period %s: %w", msg.PeriodKey, err)
	}

	slog.InfoContext(ctx, "Rollover request completed",
		"period", msg.PeriodKey,
		"carried", plan.Added(),
		"seeded_settings", plan.SeedSettings != nil)
	return nil
}

// CheckPendingRollover carries the previous calendar month into the current
// one. Rollovers suppress duplicates, so running the check repeatedly is
// safe; it only catches months where no explicit request ever arrived.
func (w *RolloverWorker) CheckPendingRollover(ctx context.Context, now time.Time) error {
	previous := core.NewPeriodKey(now.Year(), now.Month()).Previous()

	plan, err := w.ledger.AdvancePeriod(ctx, previous)
	if errors.Is(err, services.ErrRolloverInFlight) {
		slog.InfoContext(ctx, "Rollover already in flight, skipping periodic check",
			"period", previous.Key())
		return nil
	}
	if err != nil {
		return fmt.Errorf("pending rollover for %s: %w", previous.Key(), err)
	}

	if plan.Added() > 0 || plan.SeedSettings != nil {
		slog.InfoContext(ctx, "Periodic check carried pending entries",
			"from", previous.Key(),
			"carried", plan.Added(),
			"seeded_settings", plan.SeedSettings != nil)
	}
	return nil
}
