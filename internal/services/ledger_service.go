package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"duoledger/internal/core"
	"duoledger/internal/ledger"

	"github.com/google/uuid"
)

// ErrRolloverInFlight is returned when a period rollover is requested while
// an earlier rollover for the same source period is still being applied.
var ErrRolloverInFlight = errors.New("rollover already in flight for period")

// LedgerService orchestrates ledger operations over the store and publishes
// change events. Cascades are proposed to the caller first and applied only
// on explicit confirmation.
type LedgerService struct {
	store  ledger.Store
	events ledger.Events
	now    func() time.Time

	mu          sync.Mutex
	rollingOver map[core.PeriodKey]struct{}
}

func NewLedgerService(store ledger.Store, events ledger.Events) *LedgerService {
	return &LedgerService{
		store:       store,
		events:      events,
		now:         time.Now,
		rollingOver: make(map[core.PeriodKey]struct{}),
	}
}

// List returns one period's transactions in display order.
func (s *LedgerService) List(ctx context.Context, period core.PeriodKey) ([]core.Transaction, error) {
	all, err := s.store.ListByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("list period %s: %w", period.Key(), err)
	}
	return SelectPeriod(all, period), nil
}

// Periods returns every period the ledger knows about, plus the active one,
// most recent first.
func (s *LedgerService) Periods(ctx context.Context, active core.PeriodKey) ([]core.PeriodKey, error) {
	all, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read periods: %w", err)
	}
	return KnownPeriods(all, active), nil
}

// Summary computes the settlement summary for one period.
func (s *LedgerService) Summary(ctx context.Context, period core.PeriodKey) (core.Summary, error) {
	transactions, err := s.store.ListByPeriod(ctx, period)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summary for %s: %w", period.Key(), err)
	}
	settings, _, err := s.store.ReadSettings(ctx, period)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summary settings for %s: %w", period.Key(), err)
	}
	return Summarize(transactions, settings), nil
}

// Settings returns the period's settings; a missing record reads as zero.
func (s *LedgerService) Settings(ctx context.Context, period core.PeriodKey) (core.Settings, error) {
	settings, _, err := s.store.ReadSettings(ctx, period)
	if err != nil {
		return core.Settings{}, fmt.Errorf("read settings for %s: %w", period.Key(), err)
	}
	return settings, nil
}

// PutSettings overwrites the period's settings.
func (s *LedgerService) PutSettings(ctx context.Context, period core.PeriodKey, settings core.Settings) error {
	if err := period.Validate(); err != nil {
		return err
	}
	if err := s.store.PutSettings(ctx, period, settings); err != nil {
		return fmt.Errorf("put settings for %s: %w", period.Key(), err)
	}
	return nil
}

// SaveTransaction creates or updates one transaction and returns the
// cascade the edit implies for later periods. The cascade is a proposal:
// nothing beyond the edited record is written until ApplyCascade.
func (s *LedgerService) SaveTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, CascadePlan, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, CascadePlan{}, err
	}

	batch := ledger.Batch{}
	if tx.ID == "" {
		// Identity is assigned here so the caller gets it back; rollover
		// and cascade copies leave it to the store instead.
		tx.ID = uuid.NewString()
		tx.CreatedAt = s.now()
		batch.Creates = []core.Transaction{tx}
	} else {
		if _, err := s.store.GetTransaction(ctx, tx.ID); err != nil {
			return core.Transaction{}, CascadePlan{}, fmt.Errorf("load transaction %s: %w", tx.ID, err)
		}
		batch.Updates = []core.Transaction{tx}
	}

	if err := s.applyAndPublish(ctx, tx.Period, batch); err != nil {
		return core.Transaction{}, CascadePlan{}, err
	}

	all, err := s.store.ReadAll(ctx)
	if err != nil {
		return tx, CascadePlan{}, fmt.Errorf("plan cascade: %w", err)
	}
	known := KnownPeriods(all, tx.Period)
	plan := PlanEditCascade(all, tx, known, tx.Period, s.now())
	return tx, plan, nil
}

// ApplyCascade applies a previously proposed cascade as one atomic batch.
func (s *LedgerService) ApplyCascade(ctx context.Context, period core.PeriodKey, plan CascadePlan) error {
	if plan.IsEmpty() {
		return nil
	}
	batch := ledger.Batch{
		Creates: plan.Creates,
		Updates: plan.Updates,
		Deletes: plan.Deletes,
	}
	return s.applyAndPublish(ctx, period, batch)
}

// DeleteTransaction removes one transaction and returns the proposed
// removal of its future-period copies.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) (CascadePlan, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return CascadePlan{}, fmt.Errorf("load transaction %s: %w", id, err)
	}

	all, err := s.store.ReadAll(ctx)
	if err != nil {
		return CascadePlan{}, fmt.Errorf("plan delete cascade: %w", err)
	}
	known := KnownPeriods(all, tx.Period)
	plan := PlanDeleteCascade(all, tx, known, tx.Period)

	batch := ledger.Batch{Deletes: []string{id}}
	if err := s.applyAndPublish(ctx, tx.Period, batch); err != nil {
		return CascadePlan{}, err
	}
	return plan, nil
}

// TogglePin flips a transaction's pinned flag.
func (s *LedgerService) TogglePin(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction %s: %w", id, err)
	}
	tx.Pinned = !tx.Pinned
	batch := ledger.Batch{Updates: []core.Transaction{tx}}
	if err := s.applyAndPublish(ctx, tx.Period, batch); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// AdvancePeriod carries the period's recurring and mid-installment
// transactions into the following period as one atomic batch. Re-running
// it over the same pair of periods adds nothing new. Concurrent calls for
// the same source period are rejected with ErrRolloverInFlight.
func (s *LedgerService) AdvancePeriod(ctx context.Context, from core.PeriodKey) (RolloverPlan, error) {
	if err := from.Validate(); err != nil {
		return RolloverPlan{}, err
	}

	s.mu.Lock()
	if _, busy := s.rollingOver[from]; busy {
		s.mu.Unlock()
		return RolloverPlan{}, fmt.Errorf("%w: %s", ErrRolloverInFlight, from.Key())
	}
	s.rollingOver[from] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.rollingOver, from)
		s.mu.Unlock()
	}()

	next := from.Next()

	current, err := s.store.ListByPeriod(ctx, from)
	if err != nil {
		return RolloverPlan{}, fmt.Errorf("rollover read %s: %w", from.Key(), err)
	}
	nextExisting, err := s.store.ListByPeriod(ctx, next)
	if err != nil {
		return RolloverPlan{}, fmt.Errorf("rollover read %s: %w", next.Key(), err)
	}
	settings, _, err := s.store.ReadSettings(ctx, from)
	if err != nil {
		return RolloverPlan{}, fmt.Errorf("rollover settings %s: %w", from.Key(), err)
	}
	_, nextHasSettings, err := s.store.ReadSettings(ctx, next)
	if err != nil {
		return RolloverPlan{}, fmt.Errorf("rollover settings %s: %w", next.Key(), err)
	}
	nextExists := len(nextExisting) > 0 || nextHasSettings

	plan := PlanRollover(current, nextExisting, next, settings, nextExists, s.now())

	batch := ledger.Batch{Creates: plan.ToCreate}
	if plan.SeedSettings != nil {
		batch.SettingsSeeds = []ledger.SettingsSeed{{Period: next, Settings: *plan.SeedSettings}}
	}
	if batch.IsEmpty() {
		slog.InfoContext(ctx, "Rollover produced no new entries",
			"from", from.Key(), "to", next.Key())
		return plan, nil
	}
	if err := s.applyAndPublish(ctx, next, batch); err != nil {
		return RolloverPlan{}, err
	}

	slog.InfoContext(ctx, "Rollover applied",
		"from", from.Key(), "to", next.Key(),
		"created", plan.Added(), "seeded_settings", plan.SeedSettings != nil)
	return plan, nil
}

func (s *LedgerService) applyAndPublish(ctx context.Context, period core.PeriodKey, batch ledger.Batch) error {
	if err := s.store.ApplyBatch(ctx, batch); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}

	if s.events == nil {
		return nil
	}
	err := s.events.PublishBatchApplied(ctx, period,
		len(batch.Creates), len(batch.Updates), len(batch.Deletes))
	if err != nil {
		// The batch is committed; a lost notification is not a failure.
		slog.ErrorContext(ctx, "Failed to publish batch event",
			"period", period.Key(), "error", err)
	}
	return nil
}
