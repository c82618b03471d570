// Package ledger defines the ports the engines talk through: the Ledger
// Store boundary and the event publisher. Adapters live in internal/storage
// and internal/amqp.
package ledger

import (
	"context"

	"duoledger/internal/core"
)

// Batch is one atomic unit of ledger mutations. The store applies all of
// it or none of it; a failed batch leaves no partial carry-over behind.
type Batch struct {
	Creates []core.Transaction
	Updates []core.Transaction
	Deletes []string
	// SettingsSeeds are insert-if-absent writes; an existing settings
	// record for the period is never overwritten by a seed.
	SettingsSeeds []SettingsSeed
}

// SettingsSeed carries the initial settings copied into a brand-new period.
type SettingsSeed struct {
	Period   core.PeriodKey
	Settings core.Settings
}

// IsEmpty reports whether the batch would mutate nothing.
func (b Batch) IsEmpty() bool {
	return len(b.Creates) == 0 && len(b.Updates) == 0 && len(b.Deletes) == 0 && len(b.SettingsSeeds) == 0
}

type (
	// Store is the persistence boundary for transactions and settings.
	Store interface {
		ReadAll(ctx context.Context) ([]core.Transaction, error)
		ListByPeriod(ctx context.Context, period core.PeriodKey) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)

		// ReadSettings returns the period's settings and whether a record
		// exists for that period.
		ReadSettings(ctx context.Context, period core.PeriodKey) (core.Settings, bool, error)
		PutSettings(ctx context.Context, period core.PeriodKey, s core.Settings) error

		// ApplyBatch applies all mutations as a single transaction.
		ApplyBatch(ctx context.Context, batch Batch) error
	}

	// Events publishes ledger change notifications for downstream workers.
	Events interface {
		PublishBatchApplied(ctx context.Context, period core.PeriodKey, created, updated, deleted int) error
	}
)
