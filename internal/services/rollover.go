package services

import (
	"time"

	"duoledger/internal/core"
)

// RolloverPlan is the set of mutations that carry one period's recurring
// and mid-installment transactions into the next period. It is computed
// without side effects; the caller submits it as one atomic batch.
type RolloverPlan struct {
	NextPeriod core.PeriodKey
	ToCreate   []core.Transaction
	// SeedSettings is non-nil only when the next period is brand new and
	// the current period has non-zero settings to copy forward.
	SeedSettings *core.Settings
}

// Added returns the number of transactions the plan would create.
func (p RolloverPlan) Added() int {
	return len(p.ToCreate)
}

// PlanRollover advances the current period's qualifying transactions into
// nextPeriod. A transaction qualifies when its installment counter has a
// next step or it is marked recurring. Candidates already present in the
// next period — same label and same post-advance note — are suppressed, so
// the plan is safe to compute and apply again over a partially carried
// period.
func PlanRollover(
	current []core.Transaction,
	nextExisting []core.Transaction,
	nextPeriod core.PeriodKey,
	settings core.Settings,
	nextExists bool,
	now time.Time,
) RolloverPlan {
	plan := RolloverPlan{NextPeriod: nextPeriod}

	for _, t := range current {
		nextNote, hasNext := core.AdvanceInstallment(t.Note)
		if !hasNext && !t.Recurring {
			continue
		}

		if hasDuplicate(nextExisting, t.Label, nextNote) {
			continue
		}

		candidate := t
		candidate.ID = "" // fresh identity assigned by the store
		candidate.Period = nextPeriod
		candidate.Note = nextNote
		candidate.CreatedAt = now
		plan.ToCreate = append(plan.ToCreate, candidate)
	}

	if !nextExists && !settings.IsZero() {
		seed := settings
		plan.SeedSettings = &seed
	}

	return plan
}

// hasDuplicate reports whether the next period already holds the same
// installment step: an entry with the same label and the same note.
func hasDuplicate(existing []core.Transaction, label, note string) bool {
	for _, e := range existing {
		if e.Label == label && e.Note == note {
			return true
		}
	}
	return false
}
