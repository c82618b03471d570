package services

import (
	"time"

	"duoledger/internal/core"
)

// CascadeKind classifies what a cascade plan would do to later periods.
type CascadeKind string

const (
	CascadeNone   CascadeKind = "none"
	CascadeUpdate CascadeKind = "update"
	CascadeCreate CascadeKind = "create"
	CascadeDelete CascadeKind = "delete"
)

// CascadePlan is the proposed set of future-period mutations that keeps a
// recurring or installment chain consistent after an edit or a deletion.
// Cascades mutate many records across periods, so they are never applied
// silently: the engine only proposes, the caller confirms and submits.
type CascadePlan struct {
	Kind    CascadeKind
	Updates []core.Transaction
	Creates []core.Transaction
	Deletes []string
}

// IsEmpty reports whether the plan proposes no mutation at all.
func (p CascadePlan) IsEmpty() bool {
	return len(p.Updates) == 0 && len(p.Creates) == 0 && len(p.Deletes) == 0
}

// PlanEditCascade decides how an edit to one period's transaction affects
// matching transactions (same label) in strictly later periods.
//
//   - The entry still repeats (recurring or installment with a next step)
//     and future copies exist: propose updating every copy, advancing a
//     running note once per future period in ascending order. Periods
//     without a matching copy are skipped, never back-filled.
//   - The entry still repeats but no future copies exist: propose creating
//     one copy per future period, stopping once a finite installment
//     exhausts.
//   - The entry was turned into a one-off: propose deleting all future
//     copies.
func PlanEditCascade(
	all []core.Transaction,
	edited core.Transaction,
	known []core.PeriodKey,
	active core.PeriodKey,
	now time.Time,
) CascadePlan {
	future := FuturePeriods(known, active)
	if len(future) == 0 {
		return CascadePlan{Kind: CascadeNone}
	}

	matches := matchesByPeriod(all, edited.Label, edited.ID, future)
	matchCount := 0
	for _, ms := range matches {
		matchCount += len(ms)
	}

	_, hasNext := core.AdvanceInstallment(edited.Note)

	if edited.Recurring || hasNext {
		if matchCount > 0 {
			return planUpdateSweep(edited, matches, future)
		}
		return planCreateSweep(edited, future, now)
	}

	if matchCount == 0 {
		return CascadePlan{Kind: CascadeNone}
	}
	plan := CascadePlan{Kind: CascadeDelete}
	for _, p := range future {
		for _, m := range matches[p] {
			plan.Deletes = append(plan.Deletes, m.ID)
		}
	}
	return plan
}

// PlanDeleteCascade proposes removing the future-period copies of a
// deleted transaction. The deleted entry itself is not part of the plan.
func PlanDeleteCascade(
	all []core.Transaction,
	deleted core.Transaction,
	known []core.PeriodKey,
	active core.PeriodKey,
) CascadePlan {
	future := FuturePeriods(known, active)
	matches := matchesByPeriod(all, deleted.Label, deleted.ID, future)

	plan := CascadePlan{Kind: CascadeNone}
	for _, p := range future {
		for _, m := range matches[p] {
			plan.Deletes = append(plan.Deletes, m.ID)
		}
	}
	if len(plan.Deletes) > 0 {
		plan.Kind = CascadeDelete
	}
	return plan
}

func planUpdateSweep(edited core.Transaction, matches map[core.PeriodKey][]core.Transaction, future []core.PeriodKey) CascadePlan {
	plan := CascadePlan{Kind: CascadeUpdate}
	running := edited.Note
	for _, p := range future {
		// The note advances once per future period whether or not the
		// period holds a copy, so counters stay aligned across gaps.
		running, _ = core.AdvanceInstallment(running)
		for _, m := range matches[p] {
			upd := edited
			upd.ID = m.ID
			upd.Period = m.Period
			upd.CreatedAt = m.CreatedAt
			upd.Note = running
			plan.Updates = append(plan.Updates, upd)
		}
	}
	return plan
}

func planCreateSweep(edited core.Transaction, future []core.PeriodKey, now time.Time) CascadePlan {
	plan := CascadePlan{Kind: CascadeCreate}
	running := edited.Note
	for _, p := range future {
		next, hasNext := core.AdvanceInstallment(running)
		if hasNext {
			running = next
		} else if !edited.Recurring {
			// Finite installment exhausted; nothing to project further.
			break
		}
		c := edited
		c.ID = ""
		c.Period = p
		c.Note = running
		c.CreatedAt = now
		plan.Creates = append(plan.Creates, c)
	}
	if len(plan.Creates) == 0 {
		plan.Kind = CascadeNone
	}
	return plan
}

// matchesByPeriod groups future-period transactions sharing the label,
// excluding the edited/deleted record itself.
func matchesByPeriod(all []core.Transaction, label, excludeID string, future []core.PeriodKey) map[core.PeriodKey][]core.Transaction {
	futureSet := make(map[core.PeriodKey]struct{}, len(future))
	for _, p := range future {
		futureSet[p] = struct{}{}
	}
	out := make(map[core.PeriodKey][]core.Transaction)
	for _, t := range all {
		if t.ID == excludeID || t.Label != label {
			continue
		}
		if _, ok := futureSet[t.Period]; !ok {
			continue
		}
		out[t.Period] = append(out[t.Period], t)
	}
	return out
}
