// Package services holds the ledger engines: the period view and summary,
// the rollover planner, the propagation planner and the orchestrating
// ledger service. The planners are pure functions over in-memory
// snapshots; only the ledger service touches the store.
package services

import (
	"sort"

	"duoledger/internal/core"

	"github.com/shopspring/decimal"
)

// SelectPeriod returns the period's transactions in display order: pinned
// entries first, then newest first by creation time. The order is a
// presentation contract and is recomputed on every read.
func SelectPeriod(all []core.Transaction, period core.PeriodKey) []core.Transaction {
	out := make([]core.Transaction, 0, len(all))
	for _, t := range all {
		if t.Period == period {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// KnownPeriods returns every distinct period present in the snapshot plus
// the active one, most recent first.
func KnownPeriods(all []core.Transaction, active core.PeriodKey) []core.PeriodKey {
	seen := map[core.PeriodKey]struct{}{active: {}}
	for _, t := range all {
		seen[t.Period] = struct{}{}
	}
	out := make([]core.PeriodKey, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out
}

// FuturePeriods returns the known periods strictly after the active one,
// ascending. The ascending order matters: installment advancement applies
// period by period in sequence.
func FuturePeriods(known []core.PeriodKey, active core.PeriodKey) []core.PeriodKey {
	out := make([]core.PeriodKey, 0, len(known))
	for _, p := range known {
		if p.After(active) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Summarize computes the settlement summary for one period's transactions
// and settings in a single pass. All arithmetic is exact decimal; display
// rounding happens at the presentation layer.
func Summarize(transactions []core.Transaction, settings core.Settings) core.Summary {
	s := core.Summary{
		Total:       decimal.Zero,
		OwnerATotal: decimal.Zero,
		OwnerBTotal: decimal.Zero,
		APaidForB:   decimal.Zero,
		BPaidForA:   decimal.Zero,
		ByMethod:    map[core.PaymentMethod]decimal.Decimal{},
		ByCategory:  map[core.Category]core.CategoryTotals{},
	}
	for _, c := range core.Categories() {
		s.ByCategory[c] = core.CategoryTotals{
			Total:  decimal.Zero,
			OwnerA: decimal.Zero,
			OwnerB: decimal.Zero,
		}
	}

	for _, t := range transactions {
		aShare, bShare := t.Shares()
		s.Total = s.Total.Add(t.Amount)
		s.OwnerATotal = s.OwnerATotal.Add(aShare)
		s.OwnerBTotal = s.OwnerBTotal.Add(bShare)

		traits := core.TraitsOf(t.Category)

		// The implied payer covered the whole amount up front; the other
		// owner's share becomes a reimbursement.
		switch traits.ImpliedPayer {
		case core.OwnerA:
			s.APaidForB = s.APaidForB.Add(bShare)
		case core.OwnerB:
			s.BPaidForA = s.BPaidForA.Add(aShare)
		}

		if traits.CardSpend && t.Method != core.MethodNone {
			s.ByMethod[t.Method] = s.ByMethod[t.Method].Add(t.Amount)
		}

		bucket := t.Category
		if !core.KnownCategory(bucket) {
			bucket = core.CategoryOther
		}
		totals := s.ByCategory[bucket]
		totals.Total = totals.Total.Add(t.Amount)
		totals.OwnerA = totals.OwnerA.Add(aShare)
		totals.OwnerB = totals.OwnerB.Add(bShare)
		s.ByCategory[bucket] = totals
	}

	s.Net = s.BPaidForA.Sub(s.APaidForB)
	s.OwnerARetained = s.OwnerATotal.Sub(s.BPaidForA)
	s.Remaining = settings.Salary.Sub(settings.Savings).Sub(s.OwnerBTotal)
	return s
}
