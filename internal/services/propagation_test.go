package services

import (
	"testing"
	"time"

	"duoledger/internal/core"

	"github.com/shopspring/decimal"
)

func periods(keys ...core.PeriodKey) []core.PeriodKey { return keys }

func TestPlanEditCascadeUpdateSweep(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	oct := core.NewPeriodKey(2025, time.October)
	nov := core.NewPeriodKey(2025, time.November)

	edited := tx(sep, "phone", func(x *core.Transaction) {
		x.Note = "3/12"
		x.Amount = decimal.NewFromInt(450)
	})
	all := []core.Transaction{
		edited,
		tx(oct, "phone", func(x *core.Transaction) { x.Note = "old note" }),
		tx(nov, "phone"),
		tx(nov, "rent"),
	}

	plan := PlanEditCascade(all, edited, periods(sep, oct, nov), sep, baseTime)

	if plan.Kind != CascadeUpdate {
		t.Fatalf("kind = %s, want update", plan.Kind)
	}
	if len(plan.Updates) != 2 || len(plan.Creates) != 0 || len(plan.Deletes) != 0 {
		t.Fatalf("plan = %+v, want 2 updates only", plan)
	}

	byPeriod := map[core.PeriodKey]core.Transaction{}
	for _, u := range plan.Updates {
		byPeriod[u.Period] = u
	}
	if got := byPeriod[oct]; got.Note != "4/12" || !got.Amount.Equal(edited.Amount) {
		t.Errorf("october copy = %+v, want note 4/12 and edited amount", got)
	}
	if got := byPeriod[nov]; got.Note != "5/12" {
		t.Errorf("november note = %q, want 5/12", got.Note)
	}
	// The copies keep their own identity and creation time.
	if byPeriod[oct].ID != "phone@2025-10" {
		t.Errorf("october copy ID = %q, identity must be preserved", byPeriod[oct].ID)
	}
}

func TestPlanEditCascadeNoteAdvancesAcrossGapPeriods(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	oct := core.NewPeriodKey(2025, time.October)
	nov := core.NewPeriodKey(2025, time.November)

	edited := tx(sep, "phone", func(x *core.Transaction) { x.Note = "3/12" })
	// October exists as a period but holds no copy of this entry.
	all := []core.Transaction{
		edited,
		tx(oct, "rent"),
		tx(nov, "phone"),
	}

	plan := PlanEditCascade(all, edited, periods(sep, oct, nov), sep, baseTime)
	if len(plan.Updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(plan.Updates))
	}
	if got := plan.Updates[0].Note; got != "5/12" {
		t.Errorf("november note = %q, want 5/12 (counter advances over the gap)", got)
	}
}

func TestPlanEditCascadeCreateSweep(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	oct := core.NewPeriodKey(2025, time.October)
	nov := core.NewPeriodKey(2025, time.November)
	dec := core.NewPeriodKey(2025, time.December)

	t.Run("installment stops when exhausted", func(t *testing.T) {
		edited := tx(sep, "sofa", func(x *core.Transaction) { x.Note = "10/11" })
		all := []core.Transaction{edited, tx(oct, "rent"), tx(nov, "rent"), tx(dec, "rent")}

		plan := PlanEditCascade(all, edited, periods(sep, oct, nov, dec), sep, baseTime)
		if plan.Kind != CascadeCreate {
			t.Fatalf("kind = %s, want create", plan.Kind)
		}
		if len(plan.Creates) != 1 {
			t.Fatalf("creates = %d, want 1 (11/11 then stop)", len(plan.Creates))
		}
		c := plan.Creates[0]
		if c.Period != oct || c.Note != "11/11" || c.ID != "" {
			t.Errorf("created copy = %+v", c)
		}
	})

	t.Run("recurring fills every future period", func(t *testing.T) {
		edited := tx(sep, "rent", func(x *core.Transaction) { x.Recurring = true })
		all := []core.Transaction{edited, tx(oct, "other"), tx(nov, "other")}

		plan := PlanEditCascade(all, edited, periods(sep, oct, nov), sep, baseTime)
		if len(plan.Creates) != 2 {
			t.Fatalf("creates = %d, want 2", len(plan.Creates))
		}
	})
}

func TestPlanEditCascadeDeleteWhenNoLongerRepeating(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	oct := core.NewPeriodKey(2025, time.October)
	nov := core.NewPeriodKey(2025, time.November)

	// The entry was edited into a one-off; its projected copies go away.
	edited := tx(sep, "gym")
	all := []core.Transaction{
		edited,
		tx(oct, "gym"),
		tx(nov, "gym"),
	}

	plan := PlanEditCascade(all, edited, periods(sep, oct, nov), sep, baseTime)
	if plan.Kind != CascadeDelete {
		t.Fatalf("kind = %s, want delete", plan.Kind)
	}
	if len(plan.Deletes) != 2 {
		t.Errorf("deletes = %v, want both future copies", plan.Deletes)
	}
}

func TestPlanEditCascadeNothingToDo(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	edited := tx(sep, "dinner")

	plan := PlanEditCascade([]core.Transaction{edited}, edited, periods(sep), sep, baseTime)
	if plan.Kind != CascadeNone || !plan.IsEmpty() {
		t.Errorf("plan = %+v, want empty", plan)
	}
}

func TestPlanDeleteCascade(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	oct := core.NewPeriodKey(2025, time.October)
	aug := core.NewPeriodKey(2025, time.August)

	deleted := tx(sep, "phone")
	all := []core.Transaction{
		deleted,
		tx(aug, "phone"), // past copies stay untouched
		tx(oct, "phone"),
		tx(oct, "rent"),
	}

	plan := PlanDeleteCascade(all, deleted, periods(aug, sep, oct), sep)
	if plan.Kind != CascadeDelete {
		t.Fatalf("kind = %s, want delete", plan.Kind)
	}
	if len(plan.Deletes) != 1 || plan.Deletes[0] != "phone@2025-10" {
		t.Errorf("deletes = %v, want only the october copy", plan.Deletes)
	}
}
