package services

import (
	"testing"
	"time"

	"duoledger/internal/core"

	"github.com/shopspring/decimal"
)

func TestPlanRolloverCarriesRecurringAndInstallments(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	oct := sep.Next()
	now := baseTime.Add(24 * time.Hour)

	current := []core.Transaction{
		tx(sep, "rent", func(x *core.Transaction) { x.Recurring = true; x.Pinned = true }),
		tx(sep, "phone", func(x *core.Transaction) { x.Note = "installment 3/12" }),
		tx(sep, "one-off dinner"),
		tx(sep, "sofa", func(x *core.Transaction) { x.Note = "12/12" }),
	}

	plan := PlanRollover(current, nil, oct, core.Settings{}, false, now)

	if plan.Added() != 2 {
		t.Fatalf("plan created %d entries, want 2", plan.Added())
	}
	byLabel := map[string]core.Transaction{}
	for _, c := range plan.ToCreate {
		byLabel[c.Label] = c
	}

	rent, ok := byLabel["rent"]
	if !ok {
		t.Fatal("recurring entry not carried")
	}
	if !rent.Pinned || rent.Period != oct || rent.ID != "" || !rent.CreatedAt.Equal(now) {
		t.Errorf("carried entry wrong: %+v", rent)
	}

	phone, ok := byLabel["phone"]
	if !ok {
		t.Fatal("installment entry not carried")
	}
	if phone.Note != "installment 4/12" {
		t.Errorf("installment note = %q, want advanced counter", phone.Note)
	}

	if _, ok := byLabel["one-off dinner"]; ok {
		t.Error("one-off entry must not carry over")
	}
	if _, ok := byLabel["sofa"]; ok {
		t.Error("exhausted installment must not carry over")
	}
}

func TestPlanRolloverIsIdempotent(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	oct := sep.Next()
	now := baseTime

	current := []core.Transaction{
		tx(sep, "rent", func(x *core.Transaction) { x.Recurring = true }),
		tx(sep, "phone", func(x *core.Transaction) { x.Note = "3/12" }),
	}

	first := PlanRollover(current, nil, oct, core.Settings{}, false, now)
	if first.Added() != 2 {
		t.Fatalf("first pass created %d, want 2", first.Added())
	}

	// Apply the first plan, then plan again over the carried period.
	second := PlanRollover(current, first.ToCreate, oct, core.Settings{}, true, now)
	if second.Added() != 0 {
		t.Errorf("second pass created %d entries, want 0: %+v", second.Added(), second.ToCreate)
	}
}

func TestPlanRolloverPartialCarry(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	oct := sep.Next()

	current := []core.Transaction{
		tx(sep, "rent", func(x *core.Transaction) { x.Recurring = true }),
		tx(sep, "phone", func(x *core.Transaction) { x.Note = "3/12" }),
	}
	// Only rent made it across before an interruption.
	existing := []core.Transaction{tx(oct, "rent")}

	plan := PlanRollover(current, existing, oct, core.Settings{}, true, baseTime)
	if plan.Added() != 1 || plan.ToCreate[0].Label != "phone" {
		t.Fatalf("partial carry plan = %+v, want only phone", plan.ToCreate)
	}
}

func TestPlanRolloverDistinctStepsAreNotDuplicates(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	oct := sep.Next()

	current := []core.Transaction{
		tx(sep, "phone", func(x *core.Transaction) { x.Note = "3/12" }),
	}
	// The next period holds the same label at a different step.
	existing := []core.Transaction{
		tx(oct, "phone", func(x *core.Transaction) { x.Note = "5/12" }),
	}

	plan := PlanRollover(current, existing, oct, core.Settings{}, true, baseTime)
	if plan.Added() != 1 {
		t.Fatalf("same label at a different step must still carry, got %d", plan.Added())
	}
	if plan.ToCreate[0].Note != "4/12" {
		t.Errorf("carried note = %q, want 4/12", plan.ToCreate[0].Note)
	}
}

func TestPlanRolloverSettingsSeed(t *testing.T) {
	oct := core.NewPeriodKey(2025, time.October)
	settings := core.Settings{Salary: decimal.NewFromInt(30000)}

	tests := []struct {
		name       string
		settings   core.Settings
		nextExists bool
		wantSeed   bool
	}{
		{"brand new period seeds", settings, false, true},
		{"existing period keeps its settings", settings, true, false},
		{"zero settings never seed", core.Settings{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanRollover(nil, nil, oct, tt.settings, tt.nextExists, baseTime)
			if got := plan.SeedSettings != nil; got != tt.wantSeed {
				t.Errorf("SeedSettings present = %v, want %v", got, tt.wantSeed)
			}
			if tt.wantSeed && !plan.SeedSettings.Salary.Equal(settings.Salary) {
				t.Errorf("seeded salary = %s, want %s", plan.SeedSettings.Salary, settings.Salary)
			}
		})
	}
}
