package services

import (
	"testing"
	"time"

	"duoledger/internal/core"

	"github.com/shopspring/decimal"
)

var baseTime = time.Date(2025, time.September, 1, 12, 0, 0, 0, time.UTC)

func tx(period core.PeriodKey, label string, mutate ...func(*core.Transaction)) core.Transaction {
	t := core.Transaction{
		ID:        label + "@" + period.Key(),
		Period:    period,
		Category:  core.CategoryBills,
		Label:     label,
		Amount:    decimal.NewFromInt(100),
		Split:     core.SplitShared,
		Owner:     core.OwnerShared,
		CreatedAt: baseTime,
	}
	for _, m := range mutate {
		m(&t)
	}
	return t
}

func TestSelectPeriodOrder(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	oct := core.NewPeriodKey(2025, time.October)

	all := []core.Transaction{
		tx(sep, "old", func(x *core.Transaction) { x.CreatedAt = baseTime.Add(-time.Hour) }),
		tx(sep, "new", func(x *core.Transaction) { x.CreatedAt = baseTime.Add(time.Hour) }),
		tx(sep, "pinned-old", func(x *core.Transaction) {
			x.Pinned = true
			x.CreatedAt = baseTime.Add(-2 * time.Hour)
		}),
		tx(oct, "elsewhere"),
	}

	got := SelectPeriod(all, sep)
	if len(got) != 3 {
		t.Fatalf("SelectPeriod returned %d entries, want 3", len(got))
	}
	wantOrder := []string{"pinned-old", "new", "old"}
	for i, want := range wantOrder {
		if got[i].Label != want {
			t.Errorf("position %d = %q, want %q", i, got[i].Label, want)
		}
	}
}

func TestKnownPeriodsIncludesActive(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	oct := core.NewPeriodKey(2025, time.October)
	dec := core.NewPeriodKey(2025, time.December)

	all := []core.Transaction{tx(sep, "a"), tx(sep, "b"), tx(oct, "c")}

	got := KnownPeriods(all, dec)
	want := []core.PeriodKey{dec, oct, sep}
	if len(got) != len(want) {
		t.Fatalf("KnownPeriods = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFuturePeriodsAscending(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	known := []core.PeriodKey{
		core.NewPeriodKey(2026, time.January),
		core.NewPeriodKey(2025, time.August),
		core.NewPeriodKey(2025, time.November),
		sep,
	}

	got := FuturePeriods(known, sep)
	want := []core.PeriodKey{
		core.NewPeriodKey(2025, time.November),
		core.NewPeriodKey(2026, time.January),
	}
	if len(got) != len(want) {
		t.Fatalf("FuturePeriods = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSummarizeSettlement(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	transactions := []core.Transaction{
		// Shared bill, B pays up front, A owes half.
		tx(sep, "electricity", func(x *core.Transaction) {
			x.Amount = decimal.NewFromInt(200)
			x.Method = core.MethodCardX
		}),
		// A's own category: A pays up front, B owes half.
		tx(sep, "subscription", func(x *core.Transaction) {
			x.Category = core.CategoryOwnedA
			x.Amount = decimal.NewFromInt(100)
			x.Method = core.MethodSpeedy
		}),
		// B-only purchase through shopee-pay: no card spend, no reimbursement.
		tx(sep, "groceries", func(x *core.Transaction) {
			x.Category = core.CategoryShopeePay
			x.Split = core.SplitSingle
			x.Owner = core.OwnerB
			x.Amount = decimal.NewFromInt(50)
		}),
	}
	settings := core.Settings{
		Salary:  decimal.NewFromInt(30000),
		Savings: decimal.NewFromInt(5000),
	}

	s := Summarize(transactions, settings)

	checks := []struct {
		name string
		got  decimal.Decimal
		want int64
	}{
		{"Total", s.Total, 350},
		{"OwnerATotal", s.OwnerATotal, 150},
		{"OwnerBTotal", s.OwnerBTotal, 200},
		{"APaidForB", s.APaidForB, 50},
		{"BPaidForA", s.BPaidForA, 100},
		{"Net", s.Net, 50},
		{"OwnerARetained", s.OwnerARetained, 50},
		{"Remaining", s.Remaining, 24800},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.NewFromInt(c.want)) {
			t.Errorf("%s = %s, want %d", c.name, c.got, c.want)
		}
	}

	if !s.ByMethod[core.MethodCardX].Equal(decimal.NewFromInt(200)) {
		t.Errorf("cardx total = %s, want 200", s.ByMethod[core.MethodCardX])
	}
	if !s.ByMethod[core.MethodSpeedy].Equal(decimal.NewFromInt(100)) {
		t.Errorf("speedy total = %s, want 100", s.ByMethod[core.MethodSpeedy])
	}
	if bills := s.ByCategory[core.CategoryBills]; !bills.Total.Equal(decimal.NewFromInt(200)) {
		t.Errorf("bills total = %s, want 200", bills.Total)
	}
}

func TestSummarizeEmptyPeriod(t *testing.T) {
	s := Summarize(nil, core.Settings{})
	if !s.Total.IsZero() || !s.Net.IsZero() || !s.Remaining.IsZero() {
		t.Errorf("empty period summary not zero: %+v", s)
	}
	if len(s.ByCategory) != len(core.Categories()) {
		t.Errorf("ByCategory has %d buckets, want %d", len(s.ByCategory), len(core.Categories()))
	}
}

func TestSummarizeUnknownCategoryFoldsToOther(t *testing.T) {
	sep := core.NewPeriodKey(2025, time.September)
	s := Summarize([]core.Transaction{
		tx(sep, "mystery", func(x *core.Transaction) { x.Category = "mystery" }),
	}, core.Settings{})

	if other := s.ByCategory[core.CategoryOther]; !other.Total.Equal(decimal.NewFromInt(100)) {
		t.Errorf("other bucket = %s, want 100", other.Total)
	}
	if _, ok := s.ByCategory["mystery"]; ok {
		t.Error("unknown category must not get its own bucket")
	}
}
