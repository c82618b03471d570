package core

import "github.com/shopspring/decimal"

// CategoryTotals aggregates one category's spending by owner share.
type CategoryTotals struct {
	Total  decimal.Decimal
	OwnerA decimal.Decimal
	OwnerB decimal.Decimal
}

// Summary is the settlement projection over one period's transactions and
// settings. It is always recomputed from current inputs, never persisted.
//
// APaidForB and BPaidForA are kept as two independent non-negative
// accumulators because both transfer directions are shown side by side.
type Summary struct {
	Total       decimal.Decimal
	OwnerATotal decimal.Decimal
	OwnerBTotal decimal.Decimal

	// APaidForB is what owner B owes owner A; BPaidForA the reverse.
	APaidForB decimal.Decimal
	BPaidForA decimal.Decimal
	// Net = BPaidForA - APaidForB, positive when A owes B on balance.
	Net decimal.Decimal

	// OwnerARetained is owner A's total minus what B already covered.
	OwnerARetained decimal.Decimal
	// Remaining is owner B's discretionary remainder:
	// salary - savings - B's computed total.
	Remaining decimal.Decimal

	ByMethod   map[PaymentMethod]decimal.Decimal
	ByCategory map[Category]CategoryTotals
}
