package core

// Category tags a transaction with the spending bucket it belongs to.
// The set is fixed; anything the store hands back outside it is folded
// into CategoryOther at aggregation time.
type Category string

const (
	// CategoryOwnedA groups spending that owner A settles directly.
	CategoryOwnedA Category = "owned-a"
	// CategoryShopeePay is a pass-through payment channel, not card spend.
	CategoryShopeePay Category = "shopee-pay"
	CategoryLazPay    Category = "laz-pay"
	CategoryPayNext   Category = "paynext"
	CategoryBills     Category = "bills"
	CategoryOther     Category = "other"
)

// CategoryTraits carries the per-category settlement attributes. The
// implied payer is the owner who nominally pays for everything in the
// category; shares assigned to the other owner become a reimbursement in
// the settlement. CardSpend marks categories that count toward the
// per-card totals.
type CategoryTraits struct {
	ImpliedPayer Owner
	CardSpend    bool
}

var categoryTraits = map[Category]CategoryTraits{
	CategoryOwnedA:    {ImpliedPayer: OwnerA, CardSpend: true},
	CategoryShopeePay: {ImpliedPayer: OwnerB, CardSpend: false},
	CategoryLazPay:    {ImpliedPayer: OwnerB, CardSpend: true},
	CategoryPayNext:   {ImpliedPayer: OwnerB, CardSpend: true},
	CategoryBills:     {ImpliedPayer: OwnerB, CardSpend: true},
	CategoryOther:     {ImpliedPayer: OwnerB, CardSpend: true},
}

// categoryOrder is the stable display order.
var categoryOrder = []Category{
	CategoryOwnedA,
	CategoryShopeePay,
	CategoryLazPay,
	CategoryPayNext,
	CategoryBills,
	CategoryOther,
}

// Categories returns all known categories in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// KnownCategory reports whether c is one of the fixed categories.
func KnownCategory(c Category) bool {
	_, ok := categoryTraits[c]
	return ok
}

// TraitsOf returns the settlement attributes for a category. Unknown
// categories get CategoryOther's traits.
func TraitsOf(c Category) CategoryTraits {
	if t, ok := categoryTraits[c]; ok {
		return t
	}
	return categoryTraits[CategoryOther]
}
