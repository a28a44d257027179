package service

import "github.com/shopspring/decimal"

// Reconciliation compares an observed quantity against its reference.
// Variance keeps its sign: positive means over-fulfilled, negative under.
// Missing is clamped at zero; over-fulfillment is not "negative missing".
type Reconciliation struct {
	Variance decimal.Decimal
	Missing  decimal.Decimal
}

// Reconcile computes variance and missing quantity for one item line.
//
// Used twice in the order lifecycle with different references: at shipping
// the kitchen's shipped quantity is measured against the ordered quantity;
// at receiving the branch's counted quantity is measured against the
// *shipped* quantity, so transit loss never blends into kitchen shortfall.
func Reconcile(ordered, observed decimal.Decimal) Reconciliation {
	missing := ordered.Sub(observed)
	if missing.IsNegative() {
		missing = decimal.Zero
	}
	return Reconciliation{
		Variance: observed.Sub(ordered),
		Missing:  missing,
	}
}
