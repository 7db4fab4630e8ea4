/*
Package compensation provides the commission and bonus calculation engine.

PURPOSE:
  This package turns a set of sale records for one agent and one calendar
  month into a full compensation breakdown: commission rate, commission
  amount, four independent bonuses, and totals. It is the only piece of
  genuine business logic in the system; everything around it is plumbing.

KEY CONCEPTS IN THIS FILE (compute.go):
  - SaleRecord: The engine's read-only view of a sale (category + premiums)
  - Breakdown: The transparent result, including every intermediate value
  - Compute: The pure function from records to breakdown

DESIGN PRINCIPLES:
  1. Purity: Compute reads only its inputs, mutates nothing, does no I/O,
     and returns the same breakdown for the same records every time. It is
     safe to call concurrently without synchronization.
  2. Precision: decimal.Decimal end to end; rounding to cents happens at
     presentation boundaries, never inside the engine.
  3. Transparency: The breakdown exposes pc_premium, application counts,
     and the fs monthly total alongside the money figures, so an agent can
     see WHY a month paid what it paid.
  4. No filtering: Callers scope records to one owner and one month before
     invoking. The engine performs no date or owner filtering of its own.

USAGE:
  plan := compensation.DefaultPlan()
  breakdown, err := plan.Compute(records)
  if err != nil {
      // a record carried a category outside the known enumeration
  }
  fmt.Println(breakdown.TotalCompensation.StringFixed(2))

SEE ALSO:
  - category.go: The closed category enumeration and its two-group partition
  - plan.go: The bracket tables (rates, bonus tiers, milestones)
  - errors.go: Engine error types
*/
package compensation

import "github.com/shopspring/decimal"

// SaleRecord is the engine's input: one sale, reduced to the fields the
// calculation needs. FSMonthlyPremium is zero when the sale carries none;
// only Financial Services categories ever contribute it.
type SaleRecord struct {
	Category         Category
	Premium          decimal.Decimal
	FSMonthlyPremium decimal.Decimal
}

// Breakdown is the complete result of one Compute call. Monetary fields
// carry full precision; counts are plain ints.
type Breakdown struct {
	// Derived aggregates, computed before any money figure.
	PCPremium      decimal.Decimal
	PCApps         int
	LifeApps       int
	FSMonthlyTotal decimal.Decimal

	// Commission. Rate is reported even when the eligibility gate zeroes
	// the commission amount.
	Rate               decimal.Decimal
	Commission         decimal.Decimal
	CommissionEligible bool

	// Bonuses. Each is independent and additive; none excludes another.
	FSMonthlyBonus decimal.Decimal
	FSHighBonus    decimal.Decimal
	LifeAppBonus   decimal.Decimal
	MilestoneBonus decimal.Decimal

	TotalBonus        decimal.Decimal
	TotalCompensation decimal.Decimal
}

// Compute derives the compensation breakdown for one agent-month of records.
//
// Derivation order: pc_premium, pc_apps, life_apps, fs_monthly_total; then
// the rate lookup, the eligibility gate, the four bonuses, and the totals.
//
// The only failure mode is a record whose category is outside the known
// enumeration. That is a caller bug (validation belongs at the data-entry
// boundary), surfaced as ErrUnknownCategory rather than silently defaulting.
func (p *Plan) Compute(records []SaleRecord) (Breakdown, error) {
	var b Breakdown

	for _, r := range records {
		group, ok := r.Category.Group()
		if !ok {
			return Breakdown{}, &UnknownCategoryError{Value: string(r.Category)}
		}

		switch group {
		case GroupPropertyCasualty:
			b.PCPremium = b.PCPremium.Add(r.Premium)
			b.PCApps++
		case GroupFinancialServices:
			b.FSMonthlyTotal = b.FSMonthlyTotal.Add(r.FSMonthlyPremium)
		}

		if r.Category == CategoryLife {
			b.LifeApps++
		}
	}

	b.Rate = p.Rate(b.PCApps, b.LifeApps)
	b.CommissionEligible = b.PCPremium.GreaterThanOrEqual(p.MinCommissionPremium)
	if b.CommissionEligible {
		b.Commission = b.PCPremium.Mul(b.Rate)
	}

	b.FSMonthlyBonus = p.fsMonthlyBonus(b.FSMonthlyTotal)
	b.FSHighBonus = p.fsHighBonus(b.FSMonthlyTotal)
	b.LifeAppBonus = p.lifeAppBonus(b.LifeApps)
	b.MilestoneBonus = p.milestoneBonus(b.PCApps, b.LifeApps)

	b.TotalBonus = b.FSMonthlyBonus.
		Add(b.FSHighBonus).
		Add(b.LifeAppBonus).
		Add(b.MilestoneBonus)
	b.TotalCompensation = b.Commission.Add(b.TotalBonus)

	return b, nil
}
