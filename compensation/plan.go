/*
plan.go - Bracket tables for commission and bonuses

PURPOSE:
  A Plan holds every number the engine looks up: the two-dimensional
  commission rate grid, the eligibility threshold, and the four bonus
  tables. Tables are ordered lists of (threshold, value) pairs evaluated
  highest-threshold-first, so a rate change is a data edit (or a JSON plan
  file, see the factory package), never a code change.

TABLE SHAPE:
  Rate grid rows are selected by life applications (more life apps, better
  row), then the row's brackets by P&C application count. Zero P&C apps
  matches no bracket and yields rate zero regardless of the row.

SEE ALSO:
  - compute.go: Applies the plan to a record set
  - factory/plan.go: JSON plan definitions
*/
package compensation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TABLE TYPES
// =============================================================================

// RateBracket pairs a minimum P&C application count with a commission rate.
type RateBracket struct {
	MinPCApps int
	Rate      decimal.Decimal
}

// RateRow is one life-applications tier of the rate grid. Brackets are
// ordered by MinPCApps descending.
type RateRow struct {
	MinLifeApps int
	Brackets    []RateBracket
}

// BonusTier pairs a minimum amount with a flat bonus. Tiers are ordered by
// Threshold descending; the first match wins.
type BonusTier struct {
	Threshold decimal.Decimal
	Bonus     decimal.Decimal
}

// MilestoneTier is a joint (P&C count, life count) requirement with a flat
// bonus. At most one tier fires per month.
type MilestoneTier struct {
	MinPCApps   int
	MinLifeApps int
	Bonus       decimal.Decimal
}

// Plan is the full set of bracket tables. All slices are evaluated in
// order, so rows and tiers must be sorted highest-requirement-first.
type Plan struct {
	// Commission.
	RateRows             []RateRow
	MinCommissionPremium decimal.Decimal

	// Tiered bonus on the summed Financial Services monthly premium.
	FSMonthlyTiers []BonusTier

	// Flat bonus when the fs monthly total strictly exceeds the threshold.
	// Stacks on top of the tiered bonus; the two are not alternatives.
	FSHighThreshold decimal.Decimal
	FSHighBonus     decimal.Decimal

	// Life application bonus: base at the minimum count, plus a per-app
	// amount for every application beyond it.
	LifeBonusMinApps int
	LifeBonusBase    decimal.Decimal
	LifeBonusPerApp  decimal.Decimal

	MilestoneTiers []MilestoneTier
}

// =============================================================================
// DEFAULT PLAN
// =============================================================================

// DefaultPlan returns the standing compensation plan.
//
// Rate grid, rows by life apps (<2 / 2 / 3 / 4 / 5+), columns by P&C apps
// (1-19 / 20-29 / 30-39 / 40-49 / 50+):
//
//	<2:  .02  .04  .05  .06  .07
//	 2:  .04  .06  .07  .08  .09
//	 3:  .05  .07  .08  .09  .10
//	 4:  .06  .08  .09  .10  .11
//	5+:  .07  .09  .10  .11  .12
func DefaultPlan() *Plan {
	return &Plan{
		RateRows: []RateRow{
			{MinLifeApps: 5, Brackets: brackets("0.07", "0.09", "0.10", "0.11", "0.12")},
			{MinLifeApps: 4, Brackets: brackets("0.06", "0.08", "0.09", "0.10", "0.11")},
			{MinLifeApps: 3, Brackets: brackets("0.05", "0.07", "0.08", "0.09", "0.10")},
			{MinLifeApps: 2, Brackets: brackets("0.04", "0.06", "0.07", "0.08", "0.09")},
			{MinLifeApps: 0, Brackets: brackets("0.02", "0.04", "0.05", "0.06", "0.07")},
		},
		MinCommissionPremium: MustParseDecimal("12000"),

		FSMonthlyTiers: []BonusTier{
			{Threshold: MustParseDecimal("500"), Bonus: MustParseDecimal("800")},
			{Threshold: MustParseDecimal("400"), Bonus: MustParseDecimal("600")},
			{Threshold: MustParseDecimal("300"), Bonus: MustParseDecimal("400")},
			{Threshold: MustParseDecimal("200"), Bonus: MustParseDecimal("200")},
		},
		FSHighThreshold: MustParseDecimal("1000"),
		FSHighBonus:     MustParseDecimal("1000"),

		LifeBonusMinApps: 6,
		LifeBonusBase:    MustParseDecimal("500"),
		LifeBonusPerApp:  MustParseDecimal("150"),

		MilestoneTiers: []MilestoneTier{
			{MinPCApps: 30, MinLifeApps: 4, Bonus: MustParseDecimal("1000")},
			{MinPCApps: 25, MinLifeApps: 3, Bonus: MustParseDecimal("750")},
			{MinPCApps: 20, MinLifeApps: 2, Bonus: MustParseDecimal("500")},
		},
	}
}

// brackets builds one row of the standard five-column grid, rates given
// lowest column first.
func brackets(r1, r20, r30, r40, r50 string) []RateBracket {
	return []RateBracket{
		{MinPCApps: 50, Rate: MustParseDecimal(r50)},
		{MinPCApps: 40, Rate: MustParseDecimal(r40)},
		{MinPCApps: 30, Rate: MustParseDecimal(r30)},
		{MinPCApps: 20, Rate: MustParseDecimal(r20)},
		{MinPCApps: 1, Rate: MustParseDecimal(r1)},
	}
}

// MustParseDecimal parses a decimal literal, returning zero on failure.
// For table constants and tests only; runtime input goes through real
// parsing with errors.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// LOOKUPS
// =============================================================================

// Rate resolves the commission rate for the given application counts.
// Rows are scanned highest life-apps tier first, then the matched row's
// brackets highest P&C tier first. No bracket match (pc apps 0) is rate 0.
func (p *Plan) Rate(pcApps, lifeApps int) decimal.Decimal {
	for _, row := range p.RateRows {
		if lifeApps < row.MinLifeApps {
			continue
		}
		for _, b := range row.Brackets {
			if pcApps >= b.MinPCApps {
				return b.Rate
			}
		}
		return decimal.Zero
	}
	return decimal.Zero
}

func (p *Plan) fsMonthlyBonus(total decimal.Decimal) decimal.Decimal {
	for _, t := range p.FSMonthlyTiers {
		if total.GreaterThanOrEqual(t.Threshold) {
			return t.Bonus
		}
	}
	return decimal.Zero
}

func (p *Plan) fsHighBonus(total decimal.Decimal) decimal.Decimal {
	if total.GreaterThan(p.FSHighThreshold) {
		return p.FSHighBonus
	}
	return decimal.Zero
}

func (p *Plan) lifeAppBonus(lifeApps int) decimal.Decimal {
	if lifeApps < p.LifeBonusMinApps {
		return decimal.Zero
	}
	extra := decimal.NewFromInt(int64(lifeApps - p.LifeBonusMinApps))
	return p.LifeBonusBase.Add(p.LifeBonusPerApp.Mul(extra))
}

func (p *Plan) milestoneBonus(pcApps, lifeApps int) decimal.Decimal {
	for _, t := range p.MilestoneTiers {
		if pcApps >= t.MinPCApps && lifeApps >= t.MinLifeApps {
			return t.Bonus
		}
	}
	return decimal.Zero
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks a plan for structural problems. DefaultPlan always
// passes; plans parsed from JSON go through this before use.
func (p *Plan) Validate() error {
	if len(p.RateRows) == 0 {
		return fmt.Errorf("plan: no rate rows")
	}
	for i, row := range p.RateRows {
		if row.MinLifeApps < 0 {
			return fmt.Errorf("plan: rate row %d: negative life-apps minimum", i)
		}
		if len(row.Brackets) == 0 {
			return fmt.Errorf("plan: rate row %d: no brackets", i)
		}
		for j, b := range row.Brackets {
			if b.MinPCApps < 0 {
				return fmt.Errorf("plan: rate row %d bracket %d: negative pc-apps minimum", i, j)
			}
			if b.Rate.IsNegative() {
				return fmt.Errorf("plan: rate row %d bracket %d: negative rate", i, j)
			}
		}
	}
	if p.MinCommissionPremium.IsNegative() {
		return fmt.Errorf("plan: negative commission eligibility threshold")
	}
	for i, t := range p.FSMonthlyTiers {
		if t.Threshold.IsNegative() || t.Bonus.IsNegative() {
			return fmt.Errorf("plan: fs monthly tier %d: negative value", i)
		}
	}
	if p.FSHighThreshold.IsNegative() || p.FSHighBonus.IsNegative() {
		return fmt.Errorf("plan: negative fs high bonus config")
	}
	if p.LifeBonusBase.IsNegative() || p.LifeBonusPerApp.IsNegative() {
		return fmt.Errorf("plan: negative life bonus config")
	}
	// A zero minimum with a real payout would award the base to everyone.
	if p.LifeBonusMinApps < 1 && (p.LifeBonusBase.IsPositive() || p.LifeBonusPerApp.IsPositive()) {
		return fmt.Errorf("plan: life bonus minimum must be at least 1")
	}
	for i, t := range p.MilestoneTiers {
		if t.MinPCApps < 0 || t.MinLifeApps < 0 || t.Bonus.IsNegative() {
			return fmt.Errorf("plan: milestone tier %d: negative value", i)
		}
	}
	return nil
}
