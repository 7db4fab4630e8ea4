/*
Package factory provides JSON to Go compensation plan conversion.

PURPOSE:
  Converts JSON plan definitions into compensation.Plan objects. This lets
  an agency adjust its commission schedule without code changes - the rate
  grid and bonus tables live in a JSON file loaded at startup.

WHY JSON?
  - Non-developers can adjust the schedule year to year
  - Version control for plan definitions
  - The API can expose the active plan in the same shape it is configured

JSON SCHEMA:
  {
    "min_commission_premium": "12000",
    "rate_rows": [
      {"min_life_apps": 5, "brackets": [
        {"min_pc_apps": 1, "rate": "0.07"},
        {"min_pc_apps": 20, "rate": "0.09"},
        {"min_pc_apps": 30, "rate": "0.10"},
        {"min_pc_apps": 40, "rate": "0.11"},
        {"min_pc_apps": 50, "rate": "0.12"}
      ]}
    ],
    "fs_monthly_tiers": [
      {"threshold": "500", "bonus": "800"},
      {"threshold": "200", "bonus": "200"}
    ],
    "fs_high_threshold": "1000",
    "fs_high_bonus": "1000",
    "life_bonus": {"min_apps": 6, "base": "500", "per_app": "150"},
    "milestone_tiers": [
      {"min_pc_apps": 30, "min_life_apps": 4, "bonus": "1000"}
    ]
  }

  All money and rate values are decimal strings, never floats.

ORDERING:
  Rate rows, brackets, and tiers may appear in any order in the file. The
  factory sorts them most-demanding-first, which is the order the lookup
  functions require.

USAGE:
  factory := NewPlanFactory()
  plan, err := factory.ParsePlan(jsonString)

SEE ALSO:
  - compensation/plan.go: Plan type definition and DefaultPlan
  - cmd/server/main.go: loads a plan file via the -plan flag
*/
package factory

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-tracker/compensation"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PlanJSON is the JSON representation of a compensation plan.
type PlanJSON struct {
	MinCommissionPremium decimal.Decimal     `json:"min_commission_premium"`
	RateRows             []RateRowJSON       `json:"rate_rows"`
	FSMonthlyTiers       []BonusTierJSON     `json:"fs_monthly_tiers,omitempty"`
	FSHighThreshold      decimal.Decimal     `json:"fs_high_threshold"`
	FSHighBonus          decimal.Decimal     `json:"fs_high_bonus"`
	LifeBonus            *LifeBonusJSON      `json:"life_bonus,omitempty"`
	MilestoneTiers       []MilestoneTierJSON `json:"milestone_tiers,omitempty"`
}

// RateRowJSON is one life-production row of the rate grid.
type RateRowJSON struct {
	MinLifeApps int               `json:"min_life_apps"`
	Brackets    []RateBracketJSON `json:"brackets"`
}

// RateBracketJSON is one auto/fire volume bracket within a row.
type RateBracketJSON struct {
	MinPCApps int             `json:"min_pc_apps"`
	Rate      decimal.Decimal `json:"rate"`
}

// BonusTierJSON is one threshold step of the financial services bonus.
type BonusTierJSON struct {
	Threshold decimal.Decimal `json:"threshold"`
	Bonus     decimal.Decimal `json:"bonus"`
}

// LifeBonusJSON configures the per-application life bonus.
type LifeBonusJSON struct {
	MinApps int             `json:"min_apps"`
	Base    decimal.Decimal `json:"base"`
	PerApp  decimal.Decimal `json:"per_app"`
}

// MilestoneTierJSON is one joint production milestone.
type MilestoneTierJSON struct {
	MinPCApps   int             `json:"min_pc_apps"`
	MinLifeApps int             `json:"min_life_apps"`
	Bonus       decimal.Decimal `json:"bonus"`
}

// =============================================================================
// PLAN FACTORY
// =============================================================================

// PlanFactory converts JSON plans to Go structs.
type PlanFactory struct{}

// NewPlanFactory creates a new plan factory.
func NewPlanFactory() *PlanFactory {
	return &PlanFactory{}
}

// ParsePlan parses a JSON string into a validated Plan.
func (f *PlanFactory) ParsePlan(jsonStr string) (*compensation.Plan, error) {
	var pj PlanJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}

	return f.FromJSON(pj)
}

// FromJSON converts PlanJSON to a compensation.Plan. Rows and tiers are
// sorted most-demanding-first and the result is validated.
func (f *PlanFactory) FromJSON(pj PlanJSON) (*compensation.Plan, error) {
	plan := &compensation.Plan{
		MinCommissionPremium: pj.MinCommissionPremium,
		FSHighThreshold:      pj.FSHighThreshold,
		FSHighBonus:          pj.FSHighBonus,
	}

	for _, rj := range pj.RateRows {
		row := compensation.RateRow{MinLifeApps: rj.MinLifeApps}
		for _, bj := range rj.Brackets {
			row.Brackets = append(row.Brackets, compensation.RateBracket{
				MinPCApps: bj.MinPCApps,
				Rate:      bj.Rate,
			})
		}
		sort.Slice(row.Brackets, func(i, j int) bool {
			return row.Brackets[i].MinPCApps > row.Brackets[j].MinPCApps
		})
		plan.RateRows = append(plan.RateRows, row)
	}
	sort.Slice(plan.RateRows, func(i, j int) bool {
		return plan.RateRows[i].MinLifeApps > plan.RateRows[j].MinLifeApps
	})

	for _, tj := range pj.FSMonthlyTiers {
		plan.FSMonthlyTiers = append(plan.FSMonthlyTiers, compensation.BonusTier{
			Threshold: tj.Threshold,
			Bonus:     tj.Bonus,
		})
	}
	sort.Slice(plan.FSMonthlyTiers, func(i, j int) bool {
		return plan.FSMonthlyTiers[i].Threshold.GreaterThan(plan.FSMonthlyTiers[j].Threshold)
	})

	if pj.LifeBonus != nil {
		plan.LifeBonusMinApps = pj.LifeBonus.MinApps
		plan.LifeBonusBase = pj.LifeBonus.Base
		plan.LifeBonusPerApp = pj.LifeBonus.PerApp
	}

	for _, mj := range pj.MilestoneTiers {
		plan.MilestoneTiers = append(plan.MilestoneTiers, compensation.MilestoneTier{
			MinPCApps:   mj.MinPCApps,
			MinLifeApps: mj.MinLifeApps,
			Bonus:       mj.Bonus,
		})
	}
	sort.Slice(plan.MilestoneTiers, func(i, j int) bool {
		if plan.MilestoneTiers[i].MinPCApps != plan.MilestoneTiers[j].MinPCApps {
			return plan.MilestoneTiers[i].MinPCApps > plan.MilestoneTiers[j].MinPCApps
		}
		return plan.MilestoneTiers[i].MinLifeApps > plan.MilestoneTiers[j].MinLifeApps
	})

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	return plan, nil
}

// ToJSON converts a Plan to PlanJSON, preserving the canonical ordering.
func (f *PlanFactory) ToJSON(plan *compensation.Plan) PlanJSON {
	pj := PlanJSON{
		MinCommissionPremium: plan.MinCommissionPremium,
		FSHighThreshold:      plan.FSHighThreshold,
		FSHighBonus:          plan.FSHighBonus,
	}

	for _, row := range plan.RateRows {
		rj := RateRowJSON{MinLifeApps: row.MinLifeApps}
		for _, b := range row.Brackets {
			rj.Brackets = append(rj.Brackets, RateBracketJSON{MinPCApps: b.MinPCApps, Rate: b.Rate})
		}
		pj.RateRows = append(pj.RateRows, rj)
	}

	for _, tier := range plan.FSMonthlyTiers {
		pj.FSMonthlyTiers = append(pj.FSMonthlyTiers, BonusTierJSON{Threshold: tier.Threshold, Bonus: tier.Bonus})
	}

	if plan.LifeBonusMinApps > 0 {
		pj.LifeBonus = &LifeBonusJSON{
			MinApps: plan.LifeBonusMinApps,
			Base:    plan.LifeBonusBase,
			PerApp:  plan.LifeBonusPerApp,
		}
	}

	for _, tier := range plan.MilestoneTiers {
		pj.MilestoneTiers = append(pj.MilestoneTiers, MilestoneTierJSON{
			MinPCApps:   tier.MinPCApps,
			MinLifeApps: tier.MinLifeApps,
			Bonus:       tier.Bonus,
		})
	}

	return pj
}
