package compensation_test

import (
	"strings"
	"testing"

	"github.com/warp/commission-tracker/compensation"
)

func TestDefaultPlan_Validates(t *testing.T) {
	if err := compensation.DefaultPlan().Validate(); err != nil {
		t.Fatalf("DefaultPlan failed validation: %v", err)
	}
}

func TestRate_GridMatchesSchedule(t *testing.T) {
	// Spot-check the published grid at tier boundaries. Columns are pc-app
	// tiers (1-19 / 20-29 / 30-39 / 40-49 / 50+), rows life-app tiers.
	plan := compensation.DefaultPlan()

	cases := []struct {
		pcApps   int
		lifeApps int
		want     string
	}{
		// Row <2 life apps
		{1, 0, "0.02"}, {19, 0, "0.02"}, {20, 1, "0.04"}, {29, 0, "0.04"},
		{30, 1, "0.05"}, {39, 0, "0.05"}, {40, 0, "0.06"}, {49, 1, "0.06"},
		{50, 0, "0.07"}, {120, 1, "0.07"},
		// Row 2
		{1, 2, "0.04"}, {20, 2, "0.06"}, {30, 2, "0.07"}, {40, 2, "0.08"}, {50, 2, "0.09"},
		// Row 3
		{1, 3, "0.05"}, {20, 3, "0.07"}, {30, 3, "0.08"}, {40, 3, "0.09"}, {50, 3, "0.10"},
		// Row 4
		{1, 4, "0.06"}, {20, 4, "0.08"}, {30, 4, "0.09"}, {40, 4, "0.10"}, {50, 4, "0.11"},
		// Row 5+
		{1, 5, "0.07"}, {20, 5, "0.09"}, {30, 7, "0.10"}, {40, 5, "0.11"}, {50, 9, "0.12"},
		// Zero pc apps is rate zero on every row
		{0, 0, "0"}, {0, 2, "0"}, {0, 5, "0"},
	}

	for _, tc := range cases {
		got := plan.Rate(tc.pcApps, tc.lifeApps)
		if !got.Equal(dec(tc.want)) {
			t.Errorf("Rate(pc=%d, life=%d) = %s, want %s",
				tc.pcApps, tc.lifeApps, got.String(), tc.want)
		}
	}
}

func TestRate_MonotonicInBothAxes(t *testing.T) {
	// More applications never lowers the rate, on either axis.
	plan := compensation.DefaultPlan()

	for life := 0; life <= 8; life++ {
		for pc := 0; pc <= 60; pc++ {
			here := plan.Rate(pc, life)
			if morePC := plan.Rate(pc+1, life); morePC.LessThan(here) {
				t.Fatalf("Rate(pc=%d, life=%d)=%s > Rate(pc=%d, life=%d)=%s",
					pc, life, here.String(), pc+1, life, morePC.String())
			}
			if moreLife := plan.Rate(pc, life+1); moreLife.LessThan(here) {
				t.Fatalf("Rate(pc=%d, life=%d)=%s > Rate(pc=%d, life=%d)=%s",
					pc, life, here.String(), pc, life+1, moreLife.String())
			}
		}
	}
}

func TestPlanValidate_RejectsBrokenTables(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(p *compensation.Plan)
		wantMsg string
	}{
		{
			name:    "no rate rows",
			mutate:  func(p *compensation.Plan) { p.RateRows = nil },
			wantMsg: "no rate rows",
		},
		{
			name:    "row without brackets",
			mutate:  func(p *compensation.Plan) { p.RateRows[0].Brackets = nil },
			wantMsg: "no brackets",
		},
		{
			name: "negative rate",
			mutate: func(p *compensation.Plan) {
				p.RateRows[2].Brackets[1].Rate = dec("-0.01")
			},
			wantMsg: "negative rate",
		},
		{
			name:    "negative eligibility threshold",
			mutate:  func(p *compensation.Plan) { p.MinCommissionPremium = dec("-1") },
			wantMsg: "eligibility threshold",
		},
		{
			name:    "zero life bonus minimum",
			mutate:  func(p *compensation.Plan) { p.LifeBonusMinApps = 0 },
			wantMsg: "life bonus minimum",
		},
		{
			name: "negative milestone",
			mutate: func(p *compensation.Plan) {
				p.MilestoneTiers[0].Bonus = dec("-500")
			},
			wantMsg: "milestone",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := compensation.DefaultPlan()
			tc.mutate(plan)
			err := plan.Validate()
			if err == nil {
				t.Fatal("Validate accepted a broken plan")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.wantMsg)
			}
		})
	}
}
