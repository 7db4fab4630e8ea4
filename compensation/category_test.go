package compensation_test

import (
	"errors"
	"testing"

	"github.com/warp/commission-tracker/compensation"
)

func TestCategories_PartitionIsCompleteAndDisjoint(t *testing.T) {
	// Every category belongs to exactly one group: eight P&C, two FS.
	var pc, fs int
	for _, c := range compensation.Categories() {
		group, ok := c.Group()
		if !ok {
			t.Fatalf("category %q has no group", c)
		}
		switch group {
		case compensation.GroupPropertyCasualty:
			pc++
		case compensation.GroupFinancialServices:
			fs++
		default:
			t.Fatalf("category %q in unexpected group %q", c, group)
		}
	}
	if pc != 8 || fs != 2 {
		t.Errorf("partition = (%d pc, %d fs), want (8, 2)", pc, fs)
	}
}

func TestParseCategory_NormalizesInput(t *testing.T) {
	c, err := compensation.ParseCategory("  Auto ")
	if err != nil {
		t.Fatalf("ParseCategory rejected valid input: %v", err)
	}
	if c != compensation.CategoryAuto {
		t.Errorf("parsed %q, want %q", c, compensation.CategoryAuto)
	}
}

func TestParseCategory_RejectsUnknown(t *testing.T) {
	_, err := compensation.ParseCategory("crypto")
	if !errors.Is(err, compensation.ErrUnknownCategory) {
		t.Errorf("error = %v, want ErrUnknownCategory", err)
	}
}

func TestCategoryLabels(t *testing.T) {
	cases := map[compensation.Category]string{
		compensation.CategoryAuto:             "Auto",
		compensation.CategoryPersonalUmbrella: "Personal Umbrella",
		compensation.CategoryPersonalArticles: "Personal Articles",
		compensation.CategoryOtherFire:        "Other Fire",
		compensation.CategoryLife:             "Life",
	}
	for c, want := range cases {
		if got := c.Label(); got != want {
			t.Errorf("%q.Label() = %q, want %q", c, got, want)
		}
	}
}
