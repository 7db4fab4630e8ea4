/*
category.go - Closed category enumeration and its two-group partition

PURPOSE:
  Every sale belongs to exactly one category, and every category belongs to
  exactly one of two groups: Property & Casualty (drives commission) or
  Financial Services (drives the fs monthly bonuses). The partition is a
  closed switch, not an ad-hoc string-set check: adding a category without
  deciding its group leaves Group() returning false, which Compute surfaces
  as an error instead of silently miscounting.

SEE ALSO:
  - compute.go: Consumes Group() and CategoryLife
  - plan.go: Bracket tables keyed by the derived counts
*/
package compensation

import "strings"

// Category identifies a product line. The set is closed; see Categories().
type Category string

const (
	CategoryAuto             Category = "auto"
	CategoryHomeowners       Category = "homeowners"
	CategoryRenters          Category = "renters"
	CategoryPersonalUmbrella Category = "plup"
	CategoryPersonalArticles Category = "pap"
	CategoryOtherFire        Category = "other_fire"
	CategoryBank             Category = "bank"
	CategoryBusiness         Category = "business"
	CategoryLife             Category = "life"
	CategoryHealth           Category = "health"
)

// Group partitions categories. Only Financial Services categories carry a
// secondary monthly premium; only Property & Casualty premiums earn
// commission.
type Group string

const (
	GroupPropertyCasualty  Group = "property_casualty"
	GroupFinancialServices Group = "financial_services"
)

// Group returns the group a category belongs to, or false for a value
// outside the enumeration.
func (c Category) Group() (Group, bool) {
	switch c {
	case CategoryAuto, CategoryHomeowners, CategoryRenters,
		CategoryPersonalUmbrella, CategoryPersonalArticles,
		CategoryOtherFire, CategoryBank, CategoryBusiness:
		return GroupPropertyCasualty, true
	case CategoryLife, CategoryHealth:
		return GroupFinancialServices, true
	default:
		return "", false
	}
}

// Valid reports whether the category is a member of the enumeration.
func (c Category) Valid() bool {
	_, ok := c.Group()
	return ok
}

// Label returns the display name used in forms and exports.
func (c Category) Label() string {
	switch c {
	case CategoryAuto:
		return "Auto"
	case CategoryHomeowners:
		return "Homeowners"
	case CategoryRenters:
		return "Renters"
	case CategoryPersonalUmbrella:
		return "Personal Umbrella"
	case CategoryPersonalArticles:
		return "Personal Articles"
	case CategoryOtherFire:
		return "Other Fire"
	case CategoryBank:
		return "Bank"
	case CategoryBusiness:
		return "Business"
	case CategoryLife:
		return "Life"
	case CategoryHealth:
		return "Health"
	default:
		return string(c)
	}
}

// Categories returns the enumeration in canonical display order.
func Categories() []Category {
	return []Category{
		CategoryAuto,
		CategoryHomeowners,
		CategoryRenters,
		CategoryPersonalUmbrella,
		CategoryPersonalArticles,
		CategoryOtherFire,
		CategoryBank,
		CategoryBusiness,
		CategoryLife,
		CategoryHealth,
	}
}

// ParseCategory normalizes raw form input into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", &UnknownCategoryError{Value: s}
	}
	return c, nil
}
