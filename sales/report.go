/*
report.go - Team report aggregation and month scoping

PURPOSE:
  Pure aggregation over already-fetched sales: per-category premium totals
  for the dashboard table and per-month totals for the chart. Also the
  month-range helper the commission handler uses to scope its store query;
  the engine itself never filters by date.
*/
package sales

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-tracker/compensation"
)

// MonthLayout is the wire format for commission target months.
const MonthLayout = "2006-01"

// CategoryTotal is one row of the per-category premium table.
type CategoryTotal struct {
	Category compensation.Category
	Label    string
	Total    decimal.Decimal
}

// MonthTotal is one point of the per-month premium chart.
type MonthTotal struct {
	Month time.Time // first day of the month, UTC
	Label string    // e.g. "Mar 2026"
	Total decimal.Decimal
}

// TeamReport is the team dashboard payload: the filtered sales plus their
// aggregates, with the filter bounds echoed back.
type TeamReport struct {
	Sales          []TeamSale
	CategoryTotals []CategoryTotal
	MonthlyTotals  []MonthTotal
	Start          *time.Time
	End            *time.Time
}

// BuildTeamReport aggregates sales into a TeamReport. Category totals keep
// the canonical category order and include only categories that sold;
// monthly totals are chronological.
func BuildTeamReport(teamSales []TeamSale, start, end *time.Time) TeamReport {
	byCategory := make(map[compensation.Category]decimal.Decimal)
	byMonth := make(map[time.Time]decimal.Decimal)

	for _, s := range teamSales {
		byCategory[s.Category] = byCategory[s.Category].Add(s.Premium)
		m := time.Date(s.DateSold.Year(), s.DateSold.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[m] = byMonth[m].Add(s.Premium)
	}

	report := TeamReport{Sales: teamSales, Start: start, End: end}

	for _, c := range compensation.Categories() {
		if total, ok := byCategory[c]; ok {
			report.CategoryTotals = append(report.CategoryTotals, CategoryTotal{
				Category: c,
				Label:    c.Label(),
				Total:    total,
			})
		}
	}

	months := make([]time.Time, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	for _, m := range months {
		report.MonthlyTotals = append(report.MonthlyTotals, MonthTotal{
			Month: m,
			Label: m.Format("Jan 2006"),
			Total: byMonth[m],
		})
	}

	return report
}

// MonthRange returns the first and last day of the month containing t,
// both at date precision in UTC. Bounds are inclusive, matching the store's
// range queries.
func MonthRange(t time.Time) (from, to time.Time) {
	from = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 1, -1)
	return from, to
}

// ParseMonth parses a YYYY-MM target month.
func ParseMonth(s string) (time.Time, error) {
	return time.Parse(MonthLayout, s)
}
