/*
Package export builds the .xlsx downloads served by the API.

PURPOSE:
  Turns sales listings and monthly compensation breakdowns into styled
  spreadsheet workbooks. Everything here is pure: callers fetch the rows,
  this package only renders them.

WORKBOOKS:
  TeamSalesWorkbook:  "Team Sales" sheet, indigo header, one row per sale
                      across the whole team (Team Member column included)
  MySalesWorkbook:    "My Sales" sheet, sky-blue header, one agent's sales
  StatementWorkbook:  "Statement" sheet, label/value rows for one month's
                      compensation breakdown

CONVENTIONS:
  - Rows are ordered by date sold ascending, oldest first
  - Header cells are bold white on the sheet's fill color
  - Column width is the longest cell in the column plus 4
  - Dates render as YYYY-MM-DD, money cells carry a 0.00 number format
  - A missing financial services premium exports as 0

ROUND-TRIPPING:
  ReadStatement parses a statement workbook back into a Statement. Writing
  and re-reading preserves every monetary field to cent precision, which
  keeps downloaded statements usable as data, not just as display.

SEE ALSO:
  - api/handlers.go: streams these workbooks with attachment headers
  - compensation/compute.go: the Breakdown rendered by StatementWorkbook
*/
package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/commission-tracker/compensation"
	"github.com/warp/commission-tracker/sales"
)

const (
	teamSheetName      = "Team Sales"
	mySheetName        = "My Sales"
	statementSheetName = "Statement"

	teamHeaderFill = "4F46E5"
	myHeaderFill   = "0EA5E9"
)

// =============================================================================
// SALES LISTINGS
// =============================================================================

// TeamSalesWorkbook renders every team member's sales, oldest first.
func TeamSalesWorkbook(teamSales []sales.TeamSale) (*excelize.File, error) {
	ordered := make([]sales.TeamSale, len(teamSales))
	copy(ordered, teamSales)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DateSold.Before(ordered[j].DateSold)
	})

	headers := []string{"Client Name", "Team Member", "Date Sold", "Date Effective", "Category", "Policy Premium", "FS Monthly Premium"}
	rows := make([][]any, len(ordered))
	for i, ts := range ordered {
		rows[i] = []any{
			ts.ClientName,
			ts.Username,
			ts.DateSold.Format(sales.DateLayout),
			ts.DateEffective.Format(sales.DateLayout),
			ts.Category.Label(),
			ts.Premium.InexactFloat64(),
			fsPremiumOrZero(ts.FSMonthlyPremium),
		}
	}

	return buildTable(teamSheetName, teamHeaderFill, headers, rows, map[int]bool{5: true, 6: true})
}

// TeamSalesFilename names a team export after its date filter, e.g.
// team-sales-20260301-20260331.xlsx. Absent bounds are omitted.
func TeamSalesFilename(start, end *time.Time) string {
	parts := []string{"team-sales"}
	if start != nil {
		parts = append(parts, start.Format("20060102"))
	}
	if end != nil {
		parts = append(parts, end.Format("20060102"))
	}
	return strings.Join(parts, "-") + ".xlsx"
}

// MySalesWorkbook renders one agent's sales, oldest first.
func MySalesWorkbook(rows []sales.Sale) (*excelize.File, error) {
	ordered := make([]sales.Sale, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DateSold.Before(ordered[j].DateSold)
	})

	headers := []string{"Client Name", "Date Sold", "Date Effective", "Category", "Policy Premium", "FS Monthly Premium"}
	table := make([][]any, len(ordered))
	for i, s := range ordered {
		table[i] = []any{
			s.ClientName,
			s.DateSold.Format(sales.DateLayout),
			s.DateEffective.Format(sales.DateLayout),
			s.Category.Label(),
			s.Premium.InexactFloat64(),
			fsPremiumOrZero(s.FSMonthlyPremium),
		}
	}

	return buildTable(mySheetName, myHeaderFill, headers, table, map[int]bool{4: true, 5: true})
}

// MySalesFilename names a personal export after its owner.
func MySalesFilename(username string) string {
	return username + "-sales.xlsx"
}

// =============================================================================
// COMMISSION STATEMENT
// =============================================================================

// Statement is a parsed statement workbook.
type Statement struct {
	Username  string
	Month     time.Time
	Breakdown compensation.Breakdown
}

// Statement row labels, in sheet order.
const (
	labelAgent              = "Agent"
	labelMonth              = "Month"
	labelPCPremium          = "P&C Premium"
	labelPCApps             = "P&C Applications"
	labelLifeApps           = "Life Applications"
	labelFSMonthlyTotal     = "FS Monthly Total"
	labelRate               = "Commission Rate"
	labelCommissionEligible = "Commission Eligible"
	labelCommission         = "Commission"
	labelFSMonthlyBonus     = "FS Monthly Bonus"
	labelFSHighBonus        = "FS High Bonus"
	labelLifeAppBonus       = "Life App Bonus"
	labelMilestoneBonus     = "Milestone Bonus"
	labelTotalBonus         = "Total Bonus"
	labelTotalCompensation  = "Total Compensation"
)

// StatementWorkbook renders one month's compensation breakdown as
// label/value rows.
func StatementWorkbook(username string, month time.Time, b compensation.Breakdown) (*excelize.File, error) {
	eligible := "no"
	if b.CommissionEligible {
		eligible = "yes"
	}

	type row struct {
		label string
		value any
		money bool
	}
	statementRows := []row{
		{labelAgent, username, false},
		{labelMonth, month.Format(sales.MonthLayout), false},
		{labelPCPremium, b.PCPremium.InexactFloat64(), true},
		{labelPCApps, b.PCApps, false},
		{labelLifeApps, b.LifeApps, false},
		{labelFSMonthlyTotal, b.FSMonthlyTotal.InexactFloat64(), true},
		{labelRate, b.Rate.InexactFloat64(), false},
		{labelCommissionEligible, eligible, false},
		{labelCommission, b.Commission.InexactFloat64(), true},
		{labelFSMonthlyBonus, b.FSMonthlyBonus.InexactFloat64(), true},
		{labelFSHighBonus, b.FSHighBonus.InexactFloat64(), true},
		{labelLifeAppBonus, b.LifeAppBonus.InexactFloat64(), true},
		{labelMilestoneBonus, b.MilestoneBonus.InexactFloat64(), true},
		{labelTotalBonus, b.TotalBonus.InexactFloat64(), true},
		{labelTotalCompensation, b.TotalCompensation.InexactFloat64(), true},
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), statementSheetName); err != nil {
		return nil, err
	}

	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, err
	}

	labelWidth, valueWidth := 0, 0
	for i, sr := range statementRows {
		labelCell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		valueCell, err := excelize.CoordinatesToCellName(2, i+1)
		if err != nil {
			return nil, err
		}

		if err := f.SetCellValue(statementSheetName, labelCell, sr.label); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(statementSheetName, valueCell, sr.value); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(statementSheetName, labelCell, labelCell, labelStyle); err != nil {
			return nil, err
		}
		if sr.money {
			if err := f.SetCellStyle(statementSheetName, valueCell, valueCell, moneyStyle); err != nil {
				return nil, err
			}
		}

		labelWidth = max(labelWidth, len(sr.label))
		valueWidth = max(valueWidth, len(fmt.Sprint(sr.value)))
	}

	if err := f.SetColWidth(statementSheetName, "A", "A", float64(labelWidth+4)); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(statementSheetName, "B", "B", float64(valueWidth+4)); err != nil {
		return nil, err
	}

	return f, nil
}

// StatementFilename names a statement export, e.g.
// commission-nina-2026-03.xlsx.
func StatementFilename(username string, month time.Time) string {
	return fmt.Sprintf("commission-%s-%s.xlsx", username, month.Format(sales.MonthLayout))
}

// ReadStatement parses a statement workbook written by StatementWorkbook.
func ReadStatement(r io.Reader) (*Statement, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(statementSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement sheet: %w", err)
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		if len(row) >= 2 {
			values[row[0]] = row[1]
		}
	}

	st := &Statement{}
	var parseErr error

	str := func(label string) string {
		v, ok := values[label]
		if !ok && parseErr == nil {
			parseErr = fmt.Errorf("statement: missing %q row", label)
		}
		return v
	}
	dec := func(label string) decimal.Decimal {
		d, err := decimal.NewFromString(str(label))
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("statement: bad value in %q row: %w", label, err)
		}
		return d
	}
	count := func(label string) int {
		n, err := strconv.Atoi(str(label))
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("statement: bad count in %q row: %w", label, err)
		}
		return n
	}

	st.Username = str(labelAgent)
	st.Month, err = time.Parse(sales.MonthLayout, str(labelMonth))
	if err != nil && parseErr == nil {
		parseErr = fmt.Errorf("statement: bad month: %w", err)
	}

	st.Breakdown = compensation.Breakdown{
		PCPremium:          dec(labelPCPremium),
		PCApps:             count(labelPCApps),
		LifeApps:           count(labelLifeApps),
		FSMonthlyTotal:     dec(labelFSMonthlyTotal),
		Rate:               dec(labelRate),
		CommissionEligible: str(labelCommissionEligible) == "yes",
		Commission:         dec(labelCommission),
		FSMonthlyBonus:     dec(labelFSMonthlyBonus),
		FSHighBonus:        dec(labelFSHighBonus),
		LifeAppBonus:       dec(labelLifeAppBonus),
		MilestoneBonus:     dec(labelMilestoneBonus),
		TotalBonus:         dec(labelTotalBonus),
		TotalCompensation:  dec(labelTotalCompensation),
	}

	if parseErr != nil {
		return nil, parseErr
	}
	return st, nil
}

// =============================================================================
// SHARED RENDERING
// =============================================================================

// buildTable writes a header row plus data rows onto a fresh workbook,
// styles the header, and sizes every column to its longest cell.
func buildTable(sheet, fill string, headers []string, rows [][]any, moneyCols map[int]bool) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, err
	}

	widths := make([]int, len(headers))
	for c, header := range headers {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
		widths[c] = len(header)
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
			if moneyCols[c] {
				if err := f.SetCellStyle(sheet, cell, cell, moneyStyle); err != nil {
					return nil, err
				}
			}
			if l := len(fmt.Sprint(value)); l > widths[c] {
				widths[c] = l
			}
		}
	}

	for c := range headers {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, float64(widths[c]+4)); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func fsPremiumOrZero(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	return d.InexactFloat64()
}
