/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY RENDERING:
  Money fields are fixed two-decimal strings ("1200.50"), never floats:
  clients display them verbatim and no precision is lost in transit. The
  two exceptions are commission rates (raw decimal strings, "0.09") and
  monthly chart totals (float64, consumed by charting libraries).

SEE ALSO:
  - handlers.go: Uses these types
  - factory/plan.go: PlanJSON, returned by the plan endpoint
*/
package api

import (
	"time"

	"github.com/warp/commission-tracker/compensation"
	"github.com/warp/commission-tracker/sales"
)

// =============================================================================
// AUTH TYPES
// =============================================================================

// SignupRequest creates an account. The team password doubles as the new
// account's password.
type SignupRequest struct {
	Username     string `json:"username"`
	TeamPassword string `json:"team_password"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at,omitempty"`
}

// AuthResponse carries a fresh session token.
type AuthResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	User      UserDTO `json:"user"`
}

// =============================================================================
// SALE TYPES
// =============================================================================

// CreateSaleRequest is the request to record a sale. All fields arrive as
// strings and are validated in the domain layer.
type CreateSaleRequest struct {
	ClientName       string `json:"client_name"`
	DateSold         string `json:"date_sold"`
	DateEffective    string `json:"date_effective"`
	Category         string `json:"category"`
	Premium          string `json:"premium"`
	FSMonthlyPremium string `json:"fs_monthly_premium,omitempty"`
}

// SaleDTO represents a sale in API responses.
type SaleDTO struct {
	ID               string  `json:"id"`
	ClientName       string  `json:"client_name"`
	DateSold         string  `json:"date_sold"`
	DateEffective    string  `json:"date_effective"`
	Category         string  `json:"category"`
	CategoryLabel    string  `json:"category_label"`
	Premium          string  `json:"premium"`
	FSMonthlyPremium *string `json:"fs_monthly_premium,omitempty"`
	CreatedAt        string  `json:"created_at,omitempty"`
}

// TeamSaleDTO is a SaleDTO plus the selling agent.
type TeamSaleDTO struct {
	SaleDTO
	Username string `json:"username"`
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// CategoryTotalDTO is one bar of the premium-by-category summary.
type CategoryTotalDTO struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Total    string `json:"total"`
}

// MonthTotalDTO is one point of the premium-by-month chart.
type MonthTotalDTO struct {
	Month string  `json:"month"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// TeamReportDTO is the team sales view: rows plus both summaries.
type TeamReportDTO struct {
	Sales          []TeamSaleDTO      `json:"sales"`
	CategoryTotals []CategoryTotalDTO `json:"category_totals"`
	MonthlyTotals  []MonthTotalDTO    `json:"monthly_totals"`
	StartDate      *string            `json:"start_date,omitempty"`
	EndDate        *string            `json:"end_date,omitempty"`
}

// =============================================================================
// COMMISSION TYPES
// =============================================================================

// BreakdownDTO mirrors compensation.Breakdown for one month.
type BreakdownDTO struct {
	PCPremium          string `json:"pc_premium"`
	PCApps             int    `json:"pc_apps"`
	LifeApps           int    `json:"life_apps"`
	FSMonthlyTotal     string `json:"fs_monthly_total"`
	Rate               string `json:"rate"`
	CommissionEligible bool   `json:"commission_eligible"`
	Commission         string `json:"commission"`
	FSMonthlyBonus     string `json:"fs_monthly_bonus"`
	FSHighBonus        string `json:"fs_high_bonus"`
	LifeAppBonus       string `json:"life_app_bonus"`
	MilestoneBonus     string `json:"milestone_bonus"`
	TotalBonus         string `json:"total_bonus"`
	TotalCompensation  string `json:"total_compensation"`
}

// CommissionStatementDTO is the monthly commission view: the month, the
// sales that fed the calculation, and the resulting breakdown.
type CommissionStatementDTO struct {
	Month     string       `json:"month"`
	Sales     []SaleDTO    `json:"sales"`
	Breakdown BreakdownDTO `json:"breakdown"`
}

// CategoryDTO describes one selectable sale category.
type CategoryDTO struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Group string `json:"group"`
}

// ErrorResponse is the standard error response. Field is set for
// validation failures so forms can highlight the offending input.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toUserDTO(u sales.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func toSaleDTO(s sales.Sale) SaleDTO {
	dto := SaleDTO{
		ID:            s.ID,
		ClientName:    s.ClientName,
		DateSold:      s.DateSold.Format(sales.DateLayout),
		DateEffective: s.DateEffective.Format(sales.DateLayout),
		Category:      string(s.Category),
		CategoryLabel: s.Category.Label(),
		Premium:       s.Premium.StringFixed(2),
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
	if s.FSMonthlyPremium != nil {
		fs := s.FSMonthlyPremium.StringFixed(2)
		dto.FSMonthlyPremium = &fs
	}
	return dto
}

func toSaleDTOs(rows []sales.Sale) []SaleDTO {
	dtos := make([]SaleDTO, len(rows))
	for i, s := range rows {
		dtos[i] = toSaleDTO(s)
	}
	return dtos
}

func toTeamSaleDTO(ts sales.TeamSale) TeamSaleDTO {
	return TeamSaleDTO{
		SaleDTO:  toSaleDTO(ts.Sale),
		Username: ts.Username,
	}
}

func toTeamReportDTO(report sales.TeamReport) TeamReportDTO {
	dto := TeamReportDTO{
		Sales:          make([]TeamSaleDTO, len(report.Sales)),
		CategoryTotals: make([]CategoryTotalDTO, len(report.CategoryTotals)),
		MonthlyTotals:  make([]MonthTotalDTO, len(report.MonthlyTotals)),
	}
	for i, ts := range report.Sales {
		dto.Sales[i] = toTeamSaleDTO(ts)
	}
	for i, ct := range report.CategoryTotals {
		dto.CategoryTotals[i] = CategoryTotalDTO{
			Category: string(ct.Category),
			Label:    ct.Label,
			Total:    ct.Total.StringFixed(2),
		}
	}
	for i, mt := range report.MonthlyTotals {
		dto.MonthlyTotals[i] = MonthTotalDTO{
			Month: mt.Month.Format(sales.MonthLayout),
			Label: mt.Label,
			Total: mt.Total.InexactFloat64(),
		}
	}
	if report.Start != nil {
		s := report.Start.Format(sales.DateLayout)
		dto.StartDate = &s
	}
	if report.End != nil {
		e := report.End.Format(sales.DateLayout)
		dto.EndDate = &e
	}
	return dto
}

func toBreakdownDTO(b compensation.Breakdown) BreakdownDTO {
	return BreakdownDTO{
		PCPremium:          b.PCPremium.StringFixed(2),
		PCApps:             b.PCApps,
		LifeApps:           b.LifeApps,
		FSMonthlyTotal:     b.FSMonthlyTotal.StringFixed(2),
		Rate:               b.Rate.String(),
		CommissionEligible: b.CommissionEligible,
		Commission:         b.Commission.StringFixed(2),
		FSMonthlyBonus:     b.FSMonthlyBonus.StringFixed(2),
		FSHighBonus:        b.FSHighBonus.StringFixed(2),
		LifeAppBonus:       b.LifeAppBonus.StringFixed(2),
		MilestoneBonus:     b.MilestoneBonus.StringFixed(2),
		TotalBonus:         b.TotalBonus.StringFixed(2),
		TotalCompensation:  b.TotalCompensation.StringFixed(2),
	}
}
