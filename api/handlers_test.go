/*
handlers_test.go - HTTP-level tests for the API

Tests for:
- Signup gating (team password), username normalization, duplicates
- Login/logout and bearer-token enforcement
- Sale entry validation and per-owner listing
- Team reporting with date filters
- Monthly commission breakdowns
- Spreadsheet export headers and empty-export handling

All tests run against the real router with the in-memory store, so route
wiring and middleware are covered too.
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/warp/commission-tracker/api"
	"github.com/warp/commission-tracker/compensation"
	"github.com/warp/commission-tracker/factory"
	"github.com/warp/commission-tracker/sales/store"
)

const testTeamPassword = "team-secret-2026"

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestAPI(t *testing.T) (http.Handler, *api.Handler) {
	t.Helper()
	h := api.NewHandler(store.NewMemory(), compensation.DefaultPlan(), testTeamPassword, zap.NewNop())
	return api.NewRouter(h), h
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "body: %s", rec.Body.String())
}

func signup(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "", api.SignupRequest{
		Username:     username,
		TeamPassword: testTeamPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.AuthResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func saleReq(client, dateSold, category, premium, fsMonthly string) api.CreateSaleRequest {
	return api.CreateSaleRequest{
		ClientName:       client,
		DateSold:         dateSold,
		DateEffective:    dateSold,
		Category:         category,
		Premium:          premium,
		FSMonthlyPremium: fsMonthly,
	}
}

func createSale(t *testing.T, h http.Handler, token string, req api.CreateSaleRequest) api.SaleDTO {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/sales", token, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var dto api.SaleDTO
	decodeBody(t, rec, &dto)
	return dto
}

// =============================================================================
// SIGNUP
// =============================================================================

func TestSignup_WrongTeamPassword_Forbidden(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "", api.SignupRequest{
		Username:     "nina",
		TeamPassword: "not-the-team-password",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var resp api.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Invalid team password", resp.Error)
}

func TestSignup_NormalizesUsernameAndStartsSession(t *testing.T) {
	// GIVEN: A signup with sloppy username casing and whitespace
	h, _ := newTestAPI(t)
	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "", api.SignupRequest{
		Username:     "  Nina ",
		TeamPassword: testTeamPassword,
	})

	// THEN: The account is created under the normalized name
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp api.AuthResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "nina", resp.User.Username)
	assert.NotEmpty(t, resp.Token)

	expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()), "session should not start expired")

	// AND: The token works immediately
	me := doJSON(t, h, http.MethodGet, "/api/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	var user api.UserDTO
	decodeBody(t, me, &user)
	assert.Equal(t, "nina", user.Username)
}

func TestSignup_DuplicateUsername_Conflict(t *testing.T) {
	h, _ := newTestAPI(t)
	signup(t, h, "nina")

	// Same name modulo normalization.
	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "", api.SignupRequest{
		Username:     " NINA ",
		TeamPassword: testTeamPassword,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp api.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Username already taken", resp.Error)
}

func TestSignup_MissingUsername(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "", api.SignupRequest{
		Username:     "   ",
		TeamPassword: testTeamPassword,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp api.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "username", resp.Field)
}

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

func TestLogin_TeamPasswordIsTheAccountPassword(t *testing.T) {
	h, _ := newTestAPI(t)
	signup(t, h, "nina")

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Username: "Nina",
		Password: testTeamPassword,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp api.AuthResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "nina", resp.User.Username)

	me := doJSON(t, h, http.MethodGet, "/api/auth/me", resp.Token, nil)
	assert.Equal(t, http.StatusOK, me.Code)
}

func TestLogin_BadCredentials_UniformUnauthorized(t *testing.T) {
	// Wrong password and unknown user must be indistinguishable.
	h, _ := newTestAPI(t)
	signup(t, h, "nina")

	wrongPassword := doJSON(t, h, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Username: "nina",
		Password: "wrong",
	})
	unknownUser := doJSON(t, h, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Username: "nobody",
		Password: testTeamPassword,
	})

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownUser} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var resp api.ErrorResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "Invalid username or password", resp.Error)
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")

	rec := doJSON(t, h, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	me := doJSON(t, h, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
}

// =============================================================================
// BEARER MIDDLEWARE
// =============================================================================

func TestRequireAuth_MissingToken(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/api/sales", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp api.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Missing bearer token", resp.Error)
}

func TestRequireAuth_UnknownToken(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/api/sales", "deadbeef", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp api.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Invalid or expired session", resp.Error)
}

func TestRequireAuth_ExpiredSession(t *testing.T) {
	// GIVEN: A handler that issues already-expired sessions
	h, handler := newTestAPI(t)
	handler.SessionTTL = -time.Minute
	token := signup(t, h, "nina")

	// THEN: The token is rejected
	rec := doJSON(t, h, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// SALE ENTRY
// =============================================================================

func TestCreateSale_ReturnsRenderedDTO(t *testing.T) {
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")

	dto := createSale(t, h, token, saleReq("Dana Okafor", "2026-03-10", "life", "1200.5", "85"))

	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "Dana Okafor", dto.ClientName)
	assert.Equal(t, "2026-03-10", dto.DateSold)
	assert.Equal(t, "life", dto.Category)
	assert.Equal(t, "Life", dto.CategoryLabel)
	assert.Equal(t, "1200.50", dto.Premium)
	require.NotNil(t, dto.FSMonthlyPremium)
	assert.Equal(t, "85.00", *dto.FSMonthlyPremium)
}

func TestCreateSale_OmitsAbsentMonthlyPremium(t *testing.T) {
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")

	dto := createSale(t, h, token, saleReq("Ravi Patel", "2026-03-11", "auto", "900", ""))

	assert.Nil(t, dto.FSMonthlyPremium)
}

func TestCreateSale_FieldValidation(t *testing.T) {
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")

	tests := []struct {
		name  string
		req   api.CreateSaleRequest
		field string
	}{
		{"missing client name", saleReq("  ", "2026-03-10", "auto", "900", ""), "client_name"},
		{"bad date", saleReq("Dana", "03/10/2026", "auto", "900", ""), "date_sold"},
		{"unknown category", saleReq("Dana", "2026-03-10", "boat", "900", ""), "category"},
		{"premium not a number", saleReq("Dana", "2026-03-10", "auto", "nine hundred", ""), "premium"},
		{"negative monthly premium", saleReq("Dana", "2026-03-10", "life", "900", "-5"), "fs_monthly_premium"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/sales", token, tc.req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp api.ErrorResponse
			decodeBody(t, rec, &resp)
			assert.Equal(t, tc.field, resp.Field)
		})
	}
}

func TestListMySales_NewestFirstAndScopedToOwner(t *testing.T) {
	// GIVEN: Two users with their own sales
	h, _ := newTestAPI(t)
	nina := signup(t, h, "nina")
	omar := signup(t, h, "omar")

	createSale(t, h, nina, saleReq("March Client", "2026-03-10", "auto", "500", ""))
	createSale(t, h, nina, saleReq("April Client", "2026-04-02", "auto", "700", ""))
	createSale(t, h, omar, saleReq("Someone Else", "2026-04-15", "auto", "999", ""))

	// WHEN: Nina lists her sales
	rec := doJSON(t, h, http.MethodGet, "/api/sales", nina, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []api.SaleDTO
	decodeBody(t, rec, &rows)

	// THEN: Only hers, newest first
	require.Len(t, rows, 2)
	assert.Equal(t, "April Client", rows[0].ClientName)
	assert.Equal(t, "March Client", rows[1].ClientName)
}

// =============================================================================
// TEAM REPORTING
// =============================================================================

func seedTeam(t *testing.T, h http.Handler) (nina, omar string) {
	t.Helper()
	nina = signup(t, h, "nina")
	omar = signup(t, h, "omar")

	createSale(t, h, nina, saleReq("Auto March", "2026-03-10", "auto", "1000", ""))
	createSale(t, h, nina, saleReq("Life March", "2026-03-12", "life", "500", "50"))
	createSale(t, h, omar, saleReq("Auto April", "2026-04-05", "auto", "250", ""))
	return nina, omar
}

func TestTeamSales_AggregatesAcrossUsers(t *testing.T) {
	h, _ := newTestAPI(t)
	nina, _ := seedTeam(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/team/sales", nina, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report api.TeamReportDTO
	decodeBody(t, rec, &report)

	// Rows cover the whole team, newest first.
	require.Len(t, report.Sales, 3)
	assert.Equal(t, "Auto April", report.Sales[0].ClientName)
	assert.Equal(t, "omar", report.Sales[0].Username)

	// Category totals in canonical order.
	require.Len(t, report.CategoryTotals, 2)
	assert.Equal(t, "auto", report.CategoryTotals[0].Category)
	assert.Equal(t, "1250.00", report.CategoryTotals[0].Total)
	assert.Equal(t, "life", report.CategoryTotals[1].Category)
	assert.Equal(t, "500.00", report.CategoryTotals[1].Total)

	// Monthly totals chronological.
	require.Len(t, report.MonthlyTotals, 2)
	assert.Equal(t, "2026-03", report.MonthlyTotals[0].Month)
	assert.InDelta(t, 1500.0, report.MonthlyTotals[0].Total, 0.001)
	assert.Equal(t, "2026-04", report.MonthlyTotals[1].Month)
	assert.InDelta(t, 250.0, report.MonthlyTotals[1].Total, 0.001)

	// No filter was applied.
	assert.Nil(t, report.StartDate)
	assert.Nil(t, report.EndDate)
}

func TestTeamSales_RangeFilter(t *testing.T) {
	h, _ := newTestAPI(t)
	nina, _ := seedTeam(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/team/sales?start_date=2026-04-01", nina, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report api.TeamReportDTO
	decodeBody(t, rec, &report)

	require.Len(t, report.Sales, 1)
	assert.Equal(t, "Auto April", report.Sales[0].ClientName)
	require.NotNil(t, report.StartDate)
	assert.Equal(t, "2026-04-01", *report.StartDate)
	assert.Nil(t, report.EndDate)
}

func TestTeamSales_RejectsBadFilters(t *testing.T) {
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")

	garbage := doJSON(t, h, http.MethodGet, "/api/team/sales?start_date=banana", token, nil)
	assert.Equal(t, http.StatusBadRequest, garbage.Code)

	inverted := doJSON(t, h, http.MethodGet, "/api/team/sales?start_date=2026-05-01&end_date=2026-04-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, inverted.Code)
	var resp api.ErrorResponse
	decodeBody(t, inverted, &resp)
	assert.Equal(t, "start_date must not be after end_date", resp.Error)
}

// =============================================================================
// EXPORTS
// =============================================================================

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func TestExportMySales_EmptyIsNotFound(t *testing.T) {
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")

	rec := doJSON(t, h, http.MethodGet, "/api/sales/export", token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp api.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "You do not have any sales to export yet", resp.Error)
}

func TestExportMySales_StreamsWorkbook(t *testing.T) {
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")
	createSale(t, h, token, saleReq("Dana Okafor", "2026-03-10", "auto", "900", ""))

	rec := doJSON(t, h, http.MethodGet, "/api/sales/export", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"nina-sales.xlsx"`)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err, "body should be a valid workbook")
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "My Sales")
}

func TestExportTeamSales_EmptyRangeIsNotFound(t *testing.T) {
	h, _ := newTestAPI(t)
	nina, _ := seedTeam(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/team/sales/export?start_date=2027-01-01", nina, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp api.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "No sales found for the selected period", resp.Error)
}

func TestExportTeamSales_FilenameCarriesBounds(t *testing.T) {
	h, _ := newTestAPI(t)
	nina, _ := seedTeam(t, h)

	rec := doJSON(t, h, http.MethodGet,
		"/api/team/sales/export?start_date=2026-04-01&end_date=2026-04-30", nina, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"team-sales-20260401-20260430.xlsx"`)
}

// =============================================================================
// COMMISSION
// =============================================================================

func TestCommission_ComputesMonthlyBreakdown(t *testing.T) {
	// GIVEN: A March with 21 P&C apps at $700 each plus two life apps,
	// and an April sale that must not leak into the March statement
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")

	for day := 1; day <= 21; day++ {
		date := fmt.Sprintf("2026-03-%02d", day)
		createSale(t, h, token, saleReq(fmt.Sprintf("PC Client %d", day), date, "auto", "700", ""))
	}
	createSale(t, h, token, saleReq("Life One", "2026-03-22", "life", "400", "150"))
	createSale(t, h, token, saleReq("Life Two", "2026-03-23", "life", "400", "150"))
	createSale(t, h, token, saleReq("April Client", "2026-04-01", "auto", "5000", ""))

	// WHEN: Asking for the March statement
	rec := doJSON(t, h, http.MethodGet, "/api/commission?month=2026-03", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stmt api.CommissionStatementDTO
	decodeBody(t, rec, &stmt)

	// THEN: Only March sales feed the calculation
	assert.Equal(t, "2026-03", stmt.Month)
	require.Len(t, stmt.Sales, 23)

	// 21 apps x $700 = $14,700 at the 20-29 / 2-life rate of 6%.
	b := stmt.Breakdown
	assert.Equal(t, "14700.00", b.PCPremium)
	assert.Equal(t, 21, b.PCApps)
	assert.Equal(t, 2, b.LifeApps)
	assert.Equal(t, "300.00", b.FSMonthlyTotal)
	assert.Equal(t, "0.06", b.Rate)
	assert.True(t, b.CommissionEligible)
	assert.Equal(t, "882.00", b.Commission)

	// FS total $300 hits the $300 tier; 21/2 hits the 20/2 milestone.
	assert.Equal(t, "400.00", b.FSMonthlyBonus)
	assert.Equal(t, "0.00", b.FSHighBonus)
	assert.Equal(t, "0.00", b.LifeAppBonus)
	assert.Equal(t, "500.00", b.MilestoneBonus)
	assert.Equal(t, "900.00", b.TotalBonus)
	assert.Equal(t, "1782.00", b.TotalCompensation)
}

func TestCommission_BelowEligibilityGate(t *testing.T) {
	// Rate is still reported when the premium gate zeroes the commission.
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")

	for day := 1; day <= 3; day++ {
		date := fmt.Sprintf("2026-03-%02d", day)
		createSale(t, h, token, saleReq(fmt.Sprintf("Client %d", day), date, "auto", "500", ""))
	}

	rec := doJSON(t, h, http.MethodGet, "/api/commission?month=2026-03", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stmt api.CommissionStatementDTO
	decodeBody(t, rec, &stmt)

	b := stmt.Breakdown
	assert.Equal(t, "1500.00", b.PCPremium)
	assert.False(t, b.CommissionEligible)
	assert.Equal(t, "0.02", b.Rate)
	assert.Equal(t, "0.00", b.Commission)
	assert.Equal(t, "0.00", b.TotalCompensation)
}

func TestCommission_RejectsBadMonth(t *testing.T) {
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")

	rec := doJSON(t, h, http.MethodGet, "/api/commission?month=banana", token, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp api.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Invalid month (use YYYY-MM)", resp.Error)
}

func TestExportCommission_NamesTheStatement(t *testing.T) {
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")
	createSale(t, h, token, saleReq("Dana", "2026-03-10", "auto", "900", ""))

	rec := doJSON(t, h, http.MethodGet, "/api/commission/export?month=2026-03", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"commission-nina-2026-03.xlsx"`)
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

func TestListCategories_PublicAndComplete(t *testing.T) {
	h, _ := newTestAPI(t)

	// No token required; the signup form needs this list.
	rec := doJSON(t, h, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var categories []api.CategoryDTO
	decodeBody(t, rec, &categories)

	require.Len(t, categories, 10)
	assert.Equal(t, api.CategoryDTO{Value: "auto", Label: "Auto", Group: "property_casualty"}, categories[0])
	assert.Contains(t, categories, api.CategoryDTO{Value: "life", Label: "Life", Group: "financial_services"})
}

func TestGetPlan_ReturnsActivePlan(t *testing.T) {
	h, _ := newTestAPI(t)
	token := signup(t, h, "nina")

	rec := doJSON(t, h, http.MethodGet, "/api/plan", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var plan factory.PlanJSON
	decodeBody(t, rec, &plan)
	assert.Equal(t, "12000", plan.MinCommissionPremium.String())
	assert.Len(t, plan.RateRows, 5)
}

func TestHealth(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/api/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
