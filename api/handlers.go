/*
handlers.go - HTTP API handlers for the commission tracker

PURPOSE:
  Exposes sale entry, team reporting, and commission calculation via REST
  API. Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Auth:
    POST   /api/auth/signup        Create account (team password gated)
    POST   /api/auth/login         Start a session
    POST   /api/auth/logout        End the session
    GET    /api/auth/me            Echo the authenticated user

  Sales:
    POST   /api/sales              Record a sale
    GET    /api/sales              List own sales, newest first
    GET    /api/sales/export       Own sales as .xlsx

  Team:
    GET    /api/team/sales         Team sales + category/month summaries
    GET    /api/team/sales/export  Team sales as .xlsx

  Commission:
    GET    /api/commission         Monthly compensation breakdown
    GET    /api/commission/export  Breakdown as .xlsx statement

  Misc:
    GET    /api/categories         Selectable sale categories
    GET    /api/plan               Active compensation plan
    GET    /api/health             Liveness check

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (domain constructors return field-level errors)
  3. Call domain logic (store, report builder, compensation engine)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing/expired session
  - 403: Wrong team password on signup
  - 404: Nothing to export
  - 409: Username already taken
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Session middleware and password hashing
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/warp/commission-tracker/compensation"
	"github.com/warp/commission-tracker/export"
	"github.com/warp/commission-tracker/factory"
	"github.com/warp/commission-tracker/sales"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       sales.Store
	Plan        *compensation.Plan
	PlanFactory *factory.PlanFactory
	Logger      *zap.Logger

	// TeamPassword gates signup and becomes each new account's password.
	TeamPassword string
	// SessionTTL is how long issued sessions live.
	SessionTTL time.Duration
}

// NewHandler creates a new handler. SessionTTL defaults to 30 days;
// override the field before wiring the router if config says otherwise.
func NewHandler(store sales.Store, plan *compensation.Plan, teamPassword string, logger *zap.Logger) *Handler {
	return &Handler{
		Store:        store,
		Plan:         plan,
		PlanFactory:  factory.NewPlanFactory(),
		Logger:       logger,
		TeamPassword: teamPassword,
		SessionTTL:   30 * 24 * time.Hour,
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Signup creates an account if the caller knows the team password.
// POST /api/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	username := sales.NormalizeUsername(req.Username)
	if username == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Username is required", Field: "username"})
		return
	}
	if req.TeamPassword != h.TeamPassword {
		writeError(w, http.StatusForbidden, "Invalid team password", nil)
		return
	}

	hash, err := hashPassword(req.TeamPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account", err)
		return
	}

	user := sales.NewUser(username, hash)
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, sales.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "Username already taken", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create account", err)
		return
	}

	session, err := h.startSession(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start session", err)
		return
	}

	h.Logger.Info("user signed up", zap.String("username", username))
	writeJSON(w, http.StatusCreated, AuthResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		User:      toUserDTO(user),
	})
}

// Login starts a session for an existing account.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, sales.ErrInvalidCredentials) {
		// Same response for unknown user and wrong password.
		writeError(w, http.StatusUnauthorized, "Invalid username or password", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}

	session, err := h.startSession(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start session", err)
		return
	}

	h.Logger.Info("user logged in", zap.String("username", user.Username))
	writeJSON(w, http.StatusOK, AuthResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		User:      toUserDTO(*user),
	})
}

// Logout deletes the caller's session.
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := tokenFromContext(r.Context())
	if err := h.Store.DeleteSession(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to log out", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged out"})
}

// Me echoes the authenticated user.
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// CreateSale records a sale for the authenticated user.
// POST /api/sales
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sale, err := sales.NewSale(user.ID, sales.SaleInput{
		ClientName:       req.ClientName,
		DateSold:         req.DateSold,
		DateEffective:    req.DateEffective,
		Category:         req.Category,
		Premium:          req.Premium,
		FSMonthlyPremium: req.FSMonthlyPremium,
	})
	if err != nil {
		var ve *sales.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Message, Field: ve.Field})
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid sale", err)
		return
	}

	if err := h.Store.CreateSale(r.Context(), sale); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save sale", err)
		return
	}

	h.Logger.Info("sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("username", user.Username),
		zap.String("category", string(sale.Category)))
	writeJSON(w, http.StatusCreated, toSaleDTO(sale))
}

// ListMySales returns the authenticated user's sales, newest first.
// GET /api/sales
func (h *Handler) ListMySales(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	rows, err := h.Store.ListSalesByOwner(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTOs(rows))
}

// ExportMySales streams the user's sales as a spreadsheet.
// GET /api/sales/export
func (h *Handler) ExportMySales(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	rows, err := h.Store.ListSalesByOwner(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "You do not have any sales to export yet", nil)
		return
	}

	f, err := export.MySalesWorkbook(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build export", err)
		return
	}
	h.writeWorkbook(w, f, export.MySalesFilename(user.Username))
}

// =============================================================================
// TEAM HANDLERS
// =============================================================================

// TeamSales returns every member's sales plus category and month
// summaries, optionally bounded by ?start_date and ?end_date.
// GET /api/team/sales
func (h *Handler) TeamSales(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRangeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	teamSales, err := h.Store.ListTeamSales(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list team sales", err)
		return
	}

	report := sales.BuildTeamReport(teamSales, filter.Start, filter.End)
	writeJSON(w, http.StatusOK, toTeamReportDTO(report))
}

// ExportTeamSales streams the filtered team sales as a spreadsheet.
// GET /api/team/sales/export
func (h *Handler) ExportTeamSales(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRangeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	teamSales, err := h.Store.ListTeamSales(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list team sales", err)
		return
	}
	if len(teamSales) == 0 {
		writeError(w, http.StatusNotFound, "No sales found for the selected period", nil)
		return
	}

	f, err := export.TeamSalesWorkbook(teamSales)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build export", err)
		return
	}
	h.writeWorkbook(w, f, export.TeamSalesFilename(filter.Start, filter.End))
}

// =============================================================================
// COMMISSION HANDLERS
// =============================================================================

// Commission returns the authenticated user's compensation breakdown for
// one month (?month=YYYY-MM, default the current month).
// GET /api/commission
func (h *Handler) Commission(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", nil)
		return
	}

	rows, breakdown, err := h.monthlyBreakdown(r, user.ID, month)
	if err != nil {
		h.Logger.Error("commission computation failed",
			zap.String("username", user.Username),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to compute commission", err)
		return
	}

	writeJSON(w, http.StatusOK, CommissionStatementDTO{
		Month:     month.Format(sales.MonthLayout),
		Sales:     toSaleDTOs(rows),
		Breakdown: toBreakdownDTO(breakdown),
	})
}

// ExportCommission streams the monthly breakdown as a statement workbook.
// GET /api/commission/export
func (h *Handler) ExportCommission(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", nil)
		return
	}

	_, breakdown, err := h.monthlyBreakdown(r, user.ID, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute commission", err)
		return
	}

	f, err := export.StatementWorkbook(user.Username, month, breakdown)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build export", err)
		return
	}
	h.writeWorkbook(w, f, export.StatementFilename(user.Username, month))
}

// monthlyBreakdown loads one user's sales for the month and runs the
// compensation engine over them.
func (h *Handler) monthlyBreakdown(r *http.Request, userID string, month time.Time) ([]sales.Sale, compensation.Breakdown, error) {
	from, to := sales.MonthRange(month)
	rows, err := h.Store.ListSalesByOwnerInRange(r.Context(), userID, from, to)
	if err != nil {
		return nil, compensation.Breakdown{}, fmt.Errorf("failed to list sales: %w", err)
	}

	records := make([]compensation.SaleRecord, len(rows))
	for i, s := range rows {
		records[i] = s.Record()
	}

	breakdown, err := h.Plan.Compute(records)
	if err != nil {
		return nil, compensation.Breakdown{}, err
	}
	return rows, breakdown, nil
}

// =============================================================================
// MISC HANDLERS
// =============================================================================

// ListCategories returns the selectable sale categories.
// GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := compensation.Categories()
	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		group, _ := c.Group()
		dtos[i] = CategoryDTO{
			Value: string(c),
			Label: c.Label(),
			Group: string(group),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlan returns the active compensation plan.
// GET /api/plan
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.PlanFactory.ToJSON(h.Plan))
}

// Health is a liveness check.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// parseRangeFilter reads the optional ?start_date and ?end_date bounds.
func parseRangeFilter(r *http.Request) (sales.RangeFilter, error) {
	var filter sales.RangeFilter

	if raw := r.URL.Query().Get("start_date"); raw != "" {
		t, err := time.Parse(sales.DateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid start_date (use YYYY-MM-DD)")
		}
		filter.Start = &t
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		t, err := time.Parse(sales.DateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid end_date (use YYYY-MM-DD)")
		}
		filter.End = &t
	}
	if filter.Start != nil && filter.End != nil && filter.Start.After(*filter.End) {
		return filter, fmt.Errorf("start_date must not be after end_date")
	}
	return filter, nil
}

// monthParam reads ?month=YYYY-MM, defaulting to the current month.
func monthParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	return sales.ParseMonth(raw)
}

func (h *Handler) writeWorkbook(w http.ResponseWriter, f *excelize.File, filename string) {
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(w); err != nil {
		// Headers are gone; all we can do is log.
		h.Logger.Error("failed to stream workbook", zap.String("filename", filename), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
