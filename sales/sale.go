/*
Package sales provides the domain layer: users, sessions, sale records,
boundary validation, and team report aggregation.

PURPOSE:
  Everything between raw HTTP input and the compensation engine lives here.
  Raw form values are validated and coerced exactly once (NewSale); after
  that the rest of the system works with typed, trusted values. The engine
  never sees unvalidated input, per its precondition.

KEY CONCEPTS IN THIS FILE (sale.go):
  - User/Session: Team members and their bearer-token sessions
  - Sale: One sold policy, owned by a user
  - SaleInput/NewSale: The single validation boundary for sale entry

SEE ALSO:
  - report.go: Team report aggregation and month scoping
  - store.go: Persistence interface
  - ../compensation: The pure engine this package feeds
*/
package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-tracker/compensation"
)

// DateLayout is the wire and storage format for sale dates.
const DateLayout = "2006-01-02"

// User is a team member. Passwords are stored only as bcrypt hashes.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is one bearer-token login. Tokens are opaque; expiry is enforced
// on every authenticated request and swept in the background.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer usable at the given time.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Sale is one sold policy. FSMonthlyPremium is nil when the sale carries no
// recurring monthly premium; only Financial Services categories ever do.
type Sale struct {
	ID               string
	UserID           string
	ClientName       string
	DateSold         time.Time
	DateEffective    time.Time
	Category         compensation.Category
	Premium          decimal.Decimal
	FSMonthlyPremium *decimal.Decimal
	CreatedAt        time.Time
}

// Record reduces the sale to the engine's input view. A missing monthly
// premium becomes zero, which the engine treats identically.
func (s Sale) Record() compensation.SaleRecord {
	r := compensation.SaleRecord{
		Category: s.Category,
		Premium:  s.Premium,
	}
	if s.FSMonthlyPremium != nil {
		r.FSMonthlyPremium = *s.FSMonthlyPremium
	}
	return r
}

// TeamSale is a sale joined with its owner's username for team views and
// exports.
type TeamSale struct {
	Sale
	Username string
}

// SaleInput carries raw form values. Every field is a string on purpose:
// parsing and validation happen in NewSale, nowhere else.
type SaleInput struct {
	ClientName       string
	DateSold         string
	DateEffective    string
	Category         string
	Premium          string
	FSMonthlyPremium string
}

// NewSale validates raw input and constructs a Sale owned by userID.
// The first offending field is reported as a *ValidationError.
func NewSale(userID string, in SaleInput) (Sale, error) {
	client := strings.TrimSpace(in.ClientName)
	if client == "" {
		return Sale{}, &ValidationError{Field: "client_name", Message: "client name is required"}
	}

	dateSold, err := parseDate(in.DateSold)
	if err != nil {
		return Sale{}, &ValidationError{Field: "date_sold", Message: "must be a date in YYYY-MM-DD form"}
	}
	dateEffective, err := parseDate(in.DateEffective)
	if err != nil {
		return Sale{}, &ValidationError{Field: "date_effective", Message: "must be a date in YYYY-MM-DD form"}
	}

	category, err := compensation.ParseCategory(in.Category)
	if err != nil {
		return Sale{}, &ValidationError{Field: "category", Message: "unknown category"}
	}

	premiumRaw := strings.TrimSpace(in.Premium)
	if premiumRaw == "" {
		return Sale{}, &ValidationError{Field: "premium", Message: "premium is required"}
	}
	premium, err := decimal.NewFromString(premiumRaw)
	if err != nil {
		return Sale{}, &ValidationError{Field: "premium", Message: "premium must be a number"}
	}
	if premium.IsNegative() {
		return Sale{}, &ValidationError{Field: "premium", Message: "premium cannot be negative"}
	}

	var fsMonthly *decimal.Decimal
	if raw := strings.TrimSpace(in.FSMonthlyPremium); raw != "" {
		fs, err := decimal.NewFromString(raw)
		if err != nil {
			return Sale{}, &ValidationError{Field: "fs_monthly_premium", Message: "monthly premium must be a number"}
		}
		if fs.IsNegative() {
			return Sale{}, &ValidationError{Field: "fs_monthly_premium", Message: "monthly premium cannot be negative"}
		}
		fsMonthly = &fs
	}

	return Sale{
		ID:               uuid.NewString(),
		UserID:           userID,
		ClientName:       client,
		DateSold:         dateSold,
		DateEffective:    dateEffective,
		Category:         category,
		Premium:          premium,
		FSMonthlyPremium: fsMonthly,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// NewUser constructs a user with a fresh ID. The caller supplies the
// already-hashed password.
func NewUser(username, passwordHash string) User {
	return User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// NormalizeUsername is applied before every username comparison or write,
// so "Nina" and " nina " are the same account.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
