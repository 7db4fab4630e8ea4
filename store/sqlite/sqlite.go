/*
Package sqlite provides the SQLite-backed implementation of sales.Store.

PURPOSE:
  Persists users, sessions, and sales using SQLite. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:    One row per agent; username is unique and drives login
  sessions: Opaque bearer tokens with expiry timestamps
  sales:    One row per written application

ENCODING CONVENTIONS:
  - date_sold/date_effective are stored as YYYY-MM-DD text, so inclusive
    range filters are plain lexicographic comparisons
  - created_at/expires_at timestamps are RFC3339 text
  - premiums are decimal strings; all arithmetic happens in the
    compensation package, never in SQL

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATIONS:
  Schema lives in migrations/*.sql and is applied on New() via
  golang-migrate with the embedded filesystem as the source.

USAGE:
  store, err := sqlite.New("./data/commission.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - sales/store.go: Interface definition and conventions
  - sales/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/commission-tracker/compensation"
	"github.com/warp/commission-tracker/sales"
)

// Store implements sales.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: ":memory:" databases exist per-connection, so the
	// pool must never hand out a second one.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// USERS
// =============================================================================

// CreateUser inserts a new user. Returns sales.ErrUsernameTaken when the
// username is already registered.
func (s *Store) CreateUser(ctx context.Context, u sales.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		u.ID,
		u.Username,
		u.PasswordHash,
		u.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return sales.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByUsername retrieves a user by username. Returns (nil, nil) when
// no such user exists.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*sales.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u sales.User
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) when no such user
// exists.
func (s *Store) GetUserByID(ctx context.Context, id string) (*sales.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u sales.User
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?",
		id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// SaveSession stores a session token.
func (s *Store) SaveSession(ctx context.Context, session sales.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.Token,
		session.UserID,
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by token. Returns (nil, nil) when the
// token is unknown.
func (s *Store) GetSession(ctx context.Context, token string) (*sales.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var session sales.Session
	var createdAt, expiresAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?",
		token,
	).Scan(&session.Token, &session.UserID, &createdAt, &expiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	session.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	session.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	return &session, nil
}

// DeleteSession removes a session token (logout).
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteExpiredSessions purges sessions whose expiry is at or before now.
// Returns the number of sessions removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?",
		now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return result.RowsAffected()
}

// =============================================================================
// SALES
// =============================================================================

// CreateSale inserts a sale row.
func (s *Store) CreateSale(ctx context.Context, sale sales.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sales
		(id, user_id, client_name, date_sold, date_effective, category, premium, fs_monthly_premium, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var fsPremium sql.NullString
	if sale.FSMonthlyPremium != nil {
		fsPremium = nullString(sale.FSMonthlyPremium.String())
	}

	_, err := s.db.ExecContext(ctx, query,
		sale.ID,
		sale.UserID,
		sale.ClientName,
		sale.DateSold.Format(sales.DateLayout),
		sale.DateEffective.Format(sales.DateLayout),
		string(sale.Category),
		sale.Premium.String(),
		fsPremium,
		sale.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

// ListSalesByOwner returns all sales entered by one user, newest first.
func (s *Store) ListSalesByOwner(ctx context.Context, userID string) ([]sales.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, client_name, date_sold, date_effective, category, premium, fs_monthly_premium, created_at
		FROM sales
		WHERE user_id = ?
		ORDER BY date_sold DESC, created_at DESC
	`

	return s.querySales(ctx, query, userID)
}

// ListSalesByOwnerInRange returns one user's sales with date_sold inside
// [from, to], oldest first.
func (s *Store) ListSalesByOwnerInRange(ctx context.Context, userID string, from, to time.Time) ([]sales.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, client_name, date_sold, date_effective, category, premium, fs_monthly_premium, created_at
		FROM sales
		WHERE user_id = ? AND date_sold >= ? AND date_sold <= ?
		ORDER BY date_sold ASC, created_at ASC
	`

	return s.querySales(ctx, query, userID,
		from.Format(sales.DateLayout), to.Format(sales.DateLayout))
}

// ListTeamSales returns every user's sales joined with usernames, newest
// first. Either bound of the filter may be nil.
func (s *Store) ListTeamSales(ctx context.Context, filter sales.RangeFilter) ([]sales.TeamSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT s.id, s.user_id, s.client_name, s.date_sold, s.date_effective,
		       s.category, s.premium, s.fs_monthly_premium, s.created_at, u.username
		FROM sales s
		JOIN users u ON u.id = s.user_id
	`

	var (
		conditions []string
		args       []any
	)
	if filter.Start != nil {
		conditions = append(conditions, "s.date_sold >= ?")
		args = append(args, filter.Start.Format(sales.DateLayout))
	}
	if filter.End != nil {
		conditions = append(conditions, "s.date_sold <= ?")
		args = append(args, filter.End.Format(sales.DateLayout))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.date_sold DESC, s.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query team sales: %w", err)
	}
	defer rows.Close()

	var teamSales []sales.TeamSale
	for rows.Next() {
		var (
			ts            sales.TeamSale
			dateSold      string
			dateEffective string
			category      string
			premium       string
			fsPremium     sql.NullString
			createdAt     string
		)
		if err := rows.Scan(&ts.ID, &ts.UserID, &ts.ClientName, &dateSold, &dateEffective,
			&category, &premium, &fsPremium, &createdAt, &ts.Username); err != nil {
			return nil, fmt.Errorf("failed to scan team sale: %w", err)
		}
		fillSale(&ts.Sale, dateSold, dateEffective, category, premium, fsPremium, createdAt)
		teamSales = append(teamSales, ts)
	}
	return teamSales, rows.Err()
}

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]sales.Sale, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var results []sales.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, sale)
	}
	return results, rows.Err()
}

func scanSale(rows *sql.Rows) (sales.Sale, error) {
	var (
		sale          sales.Sale
		dateSold      string
		dateEffective string
		category      string
		premium       string
		fsPremium     sql.NullString
		createdAt     string
	)

	err := rows.Scan(&sale.ID, &sale.UserID, &sale.ClientName, &dateSold, &dateEffective,
		&category, &premium, &fsPremium, &createdAt)
	if err != nil {
		return sale, fmt.Errorf("failed to scan sale: %w", err)
	}

	fillSale(&sale, dateSold, dateEffective, category, premium, fsPremium, createdAt)
	return sale, nil
}

// fillSale decodes the text columns shared by sale and team-sale rows.
func fillSale(sale *sales.Sale, dateSold, dateEffective, category, premium string, fsPremium sql.NullString, createdAt string) {
	sale.DateSold, _ = time.Parse(sales.DateLayout, dateSold)
	sale.DateEffective, _ = time.Parse(sales.DateLayout, dateEffective)
	sale.Category = compensation.Category(category)
	sale.Premium = compensation.MustParseDecimal(premium)
	if fsPremium.Valid && fsPremium.String != "" {
		d := compensation.MustParseDecimal(fsPremium.String)
		sale.FSMonthlyPremium = &d
	}
	sale.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
