/*
store.go - Persistence interface for users, sessions, and sales

PURPOSE:
  Defines the interface between the domain and the database. Handlers and
  the sweeper depend on this interface only; implementations decide the
  storage engine.

CONVENTIONS:
  - Point lookups (GetUserByUsername, GetSession) return (nil, nil) when
    the row is absent; callers decide whether absence is an error.
  - Sale date bounds are inclusive and compare at date precision.
  - ListSalesByOwner orders date-sold descending (newest first, the "my
    sales" view); range queries order ascending for stable aggregation.

IMPLEMENTATIONS:
  - store/sqlite: production
  - sales/store: in-memory, for tests and throwaway dev runs

SEE ALSO:
  - sale.go: The persisted types
  - ../store/sqlite/sqlite.go: Production implementation
*/
package sales

import (
	"context"
	"time"
)

// RangeFilter bounds team queries by date-sold. Nil bounds are open.
type RangeFilter struct {
	Start *time.Time
	End   *time.Time
}

// Store is the persistence boundary for the whole system.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, u User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)

	// Sessions.
	SaveSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, token string) (*Session, error)
	DeleteSession(ctx context.Context, token string) error
	// DeleteExpiredSessions removes sessions expiring at or before now and
	// reports how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Sales.
	CreateSale(ctx context.Context, sale Sale) error
	ListSalesByOwner(ctx context.Context, userID string) ([]Sale, error)
	ListSalesByOwnerInRange(ctx context.Context, userID string, from, to time.Time) ([]Sale, error)
	ListTeamSales(ctx context.Context, filter RangeFilter) ([]TeamSale, error)

	Close() error
}
