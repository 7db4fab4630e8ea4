// Package store provides an in-memory sales.Store for tests and
// throwaway dev runs.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/commission-tracker/sales"
)

// Memory implements sales.Store entirely in process memory.
type Memory struct {
	mu        sync.RWMutex
	users     map[string]sales.User // keyed by username
	usersByID map[string]sales.User
	sessions  map[string]sales.Session // keyed by token
	sales     []sales.Sale
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]sales.User),
		usersByID: make(map[string]sales.User),
		sessions:  make(map[string]sales.Session),
	}
}

// =============================================================================
// USERS
// =============================================================================

func (m *Memory) CreateUser(_ context.Context, u sales.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[u.Username]; exists {
		return sales.ErrUsernameTaken
	}
	m.users[u.Username] = u
	m.usersByID[u.ID] = u
	return nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*sales.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	out := u
	return &out, nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*sales.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.usersByID[id]
	if !ok {
		return nil, nil
	}
	out := u
	return &out, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

func (m *Memory) SaveSession(_ context.Context, s sales.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.Token] = s
	return nil
}

func (m *Memory) GetSession(_ context.Context, token string) (*sales.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	out := s
	return &out, nil
}

func (m *Memory) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}

func (m *Memory) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for token, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// =============================================================================
// SALES
// =============================================================================

func (m *Memory) CreateSale(_ context.Context, sale sales.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Detach the optional premium so later caller mutations can't leak in.
	if sale.FSMonthlyPremium != nil {
		fs := *sale.FSMonthlyPremium
		sale.FSMonthlyPremium = &fs
	}
	m.sales = append(m.sales, sale)
	return nil
}

func (m *Memory) ListSalesByOwner(_ context.Context, userID string) ([]sales.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []sales.Sale
	for _, s := range m.sales {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DateSold.Equal(result[j].DateSold) {
			return result[i].DateSold.After(result[j].DateSold)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) ListSalesByOwnerInRange(_ context.Context, userID string, from, to time.Time) ([]sales.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []sales.Sale
	for _, s := range m.sales {
		if s.UserID != userID {
			continue
		}
		if s.DateSold.Before(from) || s.DateSold.After(to) {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DateSold.Before(result[j].DateSold)
	})
	return result, nil
}

func (m *Memory) ListTeamSales(_ context.Context, filter sales.RangeFilter) ([]sales.TeamSale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []sales.TeamSale
	for _, s := range m.sales {
		if filter.Start != nil && s.DateSold.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && s.DateSold.After(*filter.End) {
			continue
		}
		result = append(result, sales.TeamSale{
			Sale:     s,
			Username: m.usersByID[s.UserID].Username,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DateSold.Equal(result[j].DateSold) {
			return result[i].DateSold.After(result[j].DateSold)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) Close() error { return nil }
