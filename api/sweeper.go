/*
sweeper.go - Background session expiry sweeper

PURPOSE:
  Expired sessions are already rejected at the auth middleware, but their
  rows would otherwise accumulate forever. The sweeper periodically deletes
  every session past its expiry.

CONFIGURATION:
  - Interval: How often to sweep (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewSessionSweeper(store, logger)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - auth.go: Per-request expiry enforcement
  - handlers.go: startSession sets the expiry
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/commission-tracker/sales"
)

// SessionSweeper deletes expired sessions on a timer.
type SessionSweeper struct {
	Store    sales.Store
	Logger   *zap.Logger
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSessionSweeper creates a new sweeper.
func NewSessionSweeper(store sales.Store, logger *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		Store:    store,
		Logger:   logger,
		Interval: 1 * time.Hour,
		Enabled:  true,
		stop:     make(chan bool),
	}
}

// Start begins the sweeper.
func (sw *SessionSweeper) Start() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if !sw.Enabled {
		sw.Logger.Info("session sweeper disabled, not starting")
		return
	}

	sw.ticker = time.NewTicker(sw.Interval)
	sw.wg.Add(1)

	go sw.run()

	sw.Logger.Info("session sweeper started", zap.Duration("interval", sw.Interval))
}

// Stop stops the sweeper.
func (sw *SessionSweeper) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.ticker != nil {
		sw.ticker.Stop()
		close(sw.stop)
		sw.wg.Wait()
		sw.Logger.Info("session sweeper stopped")
	}
}

func (sw *SessionSweeper) run() {
	defer sw.wg.Done()

	// Run immediately on start
	sw.sweep()

	for {
		select {
		case <-sw.ticker.C:
			sw.sweep()
		case <-sw.stop:
			return
		}
	}
}

func (sw *SessionSweeper) sweep() {
	purged, err := sw.Store.DeleteExpiredSessions(context.Background(), time.Now().UTC())
	if err != nil {
		sw.Logger.Error("session sweep failed", zap.Error(err))
		return
	}
	if purged > 0 {
		sw.Logger.Info("purged expired sessions", zap.Int64("count", purged))
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (sw *SessionSweeper) RunNow() {
	sw.sweep()
}
