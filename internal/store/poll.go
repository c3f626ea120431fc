package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartUserPolling re-fetches Users silently every poll interval until
// StopUserPolling. Calling it while polling is a no-op.
func (s *Store) StartUserPolling() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if s.pollCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.pollCancel = cancel
	go s.pollUsers(ctx)
	s.log.Info("user polling started", zap.Duration("interval", s.pollInterval))
}

// StopUserPolling cancels polling and any poll in flight. It does not wait,
// so observers running on the polling goroutine may call it.
func (s *Store) StopUserPolling() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if s.pollCancel == nil {
		return
	}
	s.pollCancel()
	s.pollCancel = nil
	s.log.Info("user polling stopped")
}

func (s *Store) IsPolling() bool {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	return s.pollCancel != nil
}

func (s *Store) pollUsers(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

// pollOnce skips the tick while another Users fetch is in flight.
func (s *Store) pollOnce(ctx context.Context) {
	if s.usersInFlight.Load() > 0 {
		s.log.Debug("users fetch in flight, skipping poll")
		return
	}
	_ = s.LoadUsers(ctx, Silent)
}
