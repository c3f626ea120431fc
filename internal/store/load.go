package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/models"
	"github.com/yukikurage/printshop-manager/internal/protocol"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoadMode selects whether read failures are shown to the user.
type LoadMode int

const (
	Foreground LoadMode = iota
	// Silent failures are logged only. Used by polling.
	Silent
)

// errStale is returned when a Clear happened while a fetch was in flight.
var errStale = errors.New("collection was cleared during fetch")

// TriggerFullLoad refreshes all three collections. Without settings it
// installs the sample dataset instead; with settings it falls back to the
// sample dataset only when all three collections come back empty.
func (s *Store) TriggerFullLoad(ctx context.Context) error {
	s.setBusy(1)
	defer s.setBusy(-1)

	if !s.config.IsConfigured() {
		s.log.Info("settings not configured, loading sample data")
		timer := time.NewTimer(s.sampleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		s.loadSampleIfEmpty()
		return nil
	}

	var g errgroup.Group
	g.Go(func() error { return s.LoadUsers(ctx, Foreground) })
	g.Go(func() error { return s.LoadOrders(ctx) })
	g.Go(func() error { return s.LoadTasks(ctx) })
	err := g.Wait()

	s.loadSampleIfEmpty()
	return err
}

// LoadUsers replaces Users with the server's rows. Identical payloads leave
// the collection untouched, but observers run after every successful fetch.
func (s *Store) LoadUsers(ctx context.Context, mode LoadMode) error {
	s.usersInFlight.Add(1)
	defer s.usersInFlight.Add(-1)

	gen := s.currentGeneration()
	var users []models.User
	if err := s.fetch(ctx, protocol.DataTypeUserCredentials, mode, &users); err != nil {
		return err
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return errStale
	}
	if !cmp.Equal(s.users, users, cmpopts.EquateEmpty()) {
		s.users = users
	}
	s.usersLastUpdated = s.now()
	snapshot := append([]models.User(nil), s.users...)
	s.mu.Unlock()

	s.notifyUsersObservers(snapshot)
	return nil
}

// LoadOrders replaces Orders with the server's rows.
func (s *Store) LoadOrders(ctx context.Context) error {
	gen := s.currentGeneration()
	var orders []models.Order
	if err := s.fetch(ctx, protocol.DataTypeJobQueue, Foreground, &orders); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return errStale
	}
	s.orders = orders
	return nil
}

// LoadTasks replaces Tasks with the server's rows.
func (s *Store) LoadTasks(ctx context.Context) error {
	gen := s.currentGeneration()
	var tasks []models.Task
	if err := s.fetch(ctx, protocol.DataTypeTaskList, Foreground, &tasks); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return errStale
	}
	s.tasks = tasks
	return nil
}

// fetch reads one collection into out, which is never nil on success.
func (s *Store) fetch(ctx context.Context, dataType string, mode LoadMode, out any) error {
	data, err := s.remote.Fetch(ctx, dataType)
	if err == nil {
		err = json.Unmarshal(data, out)
		if err != nil {
			err = apierrors.WithMessage(apierrors.ErrRemote, "Malformed rows: "+err.Error())
		}
	}
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, apierrors.ErrNotConfigured):
		s.log.Info("application not configured, skipping fetch", zap.String("data_type", dataType))
	case mode == Silent:
		s.log.Debug("background fetch failed", zap.String("data_type", dataType), zap.Error(err))
	default:
		s.log.Error("fetch failed", zap.String("data_type", dataType), zap.Error(err))
		s.notifier.Alert(readFailureMessage(dataType, err))
	}
	return err
}

func (s *Store) loadSampleIfEmpty() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sampleLoaded || len(s.users) > 0 || len(s.orders) > 0 || len(s.tasks) > 0 {
		return
	}
	s.log.Warn("no data from the sheet service, loading sample data")
	s.users, s.orders, s.tasks = SampleData(s.now())
	s.sampleLoaded = true
}

func (s *Store) setBusy(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy += delta
}

func readFailureMessage(dataType string, err error) string {
	if isRemoteResult(err) {
		return fmt.Sprintf("Could not retrieve data for %s. The server responded with an error: %s", dataType, err.Error())
	}
	return fmt.Sprintf("Failed to fetch data: %s", err.Error())
}

// isRemoteResult tells error results sent by the sheet service apart from transport failures.
func isRemoteResult(err error) bool {
	switch apierrors.CodeOf(err) {
	case apierrors.ErrCodeAuthRejected, apierrors.ErrCodeNotFound, apierrors.ErrCodeLockTimeout,
		apierrors.ErrCodeInvalidInput, apierrors.ErrCodeRemote:
		return true
	}
	return false
}
