// Package store keeps the local copy of the three collections in step with
// the sheet service.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yukikurage/printshop-manager/internal/constants"
	"github.com/yukikurage/printshop-manager/internal/models"
	"go.uber.org/zap"
)

// Remote is the sheet service as seen by the store.
type Remote interface {
	Fetch(ctx context.Context, dataType string) (json.RawMessage, error)
	Send(ctx context.Context, dataType string, data any) error
}

// ConfigSource reports whether the remote endpoint is usable.
type ConfigSource interface {
	IsConfigured() bool
}

// UsersObserver is called after every successful Users refresh with a copy
// of the collection. It runs on the goroutine that performed the refresh.
type UsersObserver func(users []models.User)

type Options struct {
	PollInterval    time.Duration
	SampleDataDelay time.Duration
	Notifier        Notifier
}

type Store struct {
	remote   Remote
	config   ConfigSource
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time

	pollInterval time.Duration
	sampleDelay  time.Duration

	mu               sync.RWMutex
	users            []models.User
	orders           []models.Order
	tasks            []models.Task
	usersLastUpdated time.Time
	sampleLoaded     bool
	busy             int
	// generation changes on Clear so fetches started before it are discarded.
	generation uint64

	observerMu sync.Mutex
	observers  []UsersObserver

	pollMu        sync.Mutex
	pollCancel    context.CancelFunc
	usersInFlight atomic.Int32
}

func New(remote Remote, config ConfigSource, log *zap.Logger, opts Options) *Store {
	if opts.PollInterval <= 0 {
		opts.PollInterval = constants.DefaultPollInterval
	}
	if opts.SampleDataDelay < 0 {
		opts.SampleDataDelay = 0
	}
	if opts.Notifier == nil {
		opts.Notifier = NewLogNotifier(log)
	}

	return &Store{
		remote:       remote,
		config:       config,
		notifier:     opts.Notifier,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
		pollInterval: opts.PollInterval,
		sampleDelay:  opts.SampleDataDelay,
		users:        []models.User{},
		orders:       []models.Order{},
		tasks:        []models.Task{},
	}
}

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.User(nil), s.users...)
}

func (s *Store) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order(nil), s.orders...)
}

func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Task(nil), s.tasks...)
}

// Busy reports whether a full load is running.
func (s *Store) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy > 0
}

// UsersLastUpdated returns the time of the last successful Users fetch and
// false when there has been none since the last Clear.
func (s *Store) UsersLastUpdated() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersLastUpdated, !s.usersLastUpdated.IsZero()
}

// OnUsersRefreshed registers an observer.
func (s *Store) OnUsersRefreshed(fn UsersObserver) {
	s.observerMu.Lock()
	defer s.observerMu.Unlock()
	s.observers = append(s.observers, fn)
}

// Clear empties all collections and forgets the fetch and sample markers.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = []models.User{}
	s.orders = []models.Order{}
	s.tasks = []models.Task{}
	s.usersLastUpdated = time.Time{}
	s.sampleLoaded = false
	s.generation++
}

func (s *Store) notifyUsersObservers(users []models.User) {
	s.observerMu.Lock()
	observers := append([]UsersObserver(nil), s.observers...)
	s.observerMu.Unlock()

	for _, fn := range observers {
		fn(append([]models.User(nil), users...))
	}
}

func (s *Store) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
