// Package session tracks who is logged in to the back office and keeps that
// identity valid against the Users collection.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yukikurage/printshop-manager/internal/constants"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/kvstore"
	"github.com/yukikurage/printshop-manager/internal/models"
	"github.com/yukikurage/printshop-manager/internal/store"
	"go.uber.org/zap"
)

// ForcedLogoutMessage is shown when the logged-in account disappears from Users.
const ForcedLogoutMessage = "Your user account has been removed or modified by an administrator. You will now be logged out."

var ErrNoAccounts = apierrors.WithMessage(apierrors.ErrNotConfigured,
	"No user accounts found. The system may not be configured yet. Please contact the administrator.")

// DataStore is the part of the synchronization store a session drives.
type DataStore interface {
	TriggerFullLoad(ctx context.Context) error
	LoadUsers(ctx context.Context, mode store.LoadMode) error
	Users() []models.User
	UserByName(name string) (models.User, bool)
	UsersLastUpdated() (time.Time, bool)
	OnUsersRefreshed(fn store.UsersObserver)
	StartUserPolling()
	StopUserPolling()
	Clear()
}

// SuperUser is the built-in administrator. It never exists in Users.
func SuperUser() models.User {
	return models.User{
		ID:   constants.SuperUserID,
		Name: constants.SuperUserName,
		Role: models.RoleAdmin,
	}
}

type Manager struct {
	kv       kvstore.Store
	data     DataStore
	notifier store.Notifier
	log      *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	current *models.User
	token   string
	// forcedReason explains the last logout that the user did not ask for.
	forcedReason string
}

// NewManager registers the session check with data. Call Restore afterwards
// to pick up a persisted session.
func NewManager(kv kvstore.Store, data DataStore, notifier store.Notifier, log *zap.Logger) *Manager {
	m := &Manager{
		kv:       kv,
		data:     data,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
	data.OnUsersRefreshed(m.validate)
	return m
}

// Restore re-enters the persisted session without checking credentials and
// starts loading data. It reports whether a session was found.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	raw, ok, err := m.kv.Get(ctx, constants.StorageKeyUserData)
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok || raw == "" {
		return false, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == "" {
		m.log.Warn("discarding unreadable session", zap.Error(err))
		m.clearPersisted(ctx)
		return false, nil
	}

	token, _, err := m.kv.Get(ctx, constants.StorageKeyUserToken)
	if err != nil {
		return false, fmt.Errorf("failed to read session token: %w", err)
	}
	if token == "" {
		token = m.newToken(user.ID)
	}

	m.mu.Lock()
	m.current = &user
	m.token = token
	m.mu.Unlock()

	m.log.Info("session restored", zap.String("user_id", user.ID))
	return m.startData(ctx, token), nil
}

// Login authenticates against the super-identity first and then against Users.
func (m *Manager) Login(ctx context.Context, username, password string) (models.User, error) {
	if username == constants.SuperUserLogin && password == constants.SuperUserPassword {
		user := SuperUser()
		if err := m.begin(ctx, user); err != nil {
			return models.User{}, err
		}
		return user, nil
	}

	if len(m.data.Users()) == 0 {
		_ = m.data.LoadUsers(ctx, store.Foreground)
	}
	if len(m.data.Users()) == 0 {
		return models.User{}, ErrNoAccounts
	}

	user, ok := m.data.UserByName(username)
	if !ok || user.Password != password {
		m.log.Info("login failed", zap.String("username", username))
		m.clear(ctx)
		return models.User{}, apierrors.ErrInvalidCredentials
	}

	user = user.WithoutPassword()
	if err := m.begin(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Logout stops polling, empties the store and forgets the session.
func (m *Manager) Logout(ctx context.Context) {
	m.data.StopUserPolling()
	m.data.Clear()
	m.clear(ctx)
}

// Current returns the logged-in identity. It never carries a password.
func (m *Manager) Current() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return models.User{}, false
	}
	return *m.current, true
}

// Token is the synthetic session token, empty when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) IsLoggedIn() bool {
	_, ok := m.Current()
	return ok
}

func (m *Manager) IsAdmin() bool {
	u, ok := m.Current()
	return ok && u.IsAdmin()
}

func (m *Manager) IsSuperAdmin() bool {
	u, ok := m.Current()
	return ok && u.ID == constants.SuperUserID
}

// ForcedLogoutReason returns the message of the last forced logout, if any.
func (m *Manager) ForcedLogoutReason() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.forcedReason
}

func (m *Manager) begin(ctx context.Context, user models.User) error {
	token := m.newToken(user.ID)

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := errors.Join(
		m.kv.Set(ctx, constants.StorageKeyUserData, string(data)),
		m.kv.Set(ctx, constants.StorageKeyUserName, user.Name),
		m.kv.Set(ctx, constants.StorageKeyUserToken, token),
	); err != nil {
		m.clear(ctx)
		return fmt.Errorf("failed to persist session: %w", err)
	}

	m.mu.Lock()
	m.current = &user
	m.token = token
	m.forcedReason = ""
	m.mu.Unlock()

	m.log.Info("logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	if !m.startData(ctx, token) {
		return apierrors.WithMessage(apierrors.ErrUnauthorized, ForcedLogoutMessage)
	}
	return nil
}

// startData loads every collection and starts polling Users. It reports
// false, without polling, when the load logged the session out.
func (m *Manager) startData(ctx context.Context, token string) bool {
	if err := m.data.TriggerFullLoad(ctx); err != nil {
		m.log.Warn("initial load incomplete", zap.Error(err))
	}
	if m.Token() != token {
		m.log.Info("session ended during initial load, not polling")
		return false
	}
	m.data.StartUserPolling()
	return true
}

// validate logs out a regular user whose id is no longer in Users.
func (m *Manager) validate(users []models.User) {
	current, ok := m.Current()
	if !ok || current.ID == constants.SuperUserID {
		return
	}
	if _, fetched := m.data.UsersLastUpdated(); !fetched {
		return
	}
	for _, u := range users {
		if u.ID == current.ID {
			return
		}
	}

	m.log.Warn("current user not found in user list, forcing logout", zap.String("user_id", current.ID))
	m.notifier.Alert(ForcedLogoutMessage)
	m.Logout(context.Background())

	m.mu.Lock()
	m.forcedReason = ForcedLogoutMessage
	m.mu.Unlock()
}

func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	m.current = nil
	m.token = ""
	m.mu.Unlock()
	m.clearPersisted(ctx)
}

func (m *Manager) clearPersisted(ctx context.Context) {
	for _, key := range []string{
		constants.StorageKeyUserData,
		constants.StorageKeyUserName,
		constants.StorageKeyUserToken,
	} {
		if err := m.kv.Delete(ctx, key); err != nil {
			m.log.Error("failed to clear session key", zap.String("key", key), zap.Error(err))
		}
	}
}

func (m *Manager) newToken(userID string) string {
	return fmt.Sprintf("%s-%d", userID, m.now().UnixMilli())
}
