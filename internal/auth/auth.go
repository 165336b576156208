package auth

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"palabre/internal/apperr"
	"palabre/internal/models"
	"palabre/internal/store"
)

const (
	usersKey   = "users"
	sessionKey = "userSession"

	// DefaultPhone identifies the seeded default account.
	DefaultPhone = "771279062"
)

// Manager owns the authenticated-user lifecycle: login, registration,
// logout, the session-expiry timer, and session extension on activity.
type Manager struct {
	store   *store.Store
	timeout time.Duration

	mu      sync.Mutex
	users   []models.User
	current *models.User
	timer   *time.Timer

	// onExpire surfaces the session-expired notice to the UI shell when the
	// expiry timer fires. Logout has already happened by the time it runs.
	onExpire func()
}

// NewManager loads the user list, seeds the default account and registers
// the user-list flush with the store.
func NewManager(st *store.Store, timeout time.Duration) *Manager {
	m := &Manager{store: st, timeout: timeout}
	if _, err := st.Load(usersKey, &m.users); err != nil {
		slog.Error("failed to load users, starting empty", "err", err)
	}
	m.seedDefaultAccount()
	st.RegisterFlush(m.saveUsers)
	return m
}

// seedDefaultAccount guarantees exactly one default account exists,
// identified by its fixed phone number. Idempotent.
func (m *Manager) seedDefaultAccount() {
	for _, u := range m.users {
		if u.Phone == DefaultPhone {
			return
		}
	}
	m.users = append(m.users, models.User{
		ID:        "user_" + uuid.NewString(),
		FirstName: "Rama",
		LastName:  "Gueye",
		Phone:     DefaultPhone,
		CreatedAt: time.Now(),
	})
	m.saveUsersLocked()
}

func (m *Manager) saveUsers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveUsersLocked()
}

func (m *Manager) saveUsersLocked() {
	users := make([]models.User, len(m.users))
	copy(users, m.users)
	if err := m.store.Save(usersKey, users); err != nil {
		slog.Error("failed to persist users", "err", err)
	}
}

// SetOnExpire installs the callback run when the expiry timer fires.
func (m *Manager) SetOnExpire(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = fn
}

// Login matches firstName and lastName case-insensitively and phone exactly
// against the stored users. On success the user is marked online, the
// session record is rewritten and the expiry timer restarted.
func (m *Manager) Login(firstName, lastName, phone string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var user *models.User
	for i := range m.users {
		u := &m.users[i]
		if strings.EqualFold(u.FirstName, firstName) &&
			strings.EqualFold(u.LastName, lastName) &&
			u.Phone == phone {
			user = u
			break
		}
	}
	if user == nil {
		return nil, apperr.NotFound("user not found, check your details")
	}
	if user.Blocked {
		return nil, apperr.Blocked("this account has been blocked")
	}

	m.current = user
	now := time.Now()
	if err := m.store.Save(sessionKey, models.Session{UserID: user.ID, Timestamp: now}); err != nil {
		slog.Error("failed to persist session", "err", err)
	}
	m.startTimerLocked()
	user.Online = true
	user.LastLogin = &now
	m.saveUsersLocked()

	result := *user
	return &result, nil
}

// Register appends a new user with default flags. Phone is the uniqueness
// key and is compared case-sensitively.
func (m *Manager) Register(firstName, lastName, phone string) (*models.User, error) {
	if firstName == "" || lastName == "" || phone == "" {
		return nil, apperr.Validation("first name, last name and phone are all required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Phone == phone {
			return nil, apperr.DuplicatePhone("this phone number is already in use")
		}
	}

	user := models.User{
		ID:        "user_" + uuid.NewString(),
		FirstName: firstName,
		LastName:  lastName,
		Phone:     phone,
		CreatedAt: time.Now(),
	}
	m.users = append(m.users, user)
	m.saveUsersLocked()
	return &user, nil
}

// CheckAndExpire reports whether a valid session exists. It is deliberately
// NOT a pure query: reading an expired session performs an implicit logout
// (clears the session record, the current user and the timer) so that any
// check doubles as expiry enforcement.
func (m *Manager) CheckAndExpire() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	var session models.Session
	found, err := m.store.Load(sessionKey, &session)
	if err != nil {
		slog.Error("failed to read session", "err", err)
		return false
	}
	if !found {
		return false
	}

	if time.Since(session.Timestamp) > m.timeout {
		m.logoutLocked()
		return false
	}

	for i := range m.users {
		if m.users[i].ID == session.UserID {
			m.current = &m.users[i]
			return true
		}
	}
	return false
}

// Logout clears the current user's online flag if one is set, then always
// clears the session record and stops the timer.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutLocked()
}

func (m *Manager) logoutLocked() {
	if m.current != nil {
		m.current.Online = false
		m.saveUsersLocked()
	}
	if err := m.store.Delete(sessionKey); err != nil {
		slog.Error("failed to clear session", "err", err)
	}
	m.current = nil
	m.stopTimerLocked()
}

// ExtendSession rewrites the session timestamp to now and restarts the
// expiry timer, implementing a sliding-window session lifetime. Called on
// qualifying user interactions; a no-op when not logged in.
func (m *Manager) ExtendSession() {
	if !m.CheckAndExpire() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	if err := m.store.Save(sessionKey, models.Session{UserID: m.current.ID, Timestamp: time.Now()}); err != nil {
		slog.Error("failed to persist session", "err", err)
	}
	m.startTimerLocked()
}

// startTimerLocked arms the single expiry timer, cancelling any previous
// one first. At most one timer is active per session.
func (m *Manager) startTimerLocked() {
	m.stopTimerLocked()
	m.timer = time.AfterFunc(m.timeout, m.expire)
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) expire() {
	m.mu.Lock()
	m.logoutLocked()
	onExpire := m.onExpire
	m.mu.Unlock()
	if onExpire != nil {
		onExpire()
	}
}

// CurrentUser returns a copy of the logged-in user, or nil.
func (m *Manager) CurrentUser() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	user := *m.current
	return &user
}

// ProfileUpdates carries the fields merged by UpdateProfile. Empty fields
// keep their current value.
type ProfileUpdates struct {
	FirstName string
	LastName  string
	Phone     string
}

// UpdateProfile merges updates into the current user record and persists.
func (m *Manager) UpdateProfile(updates ProfileUpdates) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, apperr.NotAuthenticated("no user is logged in")
	}

	if updates.Phone != "" && updates.Phone != m.current.Phone {
		for _, u := range m.users {
			if u.Phone == updates.Phone && u.ID != m.current.ID {
				return nil, apperr.DuplicatePhone("this phone number is already used by another user")
			}
		}
		m.current.Phone = updates.Phone
	}
	if updates.FirstName != "" {
		m.current.FirstName = updates.FirstName
	}
	if updates.LastName != "" {
		m.current.LastName = updates.LastName
	}

	m.saveUsersLocked()
	user := *m.current
	return &user, nil
}
