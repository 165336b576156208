package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palabre/internal/apperr"
	"palabre/internal/store"
)

func newTestManager(t *testing.T, timeout time.Duration) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewManager(st, timeout), st
}

func TestSeedDefaultAccount(t *testing.T) {
	m, st := newTestManager(t, time.Minute)

	user, err := m.Login("Rama", "Gueye", DefaultPhone)
	require.NoError(t, err)
	assert.Equal(t, "Rama Gueye", user.FullName())

	// Re-creating the manager over the same store must not duplicate the
	// seeded account.
	m2 := NewManager(st, time.Minute)
	_, err = m2.Register("Other", "Person", DefaultPhone)
	assert.Equal(t, apperr.CodeDuplicatePhone, apperr.CodeOf(err))
}

func TestLoginIsCaseInsensitiveOnNames(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	user, err := m.Login("rama", "GUEYE", DefaultPhone)
	require.NoError(t, err)
	assert.Equal(t, "Rama", user.FirstName)
	assert.True(t, user.Online)
	require.NotNil(t, user.LastLogin)
}

func TestLoginUnknownUser(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	_, err := m.Login("Nobody", "Here", "000000000")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	// Right names, wrong phone.
	_, err = m.Login("Rama", "Gueye", "123456789")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestRegisterValidation(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	_, err := m.Register("", "Diop", "770000001")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = m.Register("Awa", "", "770000001")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = m.Register("Awa", "Diop", "")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestRegisterThenLogin(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	created, err := m.Register("Awa", "Diop", "770000001")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Online)

	user, err := m.Login("Awa", "Diop", "770000001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.True(t, m.CheckAndExpire())
}

func TestRegisterDuplicatePhone(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	_, err := m.Register("Awa", "Diop", "770000001")
	require.NoError(t, err)

	_, err = m.Register("Moussa", "Fall", "770000001")
	assert.Equal(t, apperr.CodeDuplicatePhone, apperr.CodeOf(err))
}

func TestSessionExpiry(t *testing.T) {
	m, _ := newTestManager(t, 30*time.Millisecond)

	expired := make(chan struct{}, 1)
	m.SetOnExpire(func() { expired <- struct{}{} })

	_, err := m.Login("Rama", "Gueye", DefaultPhone)
	require.NoError(t, err)
	require.NotNil(t, m.CurrentUser())

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("expiry callback never fired")
	}

	assert.Nil(t, m.CurrentUser())
	assert.False(t, m.CheckAndExpire())
}

func TestCheckAndExpireClearsStaleSession(t *testing.T) {
	m, st := newTestManager(t, 20*time.Millisecond)

	_, err := m.Login("Rama", "Gueye", DefaultPhone)
	require.NoError(t, err)

	// Stop the timer path and let the stored timestamp go stale, so the
	// check itself has to perform the logout.
	m.stopTimerLocked()
	time.Sleep(50 * time.Millisecond)

	assert.False(t, m.CheckAndExpire())

	// The session record itself is gone.
	var raw map[string]any
	found, err := st.Load("userSession", &raw)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExtendSessionSlidesTheWindow(t *testing.T) {
	m, _ := newTestManager(t, 80*time.Millisecond)

	_, err := m.Login("Rama", "Gueye", DefaultPhone)
	require.NoError(t, err)

	// Keep extending past the original deadline.
	for range 4 {
		time.Sleep(40 * time.Millisecond)
		m.ExtendSession()
	}
	assert.True(t, m.CheckAndExpire())
}

func TestLogout(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	_, err := m.Login("Rama", "Gueye", DefaultPhone)
	require.NoError(t, err)

	m.Logout()
	assert.Nil(t, m.CurrentUser())
	assert.False(t, m.CheckAndExpire())

	// Logging out twice is harmless.
	m.Logout()
}

func TestUpdateProfile(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	_, err := m.UpdateProfile(ProfileUpdates{FirstName: "X"})
	assert.Equal(t, apperr.CodeNotAuthenticated, apperr.CodeOf(err))

	_, err = m.Login("Rama", "Gueye", DefaultPhone)
	require.NoError(t, err)

	user, err := m.UpdateProfile(ProfileUpdates{FirstName: "Ramatoulaye", Phone: "770000009"})
	require.NoError(t, err)
	assert.Equal(t, "Ramatoulaye", user.FirstName)
	assert.Equal(t, "Gueye", user.LastName)
	assert.Equal(t, "770000009", user.Phone)
}

func TestUpdateProfileRejectsTakenPhone(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	_, err := m.Register("Awa", "Diop", "770000001")
	require.NoError(t, err)

	_, err = m.Login("Rama", "Gueye", DefaultPhone)
	require.NoError(t, err)

	_, err = m.UpdateProfile(ProfileUpdates{Phone: "770000001"})
	assert.Equal(t, apperr.CodeDuplicatePhone, apperr.CodeOf(err))

	// Keeping your own phone is fine.
	_, err = m.UpdateProfile(ProfileUpdates{Phone: DefaultPhone})
	assert.NoError(t, err)
}
