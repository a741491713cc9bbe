package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFTokenLifecycle(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := newSession()

	token, err := m.EnsureToken(sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	again, err := m.EnsureToken(sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, m.VerifyToken(sess, token))
	assert.ErrorIs(t, m.VerifyToken(sess, token+"x"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(newSession(), token), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(nil, token), ErrCSRFTokenMissing)

	_, err = m.EnsureToken(nil)
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestCSRFTokensDifferPerSession(t *testing.T) {
	m := NewCSRFManager("secret")
	a, err := m.EnsureToken(newSession())
	require.NoError(t, err)
	b, err := m.EnsureToken(newSession())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" ADMIN ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)
	assert.Equal(t, "/admin/dashboard", role.HomePath())

	role, ok = ParseRole("employee")
	assert.True(t, ok)
	assert.Equal(t, "/employee/dashboard", role.HomePath())

	_, ok = ParseRole("root")
	assert.False(t, ok)
}
