package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_IssueAndResolve(t *testing.T) {
	t.Parallel()

	v := NewVerifier("secret")
	token, err := v.Issue(Identity{ID: "u1", Name: "Alice"}, time.Hour)
	require.NoError(t, err)

	id, err := v.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: "u1", Name: "Alice"}, id)
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	v := NewVerifier("secret")

	_, err := v.Resolve("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = v.Resolve("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewVerifier("other").Issue(Identity{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = v.Resolve(other)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong signature")

	expired, err := v.Issue(Identity{ID: "u1"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Resolve(expired)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Name: "x"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = v.Resolve(noSub)
	assert.ErrorIs(t, err, ErrInvalidToken, "missing subject")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Resolve(none)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")
}

func TestVerifier_FromRequest(t *testing.T) {
	t.Parallel()

	v := NewVerifier("secret")
	token, err := v.Issue(Identity{ID: "u1", Name: "Alice"}, time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/ws/123456?token="+token, nil)
	id, err := v.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.ID)

	r = httptest.NewRequest("GET", "/api/rooms", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	id, err = v.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "Alice", id.Name)

	_, err = v.FromRequest(httptest.NewRequest("GET", "/api/rooms", nil))
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifier_GuestMode(t *testing.T) {
	t.Parallel()

	v := NewVerifier("")
	assert.True(t, v.GuestMode())

	id, err := v.FromRequest(httptest.NewRequest("GET", "/ws/1?playerId=g1&name=Bob", nil))
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: "g1", Name: "Bob"}, id)

	id, err = v.FromRequest(httptest.NewRequest("GET", "/ws/1", nil))
	require.NoError(t, err)
	assert.Len(t, id.ID, 36)
	assert.NotEmpty(t, id.Name)
}
