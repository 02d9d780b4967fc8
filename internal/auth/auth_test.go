package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = strings.Repeat("k", 32)

func newGate(t *testing.T) *AdminGate {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	gate, err := NewAdminGate("admin", string(hash), testSecret, time.Hour)
	require.NoError(t, err)
	return gate
}

func TestAdminGate_Login(t *testing.T) {
	gate := newGate(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{name: "configured pair", username: "admin", password: "s3cret!"},
		{name: "wrong password", username: "admin", password: "s3cret", wantErr: true},
		{name: "wrong username", username: "Admin", password: "s3cret!", wantErr: true},
		{name: "empty pair", wantErr: true},
		{name: "password as username", username: "s3cret!", password: "admin", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiresAt, err := gate.Login(tt.username, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

			claims, err := gate.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, "admin", claims.Subject)
		})
	}
}

func TestAdminGate_VerifyRejects(t *testing.T) {
	gate := newGate(t)
	token, _, err := gate.Login("admin", "s3cret!")
	require.NoError(t, err)

	other, err := NewAdminGate("admin", string(gate.passwordHash), strings.Repeat("x", 32), time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong signing secret")

	_, err = gate.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = gate.Verify(token[:len(token)-2])
	assert.ErrorIs(t, err, ErrInvalidToken, "truncated signature")

	gate.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = gate.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestAdminGate_RejectsUserToken(t *testing.T) {
	gate := newGate(t)
	userToken, err := SignUserToken(testSecret, UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			Issuer:    adminIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	_, err = gate.Verify(userToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminGate_RejectsNoneAlgorithm(t *testing.T) {
	gate := newGate(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, AdminClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			Issuer:    adminIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = gate.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewAdminGate_Validation(t *testing.T) {
	_, err := NewAdminGate("admin", "plain", testSecret, time.Hour)
	assert.Error(t, err)
	_, err = NewAdminGate("", "$2a$04$abcdefghijklmnopqrstuu7ZgUvCIQvWmXgJ5ZmbyJXP6cK4ZJSkG", testSecret, time.Hour)
	assert.Error(t, err)
}

func TestUserVerifier(t *testing.T) {
	v := NewUserVerifier(testSecret)
	require.NotNil(t, v)

	token, err := SignUserToken(testSecret, UserClaims{
		Email:        "ada@example.com",
		UserMetadata: UserMetadata{Name: "Ada", AvatarURL: "https://img/ada.png"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "Ada", claims.DisplayName())

	noSubject, err := SignUserToken(testSecret, UserClaims{Email: "x@example.com"})
	require.NoError(t, err)
	_, err = v.Verify(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := SignUserToken(testSecret, UserClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	var disabled *UserVerifier
	_, err = disabled.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, NewUserVerifier(""))
}
