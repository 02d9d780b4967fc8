package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserMetadata carries the profile fields the OAuth provider puts in its tokens.
type UserMetadata struct {
	FullName  string `json:"full_name,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// UserClaims is the payload of a provider-issued session token.
type UserClaims struct {
	Email        string       `json:"email,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// DisplayName prefers the full name and falls back to the short name.
func (c *UserClaims) DisplayName() string {
	if c.UserMetadata.FullName != "" {
		return c.UserMetadata.FullName
	}
	return c.UserMetadata.Name
}

// UserVerifier checks HS256 session tokens signed with the provider's JWT secret.
type UserVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewUserVerifier returns nil when no secret is configured, which disables user sessions.
func NewUserVerifier(secret string) *UserVerifier {
	if secret == "" {
		return nil
	}
	return &UserVerifier{secret: []byte(secret), now: time.Now}
}

// Verify parses tokenString and requires a subject.
func (v *UserVerifier) Verify(tokenString string) (*UserClaims, error) {
	if v == nil {
		return nil, ErrInvalidToken
	}
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SignUserToken issues a user token with the given claims. Used by tests and local tooling.
func SignUserToken(secret string, claims UserClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
