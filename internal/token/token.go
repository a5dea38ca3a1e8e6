package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const CookieName = "token"

// ErrInvalidToken is the only verification failure callers ever see; the
// underlying reason (bad signature, malformed payload, expiry) is deliberately
// not distinguished.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the token payload: just enough to authenticate and authorize a
// request, never the password hash.
type Identity struct {
	Name   string `json:"name"`
	UserID uint   `json:"userId"`
	Role   string `json:"role"`
}

type Claims struct {
	Identity
	jwt.RegisteredClaims
}

type Service struct {
	secret   []byte
	lifetime time.Duration
	secure   bool
}

func New(secret []byte, lifetime time.Duration, secure bool) (*Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: signing secret is not configured")
	}
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &Service{secret: secret, lifetime: lifetime, secure: secure}, nil
}

func (s *Service) Issue(id Identity) (string, error) {
	claims := Claims{
		Identity: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.lifetime)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *Service) Verify(tokenStr string) (Identity, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return s.secret, nil
	})
	if err != nil || !tkn.Valid {
		return Identity{}, ErrInvalidToken
	}
	return claims.Identity, nil
}

// Attach issues a token for id and sets it as an http-only session cookie.
func (s *Service) Attach(c echo.Context, id Identity) error {
	signed, err := s.Issue(id)
	if err != nil {
		return err
	}
	c.SetCookie(s.cookie(signed, time.Now().Add(s.lifetime)))
	return nil
}

// Clear overwrites the session cookie with an expired, valueless one. Logout
// is client-side cookie invalidation only; issued tokens stay valid until
// natural expiry.
func (s *Service) Clear(c echo.Context) {
	c.SetCookie(s.cookie("logout", time.Now().Add(-time.Hour)))
}

func (s *Service) cookie(value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
