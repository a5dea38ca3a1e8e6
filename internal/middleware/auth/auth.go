package auth

import (
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/store_api/internal/httperr"
	"github.com/Skotchmaster/store_api/internal/token"
)

// Source selects which credential carriers a route accepts. The cookie is
// always checked; CookieOrHeader additionally accepts "Authorization: Bearer".
type Source int

const (
	CookieOnly Source = iota
	CookieOrHeader
)

const ctxIdentityKey = "identity"

type Middleware struct {
	Tokens *token.Service
	Source Source
}

// Authenticate resolves the request identity from the configured credential
// sources and stores it in the echo context. Every failure mode surfaces the
// same Unauthenticated error.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := m.extract(c)
		if raw == "" {
			return httperr.Unauthenticated("authentication invalid")
		}

		id, err := m.Tokens.Verify(raw)
		if err != nil {
			return httperr.Unauthenticated("authentication invalid")
		}

		c.Set(ctxIdentityKey, id)
		return next(c)
	}
}

func (m *Middleware) extract(c echo.Context) string {
	if m.Source == CookieOrHeader {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimPrefix(header, "Bearer ")
		}
	}
	ck, err := c.Cookie(token.CookieName)
	if err != nil || ck.Value == "" {
		return ""
	}
	return ck.Value
}

// RequireRoles gates an already-authenticated request on role membership.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return httperr.Unauthenticated("authentication invalid")
			}
			if !slices.Contains(roles, id.Role) {
				return httperr.Unauthorized("unauthorized to access this route")
			}
			return next(c)
		}
	}
}

// CheckPermissions allows the operation when the actor is an admin or owns
// the resource.
func CheckPermissions(actor token.Identity, ownerID uint) error {
	if actor.Role == "admin" {
		return nil
	}
	if actor.UserID == ownerID {
		return nil
	}
	return httperr.Unauthorized("not authorized to access this route")
}

func IdentityFrom(c echo.Context) (token.Identity, bool) {
	id, ok := c.Get(ctxIdentityKey).(token.Identity)
	return id, ok
}

// SetIdentity exists for tests that call handlers without the middleware.
func SetIdentity(c echo.Context, id token.Identity) {
	c.Set(ctxIdentityKey, id)
}
