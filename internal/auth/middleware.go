package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionCookie is the browser-facing token carrier; API clients may send
// the same token as a Bearer header instead.
const SessionCookie = "readiness_session"

// Identify attaches the live session to the request context when a valid
// token is present. It never rejects: anonymous requests pass through with
// no session and the route guard decides what they may see.
func Identify(svc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := tokenFromRequest(c); token != "" {
				if session, err := svc.SessionFromToken(token); err == nil {
					c.Set(string(SessionKey), session)
				}
			}
			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// SessionFromContext retrieves the session attached by Identify, or nil for
// an anonymous request.
func SessionFromContext(c echo.Context) *Session {
	session, _ := c.Get(string(SessionKey)).(*Session)
	return session
}
