// Package guard is the routing/access state machine. Evaluate is a pure
// function over (path, session state, organization) so the redirect rules are
// unit-testable without a running server; Middleware applies its decisions in
// front of the view handlers.
package guard

import (
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ndiaye/readiness-dashboard/internal/auth"
	"github.com/ndiaye/readiness-dashboard/internal/match"
)

// State is the access state a request is evaluated under.
type State int

const (
	LoggedOut State = iota
	LoggedInAdmin
	LoggedInParticipant
)

// StateOf derives the guard state from an attached session.
func StateOf(session *auth.Session) State {
	switch {
	case session == nil:
		return LoggedOut
	case session.Role == auth.RoleAdmin:
		return LoggedInAdmin
	default:
		return LoggedInParticipant
	}
}

// Decision is the outcome of evaluating one navigation. When Allowed is
// false, Redirect holds the target the client must be sent to; protected
// content is never partially rendered.
type Decision struct {
	Allowed  bool
	Redirect string
}

var allow = Decision{Allowed: true}

func redirectTo(target string) Decision {
	return Decision{Redirect: target}
}

// Evaluate applies the access rules for a navigation to path:
//
//   - unauthenticated requests to any non-login route redirect to /login,
//     preserving the original path so post-login navigation returns there;
//   - admins reach everything;
//   - a participant may open a participant detail page only when the name
//     matches their own organization, plus the methodology page. Every other
//     route, including any aggregate view added later, redirects to their own
//     detail page, never an empty or partial admin view.
func Evaluate(path string, state State, organization string) Decision {
	path = normalizePath(path)

	if path == "/login" {
		switch state {
		case LoggedInAdmin:
			return redirectTo("/")
		case LoggedInParticipant:
			return redirectTo(ownDetailPath(organization))
		}
		return allow
	}

	if state == LoggedOut {
		return redirectTo("/login?next=" + url.QueryEscape(path))
	}

	if state == LoggedInAdmin {
		return allow
	}

	// LoggedInParticipant from here on. Participant access is an allowlist:
	// a route not named here denies by default, so a new admin view never
	// leaks to participants by omission.
	if name, ok := participantDetailName(path); ok {
		if match.Same(name, organization) {
			return allow
		}
		return redirectTo(ownDetailPath(organization))
	}
	if path == "/methodology" {
		return allow
	}

	return redirectTo(ownDetailPath(organization))
}

// OwnDetailPath is where a participant lands when denied elsewhere.
func OwnDetailPath(organization string) string {
	return ownDetailPath(organization)
}

func ownDetailPath(organization string) string {
	return "/participants/" + url.PathEscape(organization)
}

func participantDetailName(path string) (string, bool) {
	const prefix = "/participants/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	name, err := url.PathUnescape(strings.TrimPrefix(path, prefix))
	if err != nil || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// Middleware evaluates every request against the access rules and issues the
// redirect before the view handler runs, so a denied request never triggers
// the view's data fetches.
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := auth.SessionFromContext(c)
		state := StateOf(session)

		organization := ""
		if session != nil {
			organization = session.Organization
		}

		decision := Evaluate(c.Request().URL.Path, state, organization)
		if !decision.Allowed {
			return c.Redirect(302, decision.Redirect)
		}
		return next(c)
	}
}
