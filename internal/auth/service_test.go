package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func liveSession(t *testing.T, svc *Service, role Role, org string) *Session {
	t.Helper()
	now := time.Now()
	session := &Session{
		ID:           uuid.New(),
		Username:     "someone",
		Role:         role,
		Organization: org,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	}
	token, err := generateToken(session)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	session.Token = token
	svc.mu.Lock()
	svc.live[session.ID] = session
	svc.mu.Unlock()
	return session
}

func TestSessionFromToken_RoundTrip(t *testing.T) {
	svc := NewService(nil)
	session := liveSession(t, svc, RoleAdmin, "")

	got, err := svc.SessionFromToken(session.Token)
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if got.ID != session.ID || got.Role != RoleAdmin {
		t.Fatalf("wrong session resolved: %+v", got)
	}
}

func TestSessionFromToken_LogoutInvalidatesImmediately(t *testing.T) {
	svc := NewService(nil)
	session := liveSession(t, svc, RoleParticipant, "Tanji Village Museum")

	svc.Logout(session.ID)
	if _, err := svc.SessionFromToken(session.Token); err != ErrInvalidCreds {
		t.Fatalf("expected ErrInvalidCreds after logout, got %v", err)
	}
}

func TestSessionFromToken_Expired(t *testing.T) {
	svc := NewService(nil)
	session := liveSession(t, svc, RoleAdmin, "")
	session.ExpiresAt = time.Now().Add(-time.Minute)

	if _, err := svc.SessionFromToken(session.Token); err != ErrInvalidCreds {
		t.Fatalf("expected ErrInvalidCreds for an expired session, got %v", err)
	}

	// Rejecting an expired token also removes it from the live set.
	svc.mu.Lock()
	_, stillLive := svc.live[session.ID]
	svc.mu.Unlock()
	if stillLive {
		t.Fatal("expired session must be pruned from the live set on first sight")
	}
}

func TestSessionFromToken_Garbage(t *testing.T) {
	svc := NewService(nil)
	for _, token := range []string{"", "not-a-jwt", "aaaa.bbbb.cccc"} {
		if _, err := svc.SessionFromToken(token); err != ErrInvalidCreds {
			t.Fatalf("token %q: expected ErrInvalidCreds, got %v", token, err)
		}
	}
}

func TestIdentify_AttachesSessionFromHeaderAndCookie(t *testing.T) {
	svc := NewService(nil)
	session := liveSession(t, svc, RoleAdmin, "")
	e := echo.New()

	handler := Identify(svc)(func(c echo.Context) error {
		if got := SessionFromContext(c); got == nil || got.ID != session.ID {
			t.Fatalf("session not attached: %+v", got)
		}
		return c.NoContent(http.StatusOK)
	})

	// Bearer header.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatal(err)
	}

	// Cookie fallback.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session.Token})
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatal(err)
	}
}

func TestIdentify_AnonymousPassesThrough(t *testing.T) {
	svc := NewService(nil)
	e := echo.New()

	called := false
	handler := Identify(svc)(func(c echo.Context) error {
		called = true
		if SessionFromContext(c) != nil {
			t.Fatal("anonymous request must carry no session")
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("Identify must never reject a request itself")
	}
}
