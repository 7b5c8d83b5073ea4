// Package auth binds dashboard users to sessions. Participant accounts are
// created by the assessment pipeline and log in by username alone (the
// account's existence is the credential); seeded admin accounts carry a
// bcrypt hash and must present the matching password. Real credential
// verification and session expiry for participants is a required addition
// before any production exposure.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleParticipant Role = "participant"
)

var (
	ErrUnknownUser  = errors.New("unknown username")
	ErrInvalidCreds = errors.New("invalid credentials")

	jwtSecretOnce    sync.Once
	jwtSecretRuntime []byte
	jwtSecretErr     error
)

func jwtSecretFromEnv() ([]byte, error) {
	jwtSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
		if secret != "" {
			jwtSecretRuntime = []byte(secret)
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			jwtSecretErr = fmt.Errorf("failed to generate JWT fallback secret: %w", err)
			return
		}

		jwtSecretRuntime = []byte(base64.RawURLEncoding.EncodeToString(buf))
		log.Print("JWT_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if jwtSecretErr != nil {
		return nil, jwtSecretErr
	}
	if len(jwtSecretRuntime) == 0 {
		return nil, errors.New("JWT secret unavailable")
	}

	return jwtSecretRuntime, nil
}

// User is a dashboard account. Participant accounts are linked to exactly
// one stakeholder through OrganizationName (by name match, not foreign key).
type User struct {
	Username         string    `json:"username"`
	FullName         string    `json:"full_name"`
	Role             Role      `json:"role"`
	OrganizationName string    `json:"organization_name"`
	PasswordHash     string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// Session is the explicit login lifecycle object: created by Login, checked
// on every request, destroyed by Logout. Not an ambient singleton -- the
// service owns the live set so logout invalidates the token immediately.
type Session struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	Organization string    `json:"organization"`
	Token        string    `json:"token"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

type Service struct {
	db *pgxpool.Pool

	mu   sync.Mutex
	live map[uuid.UUID]*Session
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db, live: make(map[uuid.UUID]*Session)}
}

// Login resolves the username to an account and opens a session. A missing
// account is ErrUnknownUser (an inline form error, not a crash). Accounts
// with a stored hash additionally require the matching password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, ErrUnknownUser
	}

	var user User
	err := s.db.QueryRow(ctx, `
		SELECT username, full_name, role, organization_name, COALESCE(password_hash, ''), created_at
		FROM users WHERE LOWER(username) = LOWER($1)
	`, username).Scan(&user.Username, &user.FullName, &user.Role, &user.OrganizationName, &user.PasswordHash, &user.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			return nil, ErrInvalidCreds
		}
	}

	now := time.Now()
	session := &Session{
		ID:           uuid.New(),
		Username:     user.Username,
		FullName:     user.FullName,
		Role:         user.Role,
		Organization: user.OrganizationName,
		CreatedAt:    now,
		ExpiresAt:    now.Add(24 * time.Hour),
	}

	token, err := generateToken(session)
	if err != nil {
		return nil, err
	}
	session.Token = token

	s.mu.Lock()
	// Sweep sessions whose tokens were never presented again after expiry.
	for id, old := range s.live {
		if now.After(old.ExpiresAt) {
			delete(s.live, id)
		}
	}
	s.live[session.ID] = session
	s.mu.Unlock()

	return session, nil
}

// Logout destroys the session; its token stops validating immediately.
func (s *Service) Logout(sessionID uuid.UUID) {
	s.mu.Lock()
	delete(s.live, sessionID)
	s.mu.Unlock()
}

// SessionFromToken validates a token and returns its live session. Expired
// or logged-out sessions return ErrInvalidCreds.
func (s *Service) SessionFromToken(tokenString string) (*Session, error) {
	secretKey, err := jwtSecretFromEnv()
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCreds
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCreds
	}
	rawID, _ := claims["jti"].(string)
	sessionID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ErrInvalidCreds
	}

	s.mu.Lock()
	session, alive := s.live[sessionID]
	if alive && time.Now().After(session.ExpiresAt) {
		// Expired sessions leave the live set on first sight so the map
		// does not grow for the life of the process.
		delete(s.live, sessionID)
		alive = false
	}
	s.mu.Unlock()
	if !alive {
		return nil, ErrInvalidCreds
	}

	return session, nil
}

func generateToken(session *Session) (string, error) {
	secretKey, err := jwtSecretFromEnv()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"sub":  session.Username,
		"jti":  session.ID.String(),
		"role": string(session.Role),
		"org":  session.Organization,
		"iat":  session.CreatedAt.Unix(),
		"exp":  session.ExpiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}
