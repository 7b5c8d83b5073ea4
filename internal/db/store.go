package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Submission is a stored feedback or participant-signup request from the
// public submission boundary. Message text is sanitized before it reaches
// the store.
type Submission struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"` // feedback, participant
	Type        string    `json:"type"`
	Participant *string   `json:"participant,omitempty"`
	Sector      *string   `json:"sector,omitempty"`
	Message     string    `json:"message"`
	Contact     *string   `json:"contact,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Store) InsertSubmission(ctx context.Context, sub Submission) (uuid.UUID, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO submissions (id, kind, submission_type, participant, sector, message, contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sub.ID, sub.Kind, sub.Type, sub.Participant, sub.Sector, sub.Message, sub.Contact)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert submission failed: %w", err)
	}
	return sub.ID, nil
}

func (s *Store) ListSubmissions(ctx context.Context, kind string, limit int) ([]Submission, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, submission_type, participant, sector, message, contact, created_at
		FROM submissions
		WHERE ($1 = '' OR kind = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.Kind, &sub.Type, &sub.Participant, &sub.Sector, &sub.Message, &sub.Contact, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// UpsertUser creates or updates a dashboard account. Used by the seeding
// tool; participant accounts normally arrive from the assessment pipeline.
func (s *Store) UpsertUser(ctx context.Context, username, fullName, role, organization, passwordHash string) error {
	var hash *string
	if passwordHash != "" {
		hash = &passwordHash
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (username, full_name, role, organization_name, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			organization_name = EXCLUDED.organization_name,
			password_hash = COALESCE(EXCLUDED.password_hash, users.password_hash)
	`, username, fullName, role, organization, hash)
	if err != nil {
		return fmt.Errorf("upsert user failed: %w", err)
	}
	return nil
}
