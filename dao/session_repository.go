package dao

import (
	"database/sql"
	"time"
)

// SessionRepository persists the session identifier assigned to each
// (tenant, creator) pair so negotiations survive restarts, the way the
// dashboard used to keep them in browser storage.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// GetSessionID returns the stored session id for the creator, or "" when
// the tenant has never opened a negotiation with them.
func (r *SessionRepository) GetSessionID(tenant, creatorUsername string) (string, error) {
	query := `SELECT session_id FROM sessions WHERE tenant = ? AND creator_username = ?`
	row := r.db.QueryRow(query, tenant, creatorUsername)

	var sessionID string
	if err := row.Scan(&sessionID); err != nil {
		if err == sql.ErrNoRows {
			return "", nil // Not found
		}
		return "", err
	}
	return sessionID, nil
}

// SaveSessionID stores a newly generated session id for the creator.
func (r *SessionRepository) SaveSessionID(tenant, creatorUsername, platform, sessionID string) error {
	query := `INSERT INTO sessions (tenant, creator_username, platform, session_id, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, tenant, creatorUsername, platform, sessionID, time.Now())
	return err
}
