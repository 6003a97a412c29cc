package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/provgraph/internal/ir"
)

// ErrNoSessions is returned by LatestSession on an empty store.
var ErrNoSessions = errors.New("no sessions recorded")

// Session describes one daemon run.
type Session struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	Window        int    `json:"window"`
	EngineVersion string `json:"engine_version"`
	SchemaVersion string `json:"schema_version"`
}

// CreateSession records a new run and returns it.
// The session seq is one more than the highest existing seq.
func (s *Store) CreateSession(ctx context.Context, id string, window int) (Session, error) {
	if id == "" {
		return Session{}, fmt.Errorf("create session: empty id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, seq, window_size, engine_version, schema_version)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?
		FROM sessions
	`, id, window, ir.EngineVersion, ir.SchemaVersion)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	return s.ReadSession(ctx, id)
}

// ReadSession returns a session by id.
// Returns sql.ErrNoRows (wrapped) if it does not exist.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, window_size, engine_version, schema_version
		FROM sessions
		WHERE id = ?
	`, id)
	sess, err := scanSession(row)
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return sess, nil
}

// LatestSession returns the session with the highest seq.
func (s *Store) LatestSession(ctx context.Context) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, window_size, engine_version, schema_version
		FROM sessions
		ORDER BY seq DESC
		LIMIT 1
	`)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSessions
	}
	if err != nil {
		return Session{}, fmt.Errorf("read latest session: %w", err)
	}
	return sess, nil
}

// ListSessions returns all sessions ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, window_size, engine_version, schema_version
		FROM sessions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.Seq, &sess.Window, &sess.EngineVersion, &sess.SchemaVersion)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}
