// Package localstore persists client state between runs: the login session
// and the last fetched dashboard page. It fills the role browser storage
// plays for the web client — hydrated at startup, cleared at logout.
package localstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/todochimp/chimp/internal/model"
)

// Store wraps the sqlite state database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the state database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("localstore: open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("localstore: connect: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS session (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        user_id TEXT NOT NULL,
        name TEXT NOT NULL,
        email TEXT NOT NULL,
        role TEXT,
        organization_id TEXT,
        organization_name TEXT,
        token TEXT NOT NULL,
        saved_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS task_snapshot (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        query_json TEXT NOT NULL,
        page_json TEXT NOT NULL,
        fetched_at DATETIME NOT NULL
    );
    `
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("localstore: create tables: %w", err)
	}
	return nil
}

// SaveSession replaces the persisted session.
func (s *Store) SaveSession(session model.Session) error {
	_, err := s.db.Exec(`
        INSERT INTO session (id, user_id, name, email, role, organization_id, organization_name, token, saved_at)
        VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            user_id = excluded.user_id,
            name = excluded.name,
            email = excluded.email,
            role = excluded.role,
            organization_id = excluded.organization_id,
            organization_name = excluded.organization_name,
            token = excluded.token,
            saved_at = excluded.saved_at`,
		session.User.ID,
		session.User.Name,
		session.User.Email,
		session.User.Role,
		session.User.OrganizationID,
		session.User.OrganizationName,
		session.Token,
		session.SavedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("localstore: save session: %w", err)
	}
	return nil
}

// LoadSession returns the persisted session, with found=false when nobody is
// logged in.
func (s *Store) LoadSession() (model.Session, bool, error) {
	row := s.db.QueryRow(`
        SELECT user_id, name, email, role, organization_id, organization_name, token, saved_at
        FROM session WHERE id = 1`)
	var session model.Session
	var savedAt string
	err := row.Scan(
		&session.User.ID,
		&session.User.Name,
		&session.User.Email,
		&session.User.Role,
		&session.User.OrganizationID,
		&session.User.OrganizationName,
		&session.Token,
		&savedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, false, nil
	}
	if err != nil {
		return model.Session{}, false, fmt.Errorf("localstore: load session: %w", err)
	}
	if ts, perr := time.Parse(time.RFC3339, savedAt); perr == nil {
		session.SavedAt = ts
	}
	return session, true, nil
}

// ClearSession deletes the persisted session. Called at logout.
func (s *Store) ClearSession() error {
	if _, err := s.db.Exec(`DELETE FROM session`); err != nil {
		return fmt.Errorf("localstore: clear session: %w", err)
	}
	return nil
}

// Snapshot is the last dashboard page the client fetched, kept so the next
// launch can render something before the live fetch lands.
type Snapshot struct {
	QueryJSON string
	PageJSON  string
	FetchedAt time.Time
}

// SaveSnapshot replaces the stored dashboard snapshot. query and page are
// marshalled by the caller's types.
func (s *Store) SaveSnapshot(query, page any) error {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("localstore: encode query: %w", err)
	}
	pageJSON, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("localstore: encode page: %w", err)
	}
	_, err = s.db.Exec(`
        INSERT INTO task_snapshot (id, query_json, page_json, fetched_at)
        VALUES (1, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            query_json = excluded.query_json,
            page_json = excluded.page_json,
            fetched_at = excluded.fetched_at`,
		string(queryJSON),
		string(pageJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("localstore: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored dashboard snapshot, with found=false when
// none has been saved yet.
func (s *Store) LoadSnapshot() (Snapshot, bool, error) {
	row := s.db.QueryRow(`SELECT query_json, page_json, fetched_at FROM task_snapshot WHERE id = 1`)
	var snap Snapshot
	var fetchedAt string
	err := row.Scan(&snap.QueryJSON, &snap.PageJSON, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("localstore: load snapshot: %w", err)
	}
	if ts, perr := time.Parse(time.RFC3339, fetchedAt); perr == nil {
		snap.FetchedAt = ts
	}
	return snap, true, nil
}
