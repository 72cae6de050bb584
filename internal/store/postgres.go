// Postgres-backed session archive.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the Postgres archive at the DSN and applies
// migrations.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("PostgresStore failed to open database", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgresStore ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("PostgresStore failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgresStore opened")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveSession(session models.EmailSession) (models.EmailSession, error) {
	infoJSON, draftsJSON, err := encodeSessionFields(session)
	if err != nil {
		return models.EmailSession{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.EmailSession{}, fmt.Errorf("begin session save: %w", err)
	}
	defer tx.Rollback()

	var nextID int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(id), 0) + 1 FROM email_sessions`).Scan(&nextID); err != nil {
		slog.Error("PostgresStore SaveSession id query failed", "error", err)
		return models.EmailSession{}, fmt.Errorf("next session id: %w", err)
	}
	session.ID = nextID
	session.Key = sessionKey(nextID)

	_, err = tx.Exec(`
		INSERT INTO email_sessions (id, session_key, email_content, info_json, drafts_json, saved_path, saved_to_cloud, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.Key, session.EmailContent, nilIfEmpty(infoJSON), nilIfEmpty(draftsJSON),
		nilIfEmpty(session.SavedPath), session.SavedToCloud, session.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession insert failed", "error", err, "key", session.Key)
		return models.EmailSession{}, fmt.Errorf("insert session %s: %w", session.Key, err)
	}
	if err := tx.Commit(); err != nil {
		return models.EmailSession{}, fmt.Errorf("commit session save: %w", err)
	}
	slog.Debug("PostgresStore SaveSession succeeded", "key", session.Key)
	return session, nil
}

func (s *PostgresStore) ListSessions() ([]models.EmailSession, error) {
	rows, err := s.db.Query(`
		SELECT id, session_key, email_content, COALESCE(info_json::text, ''), COALESCE(drafts_json::text, ''),
		       COALESCE(saved_path, ''), saved_to_cloud, created_at
		FROM email_sessions ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore ListSessions query failed", "error", err)
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.EmailSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			slog.Error("PostgresStore ListSessions scan failed", "error", err)
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return sessions, nil
}

func (s *PostgresStore) GetSession(key string) (models.EmailSession, error) {
	row := s.db.QueryRow(`
		SELECT id, session_key, email_content, COALESCE(info_json::text, ''), COALESCE(drafts_json::text, ''),
		       COALESCE(saved_path, ''), saved_to_cloud, created_at
		FROM email_sessions WHERE session_key = $1`, key)

	sess, err := scanSessionRow(row)
	if err == sql.ErrNoRows {
		return models.EmailSession{}, models.ErrSessionNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "key", key)
		return models.EmailSession{}, fmt.Errorf("get session %s: %w", key, err)
	}
	return sess, nil
}

// Close closes the Postgres connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
