// SQLite-backed session archive.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// DefaultDirPermissions defines the permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the SQLite archive at the DSN
// file path and applies migrations.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("SQLiteStore failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("SQLiteStore failed to open database", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLiteStore ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("SQLiteStore failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLiteStore opened", "dsn", cfg.DSN)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveSession(session models.EmailSession) (models.EmailSession, error) {
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
		slog.Error("SQLiteStore SaveSession id query failed", "error", err)
		return models.EmailSession{}, fmt.Errorf("next session id: %w", err)
	}
	session.ID = nextID
	session.Key = sessionKey(nextID)

	_, err = tx.Exec(`
		INSERT INTO email_sessions (id, session_key, email_content, info_json, drafts_json, saved_path, saved_to_cloud, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Key, session.EmailContent, nilIfEmpty(infoJSON), nilIfEmpty(draftsJSON),
		nilIfEmpty(session.SavedPath), session.SavedToCloud, session.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession insert failed", "error", err, "key", session.Key)
		return models.EmailSession{}, fmt.Errorf("insert session %s: %w", session.Key, err)
	}
	if err := tx.Commit(); err != nil {
		return models.EmailSession{}, fmt.Errorf("commit session save: %w", err)
	}
	slog.Debug("SQLiteStore SaveSession succeeded", "key", session.Key)
	return session, nil
}

func (s *SQLiteStore) ListSessions() ([]models.EmailSession, error) {
	rows, err := s.db.Query(`
		SELECT id, session_key, email_content, COALESCE(info_json, ''), COALESCE(drafts_json, ''),
		       COALESCE(saved_path, ''), saved_to_cloud, created_at
		FROM email_sessions ORDER BY id`)
	if err != nil {
		slog.Error("SQLiteStore ListSessions query failed", "error", err)
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.EmailSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			slog.Error("SQLiteStore ListSessions scan failed", "error", err)
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return sessions, nil
}

func (s *SQLiteStore) GetSession(key string) (models.EmailSession, error) {
	row := s.db.QueryRow(`
		SELECT id, session_key, email_content, COALESCE(info_json, ''), COALESCE(drafts_json, ''),
		       COALESCE(saved_path, ''), saved_to_cloud, created_at
		FROM email_sessions WHERE session_key = ?`, key)

	sess, err := scanSessionRow(row)
	if err == sql.ErrNoRows {
		return models.EmailSession{}, models.ErrSessionNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "key", key)
		return models.EmailSession{}, fmt.Errorf("get session %s: %w", key, err)
	}
	return sess, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(rows *sql.Rows) (models.EmailSession, error) {
	return scanSessionRow(rows)
}

func scanSessionRow(row rowScanner) (models.EmailSession, error) {
	var sess models.EmailSession
	var infoJSON, draftsJSON string
	err := row.Scan(&sess.ID, &sess.Key, &sess.EmailContent, &infoJSON, &draftsJSON,
		&sess.SavedPath, &sess.SavedToCloud, &sess.CreatedAt)
	if err != nil {
		return sess, err
	}
	decodeSessionFields(&sess, infoJSON, draftsJSON)
	return sess, nil
}
