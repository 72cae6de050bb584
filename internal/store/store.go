// Package store provides the session archive backends for the email
// assistant.
//
// Completed email sessions are archived under sequential keys (email_1,
// email_2, ...) so earlier work stays reviewable. An in-memory store covers
// single-run use; SQLite and Postgres persist across runs.
package store

import (
	"sort"
	"sync"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// Store archives completed email sessions.
type Store interface {
	// SaveSession archives the session and returns it with its assigned
	// key and ID filled in.
	SaveSession(session models.EmailSession) (models.EmailSession, error)
	// ListSessions returns all archived sessions in key order.
	ListSessions() ([]models.EmailSession, error)
	// GetSession returns the session stored under key, or
	// models.ErrSessionNotFound.
	GetSession(key string) (models.EmailSession, error)
	Close() error
}

// Opts holds configuration for persistent store backends.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithDSN sets the database DSN (a file path for SQLite, a connection
// string for Postgres).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// InMemoryStore keeps the session archive for the lifetime of the process.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.EmailSession
	nextID   int64
}

// NewInMemoryStore returns an empty in-memory session archive.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]models.EmailSession)}
}

func (s *InMemoryStore) SaveSession(session models.EmailSession) (models.EmailSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	session.ID = s.nextID
	session.Key = sessionKey(s.nextID)
	s.sessions[session.Key] = session
	return session, nil
}

func (s *InMemoryStore) ListSessions() ([]models.EmailSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]models.EmailSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

func (s *InMemoryStore) GetSession(key string) (models.EmailSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return models.EmailSession{}, models.ErrSessionNotFound
	}
	return sess, nil
}

func (s *InMemoryStore) Close() error { return nil }
