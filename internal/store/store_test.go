package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

func testSession(content string) models.EmailSession {
	return models.EmailSession{
		EmailContent: content,
		Info:         models.ExtractedInfo{"subject": "Lunch", "sender name": "Alice"},
		Drafts:       []string{"first draft", "second draft"},
		SavedPath:    "drafts/draft_20260829_120000.txt",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestInMemoryStoreSequentialKeys(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()

	first, err := s.SaveSession(testSession("email one"))
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	second, err := s.SaveSession(testSession("email two"))
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	if first.Key != "email_1" || second.Key != "email_2" {
		t.Errorf("keys = %s, %s, want email_1, email_2", first.Key, second.Key)
	}

	sessions, err := s.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0].Key != "email_1" || sessions[1].Key != "email_2" {
		t.Errorf("ListSessions not in key order: %+v", sessions)
	}
}

func TestInMemoryStoreGetSession(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()

	saved, err := s.SaveSession(testSession("email one"))
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := s.GetSession(saved.Key)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.EmailContent != "email one" || len(got.Drafts) != 2 {
		t.Errorf("session fields lost: %+v", got)
	}

	if _, err := s.GetSession("email_99"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("missing session error = %v, want ErrSessionNotFound", err)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "sessions.db")
	s, err := NewSQLiteStore(WithDSN(dsn))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	saved, err := s.SaveSession(testSession("email one"))
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if saved.Key != "email_1" {
		t.Errorf("key = %s, want email_1", saved.Key)
	}

	got, err := s.GetSession("email_1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.EmailContent != "email one" {
		t.Errorf("email content = %q", got.EmailContent)
	}
	if got.Info["subject"] != "Lunch" {
		t.Errorf("info not round-tripped: %+v", got.Info)
	}
	if len(got.Drafts) != 2 || got.Drafts[1] != "second draft" {
		t.Errorf("drafts not round-tripped: %+v", got.Drafts)
	}
	if got.SavedPath == "" {
		t.Errorf("saved path lost")
	}

	if _, err := s.GetSession("email_9"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("missing session error = %v, want ErrSessionNotFound", err)
	}
}

func TestSQLiteStoreKeysSurviveReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "sessions.db")

	s, err := NewSQLiteStore(WithDSN(dsn))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if _, err := s.SaveSession(testSession("email one")); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(WithDSN(dsn))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	second, err := reopened.SaveSession(testSession("email two"))
	if err != nil {
		t.Fatalf("SaveSession after reopen failed: %v", err)
	}
	if second.Key != "email_2" {
		t.Errorf("key after reopen = %s, want email_2", second.Key)
	}

	sessions, err := reopened.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("session count = %d, want 2", len(sessions))
	}
}

func TestSQLiteStoreRequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore(); err == nil {
		t.Fatalf("expected error for missing DSN")
	}
}
