package store

import (
	"encoding/json"
	"fmt"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// sessionKey formats the archive key for a session id.
func sessionKey(id int64) string {
	return fmt.Sprintf("email_%d", id)
}

// encodeSessionFields serializes the structured session fields for storage.
func encodeSessionFields(session models.EmailSession) (infoJSON, draftsJSON string, err error) {
	if session.Info != nil {
		b, err := json.Marshal(session.Info)
		if err != nil {
			return "", "", fmt.Errorf("marshal session info: %w", err)
		}
		infoJSON = string(b)
	}
	if session.Drafts != nil {
		b, err := json.Marshal(session.Drafts)
		if err != nil {
			return "", "", fmt.Errorf("marshal session drafts: %w", err)
		}
		draftsJSON = string(b)
	}
	return infoJSON, draftsJSON, nil
}

// decodeSessionFields restores the structured session fields from storage.
// Corrupt JSON degrades to empty fields rather than failing the read.
func decodeSessionFields(session *models.EmailSession, infoJSON, draftsJSON string) {
	if infoJSON != "" {
		if err := json.Unmarshal([]byte(infoJSON), &session.Info); err != nil {
			session.Info = models.ExtractedInfo{}
		}
	}
	if draftsJSON != "" {
		if err := json.Unmarshal([]byte(draftsJSON), &session.Drafts); err != nil {
			session.Drafts = nil
		}
	}
}

// nilIfEmpty returns nil if s is empty, for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
