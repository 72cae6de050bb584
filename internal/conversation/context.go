// Package conversation provides conversation state management for the email
// assistant: the mutable per-conversation context, the static transition
// table, and the state manager that applies transitions.
package conversation

import (
	"log/slog"
	"time"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// maxHistoryLength bounds conversation history growth. Keep the last 50 turns.
const maxHistoryLength = 50

// Context maintains the mutable state of one conversation. It is created once
// per conversation and owned by a single session; CurrentState is written only
// by the Manager, never by the classifier.
type Context struct {
	CurrentState models.ConversationState
	LastIntent   models.Intent

	// Workflow artifacts the classifier reads but never writes.
	EmailContent           string
	ExtractedInfo          models.ExtractedInfo
	CurrentDraft           string
	DraftHistory           []string
	CurrentlyViewedSession string

	History          []models.ConversationMessage
	SessionStartTime time.Time
}

// NewContext creates a fresh context in the greeting state.
func NewContext() *Context {
	return &Context{
		CurrentState:     models.StateGreeting,
		SessionStartTime: time.Now(),
	}
}

// AddToHistory appends a message to the conversation history, trimming to the
// bounded length.
func (c *Context) AddToHistory(role, content string) {
	c.History = append(c.History, models.ConversationMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if len(c.History) > maxHistoryLength {
		c.History = c.History[len(c.History)-maxHistoryLength:]
		slog.Debug("conversation.AddToHistory: trimmed history to max length", "maxLength", maxHistoryLength)
	}
}

// RecentHistory returns up to limit of the most recent messages.
func (c *Context) RecentHistory(limit int) []models.ConversationMessage {
	if limit <= 0 || len(c.History) == 0 {
		return nil
	}
	if len(c.History) <= limit {
		return c.History
	}
	return c.History[len(c.History)-limit:]
}

// Patch enumerates exactly the context fields the orchestrator is allowed to
// set. Nil pointers leave the field untouched.
type Patch struct {
	EmailContent           *string
	ExtractedInfo          *models.ExtractedInfo
	CurrentDraft           *string
	AppendDraft            *string
	CurrentlyViewedSession *string
}

// Apply updates the context with the non-nil fields of the patch.
func (c *Context) Apply(p Patch) {
	if p.EmailContent != nil {
		c.EmailContent = *p.EmailContent
	}
	if p.ExtractedInfo != nil {
		c.ExtractedInfo = *p.ExtractedInfo
	}
	if p.CurrentDraft != nil {
		c.CurrentDraft = *p.CurrentDraft
	}
	if p.AppendDraft != nil {
		c.DraftHistory = append(c.DraftHistory, *p.AppendDraft)
	}
	if p.CurrentlyViewedSession != nil {
		c.CurrentlyViewedSession = *p.CurrentlyViewedSession
	}
}

// ResetEmailContext clears email-specific fields so a new email can be
// processed. Conversation history is preserved; this is a soft reset.
func (c *Context) ResetEmailContext() {
	c.EmailContent = ""
	c.ExtractedInfo = nil
	c.CurrentDraft = ""
	c.DraftHistory = nil
	c.CurrentlyViewedSession = ""
	c.CurrentState = models.StateWaitingForEmail
	slog.Debug("conversation.ResetEmailContext: email context cleared", "state", c.CurrentState)
}

// Summary returns a snapshot of the context for logging and diagnostics.
func (c *Context) Summary() map[string]any {
	return map[string]any{
		"current_state":       string(c.CurrentState),
		"has_email":           c.EmailContent != "",
		"has_extracted_info":  c.ExtractedInfo != nil,
		"has_draft":           c.CurrentDraft != "",
		"draft_count":         len(c.DraftHistory),
		"conversation_length": len(c.History),
		"last_intent":         string(c.LastIntent),
	}
}
