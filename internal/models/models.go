// Package models defines the core data structures for the email assistant.
//
// It includes the closed intent and conversation-state enumerations, the
// classification result type, and the session archive types shared across modules.
package models

import (
	"errors"
	"time"
)

// Intent identifies the discrete action a user's utterance is mapped to.
type Intent string

const (
	IntentLoadEmail           Intent = "LOAD_EMAIL"
	IntentExtractInfo         Intent = "EXTRACT_INFO"
	IntentDraftReply          Intent = "DRAFT_REPLY"
	IntentRefineDraft         Intent = "REFINE_DRAFT"
	IntentSaveDraft           Intent = "SAVE_DRAFT"
	IntentGeneralHelp         Intent = "GENERAL_HELP"
	IntentContinueWorkflow    Intent = "CONTINUE_WORKFLOW"
	IntentDeclineOffer        Intent = "DECLINE_OFFER"
	IntentViewSessionHistory  Intent = "VIEW_SESSION_HISTORY"
	IntentViewSpecificSession Intent = "VIEW_SPECIFIC_SESSION"
	IntentClarificationNeeded Intent = "CLARIFICATION_NEEDED"
)

// AllIntents lists every classifiable intent in registration order. The rule
// scorer iterates this order, so it must stay deterministic.
var AllIntents = []Intent{
	IntentLoadEmail,
	IntentDraftReply,
	IntentRefineDraft,
	IntentSaveDraft,
	IntentExtractInfo,
	IntentGeneralHelp,
	IntentContinueWorkflow,
	IntentDeclineOffer,
	IntentViewSessionHistory,
	IntentViewSpecificSession,
}

// IsValidIntent checks if the given intent is a member of the closed set.
func IsValidIntent(i Intent) bool {
	switch i {
	case IntentLoadEmail, IntentExtractInfo, IntentDraftReply, IntentRefineDraft,
		IntentSaveDraft, IntentGeneralHelp, IntentContinueWorkflow, IntentDeclineOffer,
		IntentViewSessionHistory, IntentViewSpecificSession, IntentClarificationNeeded:
		return true
	}
	return false
}

// ConversationState identifies the stage of the email-processing workflow.
type ConversationState string

const (
	StateGreeting             ConversationState = "greeting"
	StateWaitingForEmail      ConversationState = "waiting_for_email"
	StateEmailLoaded          ConversationState = "email_loaded"
	StateInfoExtracted        ConversationState = "info_extracted"
	StateDraftCreated         ConversationState = "draft_created"
	StateDraftRefined         ConversationState = "draft_refined"
	StateReadyToSave          ConversationState = "ready_to_save"
	StateConversationComplete ConversationState = "conversation_complete"
	StateErrorRecovery        ConversationState = "error_recovery"
)

// IsValidState checks if the given state is a member of the closed set.
func IsValidState(s ConversationState) bool {
	switch s {
	case StateGreeting, StateWaitingForEmail, StateEmailLoaded, StateInfoExtracted,
		StateDraftCreated, StateDraftRefined, StateReadyToSave,
		StateConversationComplete, StateErrorRecovery:
		return true
	}
	return false
}

// Method records which path of the hybrid classifier produced a result.
type Method string

const (
	MethodRuleBased     Method = "rule_based"
	MethodLLMBased      Method = "llm_based"
	MethodFallback      Method = "fallback"
	MethodErrorFallback Method = "error_fallback"
)

// Parameters carries every value the extractors pulled from an input. All
// fields are optional; zero values mean "not present". Parameters are attached
// to the winning result unconditionally so downstream handlers can use them
// opportunistically (e.g. a LOAD_EMAIL result may also carry a tone for an
// immediately-following draft request).
type Parameters struct {
	EmailContent           string   `json:"email_content,omitempty"`
	Tone                   string   `json:"tone,omitempty"`
	RefinementInstructions string   `json:"refinement_instructions,omitempty"`
	Cloud                  bool     `json:"cloud,omitempty"`
	Filepath               string   `json:"filepath,omitempty"`
	SessionID              string   `json:"session_id,omitempty"`
	MatchedPatterns        []string `json:"matched_patterns,omitempty"`

	// Diagnostics populated on fallback paths.
	OriginalInput     string `json:"original_input,omitempty"`
	FallbackAttempted bool   `json:"fallback_attempted,omitempty"`
	Error             string `json:"error,omitempty"`
	RawResponse       string `json:"raw_response,omitempty"`
}

// IntentResult is the immutable outcome of classifying one user input.
type IntentResult struct {
	Intent     Intent     `json:"intent"`
	Confidence float64    `json:"confidence"`
	Parameters Parameters `json:"parameters"`
	Reasoning  string     `json:"reasoning"`
	Method     Method     `json:"method"`
}

// ErrorKind enumerates the closed set of classification failure modes.
type ErrorKind string

const (
	ErrKindNoCollaborator    ErrorKind = "no_collaborator"
	ErrKindCollaboratorCall  ErrorKind = "collaborator_call"
	ErrKindCollaboratorParse ErrorKind = "collaborator_parse"
	ErrKindNoMatch           ErrorKind = "no_match"
)

// ClassificationError describes why an escalation to the collaborator failed.
// Callers branch on Kind rather than matching message strings. These errors
// never escape Classify; the escalation gate converts them to fallback results.
type ClassificationError struct {
	Kind    ErrorKind
	Message string
	Raw     string // raw collaborator response, set on parse failures
	Err     error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// ConversationMessage is a single turn in the conversation history.
type ConversationMessage struct {
	Role      string    `json:"role"`      // "user" or "assistant"
	Content   string    `json:"content"`   // message content
	Timestamp time.Time `json:"timestamp"` // when the message was recorded
}

// ExtractedInfo holds the key information pulled from an email exchange by the
// LLM. It is a loose mapping because the collaborator decides the value shapes
// (contact details may be a string or a nested object).
type ExtractedInfo map[string]any

// EmailSession is an immutable snapshot of one processed email: its content,
// extracted info, and every draft produced for it. Sessions are archived
// append-only and keyed by sequential id (email_1, email_2, ...).
type EmailSession struct {
	ID           int64         `json:"id"`
	Key          string        `json:"key"`
	EmailContent string        `json:"email_content"`
	Info         ExtractedInfo `json:"extracted_info,omitempty"`
	Drafts       []string      `json:"drafts,omitempty"`
	SavedPath    string        `json:"saved_path,omitempty"`
	SavedToCloud bool          `json:"saved_to_cloud,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Error variables for programming errors surfaced to callers.
var (
	ErrInvalidIntent     = errors.New("intent is not a member of the closed intent set")
	ErrInvalidState      = errors.New("state is not a member of the closed state set")
	ErrSessionNotFound   = errors.New("session not found")
	ErrNoEmailLoaded     = errors.New("no email loaded")
	ErrNoDraftAvailable  = errors.New("no draft available")
	ErrEmptyDraft        = errors.New("draft content is empty")
	ErrBucketNotSet      = errors.New("S3 bucket not configured")
	ErrMalformedTableRow = errors.New("transition table contains an invalid state or intent")
)
