// Package respond builds the user-facing text the assistant prints. All
// templates key off conversation state and intent so wording stays
// consistent with where the workflow actually stands.
package respond

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// Greeting is shown when a conversation starts.
func Greeting() string {
	return "Hello! I'm your email assistant. Paste an email, or give me a file path, and I can summarize it, draft a reply, refine it, and save the result. What would you like to do?"
}

// Guidance suggests the natural next step for the current state.
func Guidance(state models.ConversationState) string {
	switch state {
	case models.StateGreeting, models.StateWaitingForEmail:
		return "Paste an email or give me a file path to get started."
	case models.StateEmailLoaded:
		return "Would you like me to extract the key information or draft a reply?"
	case models.StateInfoExtracted:
		return "Would you like me to draft a reply?"
	case models.StateDraftCreated, models.StateDraftRefined:
		return "Would you like me to refine the draft further, or save it?"
	case models.StateReadyToSave:
		return "Say the word and I'll save the draft."
	case models.StateConversationComplete:
		return "All done. Paste another email whenever you're ready."
	case models.StateErrorRecovery:
		return "We can pick up where we left off, or start over with a new email."
	default:
		return ""
	}
}

// EmailLoaded confirms a newly loaded email.
func EmailLoaded(preview string) string {
	return fmt.Sprintf("Got it, email loaded:\n\n%s\n\n%s", truncate(preview, 300), Guidance(models.StateEmailLoaded))
}

// InfoExtracted presents extracted key information.
func InfoExtracted(info models.ExtractedInfo) string {
	var b strings.Builder
	b.WriteString("Here's the key information I extracted:\n")
	for k, v := range info {
		fmt.Fprintf(&b, "- %s: %v\n", k, v)
	}
	b.WriteString("\n")
	b.WriteString(Guidance(models.StateInfoExtracted))
	return b.String()
}

// DraftCreated presents a new draft.
func DraftCreated(draft string) string {
	return fmt.Sprintf("Here's a draft reply:\n\n%s\n\n%s", draft, Guidance(models.StateDraftCreated))
}

// DraftRefined presents a refined draft.
func DraftRefined(draft string) string {
	return fmt.Sprintf("Here's the refined draft:\n\n%s\n\n%s", draft, Guidance(models.StateDraftRefined))
}

// DraftSaved confirms where the draft landed.
func DraftSaved(location string, cloud bool) string {
	where := "to"
	if cloud {
		where = "to cloud storage at"
	}
	return fmt.Sprintf("Draft saved %s %s. %s", where, location, Guidance(models.StateConversationComplete))
}

// SessionList summarizes the archived sessions.
func SessionList(sessions []models.EmailSession) string {
	if len(sessions) == 0 {
		return "No previous email sessions yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d previous session(s):\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(&b, "- %s: %s\n", s.Key, truncate(firstLine(s.EmailContent), 80))
	}
	b.WriteString("\nAsk for a session by number to see its details.")
	return b.String()
}

// SessionDetail shows one archived session in full.
func SessionDetail(s models.EmailSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s:\n\nEmail:\n%s\n", s.Key, truncate(s.EmailContent, 500))
	if len(s.Info) > 0 {
		b.WriteString("\nKey information:\n")
		for k, v := range s.Info {
			fmt.Fprintf(&b, "- %s: %v\n", k, v)
		}
	}
	if len(s.Drafts) > 0 {
		fmt.Fprintf(&b, "\nFinal draft:\n%s\n", s.Drafts[len(s.Drafts)-1])
	}
	if s.SavedPath != "" {
		fmt.Fprintf(&b, "\nSaved to: %s\n", s.SavedPath)
	}
	return b.String()
}

// Declined acknowledges a declined offer without pushing.
func Declined(state models.ConversationState) string {
	return "No problem. " + Guidance(state)
}

// GeneralHelp describes what the assistant can do.
func GeneralHelp(state models.ConversationState) string {
	return "I can load an email (pasted text or a .txt/.pdf/.eml file), extract its key information, draft and refine a reply, and save the draft locally or to S3. " + Guidance(state)
}

// Clarification asks the user to rephrase.
func Clarification(state models.ConversationState) string {
	return "I'm not sure what you'd like me to do. " + Guidance(state)
}

// Error reports a failed operation and how to move on.
func Error(err error) string {
	msg := "something went wrong"
	switch {
	case err == nil:
	case strings.TrimSpace(err.Error()) != "":
		msg = err.Error()
	}
	return fmt.Sprintf("Sorry, %s. %s", msg, Guidance(models.StateErrorRecovery))
}

// truncate shortens s to at most n runes, never splitting a multi-byte
// character.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
