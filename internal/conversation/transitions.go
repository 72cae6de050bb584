package conversation

import (
	"fmt"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// TransitionTable maps (current state, intent) to the next state. Absent
// entries mean stay in the current state. The table is built once at startup
// and never mutated, so it can be shared across conversations.
type TransitionTable map[models.ConversationState]map[models.Intent]models.ConversationState

// NewTransitionTable returns the default workflow transition table.
func NewTransitionTable() TransitionTable {
	return TransitionTable{
		models.StateGreeting: {
			models.IntentLoadEmail:           models.StateEmailLoaded,
			models.IntentExtractInfo:         models.StateInfoExtracted, // direct transition for auto-extraction
			models.IntentGeneralHelp:         models.StateGreeting,
			models.IntentClarificationNeeded: models.StateGreeting,
		},
		models.StateWaitingForEmail: {
			models.IntentLoadEmail:   models.StateEmailLoaded,
			models.IntentGeneralHelp: models.StateWaitingForEmail,
		},
		models.StateEmailLoaded: {
			models.IntentExtractInfo:      models.StateInfoExtracted,
			models.IntentDraftReply:       models.StateDraftCreated,
			models.IntentContinueWorkflow: models.StateInfoExtracted,
			models.IntentDeclineOffer:     models.StateEmailLoaded,
			models.IntentLoadEmail:        models.StateEmailLoaded, // new email
		},
		models.StateInfoExtracted: {
			models.IntentDraftReply:          models.StateDraftCreated,
			models.IntentContinueWorkflow:    models.StateDraftCreated,
			models.IntentDeclineOffer:        models.StateInfoExtracted,
			models.IntentExtractInfo:         models.StateInfoExtracted, // re-show info
			models.IntentLoadEmail:           models.StateEmailLoaded,
			models.IntentClarificationNeeded: models.StateInfoExtracted,
		},
		models.StateDraftCreated: {
			models.IntentRefineDraft:      models.StateDraftRefined,
			models.IntentSaveDraft:        models.StateReadyToSave,
			models.IntentContinueWorkflow: models.StateReadyToSave,
			models.IntentDeclineOffer:     models.StateDraftCreated,
			models.IntentDraftReply:       models.StateDraftCreated, // new draft
			models.IntentExtractInfo:      models.StateDraftCreated, // show info without changing state
			models.IntentLoadEmail:        models.StateEmailLoaded,
		},
		models.StateDraftRefined: {
			models.IntentRefineDraft:      models.StateDraftRefined, // multiple refinements
			models.IntentSaveDraft:        models.StateReadyToSave,
			models.IntentContinueWorkflow: models.StateReadyToSave,
			models.IntentDeclineOffer:     models.StateDraftRefined,
			models.IntentDraftReply:       models.StateDraftCreated, // start over
			models.IntentExtractInfo:      models.StateDraftRefined,
			models.IntentLoadEmail:        models.StateEmailLoaded,
		},
		models.StateReadyToSave: {
			models.IntentSaveDraft:        models.StateConversationComplete,
			models.IntentContinueWorkflow: models.StateConversationComplete,
			models.IntentRefineDraft:      models.StateDraftRefined, // more changes
			models.IntentDraftReply:       models.StateDraftCreated,
			models.IntentDeclineOffer:     models.StateDraftCreated, // save cancelled
			models.IntentLoadEmail:        models.StateEmailLoaded,
		},
		models.StateConversationComplete: {
			models.IntentLoadEmail:   models.StateEmailLoaded,
			models.IntentGeneralHelp: models.StateGreeting,
		},
		// ERROR_RECOVERY permits resuming most workflow steps at the user's direction.
		models.StateErrorRecovery: {
			models.IntentLoadEmail:           models.StateEmailLoaded,
			models.IntentDraftReply:          models.StateDraftCreated,
			models.IntentSaveDraft:           models.StateConversationComplete,
			models.IntentExtractInfo:         models.StateInfoExtracted,
			models.IntentRefineDraft:         models.StateDraftRefined,
			models.IntentGeneralHelp:         models.StateGreeting,
			models.IntentClarificationNeeded: models.StateErrorRecovery,
		},
	}
}

// Validate checks every row of the table against the closed state and intent
// sets. A malformed table is a programming error.
func (t TransitionTable) Validate() error {
	for state, row := range t {
		if !models.IsValidState(state) {
			return fmt.Errorf("%w: state %q", models.ErrMalformedTableRow, state)
		}
		for intent, next := range row {
			if !models.IsValidIntent(intent) {
				return fmt.Errorf("%w: intent %q from state %q", models.ErrMalformedTableRow, intent, state)
			}
			if !models.IsValidState(next) {
				return fmt.Errorf("%w: target state %q for (%s, %s)", models.ErrMalformedTableRow, next, state, intent)
			}
		}
	}
	return nil
}
