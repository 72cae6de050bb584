package conversation

import (
	"log/slog"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// Manager applies state transitions to a conversation context using an
// immutable transition table.
type Manager struct {
	table TransitionTable
	ctx   *Context
}

// NewManager creates a state manager for a fresh conversation.
func NewManager(table TransitionTable) *Manager {
	return &Manager{table: table, ctx: NewContext()}
}

// NewManagerWithContext creates a state manager driving an existing context.
func NewManagerWithContext(table TransitionTable, ctx *Context) *Manager {
	return &Manager{table: table, ctx: ctx}
}

// Context returns the conversation context owned by this manager.
func (m *Manager) Context() *Context {
	return m.ctx
}

// Transition moves the conversation to its next state based on the classified
// intent and whether the downstream action succeeded. A failed action always
// routes to error recovery regardless of intent or current state. An intent
// with no entry for the current state is a no-op, not an error: the
// conversation stays where it is and a diagnostic is logged.
func (m *Manager) Transition(intent models.Intent, success bool) models.ConversationState {
	if !success {
		slog.Info("conversation.Transition: action failed, entering error recovery",
			"from", m.ctx.CurrentState, "intent", intent)
		m.ctx.CurrentState = models.StateErrorRecovery
		m.ctx.LastIntent = intent
		return m.ctx.CurrentState
	}

	row, ok := m.table[m.ctx.CurrentState]
	if ok {
		if next, ok := row[intent]; ok {
			slog.Info("conversation.Transition: state transition",
				"from", m.ctx.CurrentState, "to", next, "intent", intent)
			m.ctx.CurrentState = next
			m.ctx.LastIntent = intent
			return m.ctx.CurrentState
		}
	}

	slog.Warn("conversation.Transition: no transition registered, staying in current state",
		"state", m.ctx.CurrentState, "intent", intent)
	return m.ctx.CurrentState
}

// CanTransition reports whether the intent has a registered transition from
// the current state.
func (m *Manager) CanTransition(intent models.Intent) bool {
	row, ok := m.table[m.ctx.CurrentState]
	if !ok {
		return false
	}
	_, ok = row[intent]
	return ok
}

// ValidIntents returns the intents with registered transitions from the
// current state.
func (m *Manager) ValidIntents() []models.Intent {
	row, ok := m.table[m.ctx.CurrentState]
	if !ok {
		return nil
	}
	intents := make([]models.Intent, 0, len(row))
	for intent := range row {
		intents = append(intents, intent)
	}
	return intents
}
