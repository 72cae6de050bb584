package intent

import "github.com/RayKMAllen/email-assistant/internal/models"

// forcedConfidence is the confidence assigned when an exact affirmative or
// negative phrase answers a pending offer in the current state.
const forcedConfidence = 0.95

// affirmativePhrases are the normalized inputs treated as accepting an offer.
var affirmativePhrases = map[string]bool{
	"yes": true, "ok": true, "okay": true, "continue": true, "proceed": true,
	"sure": true, "please do": true, "go for it": true, "do it": true,
}

// negativePhrases are the normalized inputs treated as declining an offer.
var negativePhrases = map[string]bool{
	"no": true, "nope": true, "not now": true, "not yet": true, "skip": true,
	"skip that": true, "skip it": true, "no thanks": true, "no thank you": true,
	"pass": true,
}

// StateAdjustment biases classification toward what a user is likely to mean
// given where the conversation stands. Affirmative and Negative name the
// intents an exact yes/no phrase is forced to; Boosts are confidence deltas
// applied only when the intent's patterns matched.
type StateAdjustment struct {
	Affirmative models.Intent
	Negative    models.Intent
	Boosts      map[models.Intent]float64
}

// Adjustments is the immutable per-state context adjustment table.
type Adjustments map[models.ConversationState]StateAdjustment

// NewAdjustments returns the default context adjustment table. States without
// an entry apply no adjustment.
func NewAdjustments() Adjustments {
	return Adjustments{
		models.StateEmailLoaded: {
			Affirmative: models.IntentContinueWorkflow,
			Negative:    models.IntentDeclineOffer,
			Boosts: map[models.Intent]float64{
				models.IntentDraftReply:  0.1,
				models.IntentExtractInfo: 0.1,
			},
		},
		models.StateInfoExtracted: {
			Affirmative: models.IntentContinueWorkflow,
			Negative:    models.IntentDeclineOffer,
			Boosts: map[models.Intent]float64{
				models.IntentDraftReply: 0.15,
			},
		},
		models.StateDraftCreated: {
			Affirmative: models.IntentContinueWorkflow,
			Negative:    models.IntentDeclineOffer,
			Boosts: map[models.Intent]float64{
				models.IntentSaveDraft:   0.1,
				models.IntentRefineDraft: 0.1,
			},
		},
		models.StateDraftRefined: {
			Affirmative: models.IntentContinueWorkflow,
			Negative:    models.IntentDeclineOffer,
			Boosts: map[models.Intent]float64{
				models.IntentSaveDraft: 0.15,
			},
		},
		models.StateReadyToSave: {
			Affirmative: models.IntentSaveDraft,
			Negative:    models.IntentDeclineOffer,
			Boosts: map[models.Intent]float64{
				models.IntentSaveDraft: 0.05,
			},
		},
		models.StateErrorRecovery: {
			Affirmative: models.IntentContinueWorkflow,
			Negative:    models.IntentDeclineOffer,
			Boosts: map[models.Intent]float64{
				models.IntentDraftReply:  0.2,
				models.IntentExtractInfo: 0.1,
				models.IntentSaveDraft:   0.1,
			},
		},
	}
}

// apply returns the context-adjusted confidence for an intent. Exact-phrase
// overrides dominate pattern confidence; boosts apply only on a pattern match
// and the result is clamped to 1.0.
func (a Adjustments) apply(state models.ConversationState, intent models.Intent, confidence float64, matched bool, normalizedInput string) float64 {
	adj, ok := a[state]
	if !ok {
		return confidence
	}

	if affirmativePhrases[normalizedInput] && intent == adj.Affirmative {
		return forcedConfidence
	}
	if negativePhrases[normalizedInput] && intent == adj.Negative {
		return forcedConfidence
	}

	if matched {
		if boost, ok := adj.Boosts[intent]; ok {
			confidence += boost
			if confidence > 1.0 {
				confidence = 1.0
			}
		}
	}
	return confidence
}
