package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// Collaborator generates a completion for a classification prompt. It is
// satisfied by genai.Client; tests substitute a canned implementation.
type Collaborator interface {
	SendPrompt(ctx context.Context, prompt string) (string, error)
}

// Classification thresholds. Rule results at or above ruleAcceptThreshold are
// final; below escalateBelow the collaborator gets a chance to do better;
// above ruleFloor the rule result still stands on its own; a last-resort
// collaborator answer must clear fallbackAcceptBar.
const (
	ruleAcceptThreshold = 0.8
	escalateBelow       = 0.6
	ruleFloor           = 0.3
	fallbackAcceptBar   = 0.4
)

const historyPromptLimit = 3

// Classifier maps a user utterance plus conversation state to an intent. It
// scores the pattern library first and escalates uncertain inputs to the
// collaborator.
type Classifier struct {
	rules       *Ruleset
	adjustments Adjustments
	extract     *extractor
	client      Collaborator
}

// NewClassifier builds a classifier. client may be nil, in which case every
// escalation path degrades to the deterministic fallback.
func NewClassifier(client Collaborator) *Classifier {
	return &Classifier{
		rules:       NewRuleset(),
		adjustments: NewAdjustments(),
		extract:     newExtractor(),
		client:      client,
	}
}

// Classify resolves the intent of input given the conversation state and
// recent history. It always returns a usable result; collaborator failures
// degrade to error-fallback results rather than propagating.
func (c *Classifier) Classify(ctx context.Context, input string, state models.ConversationState, history []models.ConversationMessage) models.IntentResult {
	ruleResult := c.scoreWithRules(input, state)
	if ruleResult.Confidence >= ruleAcceptThreshold {
		slog.Debug("Classifier.Classify: rule result accepted", "intent", ruleResult.Intent, "confidence", ruleResult.Confidence)
		return ruleResult
	}

	if ruleResult.Confidence < escalateBelow && c.client != nil {
		llmResult, cerr := c.classifyWithLLM(ctx, input, state, history)
		if cerr != nil {
			return c.errorFallback(input, cerr)
		}
		if llmResult.Confidence > ruleResult.Confidence {
			slog.Debug("Classifier.Classify: escalated result accepted", "intent", llmResult.Intent, "confidence", llmResult.Confidence)
			return llmResult
		}
	}

	if ruleResult.Confidence > ruleFloor {
		return ruleResult
	}

	if c.client != nil {
		llmResult, cerr := c.classifyWithLLM(ctx, input, state, history)
		if cerr != nil {
			return c.errorFallback(input, cerr)
		}
		if llmResult.Confidence > fallbackAcceptBar {
			llmResult.Reasoning = "Fallback: " + llmResult.Reasoning
			return llmResult
		}
	}

	params := c.extract.parameters(input, normalize(input))
	params.OriginalInput = input
	params.FallbackAttempted = c.client != nil
	return models.IntentResult{
		Intent:     models.IntentClarificationNeeded,
		Confidence: 0.9,
		Parameters: params,
		Reasoning:  "Unable to determine intent with sufficient confidence",
		Method:     models.MethodFallback,
	}
}

// scoreWithRules runs the pattern library and the context adjustment table.
// A winner needs a strictly greater score than the incumbent, so ties go to
// the earlier-registered intent.
func (c *Classifier) scoreWithRules(input string, state models.ConversationState) models.IntentResult {
	normalized := normalize(input)

	best := models.IntentResult{Intent: models.IntentClarificationNeeded, Method: models.MethodRuleBased}
	var bestMatched []string
	for _, r := range c.rules.rules {
		matched := r.match(normalized)
		base := 0.0
		if len(matched) > 0 {
			base = r.base
		}
		score := c.adjustments.apply(state, r.intent, base, len(matched) > 0, normalized)
		if score > best.Confidence {
			best.Intent = r.intent
			best.Confidence = score
			bestMatched = matched
		}
	}

	if best.Confidence == 0 {
		best.Reasoning = "No pattern matched"
		return best
	}

	best.Parameters = c.extract.parameters(input, normalized)
	best.Parameters.MatchedPatterns = bestMatched
	best.Reasoning = fmt.Sprintf("Matched %d pattern(s) in state %s", len(bestMatched), state)
	return best
}

// classifyWithLLM asks the collaborator to classify the input and parses its
// JSON answer. Both the call and the parse can fail; callers convert the
// typed error into an error-fallback result.
func (c *Classifier) classifyWithLLM(ctx context.Context, input string, state models.ConversationState, history []models.ConversationMessage) (models.IntentResult, *models.ClassificationError) {
	prompt := c.buildPrompt(input, state, history)
	raw, err := c.client.SendPrompt(ctx, prompt)
	if err != nil {
		slog.Warn("Classifier.classifyWithLLM: collaborator call failed", "error", err)
		return models.IntentResult{}, &models.ClassificationError{
			Kind:    models.ErrKindCollaboratorCall,
			Message: "collaborator call failed",
			Err:     err,
		}
	}

	result, err := c.parseResponse(raw)
	if err != nil {
		slog.Warn("Classifier.classifyWithLLM: unparseable response", "error", err, "response", raw)
		return models.IntentResult{}, &models.ClassificationError{
			Kind:    models.ErrKindCollaboratorParse,
			Message: "unparseable collaborator response",
			Raw:     raw,
			Err:     err,
		}
	}
	return result, nil
}

// errorFallback converts a classification error into the degraded result the
// caller hands back to the conversation loop. Call failures keep a middling
// confidence; parse failures rank lower and carry the raw response.
func (c *Classifier) errorFallback(input string, cerr *models.ClassificationError) models.IntentResult {
	confidence := 0.5
	params := models.Parameters{OriginalInput: input, Error: cerr.Message}
	if cerr.Kind == models.ErrKindCollaboratorParse {
		confidence = 0.3
		params.RawResponse = cerr.Raw
	}
	return models.IntentResult{
		Intent:     models.IntentClarificationNeeded,
		Confidence: confidence,
		Parameters: params,
		Reasoning:  cerr.Message,
		Method:     models.MethodErrorFallback,
	}
}

func (c *Classifier) buildPrompt(input string, state models.ConversationState, history []models.ConversationMessage) string {
	var b strings.Builder
	b.WriteString("You are an intent classifier for an email assistant.\n\n")
	fmt.Fprintf(&b, "Current conversation state: %s\n\n", state)

	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		start := len(history) - historyPromptLimit
		if start < 0 {
			start = 0
		}
		for _, msg := range history[start:] {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User message: %q\n\n", input)

	b.WriteString("Classify the message as one of the following intents:\n")
	for _, intent := range models.AllIntents {
		fmt.Fprintf(&b, "- %s\n", intent)
	}
	b.WriteString("- CLARIFICATION_NEEDED\n\n")

	b.WriteString(`IMPORTANT CONTEXT RULES:
- If the user previously declined an offer and now responds affirmatively (yes, ok, sure), they are agreeing to continue the workflow: CONTINUE_WORKFLOW.
- Short affirmative answers in the middle of a workflow mean CONTINUE_WORKFLOW, not GENERAL_HELP.
- Short negative answers (no, not now, skip) mean DECLINE_OFFER.
- Pasted text with email headers or a greeting/sign-off is LOAD_EMAIL.

Respond with JSON only, in exactly this format:
{
  "intent": "INTENT_NAME",
  "confidence": 0.0,
  "parameters": {
    "email_content": "",
    "tone": "",
    "refinement_instructions": "",
    "cloud": false,
    "filepath": ""
  },
  "reasoning": "one sentence"
}
`)
	return b.String()
}

// parseResponse decodes the collaborator's JSON answer. Markdown code fences
// around the JSON are tolerated; unknown intents are not.
func (c *Classifier) parseResponse(raw string) (models.IntentResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var decoded struct {
		Intent     string            `json:"intent"`
		Confidence float64           `json:"confidence"`
		Parameters models.Parameters `json:"parameters"`
		Reasoning  string            `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return models.IntentResult{}, fmt.Errorf("decode classification response: %w", err)
	}

	intent := models.Intent(strings.ToUpper(strings.TrimSpace(decoded.Intent)))
	if !models.IsValidIntent(intent) {
		return models.IntentResult{}, fmt.Errorf("classification response: %w: %q", models.ErrInvalidIntent, decoded.Intent)
	}
	if decoded.Confidence < 0 || decoded.Confidence > 1 {
		return models.IntentResult{}, fmt.Errorf("classification response: confidence %v out of range", decoded.Confidence)
	}

	return models.IntentResult{
		Intent:     intent,
		Confidence: decoded.Confidence,
		Parameters: decoded.Parameters,
		Reasoning:  decoded.Reasoning,
		Method:     models.MethodLLMBased,
	}, nil
}

func normalize(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
