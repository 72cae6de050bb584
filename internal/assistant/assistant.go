// Package assistant orchestrates one email conversation: it classifies each
// user input, runs the matching email operation, advances the conversation
// state machine, and renders the reply.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RayKMAllen/email-assistant/internal/conversation"
	"github.com/RayKMAllen/email-assistant/internal/drafts"
	"github.com/RayKMAllen/email-assistant/internal/intent"
	"github.com/RayKMAllen/email-assistant/internal/models"
	"github.com/RayKMAllen/email-assistant/internal/respond"
	"github.com/RayKMAllen/email-assistant/internal/store"
)

// historyClassifyLimit is how much recent history the classifier sees.
const historyClassifyLimit = 6

// emailProcessor is the slice of the processor the assistant uses.
type emailProcessor interface {
	LoadText(input string) (string, error)
	ExtractKeyInfo(ctx context.Context, emailContent string) (models.ExtractedInfo, error)
	DraftReply(ctx context.Context, emailContent, tone string) (string, error)
	Refine(ctx context.Context, draft, instructions, emailContent string) (string, error)
}

// Assistant drives a single conversation.
type Assistant struct {
	classifier *intent.Classifier
	manager    *conversation.Manager
	processor  emailProcessor
	archive    store.Store
	localSaver drafts.Saver
	cloudSaver drafts.Saver // nil when S3 is not configured

	// pendingSave carries the save target between the confirmation step
	// and the actual save.
	pendingSave saveTarget
	// lastSaved remembers where the current draft went so the archived
	// session records it.
	lastSaved savedDraft

	metrics *Metrics
}

type saveTarget struct {
	cloud    bool
	filepath string
}

type savedDraft struct {
	path  string
	cloud bool
}

// Config wires the assistant's collaborators.
type Config struct {
	Collaborator intent.Collaborator
	Processor    emailProcessor
	Archive      store.Store
	LocalSaver   drafts.Saver
	CloudSaver   drafts.Saver
}

// New builds an assistant. Archive defaults to in-memory and LocalSaver to
// the default drafts directory when unset.
func New(cfg Config) *Assistant {
	if cfg.Archive == nil {
		cfg.Archive = store.NewInMemoryStore()
	}
	if cfg.LocalSaver == nil {
		cfg.LocalSaver = drafts.NewLocalSaver("")
	}
	return &Assistant{
		classifier: intent.NewClassifier(cfg.Collaborator),
		manager:    conversation.NewManager(conversation.NewTransitionTable()),
		processor:  cfg.Processor,
		archive:    cfg.Archive,
		localSaver: cfg.LocalSaver,
		cloudSaver: cfg.CloudSaver,
		metrics:    NewMetrics(),
	}
}

// Greeting returns the opening line of a conversation.
func (a *Assistant) Greeting() string {
	return respond.Greeting()
}

// State returns the current conversation state.
func (a *Assistant) State() models.ConversationState {
	return a.manager.Context().CurrentState
}

// Metrics returns a snapshot of the classification counters.
func (a *Assistant) Metrics() MetricsSnapshot {
	return a.metrics.Snapshot()
}

// ProcessUserInput handles one user turn end to end and returns the reply.
func (a *Assistant) ProcessUserInput(ctx context.Context, input string) string {
	convo := a.manager.Context()
	convo.AddToHistory("user", input)

	result := a.classifier.Classify(ctx, input, convo.CurrentState, convo.RecentHistory(historyClassifyLimit))
	a.metrics.Record(result)
	slog.Info("Assistant.ProcessUserInput: classified",
		"intent", result.Intent, "confidence", result.Confidence, "method", result.Method, "state", convo.CurrentState)

	out := a.execute(ctx, input, result)
	a.manager.Transition(result.Intent, out.success)
	convo.Apply(out.patch)
	if !out.success {
		a.metrics.RecordFailure()
	}

	convo.AddToHistory("assistant", out.response)
	return out.response
}

// outcome is the result of executing one classified intent.
type outcome struct {
	response string
	success  bool
	patch    conversation.Patch
}

func (a *Assistant) execute(ctx context.Context, input string, result models.IntentResult) outcome {
	convo := a.manager.Context()
	state := convo.CurrentState

	switch result.Intent {
	case models.IntentLoadEmail:
		return a.loadEmail(result.Parameters, input)
	case models.IntentExtractInfo:
		return a.extractInfo(ctx)
	case models.IntentDraftReply:
		return a.draftReply(ctx, result.Parameters.Tone)
	case models.IntentRefineDraft:
		return a.refineDraft(ctx, result.Parameters.RefinementInstructions, input)
	case models.IntentSaveDraft:
		return a.saveDraft(ctx, result.Parameters, state)
	case models.IntentContinueWorkflow:
		return a.continueWorkflow(ctx, state)
	case models.IntentDeclineOffer:
		a.pendingSave = saveTarget{}
		return outcome{response: respond.Declined(state), success: true}
	case models.IntentViewSessionHistory:
		return a.viewHistory()
	case models.IntentViewSpecificSession:
		return a.viewSession(result.Parameters.SessionID)
	case models.IntentGeneralHelp:
		return outcome{response: respond.GeneralHelp(state), success: true}
	default:
		return outcome{response: respond.Clarification(state), success: true}
	}
}

func (a *Assistant) loadEmail(params models.Parameters, input string) outcome {
	content := params.EmailContent
	if content == "" {
		// The whole input may be the email when the extractor saw
		// nothing better.
		content = input
	}
	text := strings.TrimSpace(content)
	if a.processor != nil {
		loaded, err := a.processor.LoadText(content)
		if err != nil {
			slog.Warn("Assistant.loadEmail: load failed", "error", err)
			return outcome{response: respond.Error(err)}
		}
		text = loaded
	}
	if text == "" {
		return outcome{response: respond.Error(models.ErrNoEmailLoaded)}
	}

	convo := a.manager.Context()
	if convo.EmailContent != "" {
		a.archiveCurrentSession()
		convo.ResetEmailContext()
	}
	a.pendingSave = saveTarget{}

	return outcome{
		response: respond.EmailLoaded(text),
		success:  true,
		patch:    conversation.Patch{EmailContent: &text},
	}
}

// errNoModel is returned for operations that need generation when no model
// client was configured.
var errNoModel = errors.New("no language model is configured (set OPENAI_API_KEY)")

func (a *Assistant) extractInfo(ctx context.Context) outcome {
	if a.processor == nil {
		return outcome{response: respond.Error(errNoModel)}
	}
	convo := a.manager.Context()
	info, err := a.processor.ExtractKeyInfo(ctx, convo.EmailContent)
	if err != nil {
		slog.Warn("Assistant.extractInfo: extraction failed", "error", err)
		return outcome{response: respond.Error(err)}
	}
	return outcome{
		response: respond.InfoExtracted(info),
		success:  true,
		patch:    conversation.Patch{ExtractedInfo: &info},
	}
}

func (a *Assistant) draftReply(ctx context.Context, tone string) outcome {
	if a.processor == nil {
		return outcome{response: respond.Error(errNoModel)}
	}
	convo := a.manager.Context()
	draft, err := a.processor.DraftReply(ctx, convo.EmailContent, tone)
	if err != nil {
		slog.Warn("Assistant.draftReply: drafting failed", "error", err)
		return outcome{response: respond.Error(err)}
	}
	return outcome{
		response: respond.DraftCreated(draft),
		success:  true,
		patch:    conversation.Patch{CurrentDraft: &draft, AppendDraft: &draft},
	}
}

func (a *Assistant) refineDraft(ctx context.Context, instructions, input string) outcome {
	if a.processor == nil {
		return outcome{response: respond.Error(errNoModel)}
	}
	convo := a.manager.Context()
	if instructions == "" {
		instructions = input
	}
	draft, err := a.processor.Refine(ctx, convo.CurrentDraft, instructions, convo.EmailContent)
	if err != nil {
		slog.Warn("Assistant.refineDraft: refinement failed", "error", err)
		return outcome{response: respond.Error(err)}
	}
	return outcome{
		response: respond.DraftRefined(draft),
		success:  true,
		patch:    conversation.Patch{CurrentDraft: &draft, AppendDraft: &draft},
	}
}

// saveDraft implements the two-phase save: from a draft state it stages the
// target and asks for confirmation; from the ready-to-save (or recovery)
// state it performs the save.
func (a *Assistant) saveDraft(ctx context.Context, params models.Parameters, state models.ConversationState) outcome {
	convo := a.manager.Context()
	if strings.TrimSpace(convo.CurrentDraft) == "" {
		return outcome{response: respond.Error(models.ErrNoDraftAvailable)}
	}

	// New target details override whatever was staged earlier.
	if params.Cloud {
		a.pendingSave.cloud = true
	}
	if params.Filepath != "" {
		a.pendingSave.filepath = params.Filepath
	}

	if state == models.StateDraftCreated || state == models.StateDraftRefined {
		where := "locally"
		if a.pendingSave.cloud {
			where = "to cloud storage"
		}
		if a.pendingSave.filepath != "" {
			where = fmt.Sprintf("to %s", a.pendingSave.filepath)
		}
		return outcome{
			response: fmt.Sprintf("I'll save the draft %s. Shall I go ahead?", where),
			success:  true,
		}
	}

	return a.performSave(ctx)
}

func (a *Assistant) performSave(ctx context.Context) outcome {
	convo := a.manager.Context()
	saver := a.localSaver
	if a.pendingSave.cloud {
		if a.cloudSaver == nil {
			return outcome{response: respond.Error(models.ErrBucketNotSet)}
		}
		saver = a.cloudSaver
	}

	location, err := saver.Save(ctx, convo.CurrentDraft, a.pendingSave.filepath)
	if err != nil {
		slog.Warn("Assistant.performSave: save failed", "error", err, "cloud", a.pendingSave.cloud)
		return outcome{response: respond.Error(err)}
	}
	slog.Info("Assistant.performSave: draft saved", "location", location, "cloud", a.pendingSave.cloud)

	response := respond.DraftSaved(location, a.pendingSave.cloud)
	a.lastSaved = savedDraft{path: location, cloud: a.pendingSave.cloud}
	a.pendingSave = saveTarget{}
	return outcome{response: response, success: true}
}

// continueWorkflow runs the natural next step for the current state.
func (a *Assistant) continueWorkflow(ctx context.Context, state models.ConversationState) outcome {
	switch state {
	case models.StateEmailLoaded:
		return a.extractInfo(ctx)
	case models.StateInfoExtracted:
		return a.draftReply(ctx, "")
	case models.StateDraftCreated, models.StateDraftRefined:
		return a.saveDraft(ctx, models.Parameters{}, state)
	case models.StateReadyToSave:
		return a.performSave(ctx)
	default:
		return outcome{response: respond.Guidance(state), success: true}
	}
}

func (a *Assistant) viewHistory() outcome {
	sessions, err := a.archive.ListSessions()
	if err != nil {
		slog.Warn("Assistant.viewHistory: list failed", "error", err)
		return outcome{response: respond.Error(err)}
	}
	return outcome{response: respond.SessionList(sessions), success: true}
}

func (a *Assistant) viewSession(key string) outcome {
	if key == "" {
		return outcome{
			response: "Which session would you like to see? Ask for it by number, e.g. \"show email 2\".",
			success:  true,
		}
	}
	sess, err := a.archive.GetSession(key)
	if err != nil {
		slog.Warn("Assistant.viewSession: lookup failed", "error", err, "key", key)
		return outcome{response: respond.Error(err)}
	}
	return outcome{
		response: respond.SessionDetail(sess),
		success:  true,
		patch:    conversation.Patch{CurrentlyViewedSession: &key},
	}
}

// archiveCurrentSession stores the active email session in the archive. A
// failed archive is logged and otherwise ignored so it never blocks loading
// the next email.
func (a *Assistant) archiveCurrentSession() {
	convo := a.manager.Context()
	if convo.EmailContent == "" {
		return
	}
	session := models.EmailSession{
		EmailContent: convo.EmailContent,
		Info:         convo.ExtractedInfo,
		Drafts:       convo.DraftHistory,
		SavedPath:    a.lastSaved.path,
		SavedToCloud: a.lastSaved.cloud,
		CreatedAt:    time.Now(),
	}
	saved, err := a.archive.SaveSession(session)
	if err != nil {
		slog.Warn("Assistant.archiveCurrentSession: archive failed", "error", err)
		return
	}
	a.lastSaved = savedDraft{}
	slog.Info("Assistant.archiveCurrentSession: session archived", "key", saved.Key)
}

// Close archives the active session and releases the archive backend.
func (a *Assistant) Close() error {
	a.archiveCurrentSession()
	return a.archive.Close()
}
