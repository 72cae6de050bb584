package assistant

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/RayKMAllen/email-assistant/internal/drafts"
	"github.com/RayKMAllen/email-assistant/internal/models"
	"github.com/RayKMAllen/email-assistant/internal/store"
)

const sampleEmail = "From: alice@example.com\nTo: bob@example.com\nSubject: Project update\n\nHi Bob,\nCould you send the latest figures?\nThanks,\nAlice"

// fakeProcessor satisfies emailProcessor with canned results.
type fakeProcessor struct {
	extractErr error
	draftErr   error
	tone       string
	refined    int
}

func (f *fakeProcessor) LoadText(input string) (string, error) {
	return strings.TrimSpace(input), nil
}

func (f *fakeProcessor) ExtractKeyInfo(_ context.Context, emailContent string) (models.ExtractedInfo, error) {
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	if emailContent == "" {
		return nil, models.ErrNoEmailLoaded
	}
	return models.ExtractedInfo{"subject": "Project update", "sender name": "Alice"}, nil
}

func (f *fakeProcessor) DraftReply(_ context.Context, emailContent, tone string) (string, error) {
	if f.draftErr != nil {
		return "", f.draftErr
	}
	if emailContent == "" {
		return "", models.ErrNoEmailLoaded
	}
	f.tone = tone
	return "Dear Alice,\n\nThe figures are attached.\n\nBest,\nBob", nil
}

func (f *fakeProcessor) Refine(_ context.Context, draft, instructions, _ string) (string, error) {
	if draft == "" {
		return "", models.ErrNoDraftAvailable
	}
	f.refined++
	return draft + "\n\nP.S. Refined per: " + instructions, nil
}

func newTestAssistant(t *testing.T) (*Assistant, *fakeProcessor, string) {
	t.Helper()
	proc := &fakeProcessor{}
	dir := t.TempDir()
	a := New(Config{
		Processor:  proc,
		Archive:    store.NewInMemoryStore(),
		LocalSaver: drafts.NewLocalSaver(dir),
	})
	return a, proc, dir
}

func TestFullWorkflow(t *testing.T) {
	a, proc, dir := newTestAssistant(t)
	ctx := context.Background()

	resp := a.ProcessUserInput(ctx, sampleEmail)
	if a.State() != models.StateEmailLoaded {
		t.Fatalf("after load: state = %s, want %s", a.State(), models.StateEmailLoaded)
	}
	if !strings.Contains(resp, "email loaded") {
		t.Errorf("load response = %q", resp)
	}

	resp = a.ProcessUserInput(ctx, "yes")
	if a.State() != models.StateInfoExtracted {
		t.Fatalf("after continue: state = %s, want %s", a.State(), models.StateInfoExtracted)
	}
	if !strings.Contains(resp, "Project update") {
		t.Errorf("extraction response = %q", resp)
	}

	resp = a.ProcessUserInput(ctx, "please draft a reply, make it formal")
	if a.State() != models.StateDraftCreated {
		t.Fatalf("after draft: state = %s, want %s", a.State(), models.StateDraftCreated)
	}
	if proc.tone != "formal" {
		t.Errorf("tone = %q, want formal", proc.tone)
	}
	if !strings.Contains(resp, "Dear Alice,") {
		t.Errorf("draft response = %q", resp)
	}

	resp = a.ProcessUserInput(ctx, "include my availability for a meeting")
	if a.State() != models.StateDraftRefined {
		t.Fatalf("after refine: state = %s, want %s", a.State(), models.StateDraftRefined)
	}
	if proc.refined != 1 {
		t.Errorf("refine calls = %d, want 1", proc.refined)
	}
	if !strings.Contains(resp, "refined draft") {
		t.Errorf("refine response = %q", resp)
	}

	resp = a.ProcessUserInput(ctx, "save the draft")
	if a.State() != models.StateReadyToSave {
		t.Fatalf("after save request: state = %s, want %s", a.State(), models.StateReadyToSave)
	}
	if !strings.Contains(resp, "Shall I go ahead") {
		t.Errorf("save confirmation = %q", resp)
	}

	resp = a.ProcessUserInput(ctx, "yes")
	if a.State() != models.StateConversationComplete {
		t.Fatalf("after confirm: state = %s, want %s", a.State(), models.StateConversationComplete)
	}
	if !strings.Contains(resp, "Draft saved") {
		t.Errorf("save response = %q", resp)
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("saved drafts on disk = %d (%v), want 1", len(entries), err)
	}

	m := a.Metrics()
	if m.Inputs != 6 {
		t.Errorf("metrics inputs = %d, want 6", m.Inputs)
	}
	if m.ByMethod[models.MethodRuleBased] != 6 {
		t.Errorf("rule-based count = %d, want 6", m.ByMethod[models.MethodRuleBased])
	}
}

func TestFailedOperationEntersErrorRecovery(t *testing.T) {
	a, proc, _ := newTestAssistant(t)
	ctx := context.Background()

	a.ProcessUserInput(ctx, sampleEmail)
	proc.extractErr = errors.New("model unavailable")

	resp := a.ProcessUserInput(ctx, "what are the key details?")
	if a.State() != models.StateErrorRecovery {
		t.Fatalf("state = %s, want %s", a.State(), models.StateErrorRecovery)
	}
	if !strings.Contains(resp, "Sorry") {
		t.Errorf("error response = %q", resp)
	}

	// Recovery: the user can retry once the model is back.
	proc.extractErr = nil
	a.ProcessUserInput(ctx, "try the extraction again")
	if a.State() != models.StateInfoExtracted {
		t.Fatalf("after retry: state = %s, want %s", a.State(), models.StateInfoExtracted)
	}
	if a.Metrics().Failures != 1 {
		t.Errorf("failures = %d, want 1", a.Metrics().Failures)
	}
}

func TestNewEmailArchivesCurrentSession(t *testing.T) {
	a, _, _ := newTestAssistant(t)
	ctx := context.Background()

	a.ProcessUserInput(ctx, sampleEmail)
	a.ProcessUserInput(ctx, "draft a reply")

	second := "From: carol@example.com\nTo: bob@example.com\nSubject: Invoice\n\nPlease confirm receipt.\nCarol"
	a.ProcessUserInput(ctx, second)
	if a.State() != models.StateEmailLoaded {
		t.Fatalf("state = %s, want %s", a.State(), models.StateEmailLoaded)
	}

	sessions, err := a.archive.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("archived sessions = %d, want 1", len(sessions))
	}
	if sessions[0].Key != "email_1" || !strings.Contains(sessions[0].EmailContent, "Project update") {
		t.Errorf("archived wrong session: %+v", sessions[0])
	}
	if len(sessions[0].Drafts) != 1 {
		t.Errorf("archived drafts = %d, want 1", len(sessions[0].Drafts))
	}

	resp := a.ProcessUserInput(ctx, "show my session history")
	if !strings.Contains(resp, "email_1") {
		t.Errorf("history response = %q", resp)
	}

	resp = a.ProcessUserInput(ctx, "show email 1")
	if !strings.Contains(resp, "Project update") {
		t.Errorf("session detail = %q", resp)
	}
}

func TestDeclineOfferStaysPut(t *testing.T) {
	a, _, _ := newTestAssistant(t)
	ctx := context.Background()

	a.ProcessUserInput(ctx, sampleEmail)
	resp := a.ProcessUserInput(ctx, "no thanks")
	if a.State() != models.StateEmailLoaded {
		t.Fatalf("state = %s, want %s", a.State(), models.StateEmailLoaded)
	}
	if !strings.Contains(resp, "No problem") {
		t.Errorf("decline response = %q", resp)
	}
}

func TestSaveWithoutDraft(t *testing.T) {
	a, _, _ := newTestAssistant(t)
	ctx := context.Background()

	a.ProcessUserInput(ctx, sampleEmail)
	a.ProcessUserInput(ctx, "save the draft")
	if a.State() != models.StateErrorRecovery {
		t.Fatalf("state = %s, want %s", a.State(), models.StateErrorRecovery)
	}
}

func TestCloudSaveWithoutBucket(t *testing.T) {
	a, _, _ := newTestAssistant(t)
	ctx := context.Background()

	a.ProcessUserInput(ctx, sampleEmail)
	a.ProcessUserInput(ctx, "draft a reply")
	a.ProcessUserInput(ctx, "save it to the cloud")
	if a.State() != models.StateReadyToSave {
		t.Fatalf("state = %s, want %s", a.State(), models.StateReadyToSave)
	}

	resp := a.ProcessUserInput(ctx, "yes")
	if a.State() != models.StateErrorRecovery {
		t.Fatalf("state = %s, want %s", a.State(), models.StateErrorRecovery)
	}
	if !strings.Contains(resp, "bucket") {
		t.Errorf("error response = %q", resp)
	}
}

func TestCloseArchivesActiveSession(t *testing.T) {
	archive := store.NewInMemoryStore()
	a := New(Config{
		Processor:  &fakeProcessor{},
		Archive:    archive,
		LocalSaver: drafts.NewLocalSaver(t.TempDir()),
	})

	a.ProcessUserInput(context.Background(), sampleEmail)
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	sessions, err := archive.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Key != "email_1" {
		t.Fatalf("archived sessions = %+v, want one with key email_1", sessions)
	}
}
