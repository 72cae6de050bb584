package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

type mockClient struct {
	response string
	err      error
	prompts  []string
	system   string
	history  []models.ConversationMessage
}

func (m *mockClient) SendPrompt(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockClient) GenerateWithMessages(_ context.Context, system string, history []models.ConversationMessage) (string, error) {
	m.system = system
	m.history = history
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestLoadTextRawContent(t *testing.T) {
	p := New(&mockClient{})
	raw := "From: a@b.com\nSubject: hi\n\nHello there"
	got, err := p.LoadText(raw)
	if err != nil {
		t.Fatalf("LoadText failed: %v", err)
	}
	if got != raw {
		t.Errorf("raw content altered: %q", got)
	}
}

func TestLoadTextFromFile(t *testing.T) {
	p := New(&mockClient{})
	path := filepath.Join(t.TempDir(), "mail.txt")
	content := "From: a@b.com\nSubject: hi\n\nHello there"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := p.LoadText(path)
	if err != nil {
		t.Fatalf("LoadText failed: %v", err)
	}
	if got != content {
		t.Errorf("file content = %q, want %q", got, content)
	}
}

func TestLoadTextEmptyInput(t *testing.T) {
	p := New(&mockClient{})
	if _, err := p.LoadText("  "); !errors.Is(err, models.ErrNoEmailLoaded) {
		t.Errorf("error = %v, want ErrNoEmailLoaded", err)
	}
}

func TestExtractKeyInfoParsesFencedJSON(t *testing.T) {
	client := &mockClient{response: "```json\n{\"subject\": \"Lunch\", \"sender name\": \"Alice\"}\n```"}
	p := New(client)

	info, err := p.ExtractKeyInfo(context.Background(), "some email")
	if err != nil {
		t.Fatalf("ExtractKeyInfo failed: %v", err)
	}
	if info["subject"] != "Lunch" || info["sender name"] != "Alice" {
		t.Errorf("info = %+v", info)
	}
	if len(client.prompts) != 1 || !strings.Contains(client.prompts[0], "some email") {
		t.Errorf("email content missing from prompt")
	}
}

func TestExtractKeyInfoKeepsNonJSONAsSummary(t *testing.T) {
	client := &mockClient{response: "The email is from Alice about lunch."}
	p := New(client)

	info, err := p.ExtractKeyInfo(context.Background(), "some email")
	if err != nil {
		t.Fatalf("ExtractKeyInfo failed: %v", err)
	}
	if info["summary"] != "The email is from Alice about lunch." {
		t.Errorf("info = %+v", info)
	}
}

func TestExtractKeyInfoRequiresEmail(t *testing.T) {
	p := New(&mockClient{})
	if _, err := p.ExtractKeyInfo(context.Background(), " "); !errors.Is(err, models.ErrNoEmailLoaded) {
		t.Errorf("error = %v, want ErrNoEmailLoaded", err)
	}
}

func TestDraftReplyStripsPreamble(t *testing.T) {
	client := &mockClient{response: "Sure, here's a draft reply:\nDear Alice,\n\nThanks for your note.\n\nBest,\nBob"}
	p := New(client)

	draft, err := p.DraftReply(context.Background(), "some email", "")
	if err != nil {
		t.Fatalf("DraftReply failed: %v", err)
	}
	if strings.HasPrefix(draft, "Sure") {
		t.Errorf("preamble not stripped: %q", draft)
	}
	if !strings.HasPrefix(draft, "Dear Alice,") {
		t.Errorf("draft body lost: %q", draft)
	}
}

func TestDraftReplyToneGuidance(t *testing.T) {
	client := &mockClient{response: "Dear Alice,\nThanks."}
	p := New(client)

	if _, err := p.DraftReply(context.Background(), "some email", "professional"); err != nil {
		t.Fatalf("DraftReply failed: %v", err)
	}
	prompt := client.prompts[0]
	if !strings.Contains(prompt, "in a formal tone") {
		t.Errorf("canonical tone missing from prompt: %q", prompt)
	}
}

func TestDraftReplyIgnoresUnknownTone(t *testing.T) {
	client := &mockClient{response: "Dear Alice,\nThanks."}
	p := New(client)

	if _, err := p.DraftReply(context.Background(), "some email", "sarcastic"); err != nil {
		t.Fatalf("DraftReply failed: %v", err)
	}
	if strings.Contains(client.prompts[0], "sarcastic") {
		t.Errorf("unknown tone leaked into prompt")
	}
}

func TestRefineRequiresDraft(t *testing.T) {
	p := New(&mockClient{})
	if _, err := p.Refine(context.Background(), "", "make it shorter", "email"); !errors.Is(err, models.ErrNoDraftAvailable) {
		t.Errorf("error = %v, want ErrNoDraftAvailable", err)
	}
}

func TestRefineReplaysExchange(t *testing.T) {
	client := &mockClient{response: "Dear Alice,\nShorter now."}
	p := New(client)

	got, err := p.Refine(context.Background(), "Dear Alice,\nLong draft.", "make it shorter", "original email text")
	if err != nil {
		t.Fatalf("Refine failed: %v", err)
	}
	if got != "Dear Alice,\nShorter now." {
		t.Errorf("refined draft = %q", got)
	}
	if client.system == "" {
		t.Error("system prompt not set")
	}
	if len(client.history) != 3 {
		t.Fatalf("history length = %d, want 3", len(client.history))
	}
	if !strings.Contains(client.history[0].Content, "original email text") {
		t.Errorf("email context missing: %q", client.history[0].Content)
	}
	if client.history[1].Role != "assistant" || !strings.Contains(client.history[1].Content, "Long draft.") {
		t.Errorf("draft turn = %+v", client.history[1])
	}
	if !strings.Contains(client.history[2].Content, "make it shorter") {
		t.Errorf("instruction turn = %+v", client.history[2])
	}
}

func TestRefineWithoutEmailContext(t *testing.T) {
	client := &mockClient{response: "Refined."}
	p := New(client)

	if _, err := p.Refine(context.Background(), "Some draft.", "", ""); err != nil {
		t.Fatalf("Refine failed: %v", err)
	}
	if len(client.history) != 2 {
		t.Fatalf("history length = %d, want 2", len(client.history))
	}
}

func TestGenerationErrorsPropagate(t *testing.T) {
	p := New(&mockClient{err: errors.New("rate limited")})
	if _, err := p.DraftReply(context.Background(), "some email", ""); err == nil {
		t.Fatalf("expected error from failed generation")
	}
}
