// Package processor implements the email operations behind the assistant:
// loading email text from raw input or files, extracting key information,
// drafting replies, and refining drafts.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/RayKMAllen/email-assistant/internal/genai"
	"github.com/RayKMAllen/email-assistant/internal/models"
	"github.com/RayKMAllen/email-assistant/internal/tone"
)

const (
	extractPrompt = "Extract the key information: sender name, receiver name, sender contact details, receiver contact details, subject, summary (2-3 sentences), in JSON format, from the following email exchange:\n\n"
	draftPrompt   = "Draft a reply to the following email exchange%s:\n\n"
	refineSystem  = "You refine draft email replies. Respond with the refined draft only, no commentary."
)

// preambleLine matches the chatty lead-in models put before the actual
// content ("Sure, here's a draft reply:").
var preambleLine = regexp.MustCompile(`(?i)^(sure|certainly|of course|here('s| is)).*:\s*$`)

// Processor runs the LLM-backed email operations.
type Processor struct {
	client genai.ClientInterface
}

// New returns a Processor backed by client.
func New(client genai.ClientInterface) *Processor {
	return &Processor{client: client}
}

// LoadText resolves input to email text. If input names a readable file the
// file's text is returned (PDFs are extracted); otherwise input is treated
// as raw email content.
func (p *Processor) LoadText(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", models.ErrNoEmailLoaded
	}

	info, err := os.Stat(trimmed)
	if err != nil || info.IsDir() {
		return trimmed, nil
	}

	switch strings.ToLower(filepath.Ext(trimmed)) {
	case ".pdf":
		return readPDF(trimmed)
	default:
		data, err := os.ReadFile(trimmed)
		if err != nil {
			return "", fmt.Errorf("read email file %s: %w", trimmed, err)
		}
		return string(data), nil
	}
}

// ExtractKeyInfo asks the model for structured key information about the
// email exchange.
func (p *Processor) ExtractKeyInfo(ctx context.Context, emailContent string) (models.ExtractedInfo, error) {
	if strings.TrimSpace(emailContent) == "" {
		return nil, models.ErrNoEmailLoaded
	}
	raw, err := p.client.SendPrompt(ctx, extractPrompt+emailContent)
	if err != nil {
		return nil, fmt.Errorf("extract key info: %w", err)
	}

	var info models.ExtractedInfo
	if err := json.Unmarshal([]byte(stripFences(raw)), &info); err != nil {
		slog.Warn("Processor.ExtractKeyInfo: non-JSON response, keeping raw text", "error", err)
		return models.ExtractedInfo{"summary": strings.TrimSpace(raw)}, nil
	}
	return info, nil
}

// DraftReply generates a reply to the email exchange, optionally in the
// requested tone. Unknown tones are ignored rather than rejected.
func (p *Processor) DraftReply(ctx context.Context, emailContent, requestedTone string) (string, error) {
	if strings.TrimSpace(emailContent) == "" {
		return "", models.ErrNoEmailLoaded
	}
	toneClause := ""
	guide := ""
	if canonical, ok := tone.Canonical(requestedTone); ok {
		toneClause = fmt.Sprintf(" in a %s tone", canonical)
		guide = "\n\n" + tone.Guide(canonical)
	}
	raw, err := p.client.SendPrompt(ctx, fmt.Sprintf(draftPrompt, toneClause)+emailContent+guide)
	if err != nil {
		return "", fmt.Errorf("draft reply: %w", err)
	}
	return stripPreamble(raw), nil
}

// Refine rewrites the current draft according to instructions. The exchange
// is replayed as conversation turns so the model sees the draft as its own
// prior output; an empty email context refines the draft on its own terms.
func (p *Processor) Refine(ctx context.Context, draft, instructions, emailContent string) (string, error) {
	if strings.TrimSpace(draft) == "" {
		return "", models.ErrNoDraftAvailable
	}
	request := "Refine the draft reply."
	if instructions != "" {
		request = fmt.Sprintf("Refine the draft reply as follows: %s", instructions)
	}

	var history []models.ConversationMessage
	if emailContent != "" {
		history = append(history, models.ConversationMessage{
			Role:    "user",
			Content: fmt.Sprintf(draftPrompt, "") + emailContent,
		})
	}
	history = append(history,
		models.ConversationMessage{Role: "assistant", Content: draft},
		models.ConversationMessage{Role: "user", Content: request},
	)

	raw, err := p.client.GenerateWithMessages(ctx, refineSystem, history)
	if err != nil {
		return "", fmt.Errorf("refine draft: %w", err)
	}
	return stripPreamble(raw), nil
}

// readPDF extracts the plain text of a PDF file.
func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", path, err)
	}
	text, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", path, err)
	}
	return string(text), nil
}

// stripFences removes a markdown code fence wrapping the response, if any.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// stripPreamble drops a chatty lead-in line so the draft starts with the
// reply itself.
func stripPreamble(raw string) string {
	cleaned := strings.TrimSpace(raw)
	lines := strings.SplitN(cleaned, "\n", 2)
	if len(lines) == 2 && preambleLine.MatchString(strings.TrimSpace(lines[0])) {
		return strings.TrimSpace(lines[1])
	}
	return cleaned
}
