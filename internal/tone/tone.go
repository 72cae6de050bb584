// Package tone defines the closed set of reply tones the assistant accepts
// and the prompt guidance attached to each.
package tone

import "strings"

// Canonical tone tags.
const (
	Formal  = "formal"
	Casual  = "casual"
	Concise = "concise"
	Polite  = "polite"
)

// AllTags is the closed set of accepted tone tags.
var AllTags = map[string]bool{
	Formal:  true,
	Casual:  true,
	Concise: true,
	Polite:  true,
}

// synonyms maps common phrasings onto canonical tags.
var synonyms = map[string]string{
	"professional": Formal,
	"businesslike": Formal,
	"informal":     Casual,
	"friendly":     Casual,
	"relaxed":      Casual,
	"brief":        Concise,
	"short":        Concise,
	"courteous":    Polite,
}

// guides describe, per tag, how the reply should read.
var guides = map[string]string{
	Formal:  "Use a formal, professional register with complete sentences and no contractions.",
	Casual:  "Use a relaxed, friendly register as if writing to a colleague you know well.",
	Concise: "Keep the reply short and to the point, a few sentences at most.",
	Polite:  "Be warm and courteous throughout, and thank the sender where appropriate.",
}

// Canonical maps the input to its canonical tone tag. Unknown tones return
// ("", false).
func Canonical(input string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(input))
	if AllTags[t] {
		return t, true
	}
	if c, ok := synonyms[t]; ok {
		return c, true
	}
	return "", false
}

// Guide returns the prompt guidance for a tone, or "" for unknown tones.
func Guide(input string) string {
	c, ok := Canonical(input)
	if !ok {
		return ""
	}
	return guides[c]
}

// Tags returns the canonical tags in stable order.
func Tags() []string {
	return []string{Formal, Casual, Concise, Polite}
}
