// Package intent implements the hybrid intent classifier: a deterministic
// rule scorer over a closed pattern library, per-state context adjustments,
// and an escalation gate that defers ambiguous inputs to an LLM collaborator.
package intent

import (
	"regexp"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// rule binds one intent to its ordered pattern set and base confidence. The
// base confidence is per intent, not per pattern; a single pattern hit is
// sufficient and match count does not affect the score.
type rule struct {
	intent   models.Intent
	patterns []*regexp.Regexp
	base     float64
}

// Ruleset is the immutable pattern library. Rules are held in registration
// order and the scorer iterates them in that order, which makes tie-breaking
// deterministic. Construct once and share freely; it is read-only after
// construction.
type Ruleset struct {
	rules []rule
}

func compileAll(exprs []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		compiled = append(compiled, regexp.MustCompile(expr))
	}
	return compiled
}

// NewRuleset builds the default pattern library. Inputs are matched after
// lowercasing and trimming, so patterns are written in lowercase.
func NewRuleset() *Ruleset {
	return &Ruleset{rules: []rule{
		{
			intent: models.IntentLoadEmail,
			base:   0.9,
			patterns: compileAll([]string{
				`here.s an email`,
				`here is an email`,
				`process this email`,
				`i have an email`,
				`can you help with this email`,
				`process.*email`,
				`load.*email`,
				`analyze.*email`,
				`^process:\s*`,
				`from:.*to:.*subject:`,
				`subject:.*from:`,
				`from:.*\n.*to:.*\n.*subject:`,
				`from:.*\n.*subject:.*\n.*to:`,
				`to:.*\n.*from:.*\n.*subject:`,
				`dear.*sincerely|regards|best`,
				`^from:\s*\S+@\S+`,
				`^to:\s*\S+@\S+`,
				`^subject:`,
				`process.*file`,
				`load.*file`,
				`analyze.*file`,
				`help with.*file`,
				`here.s.*file`,
				`(?:process|load|analyze|open|read).*\.(pdf|txt|doc|docx|eml)`,
			}),
		},
		{
			intent: models.IntentDraftReply,
			base:   0.85,
			patterns: compileAll([]string{
				`draft.*reply`,
				`write.*response`,
				`help.*respond`,
				`need to reply`,
				`create.*reply`,
				`compose.*response`,
				`draft.*email`,
				`create.*draft`,
				`try.*draft`,
				`draft.*again`,
				`try.*drafting`,
				`retry.*draft`,
				`^try again[!.]*$`,
				`^retry[!.]*$`,
				`one more try`,
				`give it another try`,
				`help me draft`,
				`please draft`,
				`respond.*professionally`,
				`professional.*response`,
				`acknowledging.*response`,
				`draft.*acknowledging`,
				`write.*acknowledging`,
			}),
		},
		{
			intent: models.IntentRefineDraft,
			base:   0.8,
			patterns: compileAll([]string{
				`make it more (formal|casual|professional|friendly|polite|concise)`,
				`make it (formal|casual|professional|friendly|polite|concise)`,
				`change.*tone`,
				`revise.*draft`,
				`refine.*draft`,
				`refine\s+\d+`,
				`improve.*reply`,
				`make it (shorter|longer|more concise)`,
				`add.*meeting`,
				`include.*availability`,
				`more (professional|formal)`,
				`be more (polite|formal|casual|professional)`,
				`add.*acknowledgment`,
				`offer.*schedule`,
				`schedule.*meeting`,
				`add.*satisfaction`,
				`add.*commitments`,
				`offer.*additional.*support`,
				`add.*support`,
				`include.*support`,
				`add.*(?:specific.*)?details?`,
				`include.*(?:specific.*)?details?`,
				`add.*timeline`,
				`include.*timeline`,
				`add.*next.*steps`,
				`include.*next.*steps`,
				`add.*action.*items`,
				`include.*action.*items`,
				`make.*more.*specific`,
				`be.*more.*specific`,
				`expand.*on`,
				`elaborate.*on`,
				`add.*contact.*info`,
				`include.*contact.*info`,
				`add.*phone.*number`,
				`add.*signature`,
				`include.*signature`,
				`add.*request`,
				`add.*question`,
				`that.s too (formal|casual|professional|friendly|polite|concise)`,
				`too (formal|casual|professional|friendly|polite|concise)`,
				`make it sound more (enthusiastic|friendly|warm|personal|professional)`,
				`add more (?:details|information) about`,
				`include more (?:details|information) about`,
				`remove.*jargon`,
				`remove.*technical`,
				`take out.*(?:jargon|technical)`,
				`less.*(?:jargon|technical)`,
				`simpler.*language`,
				`plain.*language`,
				`make.*simpler`,
				`make.*clearer`,
			}),
		},
		{
			// Highest base so "save the email draft" style inputs beat LOAD_EMAIL.
			intent: models.IntentSaveDraft,
			base:   0.95,
			patterns: compileAll([]string{
				`^save$`,
				`save.*draft`,
				`save.*reply`,
				`export.*file`,
				`keep.*draft`,
				`save it`,
				`save this`,
				`save.*cloud`,
				`save.*s3`,
				`save.*aws`,
				`save.*locally`,
				`save to file`,
				`save in.*cloud`,
				`cloud.*storage`,
				`upload.*draft`,
				`upload.*cloud`,
				`save\s+to\s+.*\.(txt|doc|docx|pdf|eml)`,
				`save\s+as\s+.*\.(txt|doc|docx|pdf|eml)`,
				`filepath?\s*:\s*.*\.(txt|doc|docx|pdf|eml)`,
				`path\s*:\s*.*\.(txt|doc|docx|pdf|eml)`,
				`save\s+to\s+/[\w/.-]+`,
			}),
		},
		{
			intent: models.IntentExtractInfo,
			base:   0.8,
			patterns: compileAll([]string{
				`what are.*key details`,
				`show.*summary`,
				`extract.*information`,
				`who sent.*email`,
				`what.s.*about`,
				`key information`,
				`^summary$`,
				`show.*info`,
				`key.*details`,
				`what.*summary`,
				`try.*extract.*again`,
				`extract.*again`,
				`what was.*asking for`,
				`what did.*want`,
				`what was.*requesting`,
				`what does.*need`,
				`what is.*about`,
				`who is.*from`,
				`when.*need.*by`,
				`when.*deadline`,
				`when.*due`,
				`what.*deadline`,
				`remind me.*about`,
				`tell me.*about`,
				`what.*again`,
				`who.*again`,
				`when.*again`,
				`what.*subject`,
				`what.*sender`,
				`what.*from`,
			}),
		},
		{
			intent: models.IntentGeneralHelp,
			base:   0.9,
			patterns: compileAll([]string{
				`^help$`,
				`^what can you do`,
				`how does this work`,
				`what are your capabilities`,
				`how do i`,
				`explain`,
			}),
		},
		{
			// Context-dependent, so lower base; exact-phrase overrides in the
			// adjustment table raise these when the state expects an answer.
			intent: models.IntentContinueWorkflow,
			base:   0.7,
			patterns: compileAll([]string{
				`^yes[!.]*$`,
				`^ok[!.]*$`,
				`^okay[!.]*$`,
				`^continue[!.]*$`,
				`^proceed[!.]*$`,
				`^next[!.]*$`,
				`^go ahead[!.]*$`,
				`sounds good`,
				`that works`,
				`please do`,
				`go for it`,
				`^sure[!.]*$`,
				`^do it[!.]*$`,
			}),
		},
		{
			intent: models.IntentDeclineOffer,
			base:   0.7,
			patterns: compileAll([]string{
				`^no[!.]*$`,
				`^nope[!.]*$`,
				`^not now[!.]*$`,
				`^not yet[!.]*$`,
				`^skip[!.]*$`,
				`^skip (?:that|it)[!.]*$`,
				`^no thanks[!.]*$`,
				`^no thank you[!.]*$`,
				`not right now`,
				`maybe later`,
				`not interested`,
				`^pass[!.]*$`,
			}),
		},
		{
			intent: models.IntentViewSessionHistory,
			base:   0.85,
			patterns: compileAll([]string{
				`show.*history`,
				`view.*history`,
				`list.*emails`,
				`show.*sessions`,
				`view.*sessions`,
				`what.*emails.*processed`,
				`show.*previous.*emails`,
				`list.*previous.*emails`,
				`session.*history`,
				`email.*history`,
				`show.*all.*emails`,
				`view.*all.*emails`,
			}),
		},
		{
			intent: models.IntentViewSpecificSession,
			base:   0.9,
			patterns: compileAll([]string{
				`show.*email.*\d+`,
				`view.*email.*\d+`,
				`show.*session.*\d+`,
				`view.*session.*\d+`,
				`show.*draft.*from.*email.*\d+`,
				`view.*draft.*from.*email.*\d+`,
				`show.*info.*from.*email.*\d+`,
				`view.*info.*from.*email.*\d+`,
			}),
		},
	}}
}

// match tests the input against one rule and returns the expressions that hit.
// The input must already be lowercased and trimmed.
func (r rule) match(input string) []string {
	var hits []string
	for _, p := range r.patterns {
		if p.MatchString(input) {
			hits = append(hits, p.String())
		}
	}
	return hits
}

// BaseConfidence returns the registered base confidence for an intent, or 0
// if the intent has no patterns.
func (rs *Ruleset) BaseConfidence(intent models.Intent) float64 {
	for _, r := range rs.rules {
		if r.intent == intent {
			return r.base
		}
	}
	return 0
}

// Test reports whether any pattern registered for the intent matches the
// input (lowercased, trimmed).
func (rs *Ruleset) Test(intent models.Intent, input string) bool {
	for _, r := range rs.rules {
		if r.intent == intent {
			return len(r.match(input)) > 0
		}
	}
	return false
}
