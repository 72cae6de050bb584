package intent

import (
	"regexp"
	"strings"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// extractor holds the compiled regex sets for every parameter extractor. The
// extractors run on every input regardless of which intent wins, and each
// returns its zero value on no match.
type extractor struct {
	tones        []tonePattern
	sessionRefs  []*regexp.Regexp
	refinements  []*regexp.Regexp
	cloud        []*regexp.Regexp
	savePaths    []savePathPattern
	loadPaths    []*regexp.Regexp
	emailIntros  []*regexp.Regexp
	emailMarkers []*regexp.Regexp
	headerEmail  *regexp.Regexp
	headerSubj   *regexp.Regexp
}

type tonePattern struct {
	tone string
	re   *regexp.Regexp
}

type savePathPattern struct {
	re  *regexp.Regexp
	dir bool // pattern captures a directory, not a file
}

// cloudTerms are capture values that name a storage target, not a path.
var cloudTerms = map[string]bool{"cloud": true, "s3": true, "aws": true, "bucket": true}

func newExtractor() *extractor {
	return &extractor{
		// Ordered: the first matching tone wins.
		tones: []tonePattern{
			{"formal", regexp.MustCompile(`formal|professional`)},
			{"casual", regexp.MustCompile(`casual|informal|friendly`)},
			{"concise", regexp.MustCompile(`concise|brief|short`)},
			{"polite", regexp.MustCompile(`polite|courteous`)},
		},
		sessionRefs: compileAll([]string{
			`(?i)(?:email|session)\s+#?(\d+)`,
			`#(\d+)`,
		}),
		refinements: compileAll([]string{
			`(?i)make it (?:more|less) \w+`,
			`(?i)add \w+`,
			`(?i)include \w+`,
			`(?i)change \w+`,
			`(?i)remove \w+`,
		}),
		cloud: compileAll([]string{
			`save.*cloud`,
			`save.*s3`,
			`cloud.*storage`,
			`upload.*draft`,
			`save.*aws`,
			`to.*cloud`,
			`in.*cloud`,
		}),
		savePaths: []savePathPattern{
			{re: regexp.MustCompile(`(?i)save\s+to\s+(\S+\.(?:txt|doc|docx|pdf|eml))`)},
			{re: regexp.MustCompile(`(?i)save\s+as\s+(\S+)`)},
			{re: regexp.MustCompile(`(?i)filepath?\s*:\s*(\S+)`)},
			{re: regexp.MustCompile(`(?i)path\s*:\s*(\S+)`)},
			{re: regexp.MustCompile(`(?i)save\s+to\s+([/\\][\w/\\.-]+)`)},
			{re: regexp.MustCompile(`(?i)save\s+to\s+([\w.-]+[/\\][\w/\\.-]+)`)},
			{re: regexp.MustCompile(`(?i)save.*in\s+dir(?:ectory)?\s+(\S+)`), dir: true},
			{re: regexp.MustCompile(`(?i)save.*to\s+dir(?:ectory)?\s+(\S+)`), dir: true},
		},
		loadPaths: compileAll([]string{
			`(?i)(?:load|process|analyze)\s+(\S+\.(?:docx|pdf|txt|eml|doc))`,
			`(?i)(\S+\.(?:docx|pdf|txt|eml|doc))(?:\s|$)`,
			`(?i)(?:help with|work with|process|load|analyze)\s+['"]([^'"]+)['"]`,
			`(?i)(?:here.s|here is)\s+(?:a\s+)?(?:file|document):\s*(\S+\.(?:docx|pdf|txt|eml|doc))`,
			`(?i)(?:file|document)\s+(?:is|at|located at):\s*(\S+)`,
		}),
		emailIntros: compileAll([]string{
			`(?is)(?:process|analyze|help with|here.s|here is)\s+(?:this\s+)?(?:email|message):\s*(.*)`,
			`(?is)(?:i have|got)\s+(?:an\s+)?(?:email|message):\s*(.*)`,
			`(?is)(?:can you help with|work on)\s+(?:this\s+)?(?:email|message):\s*(.*)`,
			`(?is)^process:\s*(.*)`,
		}),
		emailMarkers: compileAll([]string{
			`(?is)from:.*to:.*subject:`,
			`(?is)subject:.*from:`,
			`(?is)dear.*sincerely|regards|best`,
		}),
		headerEmail: regexp.MustCompile(`(?i)from:\s*\S+@\S+`),
		headerSubj:  regexp.MustCompile(`(?i)subject:`),
	}
}

// Tone returns the requested tone, or "". The input must be lowercased.
func (e *extractor) Tone(input string) string {
	for _, t := range e.tones {
		if t.re.MatchString(input) {
			return t.tone
		}
	}
	return ""
}

// SessionID returns the "email_N" key for a referenced session, or "".
func (e *extractor) SessionID(input string) string {
	for _, re := range e.sessionRefs {
		if m := re.FindStringSubmatch(input); m != nil {
			return "email_" + m[1]
		}
	}
	return ""
}

// RefinementInstructions collects the specific change requests found in the
// input ("make it more formal", "add availability", ...), or "".
func (e *extractor) RefinementInstructions(input string) string {
	var instructions []string
	for _, re := range e.refinements {
		instructions = append(instructions, re.FindAllString(input, -1)...)
	}
	return strings.Join(instructions, " ")
}

// Cloud reports whether the user asked to save to cloud/S3 storage. The
// input must be lowercased.
func (e *extractor) Cloud(input string) bool {
	for _, re := range e.cloud {
		if re.MatchString(input) {
			return true
		}
	}
	return false
}

// Filepath returns an explicit save target mentioned in the input, or "".
// Cloud storage terms are not paths. Directory captures are normalized to a
// trailing slash.
func (e *extractor) Filepath(input string) string {
	for _, sp := range e.savePaths {
		m := sp.re.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		path := strings.Trim(strings.TrimSpace(m[1]), `"'`)
		if cloudTerms[strings.ToLower(path)] {
			continue
		}
		if sp.dir && !strings.HasSuffix(path, "/") && !strings.ContainsAny(path, `/\`) {
			path += "/"
		}
		return path
	}
	return ""
}

// EmailContent extracts email content or a file path carried in the input.
// Heuristics are tried in order: file-path tokens, then introductory phrases
// followed by header-bearing or substantial content, then whole-input header
// or prose markers. The first successful heuristic wins; there is no merging.
func (e *extractor) EmailContent(input string) string {
	if path := e.loadFilePath(input); path != "" {
		return path
	}

	for _, re := range e.emailIntros {
		m := re.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		content := strings.TrimSpace(m[1])
		if e.headerEmail.MatchString(content) || e.headerSubj.MatchString(content) || len(content) > 50 {
			return content
		}
	}

	for _, re := range e.emailMarkers {
		if re.MatchString(input) {
			return strings.TrimSpace(input)
		}
	}

	return ""
}

// loadFilePath returns a file path referenced for loading, or "". Email
// header tokens are never paths.
func (e *extractor) loadFilePath(input string) string {
	for _, re := range e.loadPaths {
		m := re.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		path := strings.Trim(strings.TrimSpace(m[1]), `"'`)
		switch strings.ToLower(path) {
		case "from:", "to:", "subject:":
			continue
		}
		return path
	}
	return ""
}

// parameters runs every extractor against the input and assembles the result.
// The normalized form is the lowercased, trimmed input; refinement
// instructions and session references keep the original casing.
func (e *extractor) parameters(input, normalized string) models.Parameters {
	return models.Parameters{
		EmailContent:           e.EmailContent(input),
		Tone:                   e.Tone(normalized),
		RefinementInstructions: e.RefinementInstructions(input),
		Cloud:                  e.Cloud(normalized),
		Filepath:               e.Filepath(normalized),
		SessionID:              e.SessionID(input),
	}
}
