package redact

import (
	"regexp"
	"strings"

	"github.com/dshills/commitgen/internal/gitctx"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret shapes in diffs.
var secretPatterns = []*regexp.Regexp{
	// Anthropic API keys; listed before the generic sk- form
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	// OpenAI-style keys
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// AWS secret access keys
	regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key\s*[:=]\s*["']?[A-Za-z0-9/+=]{40}["']?`),
	// key/secret assignments with long opaque values
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?[A-Za-z0-9/+=_-]{20,}["']?`),
	// quoted password/token/credential assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["'][^"']{8,}["']`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN\s+([A-Z]+\s+)?PRIVATE KEY-----`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// Connection strings with inline credentials
	regexp.MustCompile(`[a-z][a-z0-9+.-]*://[^\s:/@]+:[^\s@/]+@`),
}

// Result describes what was removed from a diff.
type Result struct {
	Text    string
	Secrets int      // secret matches replaced
	Files   []string // files blanked by path policy
}

// Secrets replaces detected secrets in text with [REDACTED] and reports the
// number of replacements.
func Secrets(text string) (string, int) {
	var n int
	for _, pat := range secretPatterns {
		text = pat.ReplaceAllStringFunc(text, func(string) string {
			n++
			return placeholder
		})
	}
	return text, n
}

// Diff redacts a unified diff. File sections whose path matches redactPaths
// keep their header lines but lose every hunk; all other sections are
// scanned for secrets.
func Diff(diff string, redactPaths []string) Result {
	var res Result
	var b strings.Builder
	for _, section := range gitctx.SplitSections(diff) {
		path := gitctx.SectionPath(section)
		if path != "" && gitctx.MatchesAny(path, redactPaths) {
			b.WriteString(blankSection(section))
			res.Files = append(res.Files, path)
			continue
		}
		text, n := Secrets(section)
		res.Secrets += n
		b.WriteString(text)
	}
	res.Text = b.String()
	return res
}

func blankSection(section string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(section, "\n") {
		if strings.HasPrefix(line, "@@") {
			break
		}
		b.WriteString(line)
	}
	if s := b.String(); s != "" && !strings.HasSuffix(s, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(placeholder + " (file content redacted by path policy)\n")
	return b.String()
}
