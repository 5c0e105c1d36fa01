package commitmsg

import (
	"fmt"
	"strings"
)

// PromptInput is everything that goes into one generation prompt.
type PromptInput struct {
	Type   string
	Scope  string
	Recent []string // recent commit messages, newest first
	Diff   string
}

const promptInstructions = `Rules:
- The first line must be "<type>(<scope>): <subject>", or "<type>: <subject>" when no scope is given.
- Keep the subject under 72 characters, in the imperative mood, without a trailing period.
- Add a body after a blank line only when the change needs explaining.
- Respond with the commit message only. No preamble, no markdown fences.`

// BuildPrompt renders the fixed generation template.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("Write a git commit message following the Conventional Commits specification.\n\n")
	fmt.Fprintf(&b, "Commit type: %s\n", in.Type)
	if scope := strings.TrimSpace(in.Scope); scope != "" {
		fmt.Fprintf(&b, "Scope: %s\n", scope)
	}

	if len(in.Recent) > 0 {
		b.WriteString("\nRecent commits in this repository, for style reference:\n")
		for _, msg := range in.Recent {
			b.WriteString("---\n")
			b.WriteString(strings.TrimSpace(msg))
			b.WriteString("\n")
		}
		b.WriteString("---\n")
	}

	b.WriteString("\n--- BEGIN DIFF ---\n")
	b.WriteString(in.Diff)
	if !strings.HasSuffix(in.Diff, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("--- END DIFF ---\n\n")
	b.WriteString(promptInstructions)
	b.WriteString("\n")

	return b.String()
}
