package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrEmptyDiff is returned when nothing is staged.
var ErrEmptyDiff = errors.New("no staged changes (use git add first)")

// Client is the version-control surface the generator needs.
type Client interface {
	StagedDiff(ctx context.Context) (string, error)
	RecentCommits(ctx context.Context, n int) ([]string, error)
	HooksDir(ctx context.Context) (string, error)
}

// Git implements Client by running the git binary.
type Git struct {
	// Dir is the working directory for git. Empty means the process cwd.
	Dir string
}

// StagedDiff returns the diff of index vs HEAD using the minimal algorithm.
// A whitespace-only diff yields ErrEmptyDiff.
func (g Git) StagedDiff(ctx context.Context) (string, error) {
	diff, err := g.output(ctx, "diff", "--cached", "--diff-algorithm=minimal")
	if err != nil {
		return "", fmt.Errorf("git diff --cached: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		return "", ErrEmptyDiff
	}
	return diff, nil
}

// RecentCommits returns the full messages of the last n commits, newest first.
// A repository without commits has no history and is not an error.
func (g Git) RecentCommits(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	if _, err := g.output(ctx, "rev-parse", "--verify", "--quiet", "HEAD"); err != nil {
		return nil, nil
	}
	out, err := g.output(ctx, "log", "-n", fmt.Sprint(n), "--format=%B%x00")
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	return splitMessages(out), nil
}

// HooksDir returns the absolute path of the repository hooks directory.
func (g Git) HooksDir(ctx context.Context) (string, error) {
	out, err := g.output(ctx, "rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	dir := strings.TrimSpace(out)
	if !filepath.IsAbs(dir) {
		top, err := g.output(ctx, "rev-parse", "--show-toplevel")
		if err != nil {
			return "", fmt.Errorf("git rev-parse --show-toplevel: %w", err)
		}
		dir = filepath.Join(strings.TrimSpace(top), dir)
	}
	return dir, nil
}

func (g Git) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

func splitMessages(out string) []string {
	var msgs []string
	for _, m := range strings.Split(out, "\x00") {
		if m = strings.TrimSpace(m); m != "" {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// DiffOptions controls how a diff is reduced before it goes into a prompt.
type DiffOptions struct {
	MaxDiffBytes int
	Exclude      []string
}

// truncationMarker is appended when a diff is cut at MaxDiffBytes.
const truncationMarker = "\n... (diff truncated at max_diff_bytes)\n"

// Filter drops file sections matching opts.Exclude, then truncates the result
// to opts.MaxDiffBytes. Excludes run first so they don't consume the budget.
func Filter(diff string, opts DiffOptions) string {
	if len(opts.Exclude) > 0 {
		diff = filterExcluded(diff, opts.Exclude)
	}
	if opts.MaxDiffBytes > 0 && len(diff) > opts.MaxDiffBytes {
		cut := opts.MaxDiffBytes
		for cut > 0 && !utf8.RuneStart(diff[cut]) {
			cut--
		}
		diff = diff[:cut] + truncationMarker
	}
	return diff
}

// ExtractFiles lists the files touched by a unified diff, in order.
func ExtractFiles(diff string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, section := range SplitSections(diff) {
		f := SectionPath(section)
		if f != "" && !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

func filterExcluded(diff string, excludes []string) string {
	var kept []string
	for _, section := range SplitSections(diff) {
		path := SectionPath(section)
		if path == "" || !MatchesAny(path, excludes) {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "")
}

// SplitSections splits a unified diff into per-file sections, each starting
// at its "diff --git" line. Concatenating the sections restores the input.
func SplitSections(diff string) []string {
	var sections []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

// SectionPath returns the post-image path of a diff section, falling back to
// the pre-image path for deletions.
func SectionPath(section string) string {
	var fromHeader string
	for _, line := range strings.Split(section, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ b/"):
			return strings.TrimPrefix(line, "+++ b/")
		case strings.HasPrefix(line, "--- a/"):
			fromHeader = strings.TrimPrefix(line, "--- a/")
		case strings.HasPrefix(line, "diff --git a/") && fromHeader == "":
			// Binary and mode-only sections have no ---/+++ lines.
			rest := strings.TrimPrefix(line, "diff --git a/")
			if i := strings.Index(rest, " b/"); i >= 0 {
				fromHeader = rest[i+len(" b/"):]
			}
		}
	}
	return fromHeader
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok && !strings.Contains(dir, "*") {
			if path == dir || strings.HasPrefix(path, dir+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}
