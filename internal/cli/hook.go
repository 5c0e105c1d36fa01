package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookName        = "prepare-commit-msg"
	hookMarkerStart = "# >>> commitgen prepare-commit-msg hook >>>"
	hookMarkerEnd   = "# <<< commitgen prepare-commit-msg hook <<<"
)

func newHookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage the git prepare-commit-msg hook",
	}

	var hookType string
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install commitgen as a git prepare-commit-msg hook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(hookType) == "" {
				return fmt.Errorf("--type must not be empty")
			}
			hookPath, err := a.hookPath(cmd)
			if err != nil {
				return err
			}

			section := generateHookScript(hookType)
			existing, err := os.ReadFile(hookPath)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("reading hook file: %w", err)
			}

			var content string
			if len(existing) == 0 {
				content = "#!/bin/sh\n" + section
			} else {
				content = replaceHookSection(string(existing), section)
			}

			if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
				return fmt.Errorf("creating hooks directory: %w", err)
			}
			if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
				return fmt.Errorf("writing hook file: %w", err)
			}
			// WriteFile keeps the mode of an existing file.
			if err := os.Chmod(hookPath, 0o755); err != nil {
				return fmt.Errorf("making hook executable: %w", err)
			}

			a.success("Installed commitgen %s hook at %s", hookName, hookPath)
			return nil
		},
	}
	installCmd.Flags().StringVarP(&hookType, "type", "t", "feat", "Commit type passed to commitgen -t")

	uninstallCmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the commitgen section from the prepare-commit-msg hook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hookPath, err := a.hookPath(cmd)
			if err != nil {
				return err
			}

			existing, err := os.ReadFile(hookPath)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintf(a.stdout, "No %s hook found.\n", hookName)
					return nil
				}
				return fmt.Errorf("reading hook file: %w", err)
			}

			content := removeHookSection(string(existing))

			// Only a shebang left: the hook was ours alone.
			trimmed := strings.TrimSpace(content)
			if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
				if err := os.Remove(hookPath); err != nil {
					return fmt.Errorf("removing hook file: %w", err)
				}
				a.success("Removed commitgen %s hook at %s", hookName, hookPath)
				return nil
			}

			if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
				return fmt.Errorf("writing hook file: %w", err)
			}
			a.success("Removed commitgen section from %s", hookPath)
			return nil
		},
	}

	cmd.AddCommand(installCmd, uninstallCmd)
	return cmd
}

func (a *app) hookPath(cmd *cobra.Command) (string, error) {
	dir, err := a.git.HooksDir(cmd.Context())
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, hookName), nil
}

// generateHookScript returns the marked hook section. Git passes the message
// file as $1 and the message source as $2; the section only runs when there
// is no source, so -m, -F, merges and amends are left alone.
func generateHookScript(commitType string) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString("if [ -z \"$2\" ]; then\n")
	fmt.Fprintf(&b, "  commitgen -t %s --out \"$1\" >/dev/null ||\n", shellQuote(commitType))
	b.WriteString("    echo \"commitgen: could not generate a message, continuing\" >&2\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_')
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return existing
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + after
}
