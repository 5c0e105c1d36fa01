// Package tui asks the user for a commit type and an optional scope, either
// through a bubbletea menu or a plain numbered line prompt.
package tui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

var (
	// ErrCancelled is returned when the user quits the menu.
	ErrCancelled = errors.New("selection cancelled")
	// ErrInvalidChoice is returned for a menu number outside the list.
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrNoTypes is returned when there is nothing to choose from.
	ErrNoTypes = errors.New("no commit types configured")
)

// Choice is the user's answer.
type Choice struct {
	Type  string
	Scope string
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r any) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Ask picks the bubbletea menu when in is a terminal and the line prompt
// otherwise. The menu is drawn on out.
func Ask(in io.Reader, out io.Writer, types []string) (Choice, error) {
	if IsTerminal(in) {
		return RunMenu(in, out, types)
	}
	return PromptLine(in, out, types)
}

// PromptLine prints a numbered menu, reads a number and then a scope line.
func PromptLine(in io.Reader, out io.Writer, types []string) (Choice, error) {
	if len(types) == 0 {
		return Choice{}, ErrNoTypes
	}

	fmt.Fprintln(out, "Select commit type:")
	for i, t := range types {
		fmt.Fprintf(out, "  %d) %s\n", i+1, t)
	}
	fmt.Fprintf(out, "Enter number [1-%d]: ", len(types))

	r := bufio.NewReader(in)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Choice{}, fmt.Errorf("reading choice: %w", err)
	}
	answer := strings.TrimSpace(line)
	if answer == "" && errors.Is(err, io.EOF) {
		return Choice{}, ErrCancelled
	}
	n, convErr := strconv.Atoi(answer)
	if convErr != nil || n < 1 || n > len(types) {
		return Choice{}, fmt.Errorf("%w: %q (expected 1-%d)", ErrInvalidChoice, answer, len(types))
	}

	fmt.Fprint(out, "Scope (optional, enter to skip): ")
	scope, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Choice{}, fmt.Errorf("reading scope: %w", err)
	}
	return Choice{Type: types[n-1], Scope: strings.TrimSpace(scope)}, nil
}
