package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/commitgen/internal/commitmsg"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Writer writes a generation result in a specific format.
type Writer interface {
	Write(w io.Writer, res commitmsg.Result) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case FormatText, "":
		return &TextWriter{}, nil
	case FormatJSON:
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// TextWriter prints the message and nothing else.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, res commitmsg.Result) error {
	ew := &errWriter{w: w}
	ew.println(res.Message)
	return ew.err
}

// JSONWriter prints the result as an indented JSON object.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, res commitmsg.Result) error {
	return Encode(w, FormatJSON, res)
}

// Encode writes v as indented JSON or YAML.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		ew := &errWriter{w: w}
		ew.println(string(data))
		return ew.err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteMessageFile writes msg to path. Comment lines already in the file,
// such as the template git puts in COMMIT_EDITMSG, are kept below the message.
func WriteMessageFile(path, msg string) error {
	var comments []string
	f, err := os.Open(path)
	switch {
	case err == nil:
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if line := sc.Text(); strings.HasPrefix(line, "#") {
				comments = append(comments, line)
			}
		}
		f.Close()
		if err := sc.Err(); err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("opening %s: %w", path, err)
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(msg, "\n"))
	b.WriteString("\n")
	if len(comments) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(comments, "\n"))
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
