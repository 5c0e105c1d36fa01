package commitmsg

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var headerRE = regexp.MustCompile(`^([a-z][a-z0-9-]*)(?:\(([^()\s][^()]*)\))?(!)?: (\S.*)$`)

// Header is the parsed first line of a Conventional Commits message.
type Header struct {
	Type     string
	Scope    string
	Breaking bool
	Subject  string
}

// ParseHeader parses the first line of msg.
func ParseHeader(msg string) (Header, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	line = strings.TrimRight(line, "\r")
	m := headerRE.FindStringSubmatch(line)
	if m == nil {
		return Header{}, fmt.Errorf("header %q is not in type(scope): subject form", line)
	}
	return Header{Type: m[1], Scope: m[2], Breaking: m[3] == "!", Subject: m[4]}, nil
}

// CheckHeader parses msg and checks its type against allowedTypes. An empty
// allowedTypes accepts any type.
func CheckHeader(msg string, allowedTypes []string) (Header, error) {
	h, err := ParseHeader(msg)
	if err != nil {
		return h, err
	}
	if len(allowedTypes) > 0 && !slices.Contains(allowedTypes, h.Type) {
		return h, fmt.Errorf("type %q is not one of %s", h.Type, strings.Join(allowedTypes, ", "))
	}
	return h, nil
}
