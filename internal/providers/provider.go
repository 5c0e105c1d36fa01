package providers

import (
	"context"
	"net/http"
)

// Request is one completion call.
type Request struct {
	Model     string
	Prompt    string
	MaxTokens int
}

// Response holds the extracted text of a completion.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Completer sends a prompt to a language model and returns its text.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Doer is the subset of *http.Client used by providers.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
