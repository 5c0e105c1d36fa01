package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the public Anthropic API.
	DefaultBaseURL      = "https://api.anthropic.com"
	anthropicAPIVersion = "2023-06-01"
	messagesPath        = "/v1/messages"
	defaultMaxTokens    = 300
)

// Anthropic implements Completer for the Anthropic messages API.
type Anthropic struct {
	apiKey  string
	baseURL string
	client  Doer
}

// NewAnthropic creates a client for the messages endpoint under baseURL.
// A nil client gets an *http.Client with a 120s timeout.
func NewAnthropic(apiKey, baseURL string, client Doer) *Anthropic {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &Anthropic{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

// Complete posts a single user message and returns content[0].text of the
// reply. A 2xx reply without that field yields empty text and no error.
func (a *Anthropic) Complete(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	payload, err := json.Marshal(anthropicRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.Prompt},
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return Response{}, newAPIError(httpResp.StatusCode, body)
	}

	return parseResponse(body), nil
}

func parseResponse(body []byte) Response {
	res := gjson.GetManyBytes(body, "content.0.text", "usage.input_tokens", "usage.output_tokens")
	return Response{
		Text:         res[0].String(),
		InputTokens:  int(res[1].Int()),
		OutputTokens: int(res[2].Int()),
	}
}

func newAPIError(status int, body []byte) *APIError {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{
		StatusCode: status,
		Type:       gjson.GetBytes(body, "error.type").String(),
		Message:    msg,
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
