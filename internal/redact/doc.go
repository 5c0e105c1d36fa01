// Package redact removes secrets from the staged diff before it is sent to
// the language model.
//
// Detection uses regex heuristics for API keys, JWTs, private key headers,
// AWS credentials, bearer tokens, connection strings with inline passwords,
// and provider tokens (Anthropic, OpenAI, GitHub, Slack).
//
// Files whose paths match the configured redact_paths globs keep their diff
// header so the model still sees that they changed, but their hunks are
// replaced with a single [REDACTED] line.
package redact
