// Package providers talks to the language-model API.
//
// [Anthropic] implements [Completer] against the messages endpoint: one POST
// with the model, a token budget, and a single user message. The generated
// text is read from content.0.text with gjson; a reply without it produces
// empty text rather than an error. Non-2xx replies become [APIError].
//
// There is no retry. The HTTP client is injected through [Doer] so tests can
// point requests at an httptest server.
package providers
