// Package commitmsg turns a staged diff into a Conventional Commits message.
// It builds the prompt, consults the message cache and calls the provider.
package commitmsg
