package commitmsg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/commitgen/internal/cache"
	"github.com/dshills/commitgen/internal/config"
	"github.com/dshills/commitgen/internal/gitctx"
	"github.com/dshills/commitgen/internal/providers"
	"github.com/dshills/commitgen/internal/redact"
)

// Generator produces commit messages for the staged changes.
type Generator struct {
	Config   config.Config
	Cache    cache.Store
	Git      gitctx.Client
	Provider providers.Completer
}

// Options selects the commit type and scope for one run.
type Options struct {
	Type    string
	Scope   string
	NoCache bool // skip the cache lookup; the result is still stored
	// Diff is a staged diff the caller already read. Empty means read it here.
	Diff string
}

// Result is a generated (or cached) message.
type Result struct {
	Type    string `json:"type"`
	Scope   string `json:"scope,omitempty"`
	Message string `json:"message"`
	Cached  bool   `json:"cached"`
	Key     string `json:"key"`
}

// Generate returns a commit message for the staged diff. A fresh cache entry
// for the same diff is returned without calling the provider.
func (g *Generator) Generate(ctx context.Context, opts Options) (Result, error) {
	log := zerolog.Ctx(ctx)
	res := Result{Type: opts.Type, Scope: strings.TrimSpace(opts.Scope)}

	if err := config.Validate(g.Config); err != nil {
		return res, err
	}

	diff := opts.Diff
	if diff == "" {
		var err error
		if diff, err = g.Git.StagedDiff(ctx); err != nil {
			return res, err
		}
	}

	res.Key = cache.Key(diff)
	if !opts.NoCache {
		if text, ok := g.Cache.Get(res.Key); ok {
			log.Debug().Str("key", res.Key).Msg("cache hit")
			res.Message = text
			res.Cached = true
			return res, nil
		}
		log.Debug().Str("key", res.Key).Msg("cache miss")
	}

	prompt, err := g.prompt(ctx, diff, opts)
	if err != nil {
		return res, err
	}

	start := time.Now()
	resp, err := g.Provider.Complete(ctx, providers.Request{
		Model:     g.Config.Model,
		Prompt:    prompt,
		MaxTokens: g.Config.MaxTokens,
	})
	if err != nil {
		return res, fmt.Errorf("%s request: %w", g.Provider.Name(), err)
	}
	log.Debug().
		Dur("latency", time.Since(start)).
		Int("input_tokens", resp.InputTokens).
		Int("output_tokens", resp.OutputTokens).
		Msg("provider replied")

	res.Message = clean(resp.Text)
	if res.Message == "" {
		log.Warn().Msg("provider returned an empty message; not caching")
		return res, nil
	}
	if err := g.Cache.Put(res.Key, res.Message); err != nil {
		log.Warn().Err(err).Msg("could not write cache entry")
	}
	return res, nil
}

func (g *Generator) prompt(ctx context.Context, diff string, opts Options) (string, error) {
	log := zerolog.Ctx(ctx)

	files := gitctx.ExtractFiles(diff)
	diff = gitctx.Filter(diff, gitctx.DiffOptions{
		MaxDiffBytes: g.Config.MaxDiffBytes,
		Exclude:      g.Config.Exclude,
	})
	if g.Config.RedactSecrets {
		r := redact.Diff(diff, g.Config.RedactPaths)
		diff = r.Text
		if r.Secrets > 0 || len(r.Files) > 0 {
			log.Info().Int("secrets", r.Secrets).Strs("files", r.Files).Msg("redacted diff")
		}
	}

	recent, err := g.Git.RecentCommits(ctx, g.Config.HistoryCount)
	if err != nil {
		return "", err
	}

	prompt := BuildPrompt(PromptInput{
		Type:   opts.Type,
		Scope:  opts.Scope,
		Recent: recent,
		Diff:   diff,
	})
	log.Debug().
		Int("files", len(files)).
		Int("recent", len(recent)).
		Int("prompt_bytes", len(prompt)).
		Msg("built prompt")
	return prompt, nil
}

// clean trims the reply and removes one surrounding markdown fence.
func clean(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}
