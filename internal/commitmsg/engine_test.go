package commitmsg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/commitgen/internal/cache"
	"github.com/dshills/commitgen/internal/config"
	"github.com/dshills/commitgen/internal/gitctx"
	"github.com/dshills/commitgen/internal/providers"
)

type fakeGit struct {
	diff      string
	diffErr   error
	recent    []string
	diffCalls int
}

func (f *fakeGit) StagedDiff(context.Context) (string, error) {
	f.diffCalls++
	if f.diffErr != nil {
		return "", f.diffErr
	}
	return f.diff, nil
}

func (f *fakeGit) RecentCommits(_ context.Context, n int) ([]string, error) {
	if n < len(f.recent) {
		return f.recent[:n], nil
	}
	return f.recent, nil
}

func (f *fakeGit) HooksDir(context.Context) (string, error) { return "", nil }

type fakeCompleter struct {
	text  string
	err   error
	calls int
	last  providers.Request
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, req providers.Request) (providers.Response, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return providers.Response{}, f.err
	}
	return providers.Response{Text: f.text}, nil
}

const sampleDiff = "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1 +1,2 @@\n+fmt.Println(\"hi\")\n"

func newTestGenerator(git *fakeGit, llm *fakeCompleter, store cache.Store) *Generator {
	cfg := config.Default()
	cfg.APIKey = "sk-test"
	return &Generator{Config: cfg, Cache: store, Git: git, Provider: llm}
}

func TestGenerate_MissThenHit(t *testing.T) {
	git := &fakeGit{diff: sampleDiff, recent: []string{"a", "b", "c", "d"}}
	llm := &fakeCompleter{text: "feat(cli): print greeting"}
	store := cache.NewMemory(0, nil)
	g := newTestGenerator(git, llm, store)

	res, err := g.Generate(context.Background(), Options{Type: "feat", Scope: "cli"})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, "feat(cli): print greeting", res.Message)
	assert.Equal(t, cache.Key(sampleDiff), res.Key)
	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, config.Default().Model, llm.last.Model)
	assert.Equal(t, 300, llm.last.MaxTokens)
	assert.Contains(t, llm.last.Prompt, "Scope: cli")
	assert.NotContains(t, llm.last.Prompt, "\nd\n", "only history_count commits are used")

	cached, ok := store.Get(cache.Key(sampleDiff))
	require.True(t, ok)
	assert.Equal(t, res.Message, cached)

	// Same diff, different type: still served from the cache.
	res, err = g.Generate(context.Background(), Options{Type: "fix"})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, "feat(cli): print greeting", res.Message)
	assert.Equal(t, 1, llm.calls, "cache hit must not call the provider")
}

func TestGenerate_StaleEntryCallsProvider(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	store := cache.NewMemory(0, func() time.Time { return now })
	require.NoError(t, store.Put(cache.Key(sampleDiff), "fix: old"))
	now = now.Add(cache.DefaultTTL + time.Second)

	llm := &fakeCompleter{text: "fix: new"}
	res, err := newTestGenerator(&fakeGit{diff: sampleDiff}, llm, store).Generate(context.Background(), Options{Type: "fix"})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, "fix: new", res.Message)
	assert.Equal(t, 1, llm.calls)
}

func TestGenerate_NoCacheSkipsLookup(t *testing.T) {
	store := cache.NewMemory(0, nil)
	require.NoError(t, store.Put(cache.Key(sampleDiff), "fix: old"))

	llm := &fakeCompleter{text: "fix: fresh"}
	res, err := newTestGenerator(&fakeGit{diff: sampleDiff}, llm, store).Generate(context.Background(), Options{Type: "fix", NoCache: true})
	require.NoError(t, err)
	assert.Equal(t, "fix: fresh", res.Message)
	got, _ := store.Get(cache.Key(sampleDiff))
	assert.Equal(t, "fix: fresh", got, "result is still written through")
}

func TestGenerate_UsesProvidedDiff(t *testing.T) {
	git := &fakeGit{diff: "diff --git a/other.go b/other.go\n"}
	llm := &fakeCompleter{text: "feat: x"}
	res, err := newTestGenerator(git, llm, cache.NewMemory(0, nil)).Generate(context.Background(), Options{Type: "feat", Diff: sampleDiff})
	require.NoError(t, err)
	assert.Zero(t, git.diffCalls)
	assert.Equal(t, cache.Key(sampleDiff), res.Key)
	assert.Contains(t, llm.last.Prompt, "fmt.Println")
}

func TestGenerate_MissingKeyStopsEarly(t *testing.T) {
	git := &fakeGit{diff: sampleDiff}
	llm := &fakeCompleter{text: "x"}
	g := newTestGenerator(git, llm, cache.NewMemory(0, nil))
	g.Config.APIKey = "  "

	_, err := g.Generate(context.Background(), Options{Type: "feat"})
	assert.ErrorIs(t, err, config.ErrNoAPIKey)
	assert.Zero(t, git.diffCalls, "no git work without a key")
	assert.Zero(t, llm.calls)
}

func TestGenerate_EmptyDiff(t *testing.T) {
	llm := &fakeCompleter{text: "x"}
	store := cache.NewMemory(0, nil)
	_, err := newTestGenerator(&fakeGit{diffErr: gitctx.ErrEmptyDiff}, llm, store).Generate(context.Background(), Options{Type: "feat"})
	assert.ErrorIs(t, err, gitctx.ErrEmptyDiff)
	assert.Zero(t, llm.calls)
	assert.Zero(t, store.Puts())
}

func TestGenerate_ProviderErrorNotCached(t *testing.T) {
	apiErr := &providers.APIError{StatusCode: 401, Message: "invalid x-api-key"}
	llm := &fakeCompleter{err: apiErr}
	store := cache.NewMemory(0, nil)

	_, err := newTestGenerator(&fakeGit{diff: sampleDiff}, llm, store).Generate(context.Background(), Options{Type: "feat"})
	require.Error(t, err)
	assert.True(t, providers.IsAuthError(err))
	assert.True(t, errors.Is(err, apiErr))
	assert.Equal(t, 1, llm.calls, "no retries")
	assert.Zero(t, store.Puts())
}

func TestGenerate_EmptyReplyNotCached(t *testing.T) {
	store := cache.NewMemory(0, nil)
	res, err := newTestGenerator(&fakeGit{diff: sampleDiff}, &fakeCompleter{text: "  \n"}, store).Generate(context.Background(), Options{Type: "feat"})
	require.NoError(t, err)
	assert.Empty(t, res.Message)
	assert.Zero(t, store.Puts())
}

func TestGenerate_RedactsAndFilters(t *testing.T) {
	diff := sampleDiff +
		"diff --git a/.env b/.env\n--- a/.env\n+++ b/.env\n@@ -0,0 +1 @@\n+DB_PASSWORD=hunter2\n" +
		"diff --git a/vendor/x/x.go b/vendor/x/x.go\n--- a/vendor/x/x.go\n+++ b/vendor/x/x.go\n@@ -0,0 +1 @@\n+package x\n" +
		"diff --git a/app.go b/app.go\n--- a/app.go\n+++ b/app.go\n@@ -0,0 +1 @@\n+key := \"sk-ant-REDACTED\"\n"

	llm := &fakeCompleter{text: "chore: wire things"}
	_, err := newTestGenerator(&fakeGit{diff: diff}, llm, cache.NewMemory(0, nil)).Generate(context.Background(), Options{Type: "chore"})
	require.NoError(t, err)

	assert.NotContains(t, llm.last.Prompt, "hunter2")
	assert.NotContains(t, llm.last.Prompt, "sk-ant-api03")
	assert.NotContains(t, llm.last.Prompt, "vendor/x/x.go")
	assert.Contains(t, llm.last.Prompt, "[REDACTED]")
	assert.Contains(t, llm.last.Prompt, "fmt.Println")
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  feat: x\n", "feat: x"},
		{"```\nfeat: x\n```", "feat: x"},
		{"```text\nfeat: x\n\nbody\n```\n", "feat: x\n\nbody"},
		{"```", "```"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clean(tt.in), "clean(%q)", tt.in)
	}
}
