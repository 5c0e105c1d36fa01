package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/commitgen/internal/cache"
	"github.com/dshills/commitgen/internal/config"
	"github.com/dshills/commitgen/internal/gitctx"
	"github.com/dshills/commitgen/internal/providers"
	"github.com/dshills/commitgen/internal/tui"
)

const stagedDiff = "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1 +1,2 @@\n+fmt.Println(\"hi\")\n"

type fakeGit struct {
	diff      string
	hooksDir  string
	diffCalls int
}

func (f *fakeGit) StagedDiff(context.Context) (string, error) {
	f.diffCalls++
	if strings.TrimSpace(f.diff) == "" {
		return "", gitctx.ErrEmptyDiff
	}
	return f.diff, nil
}

func (f *fakeGit) RecentCommits(context.Context, int) ([]string, error) {
	return []string{"chore: init"}, nil
}

func (f *fakeGit) HooksDir(context.Context) (string, error) { return f.hooksDir, nil }

type fakeCompleter struct {
	text   string
	err    error
	calls  int
	prompt string
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, req providers.Request) (providers.Response, error) {
	f.calls++
	f.prompt = req.Prompt
	return providers.Response{Text: f.text}, f.err
}

type testEnv struct {
	app    *app
	git    *fakeGit
	llm    *fakeCompleter
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
}

func newTestEnv(t *testing.T, stdin string) *testEnv {
	t.Helper()
	for _, k := range []string{"COMMITGEN_API_KEY", "ANTHROPIC_API_KEY", "COMMITGEN_MODEL", "COMMITGEN_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	env := &testEnv{
		git:    &fakeGit{diff: stagedDiff, hooksDir: filepath.Join(t.TempDir(), "hooks")},
		llm:    &fakeCompleter{text: "feat(cli): print greeting"},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		dir:    t.TempDir(),
	}
	env.app = &app{
		stdin:       strings.NewReader(stdin),
		stdout:      env.stdout,
		stderr:      env.stderr,
		configDir:   env.dir,
		git:         env.git,
		newProvider: func(config.Config) providers.Completer { return env.llm },
		ask:         tui.Ask,
	}
	return env
}

func (e *testEnv) run(args ...string) int {
	return run(context.Background(), e.app, args)
}

func (e *testEnv) withKey(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, config.Configure(e.dir, "sk-test-key"))
	return e
}

func TestRun_Help(t *testing.T) {
	env := newTestEnv(t, "")
	assert.Equal(t, ExitSuccess, env.run("-h"))
	assert.Contains(t, env.stdout.String(), "Usage:")
	assert.Contains(t, env.stdout.String(), "--configure")
	assert.Zero(t, env.llm.calls)
}

func TestRun_UnknownFlag(t *testing.T) {
	env := newTestEnv(t, "")
	assert.Equal(t, ExitError, env.run("--bogus"))
	assert.Contains(t, env.stderr.String(), "Error: ")
	assert.Contains(t, env.stderr.String(), "unknown flag: --bogus")
	assert.Contains(t, env.stderr.String(), "Usage:")
}

func TestRun_UnknownCommand(t *testing.T) {
	env := newTestEnv(t, "")
	assert.Equal(t, ExitError, env.run("frobnicate"))
	assert.Contains(t, env.stderr.String(), "frobnicate")
}

func TestRun_BootstrapsConfig(t *testing.T) {
	env := newTestEnv(t, "")
	assert.Equal(t, ExitSuccess, env.run("version"))
	assert.Contains(t, env.stdout.String(), "commitgen version "+version)

	cfg, err := config.LoadFile(env.dir)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultCommitTypes, cfg.CommitTypes)
	assert.Empty(t, cfg.APIKey)
}

func TestRun_Configure(t *testing.T) {
	env := newTestEnv(t, "abc123\n")
	require.NoError(t, os.WriteFile(config.Path(env.dir), []byte(`{"api_key":"old","model":"m1","commit_types":["feat"],"max_tokens":50}`), 0o600))

	assert.Equal(t, ExitSuccess, env.run("--configure"))
	assert.Contains(t, env.stdout.String(), "API key saved")

	var raw map[string]any
	data, err := os.ReadFile(config.Path(env.dir))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "abc123", raw["api_key"])
	assert.Equal(t, "m1", raw["model"])
	assert.Equal(t, float64(50), raw["max_tokens"])
	assert.Zero(t, env.llm.calls)
}

func TestRun_ConfigureEmptyKey(t *testing.T) {
	env := newTestEnv(t, "\n")
	assert.Equal(t, ExitError, env.run("--configure"))
	assert.Contains(t, env.stderr.String(), "no API key entered")
}

func TestRun_MissingKey(t *testing.T) {
	for _, args := range [][]string{{"-t", "feat"}, {"--interactive"}} {
		env := newTestEnv(t, "1\n\n")
		assert.Equal(t, ExitError, env.run(args...), "%v", args)
		assert.Contains(t, env.stderr.String(), "API key not configured")
		assert.Contains(t, env.stderr.String(), "commitgen --configure")
		assert.Zero(t, env.llm.calls)
	}
}

func TestRun_EmptyDiff(t *testing.T) {
	for _, args := range [][]string{{"-t", "feat"}, {}} {
		env := newTestEnv(t, "1\n\n").withKey(t)
		env.git.diff = "  \n"
		assert.Equal(t, ExitError, env.run(args...), "%v", args)
		assert.Contains(t, env.stderr.String(), "no staged changes")
		assert.NotContains(t, env.stderr.String(), "Select commit type", "menu is skipped when nothing is staged")
		assert.Zero(t, env.llm.calls)
	}
}

func TestRun_DirectThenCached(t *testing.T) {
	env := newTestEnv(t, "").withKey(t)

	assert.Equal(t, ExitSuccess, env.run("-t", "feat", "-s", "cli"))
	assert.Equal(t, "feat(cli): print greeting\n", env.stdout.String())
	assert.Equal(t, 1, env.llm.calls)
	assert.Contains(t, env.llm.prompt, "Commit type: feat")
	assert.Contains(t, env.llm.prompt, "Scope: cli")
	assert.Contains(t, env.llm.prompt, "chore: init")

	data, err := os.ReadFile(filepath.Join(env.dir, "cache", cache.Key(stagedDiff)))
	require.NoError(t, err)
	assert.Equal(t, "feat(cli): print greeting", string(data))

	env.stdout.Reset()
	assert.Equal(t, ExitSuccess, env.run("--type", "fix"))
	assert.Equal(t, "feat(cli): print greeting\n", env.stdout.String())
	assert.Equal(t, 1, env.llm.calls, "second run is served from the cache")

	assert.Equal(t, ExitSuccess, env.run("-t", "feat", "--no-cache"))
	assert.Equal(t, 2, env.llm.calls)
}

func TestRun_JSONFormat(t *testing.T) {
	env := newTestEnv(t, "").withKey(t)
	assert.Equal(t, ExitSuccess, env.run("-t", "feat", "--format", "json"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(env.stdout.Bytes(), &got))
	assert.Equal(t, "feat", got["type"])
	assert.Equal(t, "feat(cli): print greeting", got["message"])
	assert.Equal(t, false, got["cached"])
	assert.Equal(t, cache.Key(stagedDiff), got["key"])
}

func TestRun_BadFormat(t *testing.T) {
	env := newTestEnv(t, "").withKey(t)
	assert.Equal(t, ExitError, env.run("-t", "feat", "--format", "sarif"))
	assert.Zero(t, env.llm.calls)
}

func TestRun_Interactive(t *testing.T) {
	env := newTestEnv(t, "2\napi\n").withKey(t)
	env.llm.text = "fix(api): handle nil"

	assert.Equal(t, ExitSuccess, env.run())
	assert.Contains(t, env.stderr.String(), "1) feat")
	assert.Contains(t, env.llm.prompt, "Commit type: fix")
	assert.Contains(t, env.llm.prompt, "Scope: api")
	assert.Equal(t, "fix(api): handle nil\n", env.stdout.String())
	assert.Equal(t, 1, env.git.diffCalls, "the diff checked before the menu is the one sent")
}

func TestRun_InteractiveFlagOverridesType(t *testing.T) {
	env := newTestEnv(t, "3\n\n").withKey(t)
	assert.Equal(t, ExitSuccess, env.run("-t", "feat", "--interactive"))
	assert.Contains(t, env.llm.prompt, "Commit type: docs")
	assert.NotContains(t, env.llm.prompt, "Scope:")
}

func TestRun_InteractiveInvalidChoice(t *testing.T) {
	env := newTestEnv(t, "99\n").withKey(t)
	assert.Equal(t, ExitError, env.run())
	assert.Contains(t, env.stderr.String(), "invalid choice")
	assert.Zero(t, env.llm.calls)
}

func TestRun_AuthErrorHint(t *testing.T) {
	env := newTestEnv(t, "").withKey(t)
	env.llm.err = &providers.APIError{StatusCode: 401, Message: "invalid x-api-key"}

	assert.Equal(t, ExitError, env.run("-t", "feat"))
	assert.Contains(t, env.stderr.String(), "invalid x-api-key")
	assert.Contains(t, env.stderr.String(), "commitgen --configure")
	assert.Empty(t, env.stdout.String())

	_, err := os.Stat(filepath.Join(env.dir, "cache", cache.Key(stagedDiff)))
	assert.True(t, os.IsNotExist(err), "failed runs are not cached")
}

func TestRun_OutFile(t *testing.T) {
	env := newTestEnv(t, "").withKey(t)
	out := filepath.Join(t.TempDir(), "COMMIT_EDITMSG")
	require.NoError(t, os.WriteFile(out, []byte("\n# Please enter the commit message\n"), 0o644))

	assert.Equal(t, ExitSuccess, env.run("-t", "feat", "-o", out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "feat(cli): print greeting\n\n# Please enter the commit message\n", string(data))
}

func TestRun_UnlistedTypeWarns(t *testing.T) {
	env := newTestEnv(t, "").withKey(t)
	env.llm.text = "wip: stuff"
	assert.Equal(t, ExitSuccess, env.run("-t", "wip"))
	assert.Contains(t, env.stderr.String(), "type is not in the configured list")
	assert.Equal(t, "wip: stuff\n", env.stdout.String())
}

func TestRun_InvalidLogLevel(t *testing.T) {
	env := newTestEnv(t, "")
	t.Setenv("COMMITGEN_LOG_LEVEL", "loud")
	assert.Equal(t, ExitError, env.run("version"))
	assert.Contains(t, env.stderr.String(), "invalid log level")
}

func TestRun_DebugLogsJSON(t *testing.T) {
	env := newTestEnv(t, "").withKey(t)
	assert.Equal(t, ExitSuccess, env.run("-t", "feat", "--debug", "--log-format", "json"))
	assert.Contains(t, env.stderr.String(), `"message":"cache miss"`)
	assert.Contains(t, env.stderr.String(), `"trace_id":`)
}
