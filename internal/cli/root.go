package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dshills/commitgen/internal/config"
	"github.com/dshills/commitgen/internal/gitctx"
	"github.com/dshills/commitgen/internal/logging"
	"github.com/dshills/commitgen/internal/providers"
	"github.com/dshills/commitgen/internal/tui"
)

// version is overridden at build time with -ldflags "-X".
var version = "0.1.0"

// Exit codes. Every failure, including usage errors, is ExitError.
const (
	ExitSuccess = 0
	ExitError   = 1
)

// app holds the streams and collaborators of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// configDir is resolved from the environment when empty.
	configDir   string
	git         gitctx.Client
	newProvider func(cfg config.Config) providers.Completer
	ask         func(in io.Reader, out io.Writer, types []string) (tui.Choice, error)

	gen       generateFlags
	debug     bool
	logFormat string
}

func newApp() *app {
	return &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		git:    gitctx.Git{},
		newProvider: func(cfg config.Config) providers.Completer {
			return providers.NewAnthropic(cfg.APIKey, cfg.BaseURL, nil)
		},
		ask: tui.Ask,
	}
}

// usageError marks flag parsing failures so the usage text is printed.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "commitgen",
		Short: "Generate Conventional Commits messages from the staged diff",
		Long: `commitgen sends the staged diff to the Anthropic messages API and prints a
Conventional Commits message for it. Without -t it asks for the commit type
in an interactive menu. Messages are cached per diff for one hour.`,
		Example: `  commitgen -t feat -s api
  commitgen --interactive
  git commit -F <(commitgen -t fix)`,
		Args:              cobra.NoArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runGenerate,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	addGenerateFlags(root.Flags(), &a.gen)
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging on stderr")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", logging.FormatConsole, "Log format (console, json)")

	root.AddCommand(
		newConfigCmd(a),
		newCacheCmd(a),
		newHookCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Run executes the root command and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, newApp(), os.Args[1:])
}

func run(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return ExitSuccess
	}
	a.printError(err)
	var uErr *usageError
	if errors.As(err, &uErr) && cmd != nil {
		fmt.Fprint(a.stderr, cmd.UsageString())
	}
	return ExitError
}

// setup runs before every command: .env, logger, config bootstrap.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	level := os.Getenv("COMMITGEN_LOG_LEVEL")
	if a.debug {
		level = "debug"
	}
	logger, err := logging.New(a.stderr, logging.Options{
		Level:   level,
		Format:  a.logFormat,
		NoColor: !tui.IsTerminal(a.stderr),
	})
	if err != nil {
		return err
	}
	cmd.SetContext(logger.WithContext(cmd.Context()))

	if a.configDir == "" {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		a.configDir = dir
	}
	created, err := config.Bootstrap(a.configDir)
	if err != nil {
		return fmt.Errorf("creating default config: %w", err)
	}
	if created {
		logger.Info().Str("path", config.Path(a.configDir)).Msg("wrote default config")
	}
	return nil
}

func (a *app) cacheDir() string {
	return filepath.Join(a.configDir, "cache")
}

func (a *app) printError(err error) {
	color.New(color.FgRed, color.Bold).Fprint(a.stderr, "Error: ")
	fmt.Fprintln(a.stderr, err)
	if errors.Is(err, config.ErrNoAPIKey) || providers.IsAuthError(err) {
		fmt.Fprintln(a.stderr, "Run 'commitgen --configure' to set your API key.")
	}
}

func (a *app) success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(a.stdout, format+"\n", args...)
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print commitgen version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "commitgen version %s\n", version)
		},
	}
}
