package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/dshills/commitgen/internal/cache"
	"github.com/dshills/commitgen/internal/commitmsg"
	"github.com/dshills/commitgen/internal/config"
	"github.com/dshills/commitgen/internal/output"
)

type generateFlags struct {
	commitType  string
	scope       string
	configure   bool
	interactive bool
	format      string
	out         string
	noCache     bool
}

func addGenerateFlags(fs *pflag.FlagSet, f *generateFlags) {
	fs.StringVarP(&f.commitType, "type", "t", "", "Commit type, e.g. feat or fix (skips the menu)")
	fs.StringVarP(&f.scope, "scope", "s", "", "Optional commit scope")
	fs.BoolVar(&f.configure, "configure", false, "Read an API key from stdin and save it")
	fs.BoolVar(&f.interactive, "interactive", false, "Choose the type from a menu (default without -t)")
	fs.StringVar(&f.format, "format", output.FormatText, "Output format (text, json)")
	fs.StringVarP(&f.out, "out", "o", "", "Also write the message to this file")
	fs.BoolVar(&f.noCache, "no-cache", false, "Ignore a cached message for this diff")
}

func (a *app) runGenerate(cmd *cobra.Command, _ []string) error {
	if a.gen.configure {
		return a.runConfigure()
	}

	ctx := cmd.Context()
	log := zerolog.Ctx(ctx)

	writer, err := output.GetWriter(a.gen.format)
	if err != nil {
		return err
	}
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}

	opts := commitmsg.Options{
		Type:    strings.TrimSpace(a.gen.commitType),
		Scope:   a.gen.scope,
		NoCache: a.gen.noCache,
	}
	if a.gen.interactive || !cmd.Flags().Changed("type") {
		// Fail before the menu when the run cannot succeed anyway.
		if err := config.Validate(cfg); err != nil {
			return err
		}
		diff, err := a.git.StagedDiff(ctx)
		if err != nil {
			return err
		}
		opts.Diff = diff
		choice, err := a.ask(a.stdin, a.stderr, cfg.CommitTypes)
		if err != nil {
			return err
		}
		opts.Type, opts.Scope = choice.Type, choice.Scope
	}
	if opts.Type == "" {
		return errors.New("commit type must not be empty")
	}
	if !slices.Contains(cfg.CommitTypes, opts.Type) {
		log.Warn().Str("type", opts.Type).Strs("commit_types", cfg.CommitTypes).Msg("type is not in the configured list")
	}

	store, err := cache.NewFile(a.cacheDir(), 0)
	if err != nil {
		return err
	}
	gen := &commitmsg.Generator{
		Config:   cfg,
		Cache:    store,
		Git:      a.git,
		Provider: a.newProvider(cfg),
	}
	res, err := gen.Generate(ctx, opts)
	if err != nil {
		return err
	}
	if res.Message != "" {
		if _, err := commitmsg.CheckHeader(res.Message, cfg.CommitTypes); err != nil {
			log.Warn().Err(err).Msg("generated message is not a valid conventional commit header")
		}
	}

	if err := writer.Write(a.stdout, res); err != nil {
		return err
	}
	if a.gen.out != "" {
		if res.Message == "" {
			log.Warn().Str("path", a.gen.out).Msg("empty message, output file left unchanged")
			return nil
		}
		return output.WriteMessageFile(a.gen.out, res.Message)
	}
	return nil
}

func (a *app) runConfigure() error {
	key, err := readAPIKey(a.stdin, a.stderr)
	if err != nil {
		return err
	}
	if err := config.Configure(a.configDir, key); err != nil {
		return err
	}
	a.success("API key saved to %s", config.Path(a.configDir))
	return nil
}

// readAPIKey prompts on out and reads one key from in, without echo when in
// is a terminal.
func readAPIKey(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter your Anthropic API key: ")

	var key string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		key = string(b)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		key = line
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("no API key entered")
	}
	return key, nil
}
