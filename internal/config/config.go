package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	appName  = "commitgen"
	fileName = "config.json"
)

var (
	// ErrNotFound is returned by Load when no config file exists.
	ErrNotFound = errors.New("config file not found")
	// ErrNoAPIKey is returned by Validate when api_key is empty.
	ErrNoAPIKey = errors.New("API key not configured")
)

// Config represents the commitgen configuration file.
type Config struct {
	APIKey        string   `json:"api_key" yaml:"api_key" jsonschema:"description=API key for the messages endpoint"`
	Model         string   `json:"model" yaml:"model" jsonschema:"description=Model identifier sent with every request"`
	CommitTypes   []string `json:"commit_types" yaml:"commit_types" jsonschema:"description=Allowed Conventional Commits types in menu order"`
	MaxTokens     int      `json:"max_tokens" yaml:"max_tokens" jsonschema:"description=Token budget for one generated message,minimum=1"`
	HistoryCount  int      `json:"history_count,omitempty" yaml:"history_count,omitempty" jsonschema:"description=Number of recent commit messages included as style examples"`
	MaxDiffBytes  int      `json:"max_diff_bytes,omitempty" yaml:"max_diff_bytes,omitempty" jsonschema:"description=Diff bytes sent to the model before truncation"`
	Exclude       []string `json:"exclude,omitempty" yaml:"exclude,omitempty" jsonschema:"description=Glob patterns of files left out of the prompt"`
	RedactSecrets bool     `json:"redact_secrets" yaml:"redact_secrets" jsonschema:"description=Scrub secrets from the diff before sending it"`
	RedactPaths   []string `json:"redact_paths,omitempty" yaml:"redact_paths,omitempty" jsonschema:"description=Glob patterns of files whose diff is replaced entirely"`
	BaseURL       string   `json:"base_url,omitempty" yaml:"base_url,omitempty" jsonschema:"description=API base URL"`
}

// DefaultCommitTypes is the Conventional Commits type list written on first run.
var DefaultCommitTypes = []string{
	"feat", "fix", "docs", "style", "refactor",
	"perf", "test", "build", "ci", "chore", "revert",
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Model:         "claude-sonnet-4-20250514",
		CommitTypes:   append([]string(nil), DefaultCommitTypes...),
		MaxTokens:     300,
		HistoryCount:  3,
		MaxDiffBytes:  100000,
		Exclude:       []string{"vendor/**", "**/*.lock", "**/go.sum"},
		RedactSecrets: true,
		RedactPaths:   []string{"**/.env", "**/*secrets*"},
		BaseURL:       "https://api.anthropic.com",
	}
}

// Dir returns the commitgen config directory. XDG_CONFIG_HOME wins over HOME.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the config file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

// Bootstrap writes a default config file if none exists yet.
// It reports whether a new file was created.
func Bootstrap(dir string) (bool, error) {
	if _, err := os.Stat(Path(dir)); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file: %w", err)
	}
	if err := Save(dir, Default()); err != nil {
		return false, err
	}
	return true, nil
}

// LoadFile reads the config file in dir without applying environment overrides.
func LoadFile(dir string) (Config, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrNotFound, Path(dir))
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	// redact_secrets is on unless the file turns it off explicitly.
	cfg := Config{RedactSecrets: true}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Load builds the effective config: defaults <- file <- env.
func Load(dir string) (Config, error) {
	fileCfg, err := LoadFile(dir)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	return cfg, nil
}

// Save replaces the config file in dir with cfg.
func Save(dir string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return writeAtomic(Path(dir), append(data, '\n'))
}

// Configure stores key as api_key. Every other field in the file, including
// keys this version does not know about, is kept as is.
func Configure(dir, key string) error {
	raw, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("marshaling api key: %w", err)
	}
	return rewrite(dir, func(fields map[string]json.RawMessage) error {
		fields["api_key"] = raw
		return nil
	})
}

// Set changes one field through SetField and writes only that key back.
// Unknown keys and untouched fields keep their exact file contents.
func Set(dir, key, value string) error {
	cfg, err := LoadFile(dir)
	if errors.Is(err, ErrNotFound) {
		cfg = Default()
	} else if err != nil {
		return err
	}
	if err := SetField(&cfg, key, value); err != nil {
		return err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	var typed map[string]json.RawMessage
	if err := json.Unmarshal(data, &typed); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return rewrite(dir, func(fields map[string]json.RawMessage) error {
		if v, ok := typed[key]; ok {
			fields[key] = v
		} else {
			// omitempty field cleared: fall back to the default.
			delete(fields, key)
		}
		return nil
	})
}

// rewrite applies update to the raw key map of the config file and writes it
// back atomically. A missing file starts from the defaults.
func rewrite(dir string, update func(fields map[string]json.RawMessage) error) error {
	fields := map[string]json.RawMessage{}
	data, err := os.ReadFile(Path(dir))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
		if err := mergeDefaults(fields); err != nil {
			return err
		}
	default:
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := update(fields); err != nil {
		return err
	}

	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return writeAtomic(Path(dir), append(out, '\n'))
}

// Validate checks that cfg can be used to call the API.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return ErrNoAPIKey
	}
	return nil
}

// Redacted returns a copy of cfg that is safe to print.
func (c Config) Redacted() Config {
	out := c
	if len(out.APIKey) > 8 {
		out.APIKey = out.APIKey[:4] + strings.Repeat("*", 8)
	} else if out.APIKey != "" {
		out.APIKey = "********"
	}
	return out
}

func mergeDefaults(fields map[string]json.RawMessage) error {
	data, err := json.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshaling defaults: %w", err)
	}
	return json.Unmarshal(data, &fields)
}

func mergeFile(dst *Config, src Config) {
	dst.APIKey = src.APIKey
	if src.Model != "" {
		dst.Model = src.Model
	}
	if len(src.CommitTypes) > 0 {
		dst.CommitTypes = src.CommitTypes
	}
	if src.MaxTokens > 0 {
		dst.MaxTokens = src.MaxTokens
	}
	if src.HistoryCount > 0 {
		dst.HistoryCount = src.HistoryCount
	}
	if src.MaxDiffBytes > 0 {
		dst.MaxDiffBytes = src.MaxDiffBytes
	}
	if src.Exclude != nil {
		dst.Exclude = src.Exclude
	}
	if src.RedactPaths != nil {
		dst.RedactPaths = src.RedactPaths
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	// LoadFile defaults an absent key to true, so false is explicit.
	dst.RedactSecrets = src.RedactSecrets
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("COMMITGEN_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if v := os.Getenv("COMMITGEN_MODEL"); v != "" {
		cfg.Model = v
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "api_key":
		cfg.APIKey = value
	case "model":
		cfg.Model = value
	case "base_url":
		cfg.BaseURL = strings.TrimRight(value, "/")
	case "commit_types":
		types := splitList(value)
		if len(types) == 0 {
			return fmt.Errorf("commit_types must list at least one type")
		}
		cfg.CommitTypes = types
	case "exclude":
		cfg.Exclude = splitList(value)
	case "redact_paths":
		cfg.RedactPaths = splitList(value)
	case "max_tokens":
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		cfg.MaxTokens = n
	case "history_count":
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		cfg.HistoryCount = n
	case "max_diff_bytes":
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		cfg.MaxDiffBytes = n
	case "redact_secrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("redact_secrets must be true or false: %w", err)
		}
		cfg.RedactSecrets = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func positiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// writeAtomic writes data to a temp file next to path and renames it into
// place so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+fileName+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting config permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}
