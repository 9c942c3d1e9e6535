// Package config loads agentcore settings from the config file, the
// environment and built-in defaults, in increasing order of precedence:
// defaults, then the file, then the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. AGENTCORE_MAX_ITERATIONS.
const EnvPrefix = "AGENTCORE"

// Config holds all application configuration
type Config struct {
	OpenAIKey    string `mapstructure:"openai_api_key"`
	BaseURL      string `mapstructure:"base_url"`
	DefaultModel string `mapstructure:"default_model"`

	WorkspaceDir        string `mapstructure:"workspace_dir"`
	MaxIterations       int    `mapstructure:"max_iterations"`
	PreviewLength       int    `mapstructure:"preview_length"`
	MaxToolOutput       int    `mapstructure:"max_tool_output"`
	RepairToolArguments bool   `mapstructure:"repair_tool_arguments"`

	ShellTimeout time.Duration `mapstructure:"shell_timeout"`
	ShellAllow   []string      `mapstructure:"shell_allow"`

	MemoryDB    string `mapstructure:"memory_db"`
	LogLevel    string `mapstructure:"log_level"`
	LogJSON     bool   `mapstructure:"log_json"`
	NATSURL     string `mapstructure:"nats_url"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Kind is the value type of a key.
type Kind int

const (
	String Kind = iota
	Int
	Bool
	Duration
	List
)

// Key describes one setting.
type Key struct {
	Name    string
	Kind    Kind
	Default any
	Secret  bool
	Usage   string
	// Env lists extra environment variables read for the key, after the
	// prefixed one.
	Env []string
}

// Keys lists every setting in display order.
var Keys = []Key{
	{Name: "openai_api_key", Secret: true, Usage: "API key for the OpenAI-compatible endpoint", Env: []string{"OPENAI_API_KEY"}},
	{Name: "base_url", Default: "https://api.openai.com/v1", Usage: "Base URL of the OpenAI-compatible endpoint"},
	{Name: "default_model", Default: "gpt-4o", Usage: "Model used for chat"},
	{Name: "workspace_dir", Usage: "Directory holding projects (default: ~/.local/share/agentcore/projects)"},
	{Name: "max_iterations", Kind: Int, Default: 25, Usage: "Model rounds per message before the driver stops"},
	{Name: "preview_length", Kind: Int, Default: 500, Usage: "Characters of tool output shown in the transcript"},
	{Name: "max_tool_output", Kind: Int, Default: 20000, Usage: "Characters of tool output fed back to the model"},
	{Name: "repair_tool_arguments", Kind: Bool, Default: false, Usage: "Repair malformed tool-argument JSON before execution"},
	{Name: "shell_timeout", Kind: Duration, Default: 30 * time.Second, Usage: "Default command timeout, clamped to 1s-300s"},
	{Name: "shell_allow", Kind: List, Usage: "Comma-separated command heads that replace the default allow-list; \"defaults\" keeps the built-in heads"},
	{Name: "memory_db", Usage: "SQLite database for memories and todos (default: ~/.local/share/agentcore/memory.db)"},
	{Name: "log_level", Default: "info", Usage: "debug, info, warn or error"},
	{Name: "log_json", Kind: Bool, Default: false, Usage: "Log as JSON instead of console text"},
	{Name: "nats_url", Usage: "NATS server for tool-call events (disabled when empty)"},
	{Name: "metrics_addr", Usage: "Listen address for /metrics (disabled when empty)"},
}

// AllowDefaults in shell_allow stands for the built-in command heads.
const AllowDefaults = "defaults"

// AllowList returns the command heads the shell policy accepts. An empty
// shell_allow keeps defaults; otherwise the configured list replaces them.
func (c *Config) AllowList(defaults []string) []string {
	if len(c.ShellAllow) == 0 {
		return append([]string(nil), defaults...)
	}
	var out []string
	for _, head := range c.ShellAllow {
		if head == AllowDefaults {
			out = append(out, defaults...)
			continue
		}
		out = append(out, head)
	}
	return out
}

// aliases are the short names accepted by set, get and delete.
var aliases = map[string]string{
	"openai":   "openai_api_key",
	"model":    "default_model",
	"url":      "base_url",
	"endpoint": "base_url",
}

// ErrUnknownKey is returned for names that are not in Keys.
var ErrUnknownKey = errors.New("unknown config key")

// LookupKey resolves a key name or alias.
func LookupKey(name string) (Key, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	for _, k := range Keys {
		if k.Name == name {
			return k, nil
		}
	}
	return Key{}, fmt.Errorf("%w: %s", ErrUnknownKey, name)
}

// DefaultPath returns ~/.config/agentcore/config.json.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "agentcore", "config.json")
}

// DataDir returns ~/.local/share/agentcore.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "agentcore")
}

// Store reads the layered configuration and edits the config file.
type Store struct {
	path string
	v    *viper.Viper
	// file holds only what the config file sets.
	file map[string]any
}

// Open loads the config file at path. A missing file is not an error.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range Keys {
		def := k.Default
		if def == nil {
			def = zero(k.Kind)
		}
		v.SetDefault(k.Name, def)
		if len(k.Env) > 0 {
			names := append([]string{EnvPrefix + "_" + strings.ToUpper(k.Name)}, k.Env...)
			if err := v.BindEnv(append([]string{k.Name}, names...)...); err != nil {
				return fmt.Errorf("bind %s: %w", k.Name, err)
			}
		}
	}

	s.file = map[string]any{}
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read config: %w", err)
	default:
		if err := json.Unmarshal(data, &s.file); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", s.path, err)
		}
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	s.v = v
	return nil
}

// Path returns the config file path.
func (s *Store) Path() string { return s.path }

// Config returns the effective configuration.
func (s *Store) Config() (*Config, error) {
	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.WorkspaceDir == "" {
		cfg.WorkspaceDir = filepath.Join(DataDir(), "projects")
	}
	if cfg.MemoryDB == "" {
		cfg.MemoryDB = filepath.Join(DataDir(), "memory.db")
	}
	return &cfg, nil
}

// Set validates value for the key and writes it to the config file.
func (s *Store) Set(name, value string) error {
	k, err := LookupKey(name)
	if err != nil {
		return err
	}
	parsed, err := parse(k, value)
	if err != nil {
		return fmt.Errorf("%s: %w", k.Name, err)
	}
	s.file[k.Name] = parsed
	return s.save()
}

// Delete removes the key from the config file.
func (s *Store) Delete(name string) error {
	k, err := LookupKey(name)
	if err != nil {
		return err
	}
	if _, ok := s.file[k.Name]; !ok {
		return fmt.Errorf("%s is not set in %s", k.Name, s.path)
	}
	delete(s.file, k.Name)
	return s.save()
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s.file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return s.load()
}

// Entry is one key's effective value for display.
type Entry struct {
	Key    string
	Value  string
	Source string // "env", "file" or "default"
}

// Get returns the displayed value of one key. Secrets are masked.
func (s *Store) Get(name string) (Entry, error) {
	k, err := LookupKey(name)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Key: k.Name, Source: s.source(k)}
	switch k.Kind {
	case List:
		e.Value = strings.Join(s.v.GetStringSlice(k.Name), ",")
	case Duration:
		e.Value = s.v.GetDuration(k.Name).String()
	default:
		e.Value = s.v.GetString(k.Name)
	}
	if k.Secret && e.Value != "" {
		e.Value = maskKey(e.Value)
	}
	return e, nil
}

// List returns every key that has a value.
func (s *Store) List() []Entry {
	var out []Entry
	for _, k := range Keys {
		e, _ := s.Get(k.Name)
		if e.Value != "" {
			out = append(out, e)
		}
	}
	return out
}

// FileKeys returns the keys set in the config file, sorted.
func (s *Store) FileKeys() []string {
	keys := make([]string, 0, len(s.file))
	for k := range s.file {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) source(k Key) string {
	names := append([]string{EnvPrefix + "_" + strings.ToUpper(k.Name)}, k.Env...)
	for _, n := range names {
		if v, ok := os.LookupEnv(n); ok && v != "" {
			return "env"
		}
	}
	if _, ok := s.file[k.Name]; ok {
		return "file"
	}
	return "default"
}

func zero(kind Kind) any {
	switch kind {
	case Int:
		return 0
	case Bool:
		return false
	case Duration:
		return time.Duration(0)
	case List:
		return []string{}
	}
	return ""
}

func parse(k Key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch k.Kind {
	case Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("want an integer, got %q", value)
		}
		if n < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil
	case Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("want true or false, got %q", value)
		}
		return b, nil
	case Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			// bare numbers are seconds
			n, nerr := strconv.Atoi(value)
			if nerr != nil {
				return nil, fmt.Errorf("want a duration such as 30s, got %q", value)
			}
			d = time.Duration(n) * time.Second
		}
		return d.String(), nil
	case List:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	}
	return value, nil
}

// maskKey shows only first 4 and last 4 characters
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
