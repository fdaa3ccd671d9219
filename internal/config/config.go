// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/cliff/internal/extract"
	"github.com/jeranaias/cliff/internal/template"
	"github.com/jeranaias/cliff/internal/util"
)

// CurrentVersion is written into new configuration files.
const CurrentVersion = "1"

// Environment variables read by ApplyEnvOverrides and ResolvePath.
const (
	EnvConfig        = "CLIFF_CONFIG"
	EnvModel         = "CLIFF_MODEL"
	EnvStopOnFailure = "CLIFF_STOP_ON_FAILURE"
	EnvShell         = "CLIFF_SHELL"
	EnvLogLevel      = "CLIFF_LOG_LEVEL"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete cliff configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version"`

	// DefaultModel is used when nothing else selects a model.
	DefaultModel string `toml:"default_model" json:"default_model" yaml:"default_model"`
	// CurrentModel is the persisted selection made with "config set-current".
	CurrentModel string `toml:"current_model" json:"current_model" yaml:"current_model"`

	Models map[string]ModelConfig `toml:"models" json:"models" yaml:"models"`

	Execution ExecutionConfig `toml:"execution" json:"execution" yaml:"execution"`
	Context   ContextConfig   `toml:"context" json:"context" yaml:"context"`
	History   HistoryConfig   `toml:"history" json:"history" yaml:"history"`
	Logging   LoggingConfig   `toml:"logging" json:"logging" yaml:"logging"`

	// ModelOverride comes from CLIFF_MODEL and is never persisted.
	ModelOverride string `toml:"-" json:"-" yaml:"-"`
}

// ModelConfig describes one LLM backend.
type ModelConfig struct {
	// Name is the map key; it is filled in on load.
	Name string `toml:"-" json:"-" yaml:"-"`

	APIURL string `toml:"api_url" json:"api_url" yaml:"api_url"`
	// APIKey is a secret. It is never logged or echoed.
	APIKey string `toml:"api_key,omitempty" json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// APIKeyHeader is a "Header-Name: value {{api_key}}" template.
	APIKeyHeader string `toml:"api_key_header,omitempty" json:"api_key_header,omitempty" yaml:"api_key_header,omitempty"`
	// ModelIdentifier fills {{model}} in RequestFormat.
	ModelIdentifier string `toml:"model,omitempty" json:"model,omitempty" yaml:"model,omitempty"`
	// RequestFormat is the JSON body template; it must contain {{prompt}}.
	RequestFormat string `toml:"request_format" json:"request_format" yaml:"request_format"`
	// ResponsePath selects the answer text in the response document.
	ResponsePath string `toml:"response_path" json:"response_path" yaml:"response_path"`
	// TimeoutSecs bounds one request; 0 uses the client default.
	TimeoutSecs int `toml:"timeout_secs,omitempty" json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty"`
}

// ExecutionConfig controls the plan executor.
type ExecutionConfig struct {
	// Shell runs RunCommand steps; empty means $SHELL, then /bin/sh.
	Shell string `toml:"shell" json:"shell" yaml:"shell"`
	// StopOnFailure skips the remaining steps after the first failure.
	StopOnFailure bool `toml:"stop_on_failure" json:"stop_on_failure" yaml:"stop_on_failure"`
	// CommandTimeoutSecs bounds each command; 0 means no limit.
	CommandTimeoutSecs int `toml:"command_timeout_secs" json:"command_timeout_secs" yaml:"command_timeout_secs"`
	// MaxOutputBytes caps captured command output.
	MaxOutputBytes int `toml:"max_output_bytes" json:"max_output_bytes" yaml:"max_output_bytes"`
}

// ContextConfig controls the context gatherer.
type ContextConfig struct {
	// MaxSourceBytes caps each file or URL body.
	MaxSourceBytes int64 `toml:"max_source_bytes" json:"max_source_bytes" yaml:"max_source_bytes"`
	// FetchTimeoutSecs bounds each URL fetch.
	FetchTimeoutSecs int `toml:"fetch_timeout_secs" json:"fetch_timeout_secs" yaml:"fetch_timeout_secs"`
	// URLsPerSecond paces URL fetches.
	URLsPerSecond float64 `toml:"urls_per_second" json:"urls_per_second" yaml:"urls_per_second"`
}

// HistoryConfig controls the ask/act history log.
type HistoryConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
	// Path defaults to ~/.cliff/history.db.
	Path string `toml:"path" json:"path" yaml:"path"`
}

// LoggingConfig sets the default log level.
type LoggingConfig struct {
	Level string `toml:"level" json:"level" yaml:"level"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with no models and default settings.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Models:  make(map[string]ModelConfig),
		Execution: ExecutionConfig{
			MaxOutputBytes: 1 << 20,
		},
		Context: ContextConfig{
			MaxSourceBytes:   1 << 20,
			FetchTimeoutSecs: 30,
			URLsPerSecond:    2,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// SetDefaults fills zero values and copies each model's map key into Name.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Models == nil {
		c.Models = make(map[string]ModelConfig)
	}
	for name, m := range c.Models {
		m.Name = name
		c.Models[name] = m
	}
	if c.Execution.MaxOutputBytes == 0 {
		c.Execution.MaxOutputBytes = defaults.Execution.MaxOutputBytes
	}
	if c.Context.MaxSourceBytes == 0 {
		c.Context.MaxSourceBytes = defaults.Context.MaxSourceBytes
	}
	if c.Context.FetchTimeoutSecs == 0 {
		c.Context.FetchTimeoutSecs = defaults.Context.FetchTimeoutSecs
	}
	if c.Context.URLsPerSecond == 0 {
		c.Context.URLsPerSecond = defaults.Context.URLsPerSecond
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the cliff configuration directory, ~/.cliff.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".cliff"), nil
}

// DefaultPath returns ~/.cliff/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ResolvePath returns explicit if set, else CLIFF_CONFIG, else DefaultPath.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, nil
	}
	return DefaultPath()
}

// HistoryPath returns the configured history database path or
// ~/.cliff/history.db.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

type format int

const (
	formatTOML format = iota
	formatJSON
	formatYAML
)

func formatOf(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatTOML
	}
}

// ensureSecurePermissions tightens an existing config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the configuration at path. A missing file yields the defaults.
// Environment overrides are applied last. When validation fails the decoded
// config is still returned alongside the error, so that commands which
// repair the file can proceed.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadForEdit reads the configuration like Load but ignores environment
// overrides, so that a following Save writes back only what the file held.
func LoadForEdit(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, withEnv bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if withEnv {
			cfg.ApplyEnvOverrides()
		}
		cfg.SetDefaults()
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Best effort: some filesystems do not support chmod
	_ = ensureSecurePermissions(path)

	if err := decode(cfg, data, formatOf(path)); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if withEnv {
		cfg.ApplyEnvOverrides()
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func decode(cfg *Config, data []byte, f format) error {
	switch f {
	case formatJSON:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode JSON: %w", err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to decode TOML: %w", err)
		}
	}
	return nil
}

// Save writes the configuration to path atomically with mode 0600, in the
// format implied by the extension.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer

	switch formatOf(path) {
	case formatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	case formatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		enc.Close()
	default:
		buf.WriteString("# cliff configuration file\n")
		buf.WriteString("# Contains API keys: keep this file private (mode 0600)\n\n")
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	}

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every model definition and the settings sections.
func (c *Config) Validate() error {
	var errs ValidateErrors

	for _, name := range c.ModelNames() {
		m := c.Models[name]
		m.Name = name
		if err := m.Validate(); err != nil {
			var verrs ValidateErrors
			if errors.As(err, &verrs) {
				errs = append(errs, verrs...)
			}
		}
	}

	if c.DefaultModel != "" {
		if _, ok := c.Models[c.DefaultModel]; !ok {
			errs = append(errs, ValidationError{
				Field:   "default_model",
				Message: fmt.Sprintf("model %q is not defined", c.DefaultModel),
			})
		}
	}
	if c.CurrentModel != "" {
		if _, ok := c.Models[c.CurrentModel]; !ok {
			errs = append(errs, ValidationError{
				Field:   "current_model",
				Message: fmt.Sprintf("model %q is not defined", c.CurrentModel),
			})
		}
	}

	if c.Execution.CommandTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "execution.command_timeout_secs",
			Message: "must not be negative",
		})
	}
	if c.Execution.MaxOutputBytes < 0 {
		errs = append(errs, ValidationError{
			Field:   "execution.max_output_bytes",
			Message: "must not be negative",
		})
	}
	if c.Context.MaxSourceBytes < 0 {
		errs = append(errs, ValidationError{
			Field:   "context.max_source_bytes",
			Message: "must not be negative",
		})
	}
	if c.Context.URLsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "context.urls_per_second",
			Message: "must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks one model definition.
func (m ModelConfig) Validate() error {
	var errs ValidateErrors
	prefix := "models." + m.Name

	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, ValidationError{Field: "models", Message: "model name must not be empty"})
	}

	if m.APIURL == "" {
		errs = append(errs, ValidationError{Field: prefix + ".api_url", Message: "required"})
	} else if u, err := url.Parse(m.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".api_url",
			Message: fmt.Sprintf("invalid URL %q, must be an absolute http(s) URL", m.APIURL),
		})
	}

	if !template.Contains(m.RequestFormat, template.VarPrompt) {
		errs = append(errs, ValidationError{
			Field:   prefix + ".request_format",
			Message: "must contain {{prompt}}",
		})
	}
	for _, name := range template.Placeholders(m.RequestFormat) {
		if name != template.VarPrompt && name != template.VarModel {
			errs = append(errs, ValidationError{
				Field:   prefix + ".request_format",
				Message: fmt.Sprintf("unknown placeholder {{%s}}", name),
			})
		}
	}

	if m.ResponsePath == "" {
		errs = append(errs, ValidationError{Field: prefix + ".response_path", Message: "required"})
	} else if _, err := extract.ParsePath(m.ResponsePath); err != nil {
		errs = append(errs, ValidationError{
			Field:   prefix + ".response_path",
			Message: fmt.Sprintf("invalid path %q", m.ResponsePath),
		})
	}

	if m.APIKeyHeader != "" && !template.Contains(m.APIKeyHeader, template.VarAPIKey) {
		errs = append(errs, ValidationError{
			Field:   prefix + ".api_key_header",
			Message: "must contain {{api_key}}",
		})
	}
	if m.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: prefix + ".timeout_secs", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CLIFF_MODEL: model override for this invocation (not persisted)
//   - CLIFF_STOP_ON_FAILURE: "1" or "true" stops plans at the first failure
//   - CLIFF_SHELL: overrides execution.shell
//   - CLIFF_LOG_LEVEL: overrides logging.level
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv(EnvModel); model != "" {
		c.ModelOverride = model
	}
	if v := os.Getenv(EnvStopOnFailure); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Execution.StopOnFailure = b
		}
	}
	if shell := os.Getenv(EnvShell); shell != "" {
		c.Execution.Shell = shell
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}
