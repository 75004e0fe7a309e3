// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// FormatText renders one styled line per finding.
	FormatText OutputFormat = "text"
	// FormatJSON renders a machine-readable JSON report.
	FormatJSON OutputFormat = "json"
	// FormatYAML renders a machine-readable YAML report.
	FormatYAML OutputFormat = "yaml"

	// DefaultMaxFileSize is the largest file scanned by default (4 MiB).
	DefaultMaxFileSize int64 = 4 << 20

	// DefaultAPIURL is the GitHub API endpoint used when none is configured.
	DefaultAPIURL = "https://api.github.com"

	// DefaultTimeout bounds requests to the GitHub API.
	DefaultTimeout = 10 * time.Second

	// TokenEnvVar is the environment variable read when no token is configured.
	TokenEnvVar = "GITHUB_TOKEN"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputFormat selects the report renderer.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	// It wraps ErrInvalidOutputFormat for errors.Is() compatibility.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// GitHub configures access to the release API
		GitHub GitHubConfig `json:"github" mapstructure:"github"`
		// Scan configures file discovery and the worker pool
		Scan ScanConfig `json:"scan" mapstructure:"scan"`
		// Output configures reporting
		Output OutputConfig `json:"output" mapstructure:"output"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// GitHubConfig configures the release API client.
	GitHubConfig struct {
		Token   string        `json:"token" mapstructure:"token"`
		APIURL  string        `json:"api_url" mapstructure:"api_url"`
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	// ScanConfig configures file discovery.
	ScanConfig struct {
		// Include lists doublestar patterns a file must match to be scanned.
		Include []string `json:"include" mapstructure:"include"`
		// Exclude lists doublestar patterns that prune files and directories.
		Exclude []string `json:"exclude" mapstructure:"exclude"`
		// Jobs is the number of parallel file workers; 0 means one per CPU.
		Jobs int `json:"jobs" mapstructure:"jobs"`
		// MaxFileSize is the largest file, in bytes, that is scanned.
		MaxFileSize int64 `json:"max_file_size" mapstructure:"max_file_size"`
	}

	// OutputConfig configures reporting.
	OutputConfig struct {
		Format OutputFormat `json:"format" mapstructure:"format"`
		// Strict makes warnings fail the run as well as errors.
		Strict bool `json:"strict" mapstructure:"strict"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIURL:  DefaultAPIURL,
			Timeout: DefaultTimeout,
		},
		Scan: ScanConfig{
			Include:     []string{"**/*.php"},
			Exclude:     []string{"**/.git/**", "**/node_modules/**", "**/vendor/bin/**"},
			MaxFileSize: DefaultMaxFileSize,
		},
		Output: OutputConfig{
			Format: FormatText,
		},
	}
}

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, json, yaml)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// IsValid returns whether the OutputFormat is one of the defined formats.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case FormatText, FormatJSON, FormatYAML:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// ResolveToken returns the token to authenticate with: flag wins over the
// configured token, which wins over the GITHUB_TOKEN environment variable.
func (c GitHubConfig) ResolveToken(flag string) string {
	if t := strings.TrimSpace(flag); t != "" {
		return t
	}
	if t := strings.TrimSpace(c.Token); t != "" {
		return t
	}
	return strings.TrimSpace(os.Getenv(TokenEnvVar))
}

// IsValid returns whether the GitHubConfig has valid fields.
func (c GitHubConfig) IsValid() (bool, []error) {
	var errs []error
	if c.APIURL != "" {
		if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("github.api_url: %q is not an http(s) URL", c.APIURL))
		}
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("github.timeout: must not be negative, got %s", c.Timeout))
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the ScanConfig has valid fields.
func (c ScanConfig) IsValid() (bool, []error) {
	var errs []error
	if len(c.Include) == 0 {
		errs = append(errs, errors.New("scan.include: at least one pattern is required"))
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("scan.jobs: must not be negative, got %d", c.Jobs))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("scan.max_file_size: must be positive, got %d", c.MaxFileSize))
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.GitHub.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Scan.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Output.Format.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Redacted returns a copy of the configuration with the token masked.
func (c Config) Redacted() Config {
	if c.GitHub.Token != "" {
		c.GitHub.Token = "********"
	}
	c.Scan.Include = append([]string(nil), c.Scan.Include...)
	c.Scan.Exclude = append([]string(nil), c.Scan.Exclude...)
	return c
}
