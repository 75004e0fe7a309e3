// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/themecheck/tgmpalint/internal/config"
	"github.com/themecheck/tgmpalint/internal/release"
)

type (
	// App wires CLI services and shared dependencies. Cobra handlers receive
	// an App and delegate through it.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
		// configDir and workDir scope config lookup; empty means the
		// platform config directory and the process working directory.
		configDir string
		workDir   string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		Stdout    io.Writer
		Stderr    io.Writer
		ConfigDir string
		WorkDir   string
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Loaded, error)
	}
)

// NewApp creates an App, filling unset dependencies with defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:    deps.Config,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		configDir: deps.ConfigDir,
		workDir:   deps.WorkDir,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig loads configuration honoring --config and the app's lookup
// directories. A .env file in the working directory is read first.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Loaded, error) {
	return a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configPath,
		ConfigDirPath:  a.configDir,
		WorkDir:        a.workDir,
		DotEnvPath:     filepath.Join(a.workDir, ".env"),
	})
}

// newLogger returns the diagnostics logger. Verbose mode shows debug output;
// otherwise only warnings and errors are logged.
func (a *App) newLogger(verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: "tgmpalint",
		Level:  level,
	})
}

// newResolver builds the process-wide latest-version resolver.
func newResolver(cfg *config.Config, tokenFlag string, logger *log.Logger, opts ...release.ResolverOption) (*release.GitHubClient, *release.Resolver) {
	client := release.NewGitHubClient(
		release.WithBaseURL(cfg.GitHub.APIURL),
		release.WithTimeout(cfg.GitHub.Timeout),
		release.WithToken(cfg.GitHub.ResolveToken(tokenFlag)),
		release.WithUserAgent("tgmpalint/"+Version),
	)
	if !client.HasToken() {
		logger.Debug("no GitHub token configured, using the unauthenticated rate limit")
	}
	opts = append([]release.ResolverOption{release.WithLogger(logger)}, opts...)
	return client, release.NewResolver(client, opts...)
}
