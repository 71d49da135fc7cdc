package packager

import (
	"context"
	"fmt"
	"os"

	"github.com/oshokin/deb-builder/internal/config"
	"github.com/oshokin/deb-builder/internal/executor"
	"github.com/oshokin/deb-builder/internal/logger"
)

// Options contains inputs for the packager entry point.
// Empty fields leave the configuration file or defaults in effect.
type Options struct {
	// ConfigPath is an optional YAML file with build settings.
	ConfigPath string
	// ProjectRoot overrides the repository root.
	ProjectRoot string
	// RegistryFile overrides the service registry location.
	RegistryFile string
	// BuildNumber overrides the BUILD_NUMBER environment variable.
	BuildNumber string
	// Lister selects the archive inspection method.
	Lister string
	// SkipInstall disables the dependency installation step.
	SkipInstall bool
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "deb-builder")

	cfg, err := buildConfig(opts)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Starting packaging run",
		"project_root", cfg.ProjectRoot,
		"build_number", cfg.BuildNumber,
		"lister", cfg.Tools.Lister,
	)

	// Tool output is mirrored like a shell script would show it; listings are not.
	var (
		runner      = executor.NewExecRunner(os.Stdout, os.Stderr)
		quietRunner = executor.NewExecRunner(nil, nil)
	)

	return newPackager(cfg, runner, quietRunner).Run(ctx)
}

// buildConfig merges the configuration file, environment and options.
func buildConfig(opts *Options) (*config.Config, error) {
	if opts == nil {
		opts = new(Options)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.ProjectRoot != "" {
		cfg.ProjectRoot = opts.ProjectRoot
	}

	if opts.RegistryFile != "" {
		cfg.RegistryFile = opts.RegistryFile
	}

	if opts.Lister != "" {
		cfg.Tools.Lister = opts.Lister
	}

	if opts.SkipInstall {
		cfg.Tools.Install = nil
	}

	cfg.BuildNumber = opts.BuildNumber
	cfg.ApplyEnv()

	if err = config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return cfg, nil
}
