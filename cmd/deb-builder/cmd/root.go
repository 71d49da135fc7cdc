package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/deb-builder/internal/config"
	"github.com/oshokin/deb-builder/internal/domain/debian"
	"github.com/oshokin/deb-builder/internal/logger"
	"github.com/oshokin/deb-builder/internal/service/packager"
	"github.com/oshokin/deb-builder/internal/version"
)

var (
	// options collects flag values for the packaging run.
	options packager.Options
	// logLevel is the minimum level of printed messages.
	logLevel string

	// rootCmd builds and verifies a Debian package for every registered service.
	rootCmd = &cobra.Command{
		Use:   "deb-builder",
		Short: "Build and verify Debian packages for every registered service",
		Long: `Reads the service registry (bin/services.yaml by default) and, for each service in order,
stages its files, packages them with fpm into artefacts/<package>_<build>_amd64.deb and checks
that the package ships /ida/<package>/bin/<package>.

The package version comes from BUILD_NUMBER (default "0") unless --build-number is given.
The first failure stops the run; the exit code of a failing tool is propagated.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return packager.Run(ctx, &options)
		},
	}
)

// Execute runs the deb-builder CLI and exits with the status of the failure.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.Execute()

	logger.Sync()

	if err != nil {
		os.Exit(debian.ExitCode(err))
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&options.ConfigPath, "config", "c", "", "path to an optional YAML settings file")
	flags.StringVarP(&options.ProjectRoot, "project-root", "r", "", "repository root (default: current directory)")
	flags.StringVar(&options.RegistryFile, "registry", "", "service registry, relative to the project root (default "+config.DefaultRegistryFile+")")
	flags.StringVarP(&options.BuildNumber, "build-number", "b", "", "package version (default: $"+config.BuildNumberEnv+" or "+config.DefaultBuildNumber+")")
	flags.StringVar(&options.Lister, "lister", "", "archive inspection: dpkg or native (default dpkg)")
	flags.BoolVar(&options.SkipInstall, "skip-install", false, "do not install packaging tool dependencies")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
}
