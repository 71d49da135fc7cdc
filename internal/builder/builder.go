package builder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oshokin/deb-builder/internal/config"
	"github.com/oshokin/deb-builder/internal/domain/debian"
	"github.com/oshokin/deb-builder/internal/executor"
	"github.com/oshokin/deb-builder/internal/logger"
)

// Builder invokes the configured packaging command.
type Builder struct {
	cfg    *config.Config
	runner executor.Runner
}

// New creates a Builder.
func New(cfg *config.Config, runner executor.Runner) *Builder {
	return &Builder{
		cfg:    cfg,
		runner: runner,
	}
}

// ArtifactPath is where the package for packageName is written.
func (b *Builder) ArtifactPath(packageName string) string {
	return filepath.Join(
		b.cfg.ArtefactsPath(),
		debian.ArtifactFilename(packageName, b.cfg.BuildNumber, b.cfg.Architecture),
	)
}

// Command returns the packaging invocation for a staged entry.
func (b *Builder) Command(stagingDir string, entry debian.ServiceEntry) executor.Command {
	layout := debian.Layout{
		ProjectRoot: b.cfg.ProjectRoot,
		DebianDir:   b.cfg.DebianPath(),
		Entry:       entry,
	}

	args := append([]string(nil), b.cfg.Tools.Package[1:]...)
	args = append(args,
		"-C", stagingDir,
		"-s", "dir",
		"-t", "deb",
		"-n", entry.PackageName,
		"-v", b.cfg.BuildNumber,
		"-a", b.cfg.Architecture,
		"--deb-no-default-config-files",
		"--deb-systemd", layout.SystemdUnit(),
		"--deb-upstart", layout.UpstartScript(),
		"--prefix=/",
		"--after-install", layout.PostInstallScript(),
	)

	for _, dep := range b.cfg.Depends {
		args = append(args, "--depends", dep)
	}

	args = append(args, "-p", b.ArtifactPath(entry.PackageName), ".")

	return executor.Command{
		Name: b.cfg.Tools.Package[0],
		Args: args,
		// Bundler finds the Gemfile by walking up from here.
		Dir: filepath.Dir(stagingDir),
	}
}

// Build packages stagingDir and returns the artifact path.
func (b *Builder) Build(ctx context.Context, stagingDir string, entry debian.ServiceEntry) (string, error) {
	cmd := b.Command(stagingDir, entry)

	logger.DebugKV(ctx, "Running packaging tool", "command", cmd.String())

	res, err := b.runner.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("%w: %w", debian.ErrBuild, err)
	}

	if !res.Success() {
		return "", &debian.ToolError{
			Tool:     cmd.Name,
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(string(res.Stderr)),
			Kind:     debian.ErrBuild,
		}
	}

	artifact := b.ArtifactPath(entry.PackageName)

	logger.InfoKV(ctx, "Built package", "artifact", artifact)

	return artifact, nil
}
