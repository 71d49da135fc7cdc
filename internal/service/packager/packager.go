package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/deb-builder/internal/builder"
	"github.com/oshokin/deb-builder/internal/config"
	"github.com/oshokin/deb-builder/internal/domain/debian"
	"github.com/oshokin/deb-builder/internal/executor"
	"github.com/oshokin/deb-builder/internal/lock"
	"github.com/oshokin/deb-builder/internal/logger"
	"github.com/oshokin/deb-builder/internal/registry"
	"github.com/oshokin/deb-builder/internal/stager"
	"github.com/oshokin/deb-builder/internal/verifier"
)

// packager runs the build for every registered service.
type packager struct {
	// cfg is the read-only build context.
	cfg *config.Config
	// runner executes the install step and the prerequisite lookup.
	runner executor.Runner
	// stager assembles staging trees.
	stager *stager.Stager
	// builder produces artifacts.
	builder *builder.Builder
	// verifier checks artifacts.
	verifier *verifier.Verifier
	// loadRegistry reads the service list.
	loadRegistry func(path string) ([]debian.ServiceEntry, error)
	// alive checks whether a lock holder still runs.
	alive lock.ProcessAlive
}

// newPackager wires the build steps. quietRunner is used for archive listings.
func newPackager(cfg *config.Config, runner, quietRunner executor.Runner) *packager {
	var lister verifier.Lister
	if cfg.Tools.Lister == config.ListerNative {
		lister = verifier.NewArchiveLister()
	} else {
		// The prerequisite is the inspection tool itself.
		lister = verifier.NewDpkgLister(cfg.Tools.Prerequisite, quietRunner)
	}

	return &packager{
		cfg:          cfg,
		runner:       runner,
		stager:       stager.New(cfg),
		builder:      builder.New(cfg, runner),
		verifier:     verifier.New(lister),
		loadRegistry: registry.Load,
		alive:        lock.FindProcess,
	}
}

// Run executes every step in order and stops at the first failure.
func (p *packager) Run(ctx context.Context) error {
	if err := p.checkPrerequisite(ctx); err != nil {
		return err
	}

	if err := p.ensureArtefactsDir(); err != nil {
		return err
	}

	held, err := lock.Acquire(ctx, p.cfg.ArtefactsPath(), p.alive)
	if err != nil {
		return err
	}

	defer func() {
		if releaseErr := held.Release(); releaseErr != nil {
			logger.WarnKV(ctx, "Failed to release lock", "error", releaseErr)
		}
	}()

	if err = p.installDependencies(ctx); err != nil {
		return err
	}

	started := time.Now()

	entries, err := p.loadRegistry(p.cfg.RegistryPath())
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	for _, entry := range entries {
		if err = p.buildEntry(ctx, entry); err != nil {
			return fmt.Errorf("package %s: %w", entry.PackageName, err)
		}
	}

	logger.InfoKV(ctx, "Package and upload took",
		"elapsed", time.Since(started),
		"packages", len(entries),
	)

	return nil
}

// checkPrerequisite aborts before any work when the inspection tool is missing.
func (p *packager) checkPrerequisite(ctx context.Context) error {
	tool := p.cfg.Tools.Prerequisite

	if _, err := p.runner.LookPath(tool); err != nil {
		logger.ErrorKV(ctx, "Required tool not found", "tool", tool)

		return fmt.Errorf("%w: package '%s' is required to verify debs, OSX users try 'brew install %s'",
			debian.ErrPrerequisiteMissing, tool, tool)
	}

	return nil
}

// installDependencies runs the install command. Its exit status does not stop
// the run; only cancellation does.
func (p *packager) installDependencies(ctx context.Context) error {
	install := p.cfg.Tools.Install
	if len(install) == 0 {
		logger.Debug(ctx, "Dependency installation skipped")

		return nil
	}

	cmd := executor.Command{
		Name: install[0],
		Args: install[1:],
		Dir:  p.cfg.ProjectRoot,
	}

	logger.InfoKV(ctx, "Installing dependencies", "command", cmd.String())

	res, err := p.runner.Run(ctx, cmd)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case err != nil:
		logger.WarnKV(ctx, "Dependency installation could not start", "error", err)
	case !res.Success():
		logger.WarnKV(ctx, "Dependency installation failed", "exit_code", res.ExitCode)
	}

	return nil
}

// buildEntry runs the per-service steps.
func (p *packager) buildEntry(ctx context.Context, entry debian.ServiceEntry) error {
	ctx = logger.WithKV(ctx, "package", entry.PackageName)

	logger.InfoKV(ctx, "Building debian package", "service", entry.ServiceName, "path", entry.Path)

	if err := p.ensureArtefactsDir(); err != nil {
		return err
	}

	if err := p.removeStaleArtifacts(ctx, entry.PackageName); err != nil {
		return err
	}

	stagingDir, err := p.stager.Stage(ctx, entry)
	if err != nil {
		return err
	}

	artifact, err := p.builder.Build(ctx, stagingDir, entry)
	if err != nil {
		return err
	}

	return p.verifier.Verify(ctx, artifact, entry.PackageName, p.cfg.InstallPrefix)
}

func (p *packager) ensureArtefactsDir() error {
	if err := os.MkdirAll(p.cfg.ArtefactsPath(), config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create artefacts directory: %w", err)
	}

	return nil
}

// removeStaleArtifacts deletes every earlier build of packageName.
func (p *packager) removeStaleArtifacts(ctx context.Context, packageName string) error {
	pattern := filepath.Join(p.cfg.ArtefactsPath(), debian.ArtifactGlob(packageName, p.cfg.Architecture))

	stale, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("match stale artifacts: %w", err)
	}

	for _, path := range stale {
		logger.DebugKV(ctx, "Removing stale artifact", "path", path)

		if err = os.RemoveAll(path); err != nil {
			return fmt.Errorf("remove stale artifact: %w", err)
		}
	}

	return nil
}
