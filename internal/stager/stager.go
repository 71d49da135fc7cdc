package stager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/deb-builder/internal/config"
	"github.com/oshokin/deb-builder/internal/domain/debian"
	"github.com/oshokin/deb-builder/internal/logger"
)

// ControlScriptMode is u=rwx,go=rx.
const ControlScriptMode os.FileMode = 0o755

// Stager builds staging trees for a single project.
type Stager struct {
	cfg *config.Config
}

// New creates a Stager for the project described by cfg.
func New(cfg *config.Config) *Stager {
	return &Stager{cfg: cfg}
}

// Layout returns the paths used for entry.
func (s *Stager) Layout(entry debian.ServiceEntry) debian.Layout {
	return debian.Layout{
		ProjectRoot: s.cfg.ProjectRoot,
		DebianDir:   s.cfg.DebianPath(),
		Entry:       entry,
	}
}

// Stage recreates the staging tree for entry and returns its root.
func (s *Stager) Stage(ctx context.Context, entry debian.ServiceEntry) (string, error) {
	layout := s.Layout(entry)
	root := layout.StagingDir()

	logger.DebugKV(ctx, "Resetting staging tree", "path", root)

	if err := os.RemoveAll(root); err != nil {
		return "", fmt.Errorf("%w: remove %s: %w", debian.ErrStaging, root, err)
	}

	for _, dir := range []string{
		layout.StagedAppDir(),
		layout.StagedOrchDir(),
		layout.StagedDebugLogDir(),
		layout.StagedLogrotateDir(),
	} {
		if err := os.MkdirAll(dir, config.DefaultDirPermissions); err != nil {
			return "", fmt.Errorf("%w: create %s: %w", debian.ErrStaging, dir, err)
		}
	}

	copies := []struct{ src, dst string }{
		{layout.ConfigSource(), layout.StagedConfig()},
		{layout.ControlScriptSource(), layout.StagedControlScript()},
	}

	for _, hook := range debian.HookNames {
		copies = append(copies, struct{ src, dst string }{
			filepath.Join(layout.PackageSourceDir(), hook.Source),
			filepath.Join(layout.StagedOrchDir(), hook.Target),
		})
	}

	copies = append(copies, struct{ src, dst string }{
		filepath.Join(layout.PackageSourceDir(), debian.LogrotateSource),
		layout.StagedLogrotatePolicy(),
	})

	for _, c := range copies {
		if err := copyFile(c.src, c.dst); err != nil {
			return "", fmt.Errorf("%w: %w", debian.ErrStaging, err)
		}
	}

	if err := os.Chmod(layout.StagedControlScript(), ControlScriptMode); err != nil {
		return "", fmt.Errorf("%w: chmod control script: %w", debian.ErrStaging, err)
	}

	if err := copyTree(layout.CompiledDir(), layout.StagedCompiledDir()); err != nil {
		return "", fmt.Errorf("%w: copy compiled service: %w", debian.ErrStaging, err)
	}

	logger.InfoKV(ctx, "Staged package tree", "path", root)

	return root, nil
}
