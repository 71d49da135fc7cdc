package builder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/deb-builder/internal/config"
	"github.com/oshokin/deb-builder/internal/domain/debian"
	"github.com/oshokin/deb-builder/internal/executor"
)

var errTestStart = errors.New("cannot start")

// recordingRunner remembers commands and replies with a fixed result.
type recordingRunner struct {
	// calls holds every command passed to Run.
	calls []executor.Command
	// result is returned from Run.
	result *executor.Result
	// err is returned from Run.
	err error
}

// Run records cmd.
func (r *recordingRunner) Run(_ context.Context, cmd executor.Command) (*executor.Result, error) {
	r.calls = append(r.calls, cmd)

	return r.result, r.err
}

// LookPath always succeeds.
func (r *recordingRunner) LookPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.ProjectRoot = "/src"
	cfg.BuildNumber = "17"
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// TestBuild_Command pins the fpm invocation.
func TestBuild_Command(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{result: new(executor.Result)}
	b := New(testConfig(t), runner)
	entry := debian.ServiceEntry{PackageName: "ida-policy", Path: "hub/policy", ServiceName: "policy"}
	staging := filepath.FromSlash("/src/hub/policy/build/install/deb")

	artifact, err := b.Build(context.Background(), staging, entry)
	require.NoError(t, err)
	require.Equal(t, filepath.FromSlash("/src/artefacts/ida-policy_17_amd64.deb"), artifact)

	require.Len(t, runner.calls, 1)

	cmd := runner.calls[0]
	require.Equal(t, "bundle", cmd.Name)
	require.Equal(t, filepath.FromSlash("/src/hub/policy/build/install"), cmd.Dir)
	require.Equal(t, []string{
		"exec", "fpm",
		"-C", staging,
		"-s", "dir",
		"-t", "deb",
		"-n", "ida-policy",
		"-v", "17",
		"-a", "amd64",
		"--deb-no-default-config-files",
		"--deb-systemd", filepath.FromSlash("/src/debian/policy/systemd/policy.service"),
		"--deb-upstart", filepath.FromSlash("/src/debian/policy/upstart/policy"),
		"--prefix=/",
		"--after-install", filepath.FromSlash("/src/debian/ida-policy/postinst.sh"),
		"--depends", "python-httplib2",
		"-p", artifact,
		".",
	}, cmd.Args)
}

// TestBuild_NonZeroExit fails with ErrBuild carrying the exit code.
func TestBuild_NonZeroExit(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{result: &executor.Result{ExitCode: 2, Stderr: []byte("boom\n")}}
	b := New(testConfig(t), runner)

	_, err := b.Build(context.Background(), "/tmp/deb", debian.ServiceEntry{PackageName: "foo", Path: "s/foo", ServiceName: "foo"})
	require.ErrorIs(t, err, debian.ErrBuild)
	require.Equal(t, 2, debian.ExitCode(err))
	require.Contains(t, err.Error(), "boom")
}

// TestBuild_StartFailure fails with ErrBuild.
func TestBuild_StartFailure(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{err: errTestStart}
	b := New(testConfig(t), runner)

	_, err := b.Build(context.Background(), "/tmp/deb", debian.ServiceEntry{PackageName: "foo", Path: "s/foo", ServiceName: "foo"})
	require.ErrorIs(t, err, debian.ErrBuild)
	require.ErrorIs(t, err, errTestStart)
}

// TestBuild_CustomTool honors a configured command without a wrapper.
func TestBuild_CustomTool(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Tools.Package = []string{"fpm"}
	cfg.Depends = []string{"a", "b"}

	runner := &recordingRunner{result: new(executor.Result)}

	_, err := New(cfg, runner).Build(context.Background(), "/tmp/deb", debian.ServiceEntry{PackageName: "foo", Path: "s/foo", ServiceName: "foo"})
	require.NoError(t, err)
	require.Equal(t, "fpm", runner.calls[0].Name)
	require.Equal(t, "-C", runner.calls[0].Args[0])
	require.Contains(t, runner.calls[0].Args, "a")
	require.Contains(t, runner.calls[0].Args, "b")
}
