package debian

import (
	"fmt"
	"path"
	"path/filepath"
)

// Staging tree layout relative to the staging root.
const (
	// StagingDirname is the staging root inside <service>/build/install.
	StagingDirname = "deb"
	// AppDir holds configuration, control script and the compiled service.
	AppDir = "ida"
	// OrchDir holds the orchestration lifecycle hooks.
	OrchDir = "opt/orch"
	// DebugLogDir is shipped empty.
	DebugLogDir = "var/log/ida/debug"
	// LogrotateDir holds the log rotation policy.
	LogrotateDir = "etc/logrotate.d"
)

// Source files expected under <debian_dir>/<package>/.
const (
	OrchDeploySource  = "orch-deploy"
	OrchReadySource   = "orch-ready"
	OrchRestartSource = "orch-restart"
	LogrotateSource   = "logrotate-console-log"
	PostInstallSource = "postinst.sh"
)

// HookNames maps hook source files to their installed names.
//
//nolint:gochecknoglobals // Read-only table.
var HookNames = []struct {
	Source string
	Target string
}{
	{Source: OrchDeploySource, Target: "deploy"},
	{Source: OrchReadySource, Target: "ready"},
	{Source: OrchRestartSource, Target: "restart"},
}

// Layout resolves every path of a single service build.
type Layout struct {
	// ProjectRoot is the absolute repository root.
	ProjectRoot string
	// DebianDir holds per-package packaging sources.
	DebianDir string
	// Entry is the service being built.
	Entry ServiceEntry
}

// InstallDir is <root>/<service_path>/build/install.
func (l Layout) InstallDir() string {
	return filepath.Join(l.ProjectRoot, filepath.FromSlash(l.Entry.Path), "build", "install")
}

// StagingDir is the root of the staging tree.
func (l Layout) StagingDir() string {
	return filepath.Join(l.InstallDir(), StagingDirname)
}

// CompiledDir is the compiled service tree produced by the service build.
func (l Layout) CompiledDir() string {
	return filepath.Join(l.InstallDir(), l.Entry.ServiceName)
}

// PackageSourceDir is <debian_dir>/<package>.
func (l Layout) PackageSourceDir() string {
	return filepath.Join(l.DebianDir, l.Entry.PackageName)
}

// ServiceSourceDir is <debian_dir>/<service>, home of init system units.
func (l Layout) ServiceSourceDir() string {
	return filepath.Join(l.DebianDir, l.Entry.ServiceName)
}

// ConfigSource is the service YAML configuration.
func (l Layout) ConfigSource() string {
	return filepath.Join(l.PackageSourceDir(), l.Entry.PackageName+".yml")
}

// ControlScriptSource is the service control script.
func (l Layout) ControlScriptSource() string {
	return filepath.Join(l.PackageSourceDir(), l.Entry.ServiceName+".sh")
}

// PostInstallScript is passed to the packaging tool as the after-install hook.
func (l Layout) PostInstallScript() string {
	return filepath.Join(l.PackageSourceDir(), PostInstallSource)
}

// SystemdUnit is the systemd unit shipped with the package.
func (l Layout) SystemdUnit() string {
	return filepath.Join(l.ServiceSourceDir(), "systemd", l.Entry.ServiceName+".service")
}

// UpstartScript is the upstart job shipped with the package.
func (l Layout) UpstartScript() string {
	return filepath.Join(l.ServiceSourceDir(), "upstart", l.Entry.ServiceName)
}

// StagedAppDir is ida/<package> inside the staging tree.
func (l Layout) StagedAppDir() string {
	return filepath.Join(l.StagingDir(), AppDir, l.Entry.PackageName)
}

// StagedConfig is the staged YAML configuration.
func (l Layout) StagedConfig() string {
	return filepath.Join(l.StagedAppDir(), l.Entry.PackageName+".yml")
}

// StagedControlScript is the staged control script.
func (l Layout) StagedControlScript() string {
	return filepath.Join(l.StagedAppDir(), l.Entry.ServiceName+".sh")
}

// StagedOrchDir is opt/orch/<service> inside the staging tree.
func (l Layout) StagedOrchDir() string {
	return filepath.Join(l.StagingDir(), filepath.FromSlash(OrchDir), l.Entry.ServiceName)
}

// StagedDebugLogDir is the empty debug log directory.
func (l Layout) StagedDebugLogDir() string {
	return filepath.Join(l.StagingDir(), filepath.FromSlash(DebugLogDir))
}

// StagedLogrotateDir is etc/logrotate.d inside the staging tree.
func (l Layout) StagedLogrotateDir() string {
	return filepath.Join(l.StagingDir(), filepath.FromSlash(LogrotateDir))
}

// StagedLogrotatePolicy is etc/logrotate.d/<service>.
func (l Layout) StagedLogrotatePolicy() string {
	return filepath.Join(l.StagedLogrotateDir(), l.Entry.ServiceName)
}

// StagedCompiledDir is ida/<service> inside the staging tree.
func (l Layout) StagedCompiledDir() string {
	return filepath.Join(l.StagingDir(), AppDir, l.Entry.ServiceName)
}

// ArtifactFilename is <package>_<build>_<arch>.deb.
func ArtifactFilename(packageName, buildNumber, arch string) string {
	return fmt.Sprintf("%s_%s_%s.deb", packageName, buildNumber, arch)
}

// ArtifactGlob matches every artifact of a package regardless of build number.
func ArtifactGlob(packageName, arch string) string {
	return fmt.Sprintf("%s_*_%s.deb", packageName, arch)
}

// ExpectedBinaryPath is the entry a valid package must contain.
func ExpectedBinaryPath(installPrefix, packageName string) string {
	return path.Join("/", installPrefix, packageName, "bin", packageName)
}
