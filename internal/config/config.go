package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the build context shared by every component of a run.
type Config struct {
	// ProjectRoot is the repository root; made absolute by Validate.
	ProjectRoot string `yaml:"project_root"`
	// RegistryFile lists the buildable services, relative to ProjectRoot.
	RegistryFile string `yaml:"registry_file"`
	// ArtefactsDir receives the built packages, relative to ProjectRoot.
	ArtefactsDir string `yaml:"artefacts_dir"`
	// DebianDir holds per-package packaging sources, relative to ProjectRoot.
	DebianDir string `yaml:"debian_dir"`
	// InstallPrefix is where services are installed on target hosts.
	InstallPrefix string `yaml:"install_prefix"`
	// Architecture is stamped into the package and its filename.
	Architecture string `yaml:"architecture"`
	// Depends lists runtime package dependencies.
	Depends []string `yaml:"depends"`
	// Tools holds the external command lines.
	Tools Tools `yaml:"tools"`
	// BuildNumber is the package version. Comes from the environment or
	// the command line, never from the file.
	BuildNumber string `yaml:"-"`
}

// Tools are the external collaborators of a build.
type Tools struct {
	// Prerequisite must be on PATH before anything runs.
	Prerequisite string `yaml:"prerequisite"`
	// Install installs the packaging tool's dependencies; empty skips the step.
	Install []string `yaml:"install"`
	// Package is the command prefix of the directory-to-package builder.
	Package []string `yaml:"package"`
	// Lister selects how artifacts are inspected: "dpkg" or "native".
	Lister string `yaml:"lister"`
}

// Lister kinds.
const (
	ListerDpkg   = "dpkg"
	ListerNative = "native"
)

const (
	// BuildNumberEnv names the environment variable holding the build number.
	BuildNumberEnv = "BUILD_NUMBER"

	// DefaultBuildNumber is used when BUILD_NUMBER is unset.
	DefaultBuildNumber = "0"
	// DefaultRegistryFile is relative to the project root.
	DefaultRegistryFile = "bin/services.yaml"
	// DefaultArtefactsDir is relative to the project root.
	DefaultArtefactsDir = "artefacts"
	// DefaultDebianDir is relative to the project root.
	DefaultDebianDir = "debian"
	// DefaultInstallPrefix is the install root checked by verification.
	DefaultInstallPrefix = "/ida"
	// DefaultArchitecture is the only architecture services are built for.
	DefaultArchitecture = "amd64"
	// DefaultPrerequisite is needed to verify packages.
	DefaultPrerequisite = "dpkg"

	// DefaultDirPermissions is used for every directory the tool creates.
	DefaultDirPermissions = 0o755
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errEmptyPackageCommand is returned when no packaging command is configured.
	errEmptyPackageCommand = errors.New("packaging command must be provided")
	// errUnknownLister is returned for an unsupported lister kind.
	errUnknownLister = errors.New("unknown lister")
	// errInvalidBuildNumber is returned for a build number unusable in a filename.
	errInvalidBuildNumber = errors.New("invalid build number")
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		RegistryFile:  DefaultRegistryFile,
		ArtefactsDir:  DefaultArtefactsDir,
		DebianDir:     DefaultDebianDir,
		InstallPrefix: DefaultInstallPrefix,
		Architecture:  DefaultArchitecture,
		Depends:       []string{"python-httplib2"},
		Tools: Tools{
			Prerequisite: DefaultPrerequisite,
			Install:      []string{"bundle", "install", "--path", "vendor/bundle"},
			Package:      []string{"bundle", "exec", "fpm"},
			Lister:       ListerDpkg,
		},
	}
}

// Load reads configuration from path on top of the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	return cfg, nil
}

// ApplyEnv fills BuildNumber from the environment when it is not set yet.
func (c *Config) ApplyEnv() {
	if c.BuildNumber != "" {
		return
	}

	c.BuildNumber = os.Getenv(BuildNumberEnv)
}

// Validate fills defaults, resolves paths and checks required fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.BuildNumber == "" {
		cfg.BuildNumber = DefaultBuildNumber
	}

	if strings.ContainsAny(cfg.BuildNumber, "/_ \t") {
		return fmt.Errorf("%w: %q", errInvalidBuildNumber, cfg.BuildNumber)
	}

	root := cfg.ProjectRoot
	if root == "" {
		root = "."
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}

	cfg.ProjectRoot = abs

	if cfg.RegistryFile == "" {
		cfg.RegistryFile = DefaultRegistryFile
	}

	if cfg.ArtefactsDir == "" {
		cfg.ArtefactsDir = DefaultArtefactsDir
	}

	if cfg.DebianDir == "" {
		cfg.DebianDir = DefaultDebianDir
	}

	if cfg.InstallPrefix == "" {
		cfg.InstallPrefix = DefaultInstallPrefix
	}

	if cfg.Architecture == "" {
		cfg.Architecture = DefaultArchitecture
	}

	if cfg.Tools.Prerequisite == "" {
		cfg.Tools.Prerequisite = DefaultPrerequisite
	}

	if len(cfg.Tools.Package) == 0 {
		return errEmptyPackageCommand
	}

	switch cfg.Tools.Lister {
	case "":
		cfg.Tools.Lister = ListerDpkg
	case ListerDpkg, ListerNative:
	default:
		return fmt.Errorf("%w: %q", errUnknownLister, cfg.Tools.Lister)
	}

	return nil
}

// Resolve joins a possibly relative path onto the project root.
func (c *Config) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(c.ProjectRoot, path)
}

// RegistryPath is the absolute registry location.
func (c *Config) RegistryPath() string {
	return c.Resolve(c.RegistryFile)
}

// ArtefactsPath is the absolute artefacts directory.
func (c *Config) ArtefactsPath() string {
	return c.Resolve(c.ArtefactsDir)
}

// DebianPath is the absolute packaging sources directory.
func (c *Config) DebianPath() string {
	return c.Resolve(c.DebianDir)
}
