// Package config defines the build context of a packaging run and helpers to
// load it from an optional YAML file, the BUILD_NUMBER environment variable
// and command line overrides.
//
// The Config is created once at start-up and passed to every component; no
// component reads the environment or global state on its own.
package config
