// Package version exposes build metadata of deb-builder.
//
// Version, Commit and BuildTime are injected with -ldflags "-X ..." and
// default to placeholders for local builds.
package version
