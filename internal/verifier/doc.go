// Package verifier checks the structure of built packages.
//
// A package is valid when its file listing contains the service binary at
// <prefix>/<package>/bin/<package>. Listings come either from `dpkg -c` or
// from reading the .deb container directly, which needs no Debian tooling.
package verifier
