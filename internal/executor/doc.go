// Package executor runs external tools.
//
// Runner is the seam between the build steps and the operating system: steps
// describe a Command and get back its exit code and captured output, so tests
// substitute a fake without touching PATH.
package executor
