// Package lock keeps two builds from writing the same artefacts directory.
//
// A marker file stores the PID of the running build. A marker whose process
// is gone is treated as stale and replaced.
package lock
