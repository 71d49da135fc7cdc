// Package stager assembles the staging tree a service package is built from.
//
// The tree mirrors the installed filesystem: configuration and the control
// script under ida/<package>, lifecycle hooks under opt/orch/<service>, an
// empty debug log directory, the logrotate policy and the compiled service
// under ida/<service>. Every run starts from an empty tree.
package stager
