// Package debian holds the domain model of a service package build: the
// registry entry, the fixed filesystem layout of the staging tree, artifact
// naming and the error taxonomy shared by every build step.
package debian
