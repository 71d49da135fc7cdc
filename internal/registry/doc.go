// Package registry loads the declarative list of buildable services.
//
// The registry is a YAML mapping from package name to service attributes:
//
//	policy:
//	  path: hub/policy
//	saml-engine:
//	  path: hub/saml-engine
//
// Entries are returned in declared order and validated eagerly.
package registry
