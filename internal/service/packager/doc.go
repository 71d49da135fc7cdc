// Package packager drives a full packaging run.
//
// The run is strictly sequential and fail-fast: check the inspection tool,
// lock the artefacts directory, install the packaging tool's dependencies,
// load the registry, then for each service clean its stale artifacts, stage,
// build and verify. The first failure stops the run; services after it are
// not touched.
package packager
