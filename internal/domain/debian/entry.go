package debian

import (
	"fmt"
	"strings"
)

// serviceNameSegment is the index of the path segment naming the service.
// Registry paths look like "hub/policy", so the service is the second segment.
const serviceNameSegment = 1

// ServiceEntry is one buildable service declared in the registry.
type ServiceEntry struct {
	// PackageName is the Debian package name and the registry key.
	PackageName string
	// Path is the service directory relative to the project root.
	Path string
	// ServiceName is derived from Path.
	ServiceName string
}

// NewServiceEntry validates the inputs and derives the service name.
func NewServiceEntry(packageName, path string) (ServiceEntry, error) {
	if strings.TrimSpace(packageName) == "" {
		return ServiceEntry{}, fmt.Errorf("%w: empty package name", ErrLoad)
	}

	serviceName, err := ServiceNameFromPath(path)
	if err != nil {
		return ServiceEntry{}, fmt.Errorf("package %s: %w", packageName, err)
	}

	return ServiceEntry{
		PackageName: packageName,
		Path:        path,
		ServiceName: serviceName,
	}, nil
}

// ServiceNameFromPath returns the second segment of a slash separated path.
func ServiceNameFromPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: missing path", ErrLoad)
	}

	segments := strings.Split(path, "/")
	if len(segments) <= serviceNameSegment || segments[serviceNameSegment] == "" {
		return "", fmt.Errorf("%w: path %q has no service segment", ErrLoad, path)
	}

	return segments[serviceNameSegment], nil
}
