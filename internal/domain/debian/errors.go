package debian

import (
	"errors"
	"fmt"
)

var (
	// ErrPrerequisiteMissing is returned before any work when a required tool is absent.
	ErrPrerequisiteMissing = errors.New("required tool is not installed")
	// ErrLoad is returned for a missing or malformed registry.
	ErrLoad = errors.New("invalid service registry")
	// ErrStaging is returned when the staging tree cannot be assembled.
	ErrStaging = errors.New("staging failed")
	// ErrBuild is returned when the packaging tool exits non-zero.
	ErrBuild = errors.New("packaging tool encountered an error")
	// ErrVerification is returned when the artifact lacks the expected binary.
	ErrVerification = errors.New("invalid package structure")
)

// ToolError records a non-zero exit of an external tool.
type ToolError struct {
	// Tool is the executable name.
	Tool string
	// ExitCode is the status the tool exited with.
	ExitCode int
	// Stderr is the captured error output, possibly empty.
	Stderr string
	// Kind is one of the sentinel errors of this package.
	Kind error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%v: %s exited with status %d", e.Kind, e.Tool, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}

	return msg
}

// Unwrap lets errors.Is match the sentinel kind.
func (e *ToolError) Unwrap() error {
	return e.Kind
}

// ExitCode reports the process exit status err should map to.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var toolErr *ToolError
	if errors.As(err, &toolErr) && toolErr.ExitCode > 0 {
		return toolErr.ExitCode
	}

	return 1
}
