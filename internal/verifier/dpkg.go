package verifier

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/oshokin/deb-builder/internal/domain/debian"
	"github.com/oshokin/deb-builder/internal/executor"
)

// dpkgPathColumn is the index of the path in a `dpkg -c` line:
// mode owner size date time path.
const dpkgPathColumn = 5

// DpkgLister lists archives with `dpkg -c`.
type DpkgLister struct {
	tool   string
	runner executor.Runner
}

// NewDpkgLister creates a lister running tool, usually "dpkg".
func NewDpkgLister(tool string, runner executor.Runner) *DpkgLister {
	return &DpkgLister{
		tool:   tool,
		runner: runner,
	}
}

// List returns the archive paths as printed by dpkg.
func (l *DpkgLister) List(ctx context.Context, artifact string) ([]string, error) {
	res, err := l.runner.Run(ctx, executor.Command{
		Name: l.tool,
		Args: []string{"-c", artifact},
	})
	if err != nil {
		return nil, err
	}

	if !res.Success() {
		return nil, &debian.ToolError{
			Tool:     l.tool,
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(string(res.Stderr)),
			Kind:     debian.ErrVerification,
		}
	}

	return ParseDpkgListing(res.Stdout)
}

// ParseDpkgListing extracts paths from `dpkg -c` output.
// Symlink lines ("path -> target") yield the link path.
func ParseDpkgListing(out []byte) ([]string, error) {
	var (
		paths   []string
		scanner = bufio.NewScanner(bytes.NewReader(out))
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) <= dpkgPathColumn {
			return nil, fmt.Errorf("unexpected dpkg output: %q", line)
		}

		name := strings.Join(fields[dpkgPathColumn:], " ")
		if i := strings.Index(name, " -> "); i >= 0 {
			name = name[:i]
		}

		paths = append(paths, name)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dpkg output: %w", err)
	}

	return paths, nil
}
