package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/oshokin/deb-builder/internal/domain/debian"
	"github.com/oshokin/deb-builder/internal/logger"
)

// Lister returns the paths contained in a package archive.
type Lister interface {
	List(ctx context.Context, artifact string) ([]string, error)
}

// Verifier checks artifacts using a Lister.
type Verifier struct {
	lister Lister
}

// New creates a Verifier.
func New(lister Lister) *Verifier {
	return &Verifier{lister: lister}
}

// Verify fails with debian.ErrVerification unless the artifact contains
// the binary of packageName under installPrefix.
func (v *Verifier) Verify(ctx context.Context, artifact, packageName, installPrefix string) error {
	expected := debian.ExpectedBinaryPath(installPrefix, packageName)

	logger.InfoKV(ctx, "Verifying package structure", "looking_for", expected)

	entries, err := v.lister.List(ctx, artifact)
	if err != nil {
		return fmt.Errorf("list %s: %w", artifact, err)
	}

	if !Contains(entries, expected) {
		return fmt.Errorf("%w: %s has no %s", debian.ErrVerification, artifact, expected)
	}

	return nil
}

// Contains reports whether any entry ends with expected.
// Archive listings use "./ida/..." so only the tail is compared.
func Contains(entries []string, expected string) bool {
	for _, entry := range entries {
		if strings.HasSuffix(normalize(entry), expected) {
			return true
		}
	}

	return false
}

// normalize turns "./a/b" and "a/b" into "/a/b".
func normalize(entry string) string {
	entry = strings.TrimPrefix(entry, ".")
	if !strings.HasPrefix(entry, "/") {
		entry = "/" + entry
	}

	return entry
}
