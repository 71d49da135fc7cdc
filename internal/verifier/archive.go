package verifier

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrNoDataMember is returned for a .deb without a data.tar member.
	ErrNoDataMember = errors.New("data archive not found")
	// ErrUnsupportedCompression is returned for data members this lister cannot read.
	ErrUnsupportedCompression = errors.New("unsupported data compression")
)

// ArchiveLister reads the .deb container directly.
type ArchiveLister struct{}

// NewArchiveLister creates an ArchiveLister.
func NewArchiveLister() *ArchiveLister {
	return new(ArchiveLister)
}

// List opens artifact and returns the paths of its data member.
func (l *ArchiveLister) List(ctx context.Context, artifact string) ([]string, error) {
	f, err := os.Open(filepath.Clean(artifact))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = f.Close()
	}()

	return ListDeb(ctx, f)
}

// ListDeb walks the ar members of a .deb stream and lists data.tar entries.
func ListDeb(ctx context.Context, r io.Reader) ([]string, error) {
	arR := ar.NewReader(r)

	for {
		header, err := arR.Next()
		if errors.Is(err, io.EOF) {
			return nil, ErrNoDataMember
		}

		if err != nil {
			return nil, fmt.Errorf("reading ar header: %w", err)
		}

		name := strings.TrimSuffix(strings.TrimSpace(header.Name), "/")
		if !strings.HasPrefix(name, "data.tar") {
			continue
		}

		tr, closer, err := openTar(name, arR)
		if err != nil {
			return nil, err
		}

		paths, err := listTar(ctx, tr)
		closer()

		return paths, err
	}
}

// openTar picks a decompressor from the member suffix.
func openTar(name string, r io.Reader) (*tar.Reader, func(), error) {
	switch {
	case name == "data.tar":
		return tar.NewReader(r), func() {}, nil
	case strings.HasSuffix(name, ".gz"):
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", name, err)
		}

		return tar.NewReader(gzr), func() { _ = gzr.Close() }, nil
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", name, err)
		}

		return tar.NewReader(zr), zr.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, name)
	}
}

func listTar(ctx context.Context, tr *tar.Reader) ([]string, error) {
	var paths []string

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		th, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return paths, nil
		}

		if err != nil {
			return nil, fmt.Errorf("reading data tar header: %w", err)
		}

		paths = append(paths, th.Name)
	}
}
