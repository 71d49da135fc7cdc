package verifier

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/deb-builder/internal/domain/debian"
	"github.com/oshokin/deb-builder/internal/executor"
)

const dpkgListing = `drwxr-xr-x 0/0               0 2024-01-01 00:00 ./
drwxr-xr-x 0/0               0 2024-01-01 00:00 ./ida/
drwxr-xr-x 0/0               0 2024-01-01 00:00 ./ida/foo/
-rwxr-xr-x 0/0            1024 2024-01-01 00:00 ./ida/foo/bin/foo
-rwxr-xr-x 0/0              42 2024-01-01 00:00 ./ida/foo/foo.sh
lrwxrwxrwx 0/0               0 2024-01-01 00:00 ./ida/foo/lib/current.jar -> foo.jar
`

// staticLister returns a fixed listing.
type staticLister []string

// List returns the listing.
func (s staticLister) List(context.Context, string) ([]string, error) {
	return s, nil
}

// fakeRunner replies to every command with a fixed result.
type fakeRunner struct {
	// result is returned from Run.
	result *executor.Result
	// last is the most recent command.
	last executor.Command
}

// Run records cmd and returns the fixed result.
func (f *fakeRunner) Run(_ context.Context, cmd executor.Command) (*executor.Result, error) {
	f.last = cmd

	return f.result, nil
}

// LookPath always succeeds.
func (f *fakeRunner) LookPath(name string) (string, error) {
	return name, nil
}

// TestVerify_AcceptsAndRejects checks the exact tail match.
func TestVerify_AcceptsAndRejects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	ok := New(staticLister{"./ida/", "./ida/foo/bin/foo"})
	require.NoError(t, ok.Verify(ctx, "foo_0_amd64.deb", "foo", "/ida"))

	for name, listing := range map[string]staticLister{
		"empty":          nil,
		"other package":  {"./ida/bar/bin/bar"},
		"longer name":    {"./ida/foo/bin/foobar"},
		"wrong prefix":   {"./opt/foo/bin/foo"},
		"directory only": {"./ida/foo/bin/"},
	} {
		err := New(listing).Verify(ctx, "foo_0_amd64.deb", "foo", "/ida")
		require.ErrorIs(t, err, debian.ErrVerification, name)
	}
}

// TestContains normalizes archive style paths.
func TestContains(t *testing.T) {
	t.Parallel()

	require.True(t, Contains([]string{"./ida/foo/bin/foo"}, "/ida/foo/bin/foo"))
	require.True(t, Contains([]string{"ida/foo/bin/foo"}, "/ida/foo/bin/foo"))
	require.True(t, Contains([]string{"/ida/foo/bin/foo"}, "/ida/foo/bin/foo"))
	require.False(t, Contains([]string{"./ida/foo/bin/foo.sh"}, "/ida/foo/bin/foo"))
}

// TestParseDpkgListing extracts paths and strips link targets.
func TestParseDpkgListing(t *testing.T) {
	t.Parallel()

	paths, err := ParseDpkgListing([]byte(dpkgListing))
	require.NoError(t, err)
	require.Equal(t, []string{
		"./",
		"./ida/",
		"./ida/foo/",
		"./ida/foo/bin/foo",
		"./ida/foo/foo.sh",
		"./ida/foo/lib/current.jar",
	}, paths)

	_, err = ParseDpkgListing([]byte("garbage line\n"))
	require.Error(t, err)
}

// TestDpkgLister runs dpkg -c through the runner.
func TestDpkgLister(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{result: &executor.Result{Stdout: []byte(dpkgListing)}}
	v := New(NewDpkgLister("dpkg", runner))

	require.NoError(t, v.Verify(context.Background(), "/a/foo_0_amd64.deb", "foo", "/ida"))
	require.Equal(t, executor.Command{Name: "dpkg", Args: []string{"-c", "/a/foo_0_amd64.deb"}}, runner.last)

	runner.result = &executor.Result{ExitCode: 2, Stderr: []byte("not a debian format archive")}

	err := v.Verify(context.Background(), "/a/foo_0_amd64.deb", "foo", "/ida")
	require.ErrorIs(t, err, debian.ErrVerification)
	require.Equal(t, 2, debian.ExitCode(err))
}

// tarball returns a tar stream with the given entries.
func tarball(t *testing.T, names ...string) []byte {
	t.Helper()

	var buf bytes.Buffer

	tw := tar.NewWriter(&buf)
	for _, name := range names {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o755,
			Size:     int64(len(name)),
			Typeflag: tar.TypeReg,
			ModTime:  time.Unix(0, 0),
		}))
		_, err := tw.Write([]byte(name))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())

	return buf.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	gw := gzip.NewWriter(&buf)
	_, err := gw.Write(data)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	return buf.Bytes()
}

func zstded(t *testing.T, data []byte) []byte {
	t.Helper()

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)

	defer func() {
		_ = enc.Close()
	}()

	return enc.EncodeAll(data, nil)
}

// debFile assembles a minimal .deb with the given data member.
func debFile(t *testing.T, dataName string, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	w := ar.NewWriter(&buf)
	require.NoError(t, w.WriteGlobalHeader())

	for _, m := range []struct {
		name string
		body []byte
	}{
		{"debian-binary", []byte("2.0\n")},
		{"control.tar.gz", gzipped(t, tarball(t, "./control"))},
		{dataName, data},
	} {
		require.NoError(t, w.WriteHeader(&ar.Header{
			Name:    m.name,
			Size:    int64(len(m.body)),
			Mode:    0o644,
			ModTime: time.Unix(0, 0),
		}))
		_, err := w.Write(m.body)
		require.NoError(t, err)
	}

	return buf.Bytes()
}

// TestListDeb reads every supported data member compression.
func TestListDeb(t *testing.T) {
	t.Parallel()

	data := tarball(t, "./ida/foo/bin/foo", "./ida/foo/foo.yml")

	for name, deb := range map[string][]byte{
		"plain": debFile(t, "data.tar", data),
		"gzip":  debFile(t, "data.tar.gz", gzipped(t, data)),
		"zstd":  debFile(t, "data.tar.zst", zstded(t, data)),
	} {
		paths, err := ListDeb(context.Background(), bytes.NewReader(deb))
		require.NoError(t, err, name)
		require.Equal(t, []string{"./ida/foo/bin/foo", "./ida/foo/foo.yml"}, paths, name)
	}
}

// TestListDeb_Errors covers unsupported and missing data members.
func TestListDeb_Errors(t *testing.T) {
	t.Parallel()

	_, err := ListDeb(context.Background(), bytes.NewReader(debFile(t, "data.tar.xz", []byte("xz"))))
	require.ErrorIs(t, err, ErrUnsupportedCompression)

	_, err = ListDeb(context.Background(), bytes.NewReader(debFile(t, "other", []byte("x"))))
	require.ErrorIs(t, err, ErrNoDataMember)

	_, err = ListDeb(context.Background(), bytes.NewReader([]byte("not an archive")))
	require.Error(t, err)
}

// TestArchiveLister_Verify runs the native lister against files on disk.
func TestArchiveLister_Verify(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "foo_0_amd64.deb")
	bad := filepath.Join(dir, "bar_0_amd64.deb")

	require.NoError(t, os.WriteFile(good, debFile(t, "data.tar.gz", gzipped(t, tarball(t, "./ida/foo/bin/foo"))), 0o600))
	require.NoError(t, os.WriteFile(bad, debFile(t, "data.tar.gz", gzipped(t, tarball(t, "./ida/bar/bar.yml"))), 0o600))

	v := New(NewArchiveLister())

	require.NoError(t, v.Verify(context.Background(), good, "foo", "/ida"))
	require.ErrorIs(t, v.Verify(context.Background(), bad, "bar", "/ida"), debian.ErrVerification)

	err := v.Verify(context.Background(), filepath.Join(dir, "missing.deb"), "foo", "/ida")
	require.ErrorIs(t, err, os.ErrNotExist)
}

