package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/deb-builder/internal/logger"
)

// MarkerFilename is created inside the guarded directory.
const MarkerFilename = ".deb-builder.lock"

// markerPermissions restricts the marker to its owner.
const markerPermissions = 0o600

// ErrLocked is returned when another live build holds the marker.
var ErrLocked = errors.New("another build is running")

// ProcessAlive reports whether a process with pid exists.
type ProcessAlive func(pid int) (bool, error)

// Lock is a held marker.
type Lock struct {
	path string
}

// FindProcess checks the process table with go-ps.
func FindProcess(pid int) (bool, error) {
	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, err
	}

	return process != nil, nil
}

// Acquire creates the marker in dir for the current process.
func Acquire(ctx context.Context, dir string, alive ProcessAlive) (*Lock, error) {
	if alive == nil {
		alive = FindProcess
	}

	path := filepath.Join(dir, MarkerFilename)

	for attempt := 0; attempt < 2; attempt++ {
		err := writeMarker(path)
		if err == nil {
			return &Lock{path: path}, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock: %w", err)
		}

		holder, err := readMarker(path)
		if err != nil {
			logger.WarnKV(ctx, "Unreadable lock marker, replacing it", "path", path, "error", err)
		} else {
			running, err := alive(holder)
			if err != nil {
				return nil, fmt.Errorf("check lock holder %d: %w", holder, err)
			}

			if running && holder != os.Getpid() {
				return nil, fmt.Errorf("%w: pid %d holds %s", ErrLocked, holder, path)
			}

			logger.InfoKV(ctx, "Removing stale lock marker", "path", path, "pid", holder)
		}

		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: %s keeps reappearing", ErrLocked, path)
}

// Release removes the marker.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock: %w", err)
	}

	return nil
}

func writeMarker(path string) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_EXCL|os.O_WRONLY, markerPermissions)
	if err != nil {
		return err
	}

	_, err = f.WriteString(strconv.Itoa(os.Getpid()))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return err
}

func readMarker(path string) (int, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(strings.TrimSpace(string(contents)))
}
