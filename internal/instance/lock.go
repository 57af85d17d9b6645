// pattern: Imperative Shell

// Package instance enforces one dashboard per repository. CLI
// commands coordinate through per-record store locks and need no
// instance lock of their own.
package instance

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = "dashboard.lock"

// Lock acquires the exclusive dashboard lock for one repository's
// state directory, creating the directory when absent. The caller
// must release the returned handle with Unlock.
func Lock(stateDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	fl := flock.New(filepath.Join(stateDir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring dashboard lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another gitloom dashboard is already watching this repository")
	}
	return fl, nil
}

// Unlock releases the dashboard lock. Safe to call with nil.
func Unlock(fl *flock.Flock) {
	if fl != nil {
		_ = fl.Unlock()
	}
}
