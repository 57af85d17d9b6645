// pattern: Imperative Shell

package loom

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"gitloom/internal/logging"
)

// storeDirName is the repository-level directory holding loom records,
// one JSON file per worktree.
const storeDirName = ".gitloom"

// StateDir returns the repository-level directory gitloom keeps its
// state in.
func StateDir(repoRoot string) string {
	return filepath.Join(repoRoot, storeDirName)
}

// RecordsDir returns where a repository keeps its loom records.
func RecordsDir(repoRoot string) string {
	return filepath.Join(StateDir(repoRoot), "looms")
}

// Store reads and writes loom records under <repo>/.gitloom/looms/.
// Each record is exclusively owned by operations targeting its
// worktree; a per-record file lock enforces that ownership across
// concurrently running processes. There are no cross-record
// transactions.
type Store struct {
	dir string
	log *logging.ScopedLogger
}

// NewStore returns a store rooted at the repository's main worktree.
func NewStore(repoRoot string, log *logging.ScopedLogger) *Store {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Store{
		dir: RecordsDir(repoRoot),
		log: log,
	}
}

// Dir returns the directory the store keeps its records in.
func (s *Store) Dir() string { return s.dir }

func (s *Store) recordPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) lockPath(key string) string {
	return filepath.Join(s.dir, key+".lock")
}

// withLock runs fn while holding the record's file lock. The lock file
// is a sibling of the record so the atomic rename of the record itself
// never swaps the locked inode.
func (s *Store) withLock(key string, fn func() error) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating loom store directory: %w", err)
	}
	fl := flock.New(s.lockPath(key))
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("locking loom record %s: %w", key, err)
	}
	defer func() { _ = fl.Unlock() }()
	return fn()
}

// Write persists a record, validating it and its state transition
// against whatever is currently stored. The record file is replaced
// atomically so readers never observe a half-written document.
func (s *Store) Write(md *Metadata) error {
	if err := md.Validate(); err != nil {
		return err
	}
	key := md.Key()
	return s.withLock(key, func() error {
		existing, err := s.Read(key)
		switch {
		case err == nil:
			if !existing.State.CanTransition(md.State) {
				return &IllegalTransitionError{From: existing.State, To: md.State}
			}
			md.CreatedAt = existing.CreatedAt
		case errors.Is(err, fs.ErrNotExist):
			if md.CreatedAt.IsZero() {
				md.CreatedAt = time.Now().UTC()
			}
		default:
			return err
		}
		md.UpdatedAt = time.Now().UTC()
		if err := s.writeFile(key, md); err != nil {
			return err
		}
		s.log.Debug("loom record written", "key", key, "state", string(md.State))
		return nil
	})
}

// writeFile writes the record to a temp file in the store directory
// and renames it over the target.
func (s *Store) writeFile(key string, md *Metadata) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding loom record %s: %w", key, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp record: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp record: %w", err)
	}
	if err := os.Rename(tmpName, s.recordPath(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing loom record %s: %w", key, err)
	}
	return nil
}

// Read loads one record by key.
func (s *Store) Read(key string) (*Metadata, error) {
	data, err := os.ReadFile(s.recordPath(key))
	if err != nil {
		return nil, err
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parsing loom record %s: %w", key, err)
	}
	return &md, nil
}

// ReadBranch loads the record for a branch name.
func (s *Store) ReadBranch(branch string) (*Metadata, error) {
	return s.Read(KeyForBranch(branch))
}

// FindByWorktree returns the record whose worktree path matches, or
// fs.ErrNotExist when no record claims that path.
func (s *Store) FindByWorktree(path string) (*Metadata, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	clean := filepath.Clean(path)
	for _, md := range records {
		if filepath.Clean(md.WorktreePath) == clean {
			return md, nil
		}
	}
	return nil, fs.ErrNotExist
}

// List loads every record in the store, sorted by branch name for
// stable output. A store directory that does not exist yet is an empty
// population, not an error.
func (s *Store) List() ([]*Metadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var records []*Metadata
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		md, err := s.Read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.log.Warn("skipping unreadable loom record", "file", name, "error", err)
			continue
		}
		records = append(records, md)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].BranchName < records[j].BranchName
	})
	return records, nil
}

// Delete removes a record and its lock file. Deleting a record that is
// already gone succeeds: removal happens alongside worktree removal,
// which is itself idempotent.
func (s *Store) Delete(key string) error {
	err := s.withLock(key, func() error {
		if err := os.Remove(s.recordPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	_ = os.Remove(s.lockPath(key))
	return nil
}

// ResolveParent follows a record's parent reference. The parent is a
// relation, not an owned pointer: it may have been cleaned up while
// the child lives on, so a missing parent record reports ok=false
// rather than an error.
func (s *Store) ResolveParent(md *Metadata) (*Metadata, bool) {
	if md.ParentLoom == nil || md.ParentLoom.BranchName == "" {
		return nil, false
	}
	parent, err := s.ReadBranch(md.ParentLoom.BranchName)
	if err != nil {
		return nil, false
	}
	return parent, true
}
