package reconciler

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ProjectLock is the per-project mutual exclusion all mutating operations
// take first. Host-level operations (identity creation, unit installation)
// are not safe under concurrent invocation, so the operator CLI and the
// probe command serialize on the same lock file.
type ProjectLock struct {
	file *os.File
}

// LockProject takes an exclusive flock on <state dir>/locks/<name>.lock,
// blocking until any concurrent holder releases it.
func LockProject(stateDir, name string) (*ProjectLock, error) {
	dir := filepath.Join(stateDir, "locks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(dir, name+".lock"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file for project %s: %w", name, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX); err != nil {
		file.Close()
		return nil, fmt.Errorf("locking project %s: %w", name, err)
	}
	return &ProjectLock{file: file}, nil
}

// Release drops the lock. The lock file itself stays; only the flock is
// released.
func (l *ProjectLock) Release() {
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	l.file.Close()
}
