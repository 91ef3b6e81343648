package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const lockFileName = ".migaccel.lock"

// LockPath returns the lock file path under stateDir.
func LockPath(stateDir string) string {
	return filepath.Join(stateDir, lockFileName)
}

// ErrLocked is returned when another live dispatch holds the lock.
// Callers map it to a distinct exit code.
var ErrLocked = errors.New("dispatch already in progress")

// LockInfo describes the owner of the dispatch lock. Concurrent manual
// dispatches would race on the work directory and the input file, so only
// one dispatch may run at a time.
type LockInfo struct {
	PID        int       `json:"pid"`
	DispatchID string    `json:"dispatch_id"`
	StartedAt  time.Time `json:"started_at"`
}

// Acquire creates the lock file in stateDir. Returns nil on success.
// If the lock exists and the owning PID is dead, the stale lock is reclaimed.
func Acquire(stateDir, dispatchID string) error {
	lockPath := LockPath(stateDir)

	info := LockInfo{
		PID:        os.Getpid(),
		DispatchID: dispatchID,
		StartedAt:  time.Now(),
	}

	err := writeLock(lockPath, &info)
	if err == nil {
		return nil
	}

	if !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create lock %s: %w", lockPath, err)
	}

	// lock exists — check if stale
	existing, readErr := ReadLock(stateDir)
	if readErr != nil {
		return fmt.Errorf("%w (could not read lock: %v)", ErrLocked, readErr)
	}

	if isProcessAlive(existing.PID) {
		return fmt.Errorf("%w: held by PID %d since %s (dispatch %s)",
			ErrLocked, existing.PID, existing.StartedAt.Format(time.RFC3339), existing.DispatchID)
	}

	// stale lock — reclaim
	slog.Warn("reclaiming stale lock", "stale_pid", existing.PID, "dispatch", existing.DispatchID)
	if err := os.Remove(lockPath); err != nil {
		return fmt.Errorf("remove stale lock: %w", err)
	}

	if err := writeLock(lockPath, &info); err != nil {
		return fmt.Errorf("acquire after stale removal: %w", err)
	}

	return nil
}

// Release removes the lock file from stateDir. It is idempotent.
func Release(stateDir string) {
	lockPath := LockPath(stateDir)
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to release lock", "path", lockPath, "error", err)
	}
}

// ReadLock reads the lock file from stateDir.
func ReadLock(stateDir string) (*LockInfo, error) {
	lockPath := LockPath(stateDir)
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse lock: %w", err)
	}

	return &info, nil
}

// writeLock atomically creates the lock file using O_CREATE|O_EXCL.
func writeLock(path string, info *LockInfo) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	encErr := json.NewEncoder(f).Encode(info)
	closeErr := f.Close()
	if encErr != nil {
		return encErr
	}
	return closeErr
}

// isProcessAlive checks if a process with the given PID exists and is running.
func isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// signal 0 checks existence without actually sending a signal
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}
