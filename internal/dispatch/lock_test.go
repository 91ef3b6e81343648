package dispatch

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()

	if err := Acquire(dir, "d1"); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	lockPath := filepath.Join(dir, lockFileName)
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("lock file not created: %v", err)
	}

	Release(dir)

	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Fatal("lock file not removed after release")
	}
}

func TestAcquireContention(t *testing.T) {
	dir := t.TempDir()

	if err := Acquire(dir, "d1"); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer Release(dir)

	err := Acquire(dir, "d2")
	if err == nil {
		t.Fatal("expected error on contention, got nil")
	}
	if !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
}

func TestAcquireStaleLock(t *testing.T) {
	dir := t.TempDir()

	// write a lock with a PID that almost certainly doesn't exist
	stalePID := 99999999
	info := LockInfo{PID: stalePID, DispatchID: "stale"}
	data, _ := json.Marshal(info)
	lockPath := filepath.Join(dir, lockFileName)
	if err := os.WriteFile(lockPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	// acquire should reclaim the stale lock
	if err := Acquire(dir, "fresh"); err != nil {
		t.Fatalf("expected stale lock reclaim, got: %v", err)
	}
	defer Release(dir)

	// verify lock now belongs to us
	got, err := ReadLock(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.DispatchID != "fresh" {
		t.Errorf("expected dispatch 'fresh', got %q", got.DispatchID)
	}
	if got.PID != os.Getpid() {
		t.Errorf("expected PID %d, got %d", os.Getpid(), got.PID)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	dir := t.TempDir()
	Release(dir)
	Release(dir)
}
