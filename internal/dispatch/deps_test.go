package dispatch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDepsStep_MissingManifest(t *testing.T) {
	env := &Env{
		WorkDir:  t.TempDir(),
		Python:   "true",
		Manifest: "requirements.txt",
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := (DepsStep{}).Run(context.Background(), env); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestDepsStep_InstallFailure(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("doesnotexist==1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := &Env{
		WorkDir:  dir,
		Python:   "false", // installer that always fails
		Manifest: "requirements.txt",
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := (DepsStep{}).Run(context.Background(), env); err == nil {
		t.Error("expected error when the installer exits non-zero")
	}
}

func TestDepsStep_Success(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("requests\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := &Env{
		WorkDir:  dir,
		Python:   "true", // installer that always succeeds
		Manifest: "requirements.txt",
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := (DepsStep{}).Run(context.Background(), env); err != nil {
		t.Fatal(err)
	}
}
