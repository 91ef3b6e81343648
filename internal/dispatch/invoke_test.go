package dispatch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInvokeStep_ScriptReceivesExactFlags(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")

	script := filepath.Join(dir, "entry.sh")
	if err := os.WriteFile(script, []byte("echo \"$@\" > "+argsFile+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TEST_PAT", "tok")

	env := &Env{
		WorkDir:    dir,
		Python:     "sh",
		EntryPoint: script,
		InputFile:  "urls.txt",
		PATEnvVar:  "TEST_PAT",
		Environ:    SanitizedEnv("TEST_PAT"),
		Stdout:     io.Discard,
		Stderr:     io.Discard,
	}

	if err := (InvokeStep{}).Run(context.Background(), env); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(string(data))
	want := "--pat-env-var TEST_PAT --input-file urls.txt"
	if got != want {
		t.Errorf("entry point args: got %q, want %q", got, want)
	}
}

func TestInvokeStep_PropagatesExit(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "entry.sh")
	if err := os.WriteFile(script, []byte("exit 3\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TEST_PAT", "tok")

	env := &Env{
		WorkDir:    dir,
		Python:     "sh",
		EntryPoint: script,
		InputFile:  "urls.txt",
		PATEnvVar:  "TEST_PAT",
		Environ:    SanitizedEnv("TEST_PAT"),
		Stdout:     io.Discard,
		Stderr:     io.Discard,
	}

	err := (InvokeStep{}).Run(context.Background(), env)
	if err == nil {
		t.Fatal("expected error")
	}
	if code := exitCodeOf(err); code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
}

func TestInvokeStep_MissingToken(t *testing.T) {
	env := &Env{
		PATEnvVar: "MIGACCEL_TEST_UNSET_VAR",
		Stdout:    io.Discard,
		Stderr:    io.Discard,
	}
	if err := (InvokeStep{}).Run(context.Background(), env); err == nil {
		t.Error("expected error when the token variable is unset")
	}
}

func TestInvokeStep_Builtin(t *testing.T) {
	t.Setenv("TEST_PAT", "tok")

	var calls int
	var gotVar, gotFile string
	env := &Env{
		EntryPoint: BuiltinEntryPoint,
		InputFile:  "urls.txt",
		PATEnvVar:  "TEST_PAT",
		Stdout:     io.Discard,
		Stderr:     io.Discard,
		Builtin: func(ctx context.Context, patEnvVar, inputFile string) error {
			calls++
			gotVar, gotFile = patEnvVar, inputFile
			return nil
		},
	}

	if err := (InvokeStep{}).Run(context.Background(), env); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected exactly one invocation, got %d", calls)
	}
	if gotVar != "TEST_PAT" || gotFile != "urls.txt" {
		t.Errorf("builtin received %q %q", gotVar, gotFile)
	}
}

func TestInvokeStep_BuiltinNotWired(t *testing.T) {
	t.Setenv("TEST_PAT", "tok")

	env := &Env{
		EntryPoint: BuiltinEntryPoint,
		PATEnvVar:  "TEST_PAT",
		Stdout:     io.Discard,
		Stderr:     io.Discard,
	}
	if err := (InvokeStep{}).Run(context.Background(), env); err == nil {
		t.Error("expected error when builtin is not wired")
	}
}
