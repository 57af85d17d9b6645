package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCopyEnvFiles(t *testing.T) {
	parent := t.TempDir()
	child := t.TempDir()

	writeFile(t, filepath.Join(parent, ".env"), "PORT=3000\n")
	writeFile(t, filepath.Join(parent, ".env.local"), "SECRET=abc\n")
	writeFile(t, filepath.Join(parent, "README.md"), "not an env file\n")
	if err := os.Mkdir(filepath.Join(parent, ".envdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	copied, err := CopyEnvFiles(parent, child)
	if err != nil {
		t.Fatalf("CopyEnvFiles: %v", err)
	}
	if copied != 2 {
		t.Errorf("copied = %d, want 2", copied)
	}

	data, err := os.ReadFile(filepath.Join(child, ".env"))
	if err != nil {
		t.Fatalf("child .env missing: %v", err)
	}
	if string(data) != "PORT=3000\n" {
		t.Errorf("child .env = %q", data)
	}

	if _, err := os.Stat(filepath.Join(child, "README.md")); !os.IsNotExist(err) {
		t.Error("non-env file was copied")
	}
	if _, err := os.Stat(filepath.Join(child, ".envdir")); !os.IsNotExist(err) {
		t.Error("directory was copied")
	}
}

func TestCopyEnvFilesSkipsExisting(t *testing.T) {
	parent := t.TempDir()
	child := t.TempDir()

	writeFile(t, filepath.Join(parent, ".env"), "PORT=3000\n")
	writeFile(t, filepath.Join(child, ".env"), "PORT=4000\n")

	copied, err := CopyEnvFiles(parent, child)
	if err != nil {
		t.Fatalf("CopyEnvFiles: %v", err)
	}
	if copied != 0 {
		t.Errorf("copied = %d, want 0", copied)
	}

	data, _ := os.ReadFile(filepath.Join(child, ".env"))
	if string(data) != "PORT=4000\n" {
		t.Errorf("existing child .env was overwritten: %q", data)
	}
}

func TestCopyEnvFilesNoEnvFiles(t *testing.T) {
	copied, err := CopyEnvFiles(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("CopyEnvFiles: %v", err)
	}
	if copied != 0 {
		t.Errorf("copied = %d, want 0", copied)
	}
}

func TestDatabaseBranch(t *testing.T) {
	var gotDir string
	var gotArgs []string
	exec := func(ctx context.Context, dir, name string, args ...string) (string, error) {
		gotDir = dir
		gotArgs = append([]string{name}, args...)
		return "", nil
	}

	p := New(false, "neon branches create {branch}", exec, nil)
	if err := p.DatabaseBranch(context.Background(), "/work/child", "loom/42"); err != nil {
		t.Fatalf("DatabaseBranch: %v", err)
	}

	if gotDir != "/work/child" {
		t.Errorf("dir = %q, want /work/child", gotDir)
	}
	want := "neon branches create loom/42"
	if joined := strings.Join(gotArgs, " "); joined != want {
		t.Errorf("command = %q, want %q", joined, want)
	}
}

func TestDatabaseBranchFailure(t *testing.T) {
	exec := func(ctx context.Context, dir, name string, args ...string) (string, error) {
		return "", errors.New("no such project")
	}

	p := New(false, "neon branches create {branch}", exec, nil)
	err := p.DatabaseBranch(context.Background(), "/work/child", "loom/42")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "loom/42") {
		t.Errorf("error %q should name the branch", err)
	}
}

func TestProvisionChild(t *testing.T) {
	parent := t.TempDir()
	child := t.TempDir()
	writeFile(t, filepath.Join(parent, ".env"), "PORT=3000\n")

	ran := false
	exec := func(ctx context.Context, dir, name string, args ...string) (string, error) {
		ran = true
		return "", nil
	}

	p := New(true, "db-branch {branch}", exec, nil)
	if err := p.ProvisionChild(context.Background(), parent, child, "loom/7"); err != nil {
		t.Fatalf("ProvisionChild: %v", err)
	}

	if _, err := os.Stat(filepath.Join(child, ".env")); err != nil {
		t.Error("env file not copied")
	}
	if !ran {
		t.Error("database branch command did not run")
	}
}

func TestEnabled(t *testing.T) {
	if New(false, "", nil, nil).Enabled() {
		t.Error("Enabled() = true with nothing configured")
	}
	if !New(true, "", nil, nil).Enabled() {
		t.Error("Enabled() = false with env copy configured")
	}
	if !New(false, "cmd {branch}", nil, nil).Enabled() {
		t.Error("Enabled() = false with database command configured")
	}
}
