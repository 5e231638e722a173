package hooks

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
}

func TestRunSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	root := t.TempDir()
	hooksDir := filepath.Join(root, "hooks")
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeScript(t, hooksDir, "ok.sh", "#!/bin/sh\nexit 0\n")

	err := Run(root, "ok.sh", Context{Event: EventPostCreate, ItemID: "j-a1b2"}, 0, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunFailurePreHook(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	root := t.TempDir()
	hooksDir := filepath.Join(root, "hooks")
	os.MkdirAll(hooksDir, 0o755)
	writeScript(t, hooksDir, "fail.sh", "#!/bin/sh\necho boom 1>&2\nexit 3\n")

	err := Run(root, "fail.sh", Context{Event: EventPreCreate}, 0, true)
	if err == nil {
		t.Fatal("expected error")
	}
	execErr, ok := err.(*ExecError)
	if !ok {
		t.Fatalf("expected *ExecError, got %T: %v", err, err)
	}
	if execErr.ExitCode != 3 || !execErr.Pre {
		t.Errorf("unexpected ExecError: %+v", execErr)
	}
}

func TestRunTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	root := t.TempDir()
	hooksDir := filepath.Join(root, "hooks")
	os.MkdirAll(hooksDir, 0o755)
	writeScript(t, hooksDir, "slow.sh", "#!/bin/sh\nsleep 5\n")

	err := Run(root, "slow.sh", Context{Event: EventPostCreate}, 50*time.Millisecond, false)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("expected *TimeoutError, got %T: %v", err, err)
	}
}

func TestValidateScriptNameRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "hooks"), 0o755)

	for _, name := range []string{"../escape.sh", "a/b.sh", "a\\b.sh"} {
		if _, err := resolve(root, name); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks not supported")
	}
	root := t.TempDir()
	hooksDir := filepath.Join(root, "hooks")
	os.MkdirAll(hooksDir, 0o755)

	outside := t.TempDir()
	outsideScript := filepath.Join(outside, "evil.sh")
	writeScript(t, outside, "evil.sh", "#!/bin/sh\nexit 0\n")

	if err := os.Symlink(outsideScript, filepath.Join(hooksDir, "link.sh")); err != nil {
		t.Fatalf("creating symlink: %v", err)
	}

	if _, err := resolve(root, "link.sh"); err == nil {
		t.Error("expected symlink escape to be rejected")
	}
}

func TestRunnerRunPostLogsFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	root := t.TempDir()
	hooksDir := filepath.Join(root, "hooks")
	os.MkdirAll(hooksDir, 0o755)
	writeScript(t, hooksDir, "fail.sh", "#!/bin/sh\necho nope 1>&2\nexit 1\n")

	r := NewRunner(root, 0)
	r.RunPost("fail.sh", Context{Event: EventPostUpdate, ItemID: "j-a1b2"})

	logPath := filepath.Join(root, "hooks.log")
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading hooks.log: %v", err)
	}
	if len(content) == 0 {
		t.Error("expected non-empty hooks.log")
	}
}
