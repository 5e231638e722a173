// Package hooks resolves and executes user-supplied shell scripts around
// ticket/plan/doc mutations.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/janus-md/janus/internal/janus/locator"
)

// Event identifies which lifecycle point a hook is running at.
type Event string

const (
	EventPreCreate  Event = "pre_create"
	EventPostCreate Event = "post_create"
	EventPreUpdate  Event = "pre_update"
	EventPostUpdate Event = "post_update"
	EventPreDelete  Event = "pre_delete"
	EventPostDelete Event = "post_delete"
)

// ItemType identifies which entity kind a hook is running for.
type ItemType string

const (
	ItemTicket ItemType = "ticket"
	ItemPlan   ItemType = "plan"
	ItemDoc    ItemType = "doc"
)

// Context carries the fields that become JANUS_* environment variables.
// Only fields relevant to the event are populated.
type Context struct {
	Event     Event
	ItemType  ItemType
	ItemID    string
	FilePath  string
	FieldName string
	OldValue  string
	NewValue  string
}

var (
	ErrHookScriptNotFound = errors.New("hook script not found")
	ErrHookSecurity       = errors.New("hook security violation")
)

// TimeoutError reports a hook that exceeded its configured wall-clock
// budget and was killed.
type TimeoutError struct {
	HookName string
	Seconds  int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("hook %q timed out after %ds", e.HookName, e.Seconds)
}

// ExecError reports a hook that exited non-zero. Pre marks a pre-hook,
// whose failure aborts the surrounding write.
type ExecError struct {
	HookName string
	ExitCode int
	Stderr   string
	Pre      bool
}

func (e *ExecError) Error() string {
	kind := "post"
	if e.Pre {
		kind = "pre"
	}
	return fmt.Sprintf("%s-hook %q failed (exit %d): %s", kind, e.HookName, e.ExitCode, strings.TrimSpace(e.Stderr))
}

// HasScript reports whether scriptName exists and resolves cleanly inside
// root's hooks directory, without executing it. Lifecycle callers use this
// to treat an absent hook as a silent no-op — hooks are opt-in — rather
// than the HookScriptNotFound failure Run reports when asked to execute a
// script that turns out not to exist.
func HasScript(root, scriptName string) bool {
	_, err := resolve(root, scriptName)
	return err == nil
}

func validateScriptName(name string) error {
	if strings.ContainsAny(name, "/\\") || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: invalid script name %q", ErrHookSecurity, name)
	}
	return nil
}

// resolve validates and canonicalizes scriptName against root's hooks
// directory, defending against symlink escape: the canonicalized script
// path must still be contained within the canonicalized hooks directory.
func resolve(root, scriptName string) (string, error) {
	if err := validateScriptName(scriptName); err != nil {
		return "", err
	}

	hooksDir, err := filepath.EvalSymlinks(locator.HooksDir(root))
	if err != nil {
		return "", fmt.Errorf("resolving hooks directory: %w", err)
	}

	candidate := filepath.Join(hooksDir, scriptName)
	if _, err := os.Stat(candidate); err != nil {
		return "", fmt.Errorf("%w: %s", ErrHookScriptNotFound, candidate)
	}

	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving hook script: %w", err)
	}

	rel, err := filepath.Rel(hooksDir, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: script %q resolves outside hooks directory", ErrHookSecurity, scriptName)
	}

	return resolved, nil
}

func buildEnv(ctx Context, root string) []string {
	var env []string
	if ctx.Event != "" {
		env = append(env, "JANUS_EVENT="+string(ctx.Event))
	}
	if ctx.ItemType != "" {
		env = append(env, "JANUS_ITEM_TYPE="+string(ctx.ItemType))
	}
	if ctx.ItemID != "" {
		env = append(env, "JANUS_ITEM_ID="+ctx.ItemID)
	}
	if ctx.FilePath != "" {
		rel := ctx.FilePath
		if r, err := filepath.Rel(root, ctx.FilePath); err == nil {
			rel = r
		}
		env = append(env, "JANUS_FILE_PATH="+rel)
	}
	if ctx.FieldName != "" {
		env = append(env, "JANUS_FIELD_NAME="+ctx.FieldName)
	}
	if ctx.OldValue != "" {
		env = append(env, "JANUS_OLD_VALUE="+ctx.OldValue)
	}
	if ctx.NewValue != "" {
		env = append(env, "JANUS_NEW_VALUE="+ctx.NewValue)
	}
	env = append(env, "JANUS_ROOT="+root)
	return env
}

// Run executes a hook script. timeout <= 0 means no timeout. isPre
// controls which error type is constructed on non-zero exit.
func Run(root, scriptName string, hctx Context, timeout time.Duration, isPre bool) error {
	scriptPath, err := resolve(root, scriptName)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, scriptPath)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), buildEnv(hctx, root)...)
	// On context cancellation, send SIGTERM first and give the process 5s
	// to exit before Wait forces a SIGKILL.
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = 5 * time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return &TimeoutError{HookName: scriptName, Seconds: int(timeout.Seconds())}
	}
	if runErr == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return &ExecError{HookName: scriptName, ExitCode: exitCode, Stderr: stderr.String(), Pre: isPre}
}
