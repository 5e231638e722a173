package hooks

import (
	"fmt"
	"os"
	"time"

	"github.com/janus-md/janus/internal/janus/locator"
)

// Runner executes pre/post hooks for a given root, applying a configured
// timeout and logging post-hook failures non-fatally.
type Runner struct {
	Root    string
	Timeout time.Duration
}

// NewRunner constructs a Runner for root with the given hook timeout (0 =
// no timeout).
func NewRunner(root string, timeout time.Duration) *Runner {
	return &Runner{Root: root, Timeout: timeout}
}

// RunPre executes a pre-hook; any failure (including HookScriptNotFound)
// aborts the caller's write.
func (r *Runner) RunPre(scriptName string, hctx Context) error {
	return Run(r.Root, scriptName, hctx, r.Timeout, true)
}

// RunPost executes a post-hook. Failures are logged to hooks.log and
// swallowed: the caller's write has already succeeded and must not be
// rolled back.
func (r *Runner) RunPost(scriptName string, hctx Context) {
	if err := Run(r.Root, scriptName, hctx, r.Timeout, false); err != nil {
		logFailure(r.Root, scriptName, err)
	}
}

func logFailure(root, hookName string, err error) {
	logPath := locator.HookLogPath(root)
	timestamp := time.Now().UTC().Format(time.RFC3339)

	detail := err.Error()
	if execErr, ok := err.(*ExecError); ok {
		if execErr.Stderr == "" {
			detail = "exited with non-zero status"
		} else {
			detail = execErr.Stderr
		}
	}

	line := fmt.Sprintf("%s: post-hook '%s' failed: %s\n", timestamp, hookName, detail)

	f, openErr := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if openErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to open hook log file: %v\n", openErr)
		return
	}
	defer f.Close()
	if _, writeErr := f.WriteString(line); writeErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write to hook log file: %v\n", writeErr)
	}
}
