// Package locator computes canonical on-disk paths for tickets, plans, and
// docs, and performs atomic file writes.
package locator

import (
	"os"
	"path/filepath"
)

// DefaultRoot is used when JANUS_ROOT is unset.
const DefaultRoot = ".janus"

// Root returns the configured root directory: the value of JANUS_ROOT if
// set, else DefaultRoot.
func Root() string {
	if v := os.Getenv("JANUS_ROOT"); v != "" {
		return v
	}
	return DefaultRoot
}

// ItemsDir, PlansDir, DocsDir, and HooksDir return the root-relative
// subdirectories for each entity kind.
func ItemsDir(root string) string { return filepath.Join(root, "items") }
func PlansDir(root string) string { return filepath.Join(root, "plans") }
func DocsDir(root string) string  { return filepath.Join(root, "docs") }
func HooksDir(root string) string { return filepath.Join(root, "hooks") }

// HookLogPath returns the path to the append-only hook failure log.
func HookLogPath(root string) string { return filepath.Join(root, "hooks.log") }

// CachePath returns the path to the optional persistent SQLite cache.
func CachePath(root string) string { return filepath.Join(root, ".cache.db") }

// TicketPath returns "<root>/items/<id>.md".
func TicketPath(root, id string) string {
	return filepath.Join(ItemsDir(root), id+".md")
}

// PlanPath returns "<root>/plans/<id>.md".
func PlanPath(root, id string) string {
	return filepath.Join(PlansDir(root), id+".md")
}

// DocPath returns "<root>/docs/<label>.md".
func DocPath(root, label string) string {
	return filepath.Join(DocsDir(root), label+".md")
}

// IDFromPath extracts the file stem (ID or label) from a path, e.g.
// "<root>/items/j-a1b2.md" -> "j-a1b2".
func IDFromPath(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// EnsureDirs creates the standard <root> subdirectories if missing.
func EnsureDirs(root string) error {
	for _, dir := range []string{ItemsDir(root), PlansDir(root), DocsDir(root), HooksDir(root)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
