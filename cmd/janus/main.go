// Command janus is a thin CLI wrapper around the janus packages: it wires
// config, locator, store, cache, and watcher together and exposes a small
// set of operations. It does not implement a TUI or remote sync; those are
// out of scope.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	cfgPath string
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "janus",
	Short: "Plain-text issue tracker with a concurrent indexing core",
	Long:  "Janus tracks issues as Markdown files with YAML frontmatter, indexed in memory and mirrored to SQLite, with a filesystem watcher keeping both current.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default .janus.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(watchCmd)
}
