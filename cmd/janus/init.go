package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/janus-md/janus/internal/janus/config"
	"github.com/janus-md/janus/internal/janus/locator"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a Janus project in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}

		cfg := config.Default()
		if err := cfg.Save(dir); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		if err := locator.EnsureDirs(cfg.ResolveRoot()); err != nil {
			return fmt.Errorf("creating storage root: %w", err)
		}

		fmt.Printf("initialized janus project at %s\n", cfg.ResolveRoot())
		return nil
	},
}
