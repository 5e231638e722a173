package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/janus-md/janus/internal/janus/embedding"
	"github.com/janus-md/janus/internal/janus/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the project root and keep the in-memory index synchronized",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, c, warnings, err := loadStore(cfg)
		if err != nil {
			return err
		}
		if c != nil {
			defer c.Close()
		}
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}

		opts := []watcher.Option{watcher.WithEmbedBatchSize(cfg.Embedding.BatchSize)}
		if !cfg.Embedding.Skip {
			opts = append(opts, watcher.WithEmbedder(embedding.NewLocalEmbedder()))
		}
		if c != nil {
			opts = append(opts, watcher.WithCache(c))
		}

		w, err := watcher.Start(cfg.ResolveRoot(), st, opts...)
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer w.Stop()

		events, unsubscribe := st.Subscribe()
		defer unsubscribe()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		fmt.Printf("watching %s (ctrl-c to stop)\n", cfg.ResolveRoot())
		for {
			select {
			case ev := <-events:
				fmt.Printf("changed: tickets=%v plans=%v ids=%v\n", ev.TicketsChanged, ev.PlansChanged, ev.ChangedIDs)
				for _, warn := range w.Warnings() {
					fmt.Fprintln(os.Stderr, "warning:", warn)
				}
			case <-sigCh:
				return nil
			}
		}
	},
}
