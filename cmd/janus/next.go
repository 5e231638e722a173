package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/janus-md/janus/internal/janus/graph"
)

var nextLimit int

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next workable tickets, with blockers surfaced ahead of what they block",
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

		items, warns := graph.NextWork(st.TicketMap(), nextLimit)
		for _, w := range warns {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}

		if jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}

		for _, it := range items {
			t, _ := st.GetTicket(it.TicketID)
			title := ""
			if t != nil {
				title = t.Title
			}
			switch it.Reason {
			case graph.Blocking:
				fmt.Printf("%s  %-40s blocking %s\n", it.TicketID, title, it.Target)
			case graph.TargetBlocked:
				fmt.Printf("%s  %-40s (blocked)\n", it.TicketID, title)
			default:
				fmt.Printf("%s  %s\n", it.TicketID, title)
			}
		}
		return nil
	},
}

func init() {
	nextCmd.Flags().IntVar(&nextLimit, "limit", 10, "maximum number of items to show")
}
