package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/janus-md/janus/internal/janus/query"
	"github.com/janus-md/janus/internal/janus/ticket"
)

var (
	listStatus []string
	listReady  bool
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tickets, optionally filtered",
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

		q := query.Query{Sort: query.SortPriority, Limit: listLimit}
		if len(listStatus) > 0 {
			statuses := make([]ticket.Status, len(listStatus))
			for i, s := range listStatus {
				statuses[i] = ticket.Status(s)
			}
			q.And = append(q.And, query.StatusIn(statuses...))
		}
		if listReady {
			q.And = append(q.And, query.Ready())
		}

		tickets := query.Run(st.TicketMap(), q)
		return printTickets(tickets)
	},
}

func printTickets(tickets []*ticket.Ticket) error {
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tickets)
	}
	for _, t := range tickets {
		fmt.Printf("%s  [%-11s] p%d  %s\n", t.ID, t.Status, t.Priority, t.Title)
	}
	return nil
}

func init() {
	listCmd.Flags().StringSliceVar(&listStatus, "status", nil, "filter by status")
	listCmd.Flags().BoolVar(&listReady, "ready", false, "only show ready tickets")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of tickets to show (0 = unlimited)")
}
