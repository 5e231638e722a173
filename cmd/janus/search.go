package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janus-md/janus/internal/janus/query"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over ticket titles, bodies, and types",
	Args:  cobra.MinimumNArgs(1),
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

		results := query.Search(st.TicketMap(), strings.Join(args, " "))
		return printTickets(results)
	},
}
