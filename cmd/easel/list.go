package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/easelab/easel/internal/cli"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List graphs stored on the remote service",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		logger := cli.NewLogger(cfg.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		manager, closeStore, err := cli.NewManager(ctx, cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing manager: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		graphs, err := manager.ListGraphs(ctx)
		if err != nil {
			fmt.Printf("Error listing graphs: %v\n", err)
			os.Exit(1)
		}
		if len(graphs) == 0 {
			cli.SystemMessage("No graphs found")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tNODES\tLAST MODIFIED")
		for _, g := range graphs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", g.ID, g.Name, g.NodeCount, g.UpdatedAt.Format(time.RFC3339))
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
