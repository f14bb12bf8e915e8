package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/easelab/easel/internal/cli"
	"github.com/easelab/easel/pkg/domain"
)

// pushCmd represents the push command
var pushCmd = &cobra.Command{
	Use:   "push <file>",
	Short: "Upload a graph snapshot to the remote service",
	Long: `Reads a graph snapshot from a JSON file and reconciles it against the
remote service. Cyclic control edges are dropped before syncing. A snapshot
without an id, or pushed with --new, is created as a fresh graph.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		logger := cli.NewLogger(cfg.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error reading graph file: %v\n", err)
			os.Exit(1)
		}
		var snap domain.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			fmt.Printf("Error parsing graph file: %v\n", err)
			os.Exit(1)
		}

		manager, closeStore, err := cli.NewManager(ctx, cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing manager: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		for _, edge := range manager.Import(ctx, &snap) {
			cli.SystemMessage("Dropped cyclic edge %s -> %s", edge.Source, edge.Target)
		}

		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		asNew, _ := cmd.Flags().GetBool("new")

		result, err := manager.Save(ctx, name, description, asNew)
		if err != nil {
			fmt.Printf("Error saving graph: %v\n", err)
			os.Exit(1)
		}

		if result.Report != nil && !result.Report.Success() {
			cli.SystemMessage("Partial sync: %d of %d operations failed", result.Report.Failed, result.Report.Planned)
			for _, opErr := range result.Report.Errors {
				fmt.Fprintf(os.Stderr, "  %v\n", opErr)
			}
		}
		if result.New {
			cli.SystemMessage("Created graph %s", result.GraphID)
		} else {
			cli.SystemMessage("Updated graph %s", result.GraphID)
		}
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
	pushCmd.Flags().String("name", "", "Override the graph name before saving")
	pushCmd.Flags().String("description", "", "Override the graph description before saving")
	pushCmd.Flags().Bool("new", false, "Create a new graph even if the snapshot carries an id")
}
