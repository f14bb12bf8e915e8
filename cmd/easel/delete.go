package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/easelab/easel/internal/cli"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <graph-id>",
	Short: "Delete a graph from the remote service",
	Args:  cobra.ExactArgs(1),
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

		if err := manager.DeleteGraph(ctx, args[0]); err != nil {
			fmt.Printf("Error deleting graph: %v\n", err)
			os.Exit(1)
		}
		cli.SystemMessage("Deleted graph %s", args[0])
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
