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
)

// pullCmd represents the pull command
var pullCmd = &cobra.Command{
	Use:   "pull [graph-id]",
	Short: "Download a graph from the remote service",
	Long: `Loads a graph from the remote service and writes its JSON snapshot to
stdout or a file. With no id, the most recently modified graph is pulled.`,
	Args: cobra.MaximumNArgs(1),
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

		if len(args) > 0 {
			err = manager.Load(ctx, args[0])
		} else {
			_, err = manager.LoadLast(ctx)
		}
		if err != nil {
			fmt.Printf("Error loading graph: %v\n", err)
			os.Exit(1)
		}

		snap := manager.Export()
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			fmt.Printf("Error encoding graph: %v\n", err)
			os.Exit(1)
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" || output == "-" {
			fmt.Println(string(data))
			return
		}
		if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
			fmt.Printf("Error writing file: %v\n", err)
			os.Exit(1)
		}
		cli.SystemMessage("Wrote graph %s to %s", snap.ID, output)
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
	pullCmd.Flags().StringP("output", "o", "", "Write the snapshot to a file instead of stdout")
}
