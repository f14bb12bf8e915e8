package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/easelab/easel/internal/cli"
	"github.com/easelab/easel/internal/presentation/markdown"
	"github.com/easelab/easel/internal/presentation/mermaid"
	"github.com/easelab/easel/internal/presentation/tui"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [graph-id]",
	Short: "Render a graph document in the terminal",
	Long: `Loads a graph and renders it as a Markdown document with a node table,
connection list, execution order and Mermaid diagram. With no id, the most
recently modified graph is shown.`,
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

		if raw, _ := cmd.Flags().GetBool("mermaid"); raw {
			fmt.Print(mermaid.Flowchart(snap))
			return
		}

		// Cyclic graphs still render; the order section is omitted.
		order, _ := manager.ExecutionOrder()
		doc := markdown.GraphDocument(snap, order)

		plain, _ := cmd.Flags().GetBool("plain")
		if plain || !tui.IsInteractive() {
			fmt.Print(doc)
			return
		}

		render := tui.NewRenderer()
		styled, err := render(doc)
		if err != nil {
			fmt.Print(doc)
			return
		}
		fmt.Print(styled)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("mermaid", false, "Print only the Mermaid diagram")
	showCmd.Flags().Bool("plain", false, "Skip terminal styling")
}
