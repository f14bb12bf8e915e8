package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/easelab/easel"
	"github.com/easelab/easel/internal/config"
	"github.com/easelab/easel/internal/presentation/tui"
)

var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "Easel is a graph manager for AI agent canvases",
	Long: `Easel edits, syncs and renders directed graphs of AI agent nodes.
Commands talk to a remote graph service over HTTP; run 'easel serve' to host one locally.`,
	Run: func(cmd *cobra.Command, args []string) {
		if tui.IsInteractive() {
			tui.PrintBanner(strings.TrimSpace(easel.Version))
		}
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
}

// loadConfig resolves the configuration for a command invocation.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
