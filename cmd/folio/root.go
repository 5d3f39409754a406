package main

import (
	"fmt"
	"os"

	"github.com/aretw0/folio/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Folio is the state core of a cell-based document editor",
	Long: `Folio keeps the state of an interactive, cell-based document and talks to an
external execution host. Drive it over HTTP, MCP or line-delimited JSON.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default folio.yaml)")
	rootCmd.PersistentFlags().StringP("session", "s", "", "Document session id (empty means not persisted)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// options reads the persistent flags.
func options(cmd *cobra.Command) cli.Options {
	cfg, _ := cmd.Flags().GetString("config")
	sessionID, _ := cmd.Flags().GetString("session")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Options{ConfigPath: cfg, SessionID: sessionID, Debug: debug}
}

// setup builds the stack for cmd.
func setup(cmd *cobra.Command) (*cli.Stack, cli.Options, error) {
	opts := options(cmd)
	stack, err := cli.Setup(opts)
	if err != nil {
		return nil, opts, fmt.Errorf("error initializing folio: %w", err)
	}
	return stack, opts, nil
}
