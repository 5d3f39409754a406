package main

import (
	"context"
	"errors"
	"os"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Serve a document over line-delimited JSON on stdin/stdout",
	Long: `Reads host messages ({"kind": ..., "payload": ...}), one per line, from stdin
and writes every outbound message as one JSON line on stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, opts, err := setup(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		editor, err := stack.NewEditor(sigCtx, opts.SessionID)
		if err != nil {
			return err
		}
		defer editor.Close()

		err = folio.NewRunner(os.Stdin, os.Stdout).Run(sigCtx, editor)
		if sig := sigCtx.Signal(); errors.Is(err, context.Canceled) && sig != nil {
			stack.Logger.Info("runner stopped", "signal", sig)
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
