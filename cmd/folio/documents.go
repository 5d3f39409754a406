package main

import (
	"fmt"

	"github.com/aretw0/folio/internal/cli"
	"github.com/aretw0/folio/pkg/adapters/loam"
	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List gathered notebooks",
	Long: `Lists the notebooks gathered into the configured documents directory, with
their cell count. With --watch it keeps running and prints every notebook that
is written or changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, _, err := setup(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		docs, ok := stack.Documents.(*loam.Documents)
		if !ok {
			docs, err = loam.Open(stack.Config.Documents.Dir)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		uris, err := docs.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing documents: %w", err)
		}
		if len(uris) == 0 {
			fmt.Fprintln(out, "No gathered documents found.")
		}
		for _, uri := range uris {
			nb, err := docs.Get(cmd.Context(), uri)
			if err != nil {
				fmt.Fprintf(out, "- %s (unreadable: %v)\n", uri, err)
				continue
			}
			fmt.Fprintf(out, "- %s (%d cells)\n", uri, len(nb.Cells))
		}

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return nil
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		changes, err := docs.Watch(sigCtx)
		if err != nil {
			return err
		}
		for uri := range changes {
			fmt.Fprintln(out, "changed: "+uri)
		}
		if sig := sigCtx.Signal(); sig != nil {
			stack.Logger.Debug("documents watch stopped", "signal", sig)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	documentsCmd.Flags().Bool("watch", false, "Keep running and print changed notebooks")
}
