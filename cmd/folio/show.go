package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/folio/internal/cli"
	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/internal/presentation/tui"
	"github.com/aretw0/folio/pkg/adapters/file"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [snapshot.json]",
	Short: "Render a document snapshot in the terminal",
	Long: `Renders a saved document. Pass a snapshot file, or use --session to render
a session from the configured store. With --watch the document is rendered
again each time its file changes (file stores only).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			load      func() (*domain.State, error)
			watchPath string
		)
		if len(args) == 1 {
			watchPath = args[0]
			load = func() (*domain.State, error) { return readSnapshot(args[0]) }
		} else {
			stack, opts, err := setup(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()
			if opts.SessionID == "" {
				return fmt.Errorf("a snapshot file or --session is required")
			}
			load = func() (*domain.State, error) {
				state, err := stack.Manager.Load(cmd.Context(), opts.SessionID)
				if err != nil {
					return nil, fmt.Errorf("error loading session '%s': %w", opts.SessionID, err)
				}
				return state, nil
			}
			if fs, ok := stack.Manager.Store().(*file.Store); ok {
				watchPath = filepath.Join(fs.BasePath, opts.SessionID+".json")
			}
		}

		raw, _ := cmd.Flags().GetBool("raw")
		style, _ := cmd.Flags().GetString("style")
		out := cmd.OutOrStdout()

		state, err := load()
		if err != nil {
			return err
		}
		if err := render(out, *state, raw, style); err != nil {
			return err
		}

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return nil
		}
		if watchPath == "" {
			return fmt.Errorf("--watch needs a snapshot file or a file session store")
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return cli.WatchFile(sigCtx, watchPath, 0, logging.NewNop(), func() {
			state, err := load()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "reload failed: %v\n", err)
				return
			}
			fmt.Fprint(out, "\033[H\033[2J")
			if err := render(out, *state, raw, style); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "render failed: %v\n", err)
			}
		})
	},
}

func readSnapshot(path string) (*domain.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	state := &domain.State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return state, nil
}

func render(w io.Writer, state domain.State, raw bool, style string) error {
	if raw {
		fmt.Fprint(w, tui.Markdown(state))
		return nil
	}
	r, err := tui.NewRenderer(tui.TerminalWidth(), style)
	if err != nil {
		return err
	}
	out, err := r.Render(state)
	if err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}
	fmt.Fprint(w, out)
	return nil
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("raw", false, "Print markdown without terminal styling")
	showCmd.Flags().String("style", "", "Glamour style (dark, light, notty); default picks from the terminal")
	showCmd.Flags().Bool("watch", false, "Render again whenever the document file changes")
}
