package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/folio/internal/cli"
	httpAdapter "github.com/aretw0/folio/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves one document over HTTP: POST /actions and /messages drive it,
GET /events streams host messages and state diffs, GET /metrics exposes Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, opts, err := setup(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		port, _ := cmd.Flags().GetInt("port")
		if !cmd.Flags().Changed("port") && stack.Config.HTTP.Port != 0 {
			port = stack.Config.HTTP.Port
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		editor, err := stack.NewEditor(sigCtx, opts.SessionID)
		if err != nil {
			return err
		}
		defer editor.Close()

		documentID := opts.SessionID
		if documentID == "" {
			documentID = "default"
		}
		server := httpAdapter.NewServer(editor,
			httpAdapter.WithDocumentID(documentID),
			httpAdapter.WithGatherer(stack.Registry),
			httpAdapter.WithLogger(stack.Logger),
		)
		defer server.Close()

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			stack.Logger.Info("starting folio server", "addr", srv.Addr, "session_id", opts.SessionID)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-sigCtx.Done():
			stack.Logger.Info("shutting down", "signal", sigCtx.Signal())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				stack.Logger.Warn("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
}
