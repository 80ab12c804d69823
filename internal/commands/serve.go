package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bethropolis/tomboy/internal/config"
	"github.com/bethropolis/tomboy/internal/logger"
	"github.com/bethropolis/tomboy/internal/server"
)

const shutdownTimeout = 10 * time.Second

func (s *session) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve notes over HTTP until interrupted",
		Long: `Serve notes over HTTP until interrupted.

  GET  /health                    liveness check
  GET  /notes/{id}                note as an HTML page
  GET  /api/notes                 note list
  POST /api/notes                 create {"title": ..., "body": ...}
  GET  /api/notes/{id}            note content and metadata
  POST /api/notes/{id}/commands   run {"commands": [...]} and save

{id} is a note's file id or its title.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, closer, err := s.setup(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()
			if addr != "" {
				cfg.Server.Addr = addr
			}

			srv, err := server.New(cfg, logger.Get())
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := srv.Close(); err == nil {
					err = closeErr
				}
			}()

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			httpServer := &http.Server{
				Handler:      srv,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- httpServer.Serve(ln) }()
			logger.Infof("Serving notes from %s on %s", cfg.Notes.Dir, ln.Addr())
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", cfg.Notes.Dir, ln.Addr())

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Infof("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default "+config.DefaultServerAddr+" or [server] addr)")
	return cmd
}
