package serve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"movietrack/config"
	"movietrack/internal/app"
	"movietrack/internal/logging"
)

const (
	addrFlag        = "addr"
	shutdownTimeout = 10 * time.Second
)

var serveFlags = map[string]cobraflags.Flag{
	addrFlag: &cobraflags.StringFlag{
		Name:  addrFlag,
		Value: "",
		Usage: "Listen address (host:port). Overrides server.host and server.port",
	},
}

// NewServeCommand returns the command that runs the HTTP API.
func NewServeCommand(opts *config.LoadOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MovieTrack HTTP API",
		Long: `Run the MovieTrack HTTP API until interrupted.

Configuration is read from the optional .env file, the optional config file
and MOVIETRACK_* environment variables, in that order of precedence.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *opts)
		},
	}
	cobraflags.RegisterMap(cmd, serveFlags)
	return cmd
}

func run(ctx context.Context, opts config.LoadOptions) error {
	settings, err := config.Load(opts)
	if err != nil {
		return err
	}
	logCloser, err := logging.Setup(afero.NewOsFs(), settings.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	instance, err := app.New(settings)
	if err != nil {
		return err
	}
	defer instance.Close()

	addr := settings.Server.Addr()
	if override := serveFlags[addrFlag].GetString(); override != "" {
		addr = override
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           instance.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s (env=%s)", addr, settings.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
