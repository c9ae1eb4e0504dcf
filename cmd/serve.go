package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"tomgalvin.uk/thermalprint/internal/host"
	"tomgalvin.uk/thermalprint/internal/journal"
	"tomgalvin.uk/thermalprint/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP print API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, link, err := openPrinter()
		if err != nil {
			return err
		}
		defer link.Close()

		var j *journal.Repository
		if cfg.Journal.Path != "" {
			if j, err = openJournal(cfg.Journal.Path, cfg.Journal.Retention, time.Now()); err != nil {
				return err
			}
			defer j.Close()
		}

		h := host.New(p, cfg.Printer.Tick, logger.With("src", "host"))
		hostDone := make(chan struct{})
		go func() {
			h.Run(ctx)
			close(hostDone)
		}()

		if !cfg.App.Debug && !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		s := server.NewServer(logger.With("src", "server"), h, j)
		srv := &http.Server{
			Addr: ":" + cfg.App.Port,
			Handler: s.Router(server.RouterConfig{
				AllowedOrigins:    cfg.CORS.AllowedOrigins,
				RequestsPerSecond: cfg.RateLimit.RPS,
				Burst:             cfg.RateLimit.Burst,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			logger.Info("Starting server", "port", cfg.App.Port)
			serveErr <- srv.ListenAndServe()
		}()

		select {
		case err = <-serveErr:
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err = srv.Shutdown(shutdownCtx)
		}
		stop()
		<-hostDone

		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	},
}

// openJournal opens the job journal and drops jobs older than retention.
func openJournal(path string, retention time.Duration, now time.Time) (*journal.Repository, error) {
	j, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	if retention <= 0 {
		return j, nil
	}
	deleted, err := j.Prune(now.Add(-retention))
	if err != nil {
		j.Close()
		return nil, err
	}
	if deleted > 0 {
		logger.Info("Pruned old print jobs", "deleted", deleted, "retention", retention)
	}
	return j, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
