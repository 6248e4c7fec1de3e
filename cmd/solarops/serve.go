package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solarops/internal/handler"
	"solarops/internal/router"
	"solarops/internal/service"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		stopDispatcher := runDispatcher(env.Dispatcher)
		defer stopDispatcher()

		if cfg.Reminder.Enabled {
			reminder, err := service.NewReminderScheduler(env.Records, env.Notifier, service.ReminderConfig{
				Schedule:   cfg.Reminder.Schedule,
				StaleAfter: cfg.Reminder.StaleAfter,
				Recipient:  cfg.Email.Recipient,
				BaseURL:    cfg.Email.BaseURL,
			})
			if err != nil {
				return err
			}
			go reminder.Start(ctx)
		}

		opts := router.Options{CORSOrigins: cfg.Server.CORSOrigins}
		if cfg.Storage.Provider == "local" || cfg.Storage.Provider == "" {
			opts.FilesDir = cfg.Storage.LocalDir
		}
		r := router.Setup(
			handler.NewIngestHandler(env.Ingest),
			handler.NewRecordHandler(env.Review, env.Ingest),
			handler.NewHealthHandler(env.DB),
			opts,
		)

		addr := servePort
		if addr == "" {
			addr = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		shutdownDone := make(chan struct{})
		go func() {
			defer close(shutdownDone)
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Error("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.String("addr", addr), zap.String("db", cfg.DB.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		// In-flight overrides finish before the dispatcher drains.
		<-shutdownDone
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
