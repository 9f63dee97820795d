package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"haat/internal/auth"
	"haat/internal/httpserver"
	"haat/internal/httpserver/handlers"
	"haat/internal/models"
	"haat/internal/notify"
	"haat/internal/orders"
)

func serveCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, s, err := bootstrap()
			if err != nil {
				return err
			}
			defer lg.Sync()
			defer s.Close()

			if !skipMigrate {
				if err := s.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("automigrate failed: %w", err)
				}
			}

			dispatcher := notify.NewService(s.DB,
				notify.LogSender{Channel: models.ChannelEmail, Lg: lg},
				notify.LogSender{Channel: models.ChannelPush, Lg: lg},
				lg)
			manager, err := orders.NewManager(s.DB, dispatcher, cfg.Orders.Node, lg)
			if err != nil {
				return err
			}
			deps := &handlers.Deps{
				Store:  s,
				Orders: manager,
				Tokens: auth.NewTokenService(s.DB, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
				Hasher: auth.NewHasher(cfg.Auth.BcryptCost),
				Cookies: handlers.Cookies{
					Access:  cfg.Auth.AccessCookie,
					Refresh: cfg.Auth.RefreshCookie,
					Secure:  cfg.Server.CookieSecure,
				},
				Lg: lg,
			}
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: httpserver.NewRouter(deps)}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			errCh := make(chan error, 1)
			go func() {
				lg.Infow("listening", "addr", cfg.Server.Addr, "version", Version)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			lg.Infow("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run schema migrations on startup")
	return cmd
}
