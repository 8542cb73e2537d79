package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	apphttp "gatekeeper/internal/http"
	"gatekeeper/internal/repository/sqlstore"
	"gatekeeper/internal/sec"
	"gatekeeper/internal/service"
	"gatekeeper/internal/session"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	cfg, logger := e.cfg, e.logger
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	db, dialect, err := openDB(ctx, e)
	if err != nil {
		return err
	}
	defer db.Close()

	userRepo := sqlstore.NewUserRepository(db, dialect)
	sessionRepo := sqlstore.NewSessionRepository(db, dialect)
	if cfg.Session.CreateTable {
		if err := sessionRepo.Init(ctx); err != nil {
			return fmt.Errorf("init session repository: %w", err)
		}
	}

	hasher, err := sec.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("setup hasher: %w", err)
	}
	userService := service.NewUserService(userRepo, hasher)

	store := session.NewStore(sessionRepo, []byte(cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		Secure:   cfg.Session.Secure,
		HttpOnly: cfg.Session.HTTPOnly,
		SameSite: http.SameSiteLaxMode,
	})

	cleaner, err := session.NewCleaner(sessionRepo, cfg.Session.Cleanup, logger)
	if err != nil {
		return err
	}
	cleaner.Start()
	defer cleaner.Stop()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, logger, apphttp.Options{
		SessionName:    cfg.Session.Name,
		SessionStore:   store,
		RollingSession: cfg.Session.Rolling,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
	return nil
}
