// Command catalog-api runs the product catalog REST API with authentication
// delegated to a WSO2-style OAuth2/OIDC identity authority.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalog "github.com/bimdevops/catalog-api"
	"github.com/bimdevops/catalog-api/audit"
	"github.com/bimdevops/catalog-api/config"
	"github.com/bimdevops/catalog-api/httpapi"
	"github.com/bimdevops/catalog-api/jwks"
	"github.com/bimdevops/catalog-api/metrics"
	"github.com/bimdevops/catalog-api/store/memory"
	"github.com/bimdevops/catalog-api/store/postgres"
	"github.com/bimdevops/catalog-api/wso2"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store initialization failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	authenticator := wso2.New(
		cfg.WSO2.TokenEndpoint,
		cfg.WSO2.UserInfoEndpoint,
		cfg.WSO2.ClientID,
		cfg.WSO2.ClientSecret,
		wso2.WithTimeout(cfg.WSO2.Timeout()),
		wso2.WithLogger(logger),
	)

	verifier := jwks.NewVerifier(
		cfg.JWT.JWKSURL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		jwks.WithRoleClaim(cfg.JWT.RoleClaim),
	)

	auditLogger := audit.New(audit.WithStdoutHandler())
	defer auditLogger.Close()

	router := httpapi.NewRouter(httpapi.Options{
		Authenticator: authenticator,
		Verifier:      verifier,
		Store:         store,
		Roles:         cfg.Roles,
		Logger:        logger,
		Metrics:       metrics.New(cfg.Metrics.Enabled),
		Audit:         auditLogger,
		StaticDir:     cfg.Server.StaticDir,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// newStore selects the product store backend. The postgres path bootstraps
// the schema and seeds the demo catalog when the table is empty.
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (catalog.ProductStore, func(), error) {
	switch cfg.Database.Driver {
	case "postgres":
		pg, err := postgres.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		seed, err := memory.NewSeeded().List(ctx)
		if err != nil {
			pg.Close()
			return nil, nil, err
		}
		if err := pg.Seed(ctx, seed); err != nil {
			pg.Close()
			return nil, nil, err
		}
		logger.Info("using postgres product store")
		return pg, pg.Close, nil
	default:
		logger.Info("using in-memory product store")
		return memory.NewSeeded(), func() {}, nil
	}
}
