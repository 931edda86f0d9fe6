package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/env"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/logging"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/middleware"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/router"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/config"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/media"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/oauth"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/provider"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/rest"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/service"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/session"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/store"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/token"
	"github.com/redis/go-redis/v9"
)

const readyTimeout = 2 * time.Second

func run(ctx context.Context) error {
	cfg := config.FromEnv()
	slog.SetDefault(logging.New(os.Stdout, cfg.Log.Format, cfg.Log.Level))
	slog.Info("starting fitness service")

	db, err := store.NewPostgresDB(ctx, store.PostgresConfig{
		DSN:             cfg.DB.DSN,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := store.Migrate(db, cfg.DB.MigrationsDir); err != nil {
			return fmt.Errorf("failed to migrate db: %w", err)
		}
		slog.Info("database migrated", "dir", cfg.DB.MigrationsDir)
	}

	pgs := store.NewPostgresStore(db)

	rdb := session.NewClient(session.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	jwt := token.NewJWTService(token.JwtConfig{
		Secret:   token.NewSecretString(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.AccessTTL,
	})

	authOpts := []service.AuthOption{
		service.WithUsers(pgs),
		service.WithTokens(jwt),
		service.WithSessions(session.NewRefresh(rdb, cfg.JWT.RefreshTTL)),
		service.WithCallbackURL(cfg.Google.CallbackURL),
	}

	var google *provider.Google
	if cfg.Google.Verifier == config.VerifierOIDC || cfg.Google.CodeFlow() {
		google, err = provider.NewGoogle(ctx, provider.GoogleConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
		if err != nil {
			return fmt.Errorf("failed to create google provider: %w", err)
		}
	}

	switch cfg.Google.Verifier {
	case config.VerifierOIDC:
		authOpts = append(authOpts, service.WithVerifier(google))
	case config.VerifierTokenInfo:
		authOpts = append(authOpts, service.WithVerifier(provider.NewTokenInfo(provider.TokenInfoConfig{
			Endpoint:  cfg.Google.TokenInfoURL,
			Timeout:   cfg.Google.Timeout,
			Audiences: []string{cfg.Google.ClientID},
		})))
	default:
		return fmt.Errorf("unknown identity verifier %q", cfg.Google.Verifier)
	}

	if cfg.Google.CodeFlow() {
		auth := oauth.NewAuthenticator()
		if err := auth.Use(token.ProviderGoogle, google); err != nil {
			return fmt.Errorf("failed to register google provider: %w", err)
		}

		authOpts = append(authOpts,
			service.WithAuthenticator(auth),
			service.WithCodes(session.NewCodes(rdb, cfg.JWT.CodeTTL)),
		)
		slog.Info("authorization code flow enabled", "provider", token.ProviderGoogle)
	}

	images, err := media.NewStore(media.Config{
		Root:      cfg.Media.Root,
		ServeRoot: cfg.Media.ServeRoot,
		MaxWidth:  cfg.Media.MaxWidth,
		MaxHeight: cfg.Media.MaxHeight,
	})
	if err != nil {
		return fmt.Errorf("failed to create media store: %w", err)
	}

	api := rest.NewAPI(
		rest.WithTokenParser(jwt.ParsePrincipal),
		rest.WithAuth(service.NewAuth(authOpts...)),
		rest.WithRoutines(service.NewRoutines(pgs)),
		rest.WithCatalog(service.NewCatalog(pgs)),
		rest.WithUsers(service.NewUsers(pgs)),
		rest.WithRecords(service.NewRecords(pgs)),
		rest.WithMedia(images, cfg.Media.Root),
		rest.WithMaxMediaSize(cfg.Media.MaxSize),
	)

	r := router.New()
	r.Use(middleware.RequestID(), middleware.Recover(), middleware.Log())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.HandleFunc("/readyz", readyz(pgs, rdb))
	r.Handle("/api/v1/", http.StripPrefix("/api/v1", api))

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		Handler:      r,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// readyz reports 503 until both Postgres and Redis answer a ping.
func readyz(pgs *store.PostgresStore, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := pgs.Ping(ctx); err != nil {
			slog.Warn("postgres is not ready", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis is not ready", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func main() {
	if err := env.Load(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("fitness service terminated with error", "error", err)
		os.Exit(1)
	}
}
