// Command server runs the Bibion HTTP API.
//
//	@title						Bibion API
//	@version					1.0
//	@description				Christian conversational assistant: turns, chats and Google sign-in.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						bibion_session
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/bibion-backend/docs"
	"github.com/tbourn/bibion-backend/internal/auth"
	"github.com/tbourn/bibion-backend/internal/config"
	httpapi "github.com/tbourn/bibion-backend/internal/http"
	"github.com/tbourn/bibion-backend/internal/llm"
	"github.com/tbourn/bibion-backend/internal/lock"
	"github.com/tbourn/bibion-backend/internal/observability"
	"github.com/tbourn/bibion-backend/internal/repo"
	"github.com/tbourn/bibion-backend/internal/services"
)

const shutdownGrace = 15 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	closer := observability.SetupLogger(observability.LogOptions{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		File:    cfg.LogFile,
		Service: cfg.OTEL.ServiceName,
		Version: cfg.Version,
	})
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, cfg.Version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB, nil)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	locker, rdb, err := lock.New(ctx, cfg.Lock.RedisURL, cfg.Lock.TTL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info().Msg("chat locks: redis")
	}

	gen, err := llm.NewGemini(ctx, llm.Config{
		APIKey:          cfg.Model.APIKey,
		Model:           cfg.Model.Name,
		MaxOutputTokens: cfg.Model.MaxOutputTokens,
	})
	if err != nil {
		return err
	}
	defer gen.Close()

	persona, err := services.LoadPersona(cfg.Model.PersonaPath)
	if err != nil {
		return err
	}

	deps := httpapi.Deps{
		Generator: gen,
		Locker:    locker,
		Persona:   persona,
		Sessions:  auth.NewSessions(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL),
		Resolver:  auth.NewResolver(db, cfg.Auth.UserCacheTTL),
	}
	if cfg.Auth.GoogleEnabled() {
		deps.Google = auth.NewGoogle(cfg.Auth.GoogleClientID, cfg.Auth.GoogleSecret, cfg.Auth.GoogleRedirectURL)
	} else {
		log.Warn().Msg("google sign-in disabled; every caller is anonymous")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, deps, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("db", cfg.DB.Driver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(sctx)
}
