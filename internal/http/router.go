// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, redacted logging, panic recovery, metrics,
// compression, CORS, security headers, idempotency and sessions.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/bibion-backend/internal/auth"
	"github.com/tbourn/bibion-backend/internal/config"
	"github.com/tbourn/bibion-backend/internal/domain"
	"github.com/tbourn/bibion-backend/internal/http/handlers"
	"github.com/tbourn/bibion-backend/internal/http/middleware"
	"github.com/tbourn/bibion-backend/internal/lock"
	"github.com/tbourn/bibion-backend/internal/repo"
	"github.com/tbourn/bibion-backend/internal/services"
)

// maxBodyBytes caps request bodies. Turns carry the whole conversation.
const maxBodyBytes = 1 << 20

// Deps are the collaborators built in main and injected into the router.
type Deps struct {
	Generator services.Generator
	Locker    lock.Locker
	Persona   domain.Persona
	Sessions  *auth.Sessions
	Resolver  *auth.Resolver
	// Google is nil when sign-in is not configured.
	Google *auth.Google
}

// chatRepoShim adapts the repository free functions to the services.ChatRepo
// interface expected by the ChatService.
type chatRepoShim struct{}

func (chatRepoShim) CreateChat(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, userID, title)
}

func (chatRepoShim) ListChats(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error) {
	return repo.ListChats(ctx, db, userID)
}

func (chatRepoShim) ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, userID, offset, limit)
}

func (chatRepoShim) CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountChats(ctx, db, userID)
}

func (chatRepoShim) ListMessages(ctx context.Context, db *gorm.DB, chatID, userID string) ([]domain.Message, error) {
	return repo.ListMessages(ctx, db, chatID, userID)
}

func (chatRepoShim) ChatsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return repo.ChatsStats(ctx, db, userID)
}

func (chatRepoShim) MessagesStats(ctx context.Context, db *gorm.DB, chatID, userID string) (int64, *time.Time, error) {
	return repo.MessagesStats(ctx, db, chatID, userID)
}

// replayShim stores idempotent turn results in the idempotency table.
type replayShim struct{ db *gorm.DB }

func idemInput(rec handlers.ReplayRecord) repo.IdempotencyInput {
	return repo.IdempotencyInput{
		UserID:    rec.UserID,
		ChatID:    rec.ChatID,
		Key:       rec.Key,
		MessageID: rec.MessageID,
		Status:    rec.Status,
		Response:  rec.Body,
		TTL:       rec.TTL,
	}
}

// Reserve inserts a pending row. The unique index makes this the single
// arbiter between concurrent retries; the loser reads the winner's row.
func (s replayShim) Reserve(ctx context.Context, rec handlers.ReplayRecord) (*domain.Idempotency, bool, error) {
	in := idemInput(rec)
	in.MessageID, in.Status, in.Response = "", 0, nil
	if _, err := repo.CreateIdempotency(ctx, s.db, in); err == nil {
		return nil, true, nil
	} else if !errors.Is(err, repo.ErrDuplicate) {
		return nil, false, err
	}
	held, err := repo.GetIdempotency(ctx, s.db, rec.UserID, rec.ChatID, rec.Key, time.Now().UTC())
	if err != nil {
		return nil, false, err
	}
	return held, false, nil
}

func (s replayShim) Complete(ctx context.Context, rec handlers.ReplayRecord) error {
	return repo.CompleteIdempotency(ctx, s.db, idemInput(rec))
}

func (s replayShim) Release(ctx context.Context, userID, chatID, key string) error {
	return repo.DeleteIdempotency(ctx, s.db, userID, chatID, key)
}

// RegisterRoutes attaches all middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: request-scoped logger + scrubbed access log
//  4. Recovery: capture panics after the logger is attached
//  5. Body size limiter
//  6. Metrics (the scrape endpoint itself is not recorded)
//  7. gzip, CORS and security headers
//  8. Idempotency-Key validation
//
// Session resolution runs on the API and auth groups only.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics("/metrics"))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(corsMiddleware(cfg.CORS))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		CacheControl: "private, no-cache",
		EnablePolicy: true,
	}))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.Version})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services <- repo/db/gateway
	chatSvc := services.NewChatService(db, chatRepoShim{})
	turnSvc := &services.TurnService{
		DB:             db,
		Gen:            deps.Generator,
		Locker:         deps.Locker,
		Persona:        deps.Persona,
		MaxPromptRunes: cfg.Model.MaxPromptRunes,
		ModelTimeout:   cfg.Model.Timeout,
		TitleTimeout:   cfg.Model.TitleTimeout,
		TitleMaxLen:    cfg.Model.TitleMaxLen,
		TitleLocale:    language.English,
	}
	h := handlers.New(chatSvc, turnSvc, replayShim{db: db}, cfg.IdempotencyTTL)

	var google handlers.GoogleFlow
	if deps.Google != nil {
		google = deps.Google
	}
	ah := handlers.NewAuthHandlers(deps.Sessions, deps.Resolver, google, handlers.CookieOptions{
		Name:              cfg.Auth.SessionCookie,
		Secure:            cfg.Auth.CookieSecure,
		PostLoginRedirect: cfg.Auth.PostLoginRedirect,
	})

	session := middleware.Session(deps.Sessions, deps.Resolver, cfg.Auth.SessionCookie)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(session)
	{
		api.POST("/chat/turn", h.PostTurn)

		owned := api.Group("", middleware.RequireUser())
		owned.GET("/chats", h.ListChats)
		owned.GET("/chats/:id", h.GetChat)
		owned.POST("/chats", h.CreateChat)
	}

	authG := r.Group("/auth", session)
	{
		authG.GET("/google/login", ah.GoogleLogin)
		authG.GET("/google/callback", ah.GoogleCallback)
		authG.GET("/token", ah.Token)
		authG.POST("/logout", ah.Logout)
	}
}

// corsMiddleware allows any origin without credentials when no allowlist is
// configured; with an allowlist, credentialed requests (the session cookie)
// are permitted from those origins only.
func corsMiddleware(c config.CORSConfig) gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{"X-Request-ID", "ETag", "X-Total-Count", middleware.HeaderIdempotencyReplayed},
		MaxAge:        12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 {
		base.AllowAllOrigins = true
		return cors.New(base)
	}
	base.AllowOrigins = c.AllowedOrigins
	base.AllowCredentials = true
	return cors.New(base)
}

// limitBody caps the request body size using http.MaxBytesReader.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
