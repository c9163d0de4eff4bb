package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sumire/blog/internal/config"
	"github.com/sumire/blog/internal/domain"
	"github.com/sumire/blog/internal/handler"
	"github.com/sumire/blog/internal/repository"
	"github.com/sumire/blog/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := repository.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	cancel()
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			slog.Error("store close", "error", err)
		}
	}()

	slog.Info("database connected", "database", cfg.MongoDB)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
	}

	userRepo := repository.NewUserRepository(store)
	postRepo := repository.NewPostRepository(store)
	commentRepo := repository.NewCommentRepository(store)

	tokenSvc := service.NewTokenService(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	authSvc := service.NewAuthService(userRepo, tokenSvc)
	oauthSvc := service.NewOAuthService(userRepo, authSvc, service.OAuthConfig{
		GoogleClientID:       cfg.GoogleClientID,
		GoogleClientSecret:   cfg.GoogleClientSecret,
		FacebookClientID:     cfg.FacebookClientID,
		FacebookClientSecret: cfg.FacebookClientSecret,
		BaseURL:              cfg.BaseURL,
	})
	postSvc := service.NewPostService(postRepo)
	commentSvc := service.NewCommentService(commentRepo, postRepo)
	adminSvc := service.NewAdminService(userRepo, postRepo, commentRepo)

	authHandler := handler.NewAuthHandler(authSvc, oauthSvc, cfg.FrontendURL)
	postHandler := handler.NewPostHandler(postSvc)
	commentHandler := handler.NewCommentHandler(commentSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewAppValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.RequestID())
	e.Use(handler.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	authn := handler.JWTAuth(authSvc, tokenSvc)
	maybeAuthn := handler.OptionalJWTAuth(authSvc, tokenSvc)
	adminOnly := handler.RequireRole(domain.RoleAdmin)

	auth := api.Group("/auth", handler.RateLimit(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/me", authHandler.Me, authn)
	auth.POST("/logout", authHandler.Logout, authn)
	auth.GET("/:provider", authHandler.OAuthRedirect)
	auth.GET("/:provider/callback", authHandler.OAuthCallback)

	api.GET("/posts", postHandler.List)
	api.GET("/posts/:id", postHandler.Get, maybeAuthn)
	api.POST("/posts", postHandler.Create, authn)
	api.PATCH("/posts/:id", postHandler.Update, authn)
	api.DELETE("/posts/:id", postHandler.Delete, authn)

	api.GET("/posts/:id/comments", commentHandler.List)
	api.POST("/posts/:id/comments", commentHandler.Create, authn)
	api.DELETE("/comments/:id", commentHandler.Delete, authn)

	admin := api.Group("/admin", authn, adminOnly)
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/:id", adminHandler.GetUser)
	admin.PATCH("/users/:id", adminHandler.UpdateUser)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
