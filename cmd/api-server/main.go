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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/httpapi/handler"
	"reviewhub/internal/httpapi/middleware"
	"reviewhub/internal/httpapi/repository"
	"reviewhub/internal/httpapi/service"
	"reviewhub/internal/mailer"
	"reviewhub/internal/token"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("could not load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("could not connect to database", "error", err)
		os.Exit(1)
	}

	// Redis is optional: when it is down the ratings are just recomputed per
	// request.
	var ratings repository.RatingCache
	ratings, err = repository.NewRatingRedisCache(
		cfg.RedisAddr, cfg.RedisPassword, time.Duration(cfg.CacheTTL)*time.Second, logger)
	if err != nil {
		logger.Warn("redis unavailable, rating cache disabled", "error", err)
		ratings = repository.NoopRatingCache{}
	}

	var mail mailer.Mailer
	if cfg.IsDevelopment() {
		mail = mailer.NewLogMailer(logger)
	} else {
		mail = mailer.NewSMTPMailer(cfg, logger)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepo(db)
	genreRepo := repository.NewGenreRepo(db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Services
	codes := token.NewConfirmationGenerator(cfg.JWTSecret, cfg.ConfirmationCodeTTL)
	authService := service.NewAuthService(userRepo, codes, mail, cfg, logger)
	userService := service.NewUserService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	genreService := service.NewGenreService(genreRepo)
	titleService := service.NewTitleService(titleRepo, categoryRepo, genreRepo, ratings)
	reviewService := service.NewReviewService(reviewRepo, titleRepo, ratings)
	commentService := service.NewCommentService(commentRepo, reviewRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	genreHandler := handler.NewGenreHandler(genreService)
	titleHandler := handler.NewTitleHandler(titleService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	commentHandler := handler.NewCommentHandler(commentService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	if cfg.PrometheusEnabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Optional auth resolves the caller when a token is present but lets
	// anonymous requests through; the permission predicates decide per route.
	optionalAuth := middleware.Authenticate(authService, userRepo, false)
	requiredAuth := middleware.Authenticate(authService, userRepo, true)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/token", authHandler.Token)
		}

		users := v1.Group("/users", requiredAuth)
		{
			// /users/me before /users/:username so "me" never resolves as a
			// username lookup.
			users.GET("/me", userHandler.Me)
			users.PATCH("/me", userHandler.UpdateMe)

			users.GET("", userHandler.List)
			users.POST("", userHandler.Create)
			users.GET("/:username", userHandler.Get)
			users.PATCH("/:username", userHandler.Update)
			users.DELETE("/:username", userHandler.Delete)
		}

		categories := v1.Group("/categories", optionalAuth)
		{
			categories.GET("", categoryHandler.List)
			categories.POST("", categoryHandler.Create)
			categories.DELETE("/:slug", categoryHandler.Delete)
		}

		genres := v1.Group("/genres", optionalAuth)
		{
			genres.GET("", genreHandler.List)
			genres.POST("", genreHandler.Create)
			genres.DELETE("/:slug", genreHandler.Delete)
		}

		titles := v1.Group("/titles", optionalAuth)
		{
			titles.GET("", titleHandler.List)
			titles.POST("", titleHandler.Create)
			titles.GET("/:title_id", titleHandler.Get)
			titles.PATCH("/:title_id", titleHandler.Update)
			titles.DELETE("/:title_id", titleHandler.Delete)

			reviews := titles.Group("/:title_id/reviews")
			{
				reviews.GET("", reviewHandler.List)
				reviews.POST("", reviewHandler.Create)
				reviews.GET("/:review_id", reviewHandler.Get)
				reviews.PATCH("/:review_id", reviewHandler.Update)
				reviews.DELETE("/:review_id", reviewHandler.Delete)
			}
		}

		comments := v1.Group("/reviews/:review_id/comments", optionalAuth)
		{
			comments.GET("", commentHandler.List)
			comments.POST("", commentHandler.Create)
			comments.GET("/:comment_id", commentHandler.Get)
			comments.PATCH("/:comment_id", commentHandler.Update)
			comments.DELETE("/:comment_id", commentHandler.Delete)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
