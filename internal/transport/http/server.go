package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"minitweet/internal/cache"
	"minitweet/internal/config"
	"minitweet/internal/database"
	"minitweet/internal/handler"
	"minitweet/internal/redis"
	"minitweet/internal/repository"
	"minitweet/internal/service"
)

const shutdownTimeout = 5 * time.Second

// Run loads configuration, connects backing services and serves HTTP until
// ctx is cancelled or the process receives SIGINT/SIGTERM.
func Run(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// 3. Optional backing services
	redisClient, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	var summaryCache cache.SummaryCache
	if redisClient != nil {
		defer redisClient.Close()
		summaryCache = cache.NewSummaryCache(redisClient.Client, cfg.SummaryCacheTTL)
	}

	mediaService, err := service.NewR2MediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init media storage: %w", err)
	}

	// 4. Setup Server
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           NewRouter(buildRouterConfig(cfg, db, summaryCache, mediaService)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on %s (env=%s)", srv.Addr, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildRouterConfig(
	cfg *config.Config,
	db *sqlx.DB,
	summaryCache cache.SummaryCache,
	mediaService *service.MediaService,
) RouterConfig {
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	tweetRepo := repository.NewTweetRepository(db)
	tx := repository.NewTransactor(db)

	authService := service.NewAuthService(cfg)
	userService := service.NewUserService(userRepo, followRepo, summaryCache, cfg.DefaultProfilePicture)
	followService := service.NewFollowService(followRepo, userRepo, tx)
	tweetService := service.NewTweetService(tweetRepo, userRepo, tx, summaryCache)
	feedService := service.NewFeedService(followRepo, userRepo, tweetRepo, summaryCache)

	errs := handler.ErrorMapper{Debug: cfg.IsDevelopment()}

	return RouterConfig{
		AuthHandler:    handler.NewAuthHandler(userService, authService, errs),
		UserHandler:    handler.NewUserHandler(userService, feedService, mediaService, errs),
		FollowHandler:  handler.NewFollowHandler(followService, errs),
		TweetHandler:   handler.NewTweetHandler(tweetService, feedService, errs),
		Verifier:       authService,
		Users:          userService,
		ClientURL:      cfg.ClientURL,
		RequestTimeout: cfg.RequestTimeout,
	}
}
