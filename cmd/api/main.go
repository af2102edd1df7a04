package main

import (
	"context"
	"crypto/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	cataloghandler "github.com/tesseramedia/tessera/internal/catalog/handler"
	catalogrepository "github.com/tesseramedia/tessera/internal/catalog/repository"
	catalogservice "github.com/tesseramedia/tessera/internal/catalog/service"
	reviewhandler "github.com/tesseramedia/tessera/internal/review/handler"
	reviewrepository "github.com/tesseramedia/tessera/internal/review/repository"
	reviewservice "github.com/tesseramedia/tessera/internal/review/service"
	"github.com/tesseramedia/tessera/internal/server"
	userhandler "github.com/tesseramedia/tessera/internal/user/handler"
	userrepository "github.com/tesseramedia/tessera/internal/user/repository"
	userservice "github.com/tesseramedia/tessera/internal/user/service"
	"github.com/tesseramedia/tessera/pkg/auth"
	"github.com/tesseramedia/tessera/pkg/config"
	"github.com/tesseramedia/tessera/pkg/database"
	"github.com/tesseramedia/tessera/pkg/events"
	"github.com/tesseramedia/tessera/pkg/interfaces"
	"github.com/tesseramedia/tessera/pkg/logger"
	"github.com/tesseramedia/tessera/pkg/mailer"
	"github.com/tesseramedia/tessera/pkg/pagination"
	"github.com/tesseramedia/tessera/pkg/utils"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", interfaces.Error(err))
	}

	log.Info("API server starting",
		interfaces.String("version", cfg.Service.Version),
		interfaces.String("environment", cfg.Service.Environment))

	log.Info("Connecting to database...")
	db, err := database.NewGormDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", interfaces.Error(err))
	}

	log.Info("Running database migrations...")
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations", interfaces.Error(err))
	}

	// JWT secret
	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		if cfg.IsProduction() {
			log.Fatal("JWT secret must be set in production")
		}
		jwtSecret = auth.GenerateSecret()
		log.Warn("Using generated JWT secret for development")
	}
	jwtManager := auth.NewJWTManager(jwtSecret, cfg.Service.Name, cfg.Auth.AccessTokenDuration)

	// RBAC and permission policies
	rbac, err := auth.NewRBACFromType(auth.RBACType(cfg.Auth.RBACType), log)
	if err != nil {
		log.Fatal("Failed to initialize RBAC", interfaces.Error(err))
	}
	evaluator := auth.NewEvaluator(rbac)

	// Pagination cursor encoder
	encoder, err := pagination.NewCursorEncoder(cursorKey(cfg, log))
	if err != nil {
		log.Fatal("Failed to initialize cursor encoder", interfaces.Error(err))
	}
	paginator := pagination.NewPaginator(encoder, cfg.Pagination.DefaultPageSize, cfg.Pagination.MaxPageSize)

	eventBus := events.NewInMemoryEventBus(log)
	mail := mailer.New(&cfg.Mail, log)
	cacheClient := utils.NewInMemoryCache()

	// Repositories
	userRepo := userrepository.NewGormRepository(db)
	catalogRepo := catalogrepository.NewGormRepository(db)
	reviewRepo := reviewrepository.NewGormRepository(db)

	// Services
	authService := userservice.NewAuthService(userRepo, jwtManager, mail, eventBus, log)
	userService := userservice.NewUserService(userRepo, eventBus, cacheClient, log)
	catalogService := catalogservice.NewCatalogService(catalogRepo, eventBus, log)
	reviewService := reviewservice.NewReviewService(reviewRepo, catalogService, eventBus, log)

	// Cross-context cleanup: deleting a title or user removes the
	// reviews and comments that hang off it.
	if err := eventBus.Subscribe(events.TitleDeleted, reviewservice.NewTitleCleanupHandler(reviewRepo, log)); err != nil {
		log.Fatal("Failed to subscribe title cleanup handler", interfaces.Error(err))
	}
	if err := eventBus.Subscribe(events.UserDeleted, reviewservice.NewUserCleanupHandler(reviewRepo, log)); err != nil {
		log.Fatal("Failed to subscribe user cleanup handler", interfaces.Error(err))
	}

	srv := server.New(cfg, jwtManager, server.Handlers{
		Auth:       userhandler.NewAuthHandler(authService, log),
		Users:      userhandler.NewUserHandler(userService, evaluator, paginator, log),
		Categories: cataloghandler.NewCategoryHandler(catalogService, evaluator, paginator, log),
		Genres:     cataloghandler.NewGenreHandler(catalogService, evaluator, paginator, log),
		Titles:     cataloghandler.NewTitleHandler(catalogService, evaluator, paginator, log),
		Reviews:    reviewhandler.NewReviewHandler(reviewService, evaluator, paginator, log),
	}, log)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("HTTP server failed", interfaces.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown did not complete cleanly", interfaces.Error(err))
	}

	if err := eventBus.Stop(); err != nil {
		log.Error("Event bus did not stop cleanly", interfaces.Error(err))
	}

	sqlDB, _ := db.DB()
	if sqlDB != nil {
		_ = sqlDB.Close()
	}

	log.Info("API server stopped")
}

// cursorKey resolves the AES-256 key for page tokens. A missing key is
// generated at startup, which invalidates outstanding tokens across
// restarts; fine for development, set one in production.
func cursorKey(cfg *config.Config, log interfaces.Logger) []byte {
	if cfg.Pagination.CursorEncryptionKey != "" {
		return []byte(cfg.Pagination.CursorEncryptionKey)
	}
	if cfg.IsProduction() {
		log.Fatal("Pagination cursor encryption key must be set in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatal("Failed to generate cursor encryption key", interfaces.Error(err))
	}
	log.Warn("Using generated cursor encryption key for development")
	return key
}
