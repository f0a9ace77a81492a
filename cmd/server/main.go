package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/app-store/backend/internal/activity"
	"github.com/ayush/app-store/backend/internal/auth"
	"github.com/ayush/app-store/backend/internal/config"
	"github.com/ayush/app-store/backend/internal/listing"
	"github.com/ayush/app-store/backend/internal/logging"
	"github.com/ayush/app-store/backend/internal/media"
	"github.com/ayush/app-store/backend/internal/server"
	"github.com/ayush/app-store/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	if err := store.Migrate(ctx, pgPool); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}
	pgStore := store.NewPostgresStore(pgPool)

	if cfg.SeedListings {
		n, err := listing.Seed(ctx, pgStore)
		if err != nil {
			log.Fatalf("seed listings: %v", err)
		}
		log.WithField("inserted", n).Info("catalog seeded")
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	journal := store.NewMongoJournal(mongoClient.Database(cfg.MongoDB))
	if err := journal.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}
	recorder := activity.NewRecorder(journal, log)
	defer recorder.Close()

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()

	// ── MinIO ────────────────────────────────────────────────
	minioStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Services ─────────────────────────────────────────────
	authSvc, err := auth.NewService(
		pgStore,
		auth.NewTokens([]byte(cfg.JWTSecret), cfg.TokenTTL),
		auth.NewRevocationList(rdb),
		recorder,
		cfg.BcryptCost,
		log,
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	listingSvc := listing.NewService(
		pgStore,
		listing.NewRedisFeedCache(rdb, cfg.FeedMode, cfg.FeedCacheTTL),
		recorder,
		cfg.FeedMode == config.FeedOwned,
		log,
	)

	// ── Router ───────────────────────────────────────────────
	r := server.NewRouter(server.Deps{
		Authenticator: authSvc,
		Auth:          auth.NewHandler(authSvc, log),
		Listings:      listing.NewHandler(listingSvc, log),
		Activity:      activity.NewHandler(journal, log),
		Media:         media.NewHandler(minioStore, recorder, cfg.MaxImageBytes, cfg.PublicBaseURL, log),
		CORSOrigins:   cfg.CORSOrigins,
		Log:           log,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":      cfg.Port,
			"feed_mode": cfg.FeedMode,
		}).Info("app store backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown")
	}
}
