package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artifact-registry-service/internal/adapters/primary/http/handlers"
	"artifact-registry-service/internal/adapters/primary/http/middleware"
	"artifact-registry-service/internal/adapters/secondary/github"
	"artifact-registry-service/internal/adapters/secondary/huggingface"
	"artifact-registry-service/internal/adapters/secondary/postgres"
	"artifact-registry-service/internal/adapters/secondary/s3"
	metadatacache "artifact-registry-service/internal/cache/metadata"
	sourcehostcache "artifact-registry-service/internal/cache/sourcehost"
	"artifact-registry-service/internal/config"
	output "artifact-registry-service/internal/core/ports/output"
	"artifact-registry-service/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	// Secondary Adapter (Output Port - Artifact Storage)
	var repo output.ArtifactRepository
	var pool *pgxpool.Pool

	switch cfg.Storage.Backend {
	case "postgres":
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			log.Fatalf("parse db config: %v", err)
		}
		poolCfg.MaxConns = int32(cfg.Database.MaxConns)
		poolCfg.MinConns = int32(cfg.Database.MinConns)
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

		pool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
		if err != nil {
			log.Fatalf("create db pool: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			log.Fatalf("ping db: %v", err)
		}
		log.Info("database connection established")

		repo = postgres.NewArtifactRepository(pool)

	case "s3":
		store, err := s3.NewArtifactStore(s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
			CacheSize: cfg.S3.CacheSize,
		})
		if err != nil {
			log.Fatalf("create object store: %v", err)
		}
		log.Info("object store initialized")
		repo = store

	default:
		log.Fatalf("unknown storage backend %q", cfg.Storage.Backend)
	}

	// Secondary Adapters (Output Ports - Upstream Metadata)
	catalog := metadatacache.NewCachedClient(
		huggingface.NewClient(huggingface.Config{
			URL:     cfg.Catalog.URL,
			Token:   cfg.Catalog.Token,
			Timeout: cfg.Catalog.Timeout,
		}),
		metadatacache.Config{
			TTL:         cfg.Cache.TTL,
			NegativeTTL: cfg.Cache.NegativeTTL,
			RefsTTL:     cfg.Cache.RefsTTL,
		},
	)
	sourcehost := sourcehostcache.NewCachedClient(
		github.NewClient(github.Config{
			URL:     cfg.SourceHost.URL,
			Token:   cfg.SourceHost.Token,
			Timeout: cfg.SourceHost.Timeout,
		}),
		sourcehostcache.Config{
			TTL:         cfg.Cache.TTL,
			NegativeTTL: cfg.Cache.NegativeTTL,
		},
	)

	// Core Services (Application Layer)
	engineOpts := services.EngineOptions{
		MaxDepth: cfg.Engine.MaxDepth,
		FanOut:   cfg.Engine.FanOut,
		Budget:   cfg.Engine.Budget,
		MemoTTL:  cfg.Engine.MemoTTL,
		MemoSize: cfg.Engine.MemoSize,
	}
	resolver := services.NewResolverService(repo, catalog)
	artifactSvc := services.NewArtifactService(repo, catalog)
	costSvc := services.NewCostService(repo, catalog, resolver, engineOpts)
	lineageSvc := services.NewLineageService(repo, resolver, engineOpts)
	licenseSvc := services.NewLicenseService(repo, catalog, sourcehost)

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(artifactSvc, costSvc, lineageSvc, licenseSvc)

	// Setup router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1/registry")
	h.RegisterRoutes(api)

	// Health check with DB ping when postgres backs the registry
	router.GET("/healthz", func(c *gin.Context) {
		if pool != nil {
			if err := pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
