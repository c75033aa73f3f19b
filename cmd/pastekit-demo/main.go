package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pastekit/pastekit/internal/common/config"
	"github.com/pastekit/pastekit/internal/common/httpmw"
	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/internal/common/tracing"
	"github.com/pastekit/pastekit/internal/demohost"
	"github.com/pastekit/pastekit/internal/events/bus"
	"github.com/pastekit/pastekit/internal/mediaclient"
	"github.com/pastekit/pastekit/internal/mediaserver/api"
	"github.com/pastekit/pastekit/internal/mediaserver/service"
	"github.com/pastekit/pastekit/internal/mediaserver/store"
	"github.com/pastekit/pastekit/internal/relay"
	"github.com/pastekit/pastekit/pkg/pastekit"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("Starting PasteKit demo service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Event bus: NATS when configured, in-memory otherwise
	var eventBus bus.EventBus
	if cfg.NATS.URL != "" {
		eventBus, err = bus.NewNATSEventBus(cfg.NATS, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		log.Info("Connected to NATS event bus", zap.String("url", cfg.NATS.URL))
	} else {
		eventBus = bus.NewMemoryEventBus(log)
		log.Info("Using in-memory event bus")
	}
	defer eventBus.Close()

	// 4. Media store and service
	repo, err := store.NewSQLiteRepository(cfg.Media.DBPath)
	if err != nil {
		log.Fatal("Failed to open media database", zap.Error(err))
	}
	defer repo.Close()

	mediaCfg := cfg.Media
	if mediaCfg.BaseURL == "" {
		mediaCfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	mediaSvc, err := service.NewService(repo, mediaCfg, cfg.Pending, log)
	if err != nil {
		log.Fatal("Failed to initialize media service", zap.Error(err))
	}

	// 5. Chat relay hub
	hub := relay.NewHub(log)

	// 6. HTTP server with Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(log, "pastekit-demo"))
	router.Use(httpmw.OtelTracing("pastekit-demo"))

	v1 := router.Group("/api/v1")
	api.SetupRoutes(v1, mediaSvc, log)

	handler := api.NewHandler(mediaSvc, log)
	router.GET("/health", handler.HealthCheck)
	router.GET("/ws", hub.ServeWS)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// 7. Wire the paste plugin against the demo host
	uploader := mediaclient.New(mediaCfg.BaseURL)
	h := demohost.New(cfg.Input.Region, "demo", hub, uploader, log)
	plugin := pastekit.New(cfg, h, eventBus, log)
	plugin.Attach(ctx)
	defer plugin.Detach()
	log.Info("Paste plugin attached", zap.String("region", cfg.Input.Region))

	// 8. Run hub and HTTP server
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// 9. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down PasteKit demo service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		log.Error("Service error", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracing shutdown error", zap.Error(err))
	}

	log.Info("PasteKit demo service stopped")
}
