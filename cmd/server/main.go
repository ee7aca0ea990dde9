package main

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/pioneer-fleet/internal/api"
	"github.com/rongwang/pioneer-fleet/internal/catalog"
	"github.com/rongwang/pioneer-fleet/internal/config"
	"github.com/rongwang/pioneer-fleet/internal/fleet"
	"github.com/rongwang/pioneer-fleet/internal/metrics"
	"github.com/rongwang/pioneer-fleet/internal/repository"
	"github.com/rongwang/pioneer-fleet/internal/service"
	"github.com/rongwang/pioneer-fleet/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	logger := utils.NewLogger()
	registry := metrics.NewRegistry()

	// Load the ship catalog
	cat, err := catalog.Load(cfg.Store.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	logger.Info("Loaded %d catalog ships", cat.Len())

	// Set up the document backend
	backend, err := config.OpenBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to set up %s store: %v", cfg.Store.Backend, err)
	}
	logger.Info("Using %s document store", cfg.Store.Backend)

	normalizer := fleet.Normalizer{
		Catalog:          cat,
		DefaultAdminCode: cfg.Corpo.DefaultAdminCode,
		DefaultCorpoCode: cfg.Corpo.DefaultCorpoCode,
	}
	store := repository.NewDocumentStore(backend, normalizer, repository.Options{
		Timeout:  cfg.Store.Timeout,
		CacheTTL: cfg.Store.CacheTTL,
		MaxBytes: cfg.Store.MaxBytes,
	}, logger, registry)

	// Create service
	svc := service.NewDefaultService(store, cat, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger, registry)

	// Create API handler
	limiter := api.NewRateLimiter(cfg.Server.LoginRateLimit, cfg.Server.LoginRateBurst)
	handler := api.NewHandler(svc, registry, limiter)

	// Set up Gin router
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := serve(serverAddr, router, store, logger); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// serve runs the HTTP server and releases the store once it stops
func serve(addr string, handler http.Handler, store io.Closer, logger *utils.Logger) error {
	err := http.ListenAndServe(addr, handler)
	if closeErr := store.Close(); closeErr != nil {
		logger.Error("Failed to close document store: %v", closeErr)
	}
	return err
}
