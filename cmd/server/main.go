/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the royalty engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags (and optional YAML config)
  2. Initialize SQLite store
  3. Create API handler with the engine wired to the store
  4. Configure HTTP router
  5. Start the batch scheduler if enabled
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: royalty.db)
           Use ":memory:" for an in-memory database
  -config  Optional YAML config file (scheduler, batch tuning);
           -port and -db override file values when set

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/royalty.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run with scheduler enabled
  ./server -config=config.yaml

SEE ALSO:
  - api/server.go: Router configuration
  - api/config.go: YAML configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quill/royalty-engine/api"
	"github.com/quill/royalty-engine/royalty"
	"github.com/quill/royalty-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg := api.DefaultConfig()
	if *configPath != "" {
		loaded, err := api.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler (wires the engine to the store)
	handler := api.NewHandler(store, cfg.BatchWorkers)

	// Create router
	router := api.NewRouter(handler)

	// Scheduler
	var scheduler *api.BatchScheduler
	if cfg.Scheduler.Enabled {
		tenants := make([]royalty.TenantID, len(cfg.Scheduler.Tenants))
		for i, t := range cfg.Scheduler.Tenants {
			tenants[i] = royalty.TenantID(t)
		}
		scheduler = api.NewBatchScheduler(store, handler, tenants)
		scheduler.Cadence = cfg.Scheduler.Cadence
		scheduler.CheckInterval = cfg.Scheduler.CheckInterval.Duration()
		scheduler.Start()
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
