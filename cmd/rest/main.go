package main

import (
	"context"
	"log"
	"time"

	"docvault-be/internal/bootstrap"
	"docvault-be/internal/config"
	"docvault-be/internal/server"
	"docvault-be/internal/tracer"
	"docvault-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (env-gated, no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	if container.NatsPublisher != nil {
		defer container.NatsPublisher.Close()
	}

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	if container.AuditService != nil {
		if err := container.AuditService.Start(); err != nil {
			log.Printf("Background Audit Error: %v", err)
		}
	}

	// Expired sessions are also dropped lazily on read; the sweeper just
	// keeps the table from accumulating abandoned conversations.
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			removed, err := container.Engine.SweepExpired(context.Background())
			if err != nil {
				log.Printf("Background Sweep Error: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("Background: Swept %d expired sessions", removed)
			}
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
