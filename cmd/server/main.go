// Command server is the entry point for the Civica governance backend.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civica/config"
	"civica/jobs"
	"civica/middleware"
	"civica/moderation"
	"civica/server"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:   "Civica Governance API",
		BodyLimit: 1 * 1024 * 1024,
	})

	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	// Background sweeps: penalty expiry and retention cleanup.
	retention := moderation.NewRetentionJob(srv.DB(), middleware.Logger, cfg.RetentionDays)
	scheduler := jobs.New(srv.Penalties(), retention, middleware.Logger)
	if err := scheduler.Start(cfg.ExpirySweepSpec, cfg.RetentionSweepSpec); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		scheduler.Stop()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server resource shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on port %s...", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
