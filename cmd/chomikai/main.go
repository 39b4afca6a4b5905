// Package main is the entry point for the ChomiKAI server application
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"chomikai/internal/config"
	"chomikai/internal/logging"
	"chomikai/internal/server"
	"chomikai/internal/telemetry"
	"chomikai/internal/version"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, especially in production
		if os.Getenv("DEBUG") == "true" {
			log.Printf("No .env file found or error loading it: %v", err)
		}
	}

	// Handle version flag first, before loading configuration
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-version" || os.Args[1] == "version") {
		versionInfo := version.Get()
		fmt.Printf("chomikai version %s\n", versionInfo.Version)
		fmt.Printf("  commit: %s\n", versionInfo.Commit)
		fmt.Printf("  built: %s\n", versionInfo.BuildDate)
		fmt.Printf("  go: %s\n", versionInfo.GoVersion)
		fmt.Printf("  platform: %s\n", versionInfo.Platform)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize file logging ONLY in development mode
	isDevelopment := os.Getenv("CHOMIKAI_ENV") == "development" || os.Getenv("DEBUG") == "true"

	if isDevelopment {
		logDir := cfg.LogDir
		if logDir == "" {
			logDir = "./logs"
		}
		if err := logging.Initialize(logDir); err != nil {
			log.Printf("Warning: Failed to initialize file logging: %v", err)
			// Continue with standard logging to stdout
		} else {
			defer logging.Close()
			log.Printf("Development logging initialized to %s", logDir)

			// Rotate the log file nightly so long-running dev servers
			// don't grow one unbounded file
			scheduler := cron.New()
			if _, err := scheduler.AddFunc("0 0 * * *", func() {
				if err := logging.RotateLogs(logDir); err != nil {
					logging.Errorf("Log rotation failed: %v", err)
				}
			}); err != nil {
				log.Printf("Warning: Failed to schedule log rotation: %v", err)
			} else {
				scheduler.Start()
				defer scheduler.Stop()
			}
		}
	} else {
		// In production, just use stdout (captured by systemd/Docker/etc)
		log.Printf("Running in production mode - logging to stdout only")
	}

	// Initialize telemetry
	ctx := context.Background()
	shutdown, err := telemetry.InitializeFromEnv(ctx, version.Version)
	if err != nil {
		log.Printf("Warning: Failed to initialize telemetry: %v", err)
		// Continue without telemetry
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Printf("Error shutting down telemetry: %v", err)
			}
		}()
	}

	// Create and start server
	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
