package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"booknest/internal/config"
	"booknest/internal/database"
	"booknest/internal/entrypoint"
	"booknest/internal/scheduler"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	switch os.Args[1] {
	case "sweep":
		// One-off cleanup of reviews that reference deleted books
		cfg := config.NewConfig()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		db, err := database.NewDatabase(ctx, cfg.Mongo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close(ctx)

		reconciler := scheduler.NewReviewReconciler(db, cfg.Reconcile)
		removed, err := reconciler.Sweep(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log.Printf("Sweep complete: removed %d orphaned review(s)", removed)

	case "version":
		fmt.Printf("booknest %s (%s)\n", Version, Commit)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Usage: %s [serve|sweep|version]\n", os.Args[0])
		os.Exit(1)
	}
}
